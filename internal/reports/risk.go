package reports

import (
	"time"
)

// RiskRow scores one customer's collection risk (0 best, 100 worst).
type RiskRow struct {
	CustomerID  string `json:"customerId"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	AvgLateDays int    `json:"avgLateDays"`
	Invoices    int    `json:"invoices"`
}

// CollectionRisk scores customers by how late they settle. For each invoice
// with a due date, the late-day count is the gap between the due date and
// the last payment; unpaid invoices count the gap to now instead. Only
// positive gaps register. The score scales the average lateness against a
// 90-day ceiling. Customers without invoices in the snapshot are excluded.
func CollectionRisk(snap Snapshot, now time.Time) []RiskRow {
	rows := make([]RiskRow, 0, len(snap.Customers))
	for _, cust := range snap.Customers {
		var lateDays []int
		invoiceCount := 0
		for _, inv := range snap.Invoices {
			if inv.CustomerID != cust.ID {
				continue
			}
			invoiceCount++
			if inv.DueDate.IsZero() {
				continue
			}
			var lastPay time.Time
			for _, p := range inv.Payments {
				if p.Date.After(lastPay) {
					lastPay = p.Date
				}
			}
			if !lastPay.IsZero() {
				if diff := DaysBetween(inv.DueDate, lastPay); diff > 0 {
					lateDays = append(lateDays, diff)
				}
			} else if diff := DaysBetween(inv.DueDate, now); diff > 0 {
				// Unpaid past due counts as late until today.
				lateDays = append(lateDays, diff)
			}
		}
		if invoiceCount == 0 {
			continue
		}
		var avgLate float64
		if len(lateDays) > 0 {
			sum := 0
			for _, d := range lateDays {
				sum += d
			}
			avgLate = float64(sum) / float64(len(lateDays))
		}
		score := int(roundHalfUp(avgLate / 90 * 100))
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		rows = append(rows, RiskRow{
			CustomerID:  cust.ID,
			Name:        cust.Name,
			Score:       score,
			AvgLateDays: int(roundHalfUp(avgLate)),
			Invoices:    invoiceCount,
		})
	}
	sortRows(rows, func(a, b RiskRow) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.CustomerID < b.CustomerID
	})
	return rows
}
