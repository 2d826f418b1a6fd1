package reports

import (
	"math"
	"time"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// RetentionMonths is the fixed projection horizon used by the CLV estimate.
const RetentionMonths = 12

// CLVRow is one customer's lifetime value estimate. The figure is a simple
// projection (avg invoice x monthly frequency x retention horizon), a
// business heuristic rather than a probabilistic model.
type CLVRow struct {
	CustomerID   string  `json:"customerId"`
	Name         string  `json:"name"`
	AvgInvoice   float64 `json:"avgInvoice"`
	FreqPerMonth float64 `json:"freqPerMonth"`
	CLV          float64 `json:"clv"`
	Invoices     int     `json:"invoices"`
}

// CLVRows estimates lifetime value per customer over the snapshot's
// invoices, ranked descending. Invoices without a date count against the
// current month. Customers absent from the invoice set are omitted.
func CLVRows(snap Snapshot, now time.Time) []CLVRow {
	type acc struct {
		total  float64
		months map[string]struct{}
		count  int
	}
	byCust := make(map[string]*acc)
	for _, inv := range snap.Invoices {
		cid := inv.CustomerID
		if cid == "" {
			cid = "unknown"
		}
		a := byCust[cid]
		if a == nil {
			a = &acc{months: make(map[string]struct{})}
			byCust[cid] = a
		}
		a.total += inv.Total
		date := inv.Date
		if date.IsZero() {
			date = now
		}
		a.months[MonthKey(date)] = struct{}{}
		a.count++
	}

	rows := make([]CLVRow, 0, len(byCust))
	for cid, a := range byCust {
		var avgInvoice float64
		if a.count > 0 {
			avgInvoice = a.total / float64(a.count)
		}
		monthsActive := len(a.months)
		if monthsActive < 1 {
			monthsActive = 1
		}
		freq := float64(a.count) / float64(monthsActive)
		rows = append(rows, CLVRow{
			CustomerID:   cid,
			Name:         snap.CustomerName(cid),
			AvgInvoice:   avgInvoice,
			FreqPerMonth: freq,
			CLV:          avgInvoice * freq * RetentionMonths,
			Invoices:     a.count,
		})
	}
	sortRows(rows, func(a, b CLVRow) bool {
		if a.CLV != b.CLV {
			return a.CLV > b.CLV
		}
		return a.CustomerID < b.CustomerID
	})
	return rows
}

// ParetoRow is one customer's revenue contribution.
type ParetoRow struct {
	CustomerID    string  `json:"customerId"`
	Name          string  `json:"name"`
	Revenue       float64 `json:"revenue"`
	CumulativePct int     `json:"cumulativePct"`
}

// ParetoResult captures revenue concentration: ranked rows plus the share
// held by the top 20% of customers.
type ParetoResult struct {
	Rows     []ParetoRow `json:"rows"`
	TopCount int         `json:"topCount"`
	TopShare int         `json:"topShare"`
}

// Pareto ranks customers by revenue and reports the cumulative distribution.
// TopCount is 20% of customers rounded up, never below 1. A zero revenue
// total yields zero shares rather than dividing by zero.
func Pareto(snap Snapshot) ParetoResult {
	revenue := SumBy(snap.Invoices, func(inv billing.Invoice) string {
		if inv.CustomerID == "" {
			return "unknown"
		}
		return inv.CustomerID
	}, func(inv billing.Invoice) float64 { return inv.Total })

	rows := make([]ParetoRow, 0, len(revenue))
	for cid, rev := range revenue {
		rows = append(rows, ParetoRow{CustomerID: cid, Name: snap.CustomerName(cid), Revenue: rev})
	}
	sortRows(rows, func(a, b ParetoRow) bool {
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.CustomerID < b.CustomerID
	})

	var totalRev float64
	for _, r := range rows {
		totalRev += r.Revenue
	}

	result := ParetoResult{Rows: rows}
	if len(rows) == 0 {
		return result
	}

	var cum float64
	for i := range rows {
		cum += rows[i].Revenue
		if totalRev > 0 {
			rows[i].CumulativePct = int(roundHalfUp(cum / totalRev * 100))
		}
	}

	topCount := int(math.Ceil(float64(len(rows)) * 0.2))
	if topCount < 1 {
		topCount = 1
	}
	result.TopCount = topCount
	if totalRev > 0 {
		var topRev float64
		for _, r := range rows[:topCount] {
			topRev += r.Revenue
		}
		result.TopShare = int(roundHalfUp(topRev / totalRev * 100))
	}
	return result
}
