package reports

import (
	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// CommissionAllocation is a flat invoice commission split onto one line
// item, proportional to the item's share of the invoice's line total.
type CommissionAllocation struct {
	InvoiceID  string  `json:"invoiceId"`
	ServiceID  string  `json:"serviceId"`
	BusinessID string  `json:"businessId"`
	CustomerID string  `json:"customerId"`
	Month      string  `json:"month"`
	Amount     float64 `json:"amount"`
}

// AllocateCommission splits each invoice's commission across its line items
// by (qty*rate) share; a zero line total splits evenly. Invoices without
// commission or without items allocate nothing. The allocations for one
// invoice always sum back to its commission.
func AllocateCommission(invoices []billing.Invoice) []CommissionAllocation {
	var out []CommissionAllocation
	for _, inv := range invoices {
		if inv.Commission == 0 || len(inv.Items) == 0 {
			continue
		}
		var lineSum float64
		for _, it := range inv.Items {
			lineSum += it.Qty * it.Rate
		}
		month := "Unknown"
		if !inv.Date.IsZero() {
			month = MonthKey(inv.Date)
		}
		for _, it := range inv.Items {
			share := 1 / float64(len(inv.Items))
			if lineSum > 0 {
				share = it.Qty * it.Rate / lineSum
			}
			serviceID := it.ServiceID
			if serviceID == "" {
				serviceID = "svc_unknown"
			}
			out = append(out, CommissionAllocation{
				InvoiceID:  inv.ID,
				ServiceID:  serviceID,
				BusinessID: inv.BusinessID,
				CustomerID: inv.CustomerID,
				Month:      month,
				Amount:     inv.Commission * share,
			})
		}
	}
	return out
}

// CommissionReport aggregates allocated commission along four independent
// axes. These are parallel sums over the same allocation set, not a
// hierarchy.
type CommissionReport struct {
	ByService  map[string]float64 `json:"byService"`
	ByBusiness map[string]float64 `json:"byBusiness"`
	ByCustomer map[string]float64 `json:"byCustomer"`
	ByMonth    map[string]float64 `json:"byMonth"`
	Total      float64            `json:"total"`
}

// CommissionSummary allocates and aggregates commission for the invoice set.
func CommissionSummary(invoices []billing.Invoice) CommissionReport {
	allocs := AllocateCommission(invoices)
	report := CommissionReport{
		ByService:  SumBy(allocs, func(a CommissionAllocation) string { return a.ServiceID }, allocAmount),
		ByBusiness: SumBy(allocs, func(a CommissionAllocation) string { return a.BusinessID }, allocAmount),
		ByCustomer: SumBy(allocs, func(a CommissionAllocation) string { return a.CustomerID }, allocAmount),
		ByMonth:    SumBy(allocs, func(a CommissionAllocation) string { return a.Month }, allocAmount),
	}
	for _, a := range allocs {
		report.Total += a.Amount
	}
	return report
}

func allocAmount(a CommissionAllocation) float64 {
	return a.Amount
}
