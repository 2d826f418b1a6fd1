package reports

import (
	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// DSO averages the days between invoice date and due date across invoices
// carrying both. This is the agreed payment window, not the realised
// collection delay; the collection delay lives in CollectionRisk and the two
// are deliberately kept separate. Returns 0 with no qualifying invoices.
func DSO(invoices []billing.Invoice) float64 {
	var totalDays float64
	count := 0
	for _, inv := range invoices {
		if inv.Date.IsZero() || inv.DueDate.IsZero() {
			continue
		}
		totalDays += inv.DueDate.Sub(inv.Date).Hours() / 24
		count++
	}
	if count == 0 {
		return 0
	}
	return totalDays / float64(count)
}

// StatusBreakdown counts invoices per status. All four statuses are always
// present in the result.
func StatusBreakdown(invoices []billing.Invoice) map[billing.InvoiceStatus]int {
	counts := map[billing.InvoiceStatus]int{
		billing.StatusPaid:    0,
		billing.StatusPartial: 0,
		billing.StatusPending: 0,
		billing.StatusCredit:  0,
	}
	for _, inv := range invoices {
		counts[inv.Status]++
	}
	return counts
}

// MethodBreakdown counts payments per method across the invoice set.
func MethodBreakdown(invoices []billing.Invoice) map[string]int {
	counts := make(map[string]int)
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			method := p.Method
			if method == "" {
				method = "Unknown"
			}
			counts[method]++
		}
	}
	return counts
}

// Summary carries the headline dashboard figures.
type Summary struct {
	TotalInvoiced   float64 `json:"totalInvoiced"`
	Collected       float64 `json:"collected"`
	Outstanding     float64 `json:"outstanding"`
	CommissionTotal float64 `json:"commissionTotal"`
	InvoiceCount    int     `json:"invoiceCount"`
	PaidCount       int     `json:"paidCount"`
}

// Summarize computes the headline KPI card from the invoice set.
func Summarize(invoices []billing.Invoice) Summary {
	var sum Summary
	for _, inv := range invoices {
		sum.TotalInvoiced += inv.Total
		sum.Collected += inv.Paid()
		sum.CommissionTotal += inv.Commission
		sum.InvoiceCount++
		switch inv.Status {
		case billing.StatusPaid:
			sum.PaidCount++
		case billing.StatusPending, billing.StatusPartial, billing.StatusCredit:
			sum.Outstanding += inv.Outstanding()
		}
	}
	return sum
}

// LedgerRow is one customer's position: lifetime revenue, open balance and
// how much of the credit limit that balance consumes.
type LedgerRow struct {
	CustomerID     string  `json:"customerId"`
	Name           string  `json:"name"`
	Revenue        float64 `json:"revenue"`
	Outstanding    float64 `json:"outstanding"`
	CreditLimit    float64 `json:"creditLimit"`
	CreditUsagePct int     `json:"creditUsagePct"`
	Invoices       int     `json:"invoices"`
}

// CustomerLedger derives per-customer balances from the snapshot. Customers
// without invoices in the filtered set are omitted. Rows are ordered by
// descending outstanding balance.
func CustomerLedger(snap Snapshot) []LedgerRow {
	type acc struct {
		revenue     float64
		outstanding float64
		count       int
	}
	byCust := make(map[string]*acc)
	for _, inv := range snap.Invoices {
		cid := inv.CustomerID
		if cid == "" {
			cid = "unknown"
		}
		a := byCust[cid]
		if a == nil {
			a = &acc{}
			byCust[cid] = a
		}
		a.revenue += inv.Total
		a.outstanding += inv.Outstanding()
		a.count++
	}

	rows := make([]LedgerRow, 0, len(byCust))
	for cid, a := range byCust {
		row := LedgerRow{
			CustomerID:  cid,
			Name:        snap.CustomerName(cid),
			Revenue:     a.revenue,
			Outstanding: a.outstanding,
			Invoices:    a.count,
		}
		for _, c := range snap.Customers {
			if c.ID == cid {
				row.CreditLimit = c.CreditLimit
				break
			}
		}
		if row.CreditLimit > 0 {
			pct := int(roundHalfUp(row.Outstanding / row.CreditLimit * 100))
			if pct > 100 {
				pct = 100
			}
			row.CreditUsagePct = pct
		}
		rows = append(rows, row)
	}
	sortRows(rows, func(a, b LedgerRow) bool {
		if a.Outstanding != b.Outstanding {
			return a.Outstanding > b.Outstanding
		}
		return a.CustomerID < b.CustomerID
	})
	return rows
}
