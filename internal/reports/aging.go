package reports

import (
	"time"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// Aging bucket labels, ordered.
var AgingBucketLabels = []string{"0-30", "31-60", "61-90", "90+"}

// AgingBuckets classifies outstanding balances by days overdue as of asOf.
// The day count anchors on the due date when known, falling back to the
// invoice date and finally to asOf itself (bucket "0-30"). Settled invoices
// contribute nothing. Day 30 lands in "0-30", day 60 in "31-60", and so on.
func AgingBuckets(invoices []billing.Invoice, asOf time.Time) map[string]float64 {
	buckets := map[string]float64{"0-30": 0, "31-60": 0, "61-90": 0, "90+": 0}
	for _, inv := range invoices {
		due := inv.Outstanding()
		if due <= 0 {
			continue
		}
		anchor := inv.DueDate
		if anchor.IsZero() {
			anchor = inv.Date
		}
		if anchor.IsZero() {
			anchor = asOf
		}
		buckets[agingBucket(DaysBetween(anchor, asOf))] += due
	}
	return buckets
}

func agingBucket(days int) string {
	switch {
	case days <= 30:
		return "0-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	default:
		return "90+"
	}
}
