package reports

import (
	"math"
	"sort"
	"time"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// Snapshot is an immutable view of the dataset a derivation pass runs over.
// Every metric recomputes fully from the snapshot; nothing here is mutated.
type Snapshot struct {
	Invoices   []billing.Invoice
	Customers  []billing.Customer
	Businesses []billing.Business
	Services   []billing.Service
	Expenses   []billing.Expense
}

// Filter scopes a derivation pass. Zero values mean "no constraint".
type Filter struct {
	From       time.Time
	To         time.Time
	BusinessID string
	CustomerID string
}

// Apply returns the invoices matching the filter. Invoices with an unknown
// date pass the date constraints; they can still carry balances.
func (f Filter) Apply(invoices []billing.Invoice) []billing.Invoice {
	out := make([]billing.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if f.BusinessID != "" && inv.BusinessID != f.BusinessID {
			continue
		}
		if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
			continue
		}
		if !inv.Date.IsZero() {
			if !f.From.IsZero() && inv.Date.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && inv.Date.After(f.To) {
				continue
			}
		}
		out = append(out, inv)
	}
	return out
}

// Scoped returns a copy of the snapshot with invoices and expenses reduced
// to the filter's scope.
func (s Snapshot) Scoped(f Filter) Snapshot {
	scoped := s
	scoped.Invoices = f.Apply(s.Invoices)
	if f.BusinessID != "" {
		expenses := make([]billing.Expense, 0, len(s.Expenses))
		for _, e := range s.Expenses {
			if e.BusinessID == f.BusinessID {
				expenses = append(expenses, e)
			}
		}
		scoped.Expenses = expenses
	}
	return scoped
}

// CustomerName resolves a customer id for row labelling.
func (s Snapshot) CustomerName(id string) string {
	for _, c := range s.Customers {
		if c.ID == id {
			return c.Name
		}
	}
	return "Unknown"
}

// ServiceName resolves a service id for row labelling.
func (s Snapshot) ServiceName(id string) string {
	for _, svc := range s.Services {
		if svc.ID == id {
			return svc.Name
		}
	}
	return id
}

// MonthKey formats a month bucket key (YYYY-MM).
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey formats a day bucket key (YYYY-MM-DD).
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysBetween counts whole days from a to b, rounded to the nearest day.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// SumBy groups records by keyFn and sums valueFn per key. NaN and infinite
// values count as 0 so a corrupt record never poisons a sum. Key order is
// unspecified; sort downstream when determinism matters.
func SumBy[T any](records []T, keyFn func(T) string, valueFn func(T) float64) map[string]float64 {
	out := make(map[string]float64, len(records))
	for _, rec := range records {
		v := valueFn(rec)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[keyFn(rec)] += v
	}
	return out
}

func roundHalfUp(v float64) float64 {
	return math.Round(v)
}

// sortRows orders ranked report rows deterministically.
func sortRows[T any](rows []T, less func(a, b T) bool) {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

// sortedKeys returns map keys in ascending order for stable series output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CountBy groups records by keyFn and counts occurrences per key.
func CountBy[T any](records []T, keyFn func(T) string) map[string]int {
	out := make(map[string]int, len(records))
	for _, rec := range records {
		out[keyFn(rec)]++
	}
	return out
}
