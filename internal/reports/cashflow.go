package reports

import (
	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// CashflowPoint pairs one day's collected income with its recorded
// expenses.
type CashflowPoint struct {
	Day     string  `json:"day"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// CashflowTimeline builds the daily income-vs-expense series. Income comes
// from invoice payments, expenses from the expense records; days appear when
// either side has movement, sorted ascending.
func CashflowTimeline(invoices []billing.Invoice, expenses []billing.Expense) []CashflowPoint {
	income := make(map[string]float64)
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			date := p.Date
			if date.IsZero() {
				date = inv.Date
			}
			if date.IsZero() {
				continue
			}
			income[DayKey(date)] += p.Amount
		}
	}

	expense := make(map[string]float64)
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		expense[DayKey(e.Date)] += e.Amount
	}

	days := make(map[string]struct{}, len(income)+len(expense))
	for d := range income {
		days[d] = struct{}{}
	}
	for d := range expense {
		days[d] = struct{}{}
	}

	points := make([]CashflowPoint, 0, len(days))
	for _, d := range sortedKeys(days) {
		points = append(points, CashflowPoint{Day: d, Income: income[d], Expense: expense[d]})
	}
	return points
}

// CategoryTrend is a month-by-service revenue matrix restricted to the top
// revenue categories.
type CategoryTrend struct {
	Months     []string             `json:"months"`
	Categories []string             `json:"categories"`
	Series     map[string][]float64 `json:"series"`
}

// TopCategoryTrend derives month-over-month revenue per service category,
// keeping the topN categories by overall revenue. Line amounts are the
// canonical qty*rate figures; invoices without a date count against the
// "Unknown" month.
func TopCategoryTrend(snap Snapshot, topN int) CategoryTrend {
	byMonthCat := make(map[string]map[string]float64)
	totals := make(map[string]float64)
	for _, inv := range snap.Invoices {
		month := "Unknown"
		if !inv.Date.IsZero() {
			month = MonthKey(inv.Date)
		}
		for _, it := range inv.Items {
			cat := snap.ServiceName(it.ServiceID)
			if cat == "" {
				cat = "Uncategorized"
			}
			if byMonthCat[month] == nil {
				byMonthCat[month] = make(map[string]float64)
			}
			byMonthCat[month][cat] += it.Amount
			totals[cat] += it.Amount
		}
	}

	months := sortedKeys(byMonthCat)

	type catTotal struct {
		name  string
		total float64
	}
	ranked := make([]catTotal, 0, len(totals))
	for name, total := range totals {
		ranked = append(ranked, catTotal{name, total})
	}
	sortRows(ranked, func(a, b catTotal) bool {
		if a.total != b.total {
			return a.total > b.total
		}
		return a.name < b.name
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	trend := CategoryTrend{Months: months, Series: make(map[string][]float64, len(ranked))}
	for _, cat := range ranked {
		trend.Categories = append(trend.Categories, cat.name)
		series := make([]float64, len(months))
		for i, m := range months {
			series[i] = byMonthCat[m][cat.name]
		}
		trend.Series[cat.name] = series
	}
	return trend
}
