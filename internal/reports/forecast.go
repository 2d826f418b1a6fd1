package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// SeriesPoint is one labelled value in an ordered period series.
type SeriesPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Fit holds an ordinary-least-squares line y = Intercept + Slope*x.
type Fit struct {
	Intercept float64
	Slope     float64
}

// FitLinear fits y = a + b*x over x = 1..n. Needs at least two points;
// ok is false otherwise. A degenerate denominator yields slope 0 instead of
// dividing by zero (unreachable for n >= 2, guarded regardless).
func FitLinear(values []float64) (Fit, bool) {
	n := len(values)
	if n < 2 {
		return Fit{}, false
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn
	return Fit{Intercept: intercept, Slope: slope}, true
}

// Forecast projects horizon future periods off the fitted line, clamped at
// zero. Fewer than two observed points produce no forecast.
func Forecast(series []SeriesPoint, horizon int) []SeriesPoint {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	fit, ok := FitLinear(values)
	if !ok || horizon <= 0 {
		return nil
	}

	var labels []string
	if len(series) > 0 {
		labels = NextMonthKeys(series[len(series)-1].Period, horizon)
	}

	out := make([]SeriesPoint, 0, horizon)
	for k := 1; k <= horizon; k++ {
		y := fit.Intercept + fit.Slope*float64(len(series)+k)
		if y < 0 {
			y = 0
		}
		point := SeriesPoint{Value: y}
		if len(labels) >= k {
			point.Period = labels[k-1]
		}
		out = append(out, point)
	}
	return out
}

// NextMonthKeys generates the k month keys following last (YYYY-MM).
// A malformed label yields no keys.
func NextMonthKeys(last string, k int) []string {
	parts := strings.SplitN(last, "-", 2)
	if len(parts) != 2 {
		return nil
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return nil
	}
	keys := make([]string, 0, k)
	for i := 0; i < k; i++ {
		month++
		if month > 12 {
			month = 1
			year++
		}
		keys = append(keys, fmt.Sprintf("%04d-%02d", year, month))
	}
	return keys
}

// MonthlyRevenue buckets realised revenue (payments) by month, sorted by
// period. Payments without a date fall back to the invoice date; payments
// with no usable date at all are skipped.
func MonthlyRevenue(invoices []billing.Invoice) []SeriesPoint {
	byMonth := make(map[string]float64)
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			date := p.Date
			if date.IsZero() {
				date = inv.Date
			}
			if date.IsZero() {
				continue
			}
			byMonth[MonthKey(date)] += p.Amount
		}
	}
	series := make([]SeriesPoint, 0, len(byMonth))
	for _, key := range sortedKeys(byMonth) {
		series = append(series, SeriesPoint{Period: key, Value: byMonth[key]})
	}
	return series
}

// BurnForecast projects whether the month's collections are on pace for the
// revenue goal.
type BurnForecast struct {
	Goal        float64 `json:"goal"`
	Collected   float64 `json:"collected"`
	Projected   float64 `json:"projected"`
	DaysElapsed int     `json:"daysElapsed"`
	DaysInMonth int     `json:"daysInMonth"`
	MeetsGoal   bool    `json:"meetsGoal"`
}

// Burn extrapolates the current month's collected revenue across the full
// month and compares it against the goal.
func Burn(invoices []billing.Invoice, goal float64, now time.Time) BurnForecast {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)

	var collected float64
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			date := p.Date
			if date.IsZero() {
				date = inv.Date
			}
			if date.IsZero() || date.Before(monthStart) || !date.Before(monthStart.AddDate(0, 1, 0)) {
				continue
			}
			collected += p.Amount
		}
	}

	daysElapsed := now.Day()
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	daysInMonth := monthEnd.Day()

	projected := collected / float64(daysElapsed) * float64(daysInMonth)
	return BurnForecast{
		Goal:        goal,
		Collected:   collected,
		Projected:   projected,
		DaysElapsed: daysElapsed,
		DaysInMonth: daysInMonth,
		MeetsGoal:   projected >= goal,
	}
}
