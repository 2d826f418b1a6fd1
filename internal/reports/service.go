package reports

import (
	"context"
	"time"
)

// SnapshotLoader supplies the dataset a derivation pass runs over.
// StoreLoader adapts the billing repository to it; tests stub it.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// Service coordinates snapshot loading, the pure derivation functions and
// the cache. Every call recomputes from a fresh snapshot on cache miss;
// the derivations themselves hold no state between calls.
type Service struct {
	loader SnapshotLoader
	cache  *Cache
	goal   float64
	now    func() time.Time
}

// NewService wires a SnapshotLoader with the cache helper. goal is the
// monthly revenue target used by the burn forecast.
func NewService(loader SnapshotLoader, cache *Cache, goal float64) *Service {
	return &Service{loader: loader, cache: cache, goal: goal, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Bump invalidates all cached reports.
func (s *Service) Bump(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

func (s *Service) scoped(ctx context.Context, f Filter) (Snapshot, error) {
	snap, err := s.loader.LoadSnapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return snap.Scoped(f), nil
}

// fetch runs loader through the versioned cache when one is configured.
func (s *Service) fetch(ctx context.Context, keyParts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return copyJSON(value, dest)
	}
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

// GetSummary resolves the headline KPI card.
func (s *Service) GetSummary(ctx context.Context, f Filter) (Summary, error) {
	var out Summary
	err := s.fetch(ctx, reportKey("summary", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return Summarize(snap.Invoices), nil
	})
	return out, err
}

// GetAging resolves outstanding-balance aging buckets as of asOf
// (defaulting to today).
func (s *Service) GetAging(ctx context.Context, f Filter, asOf time.Time) (map[string]float64, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC().Truncate(24 * time.Hour)
	}
	var out map[string]float64
	key := reportKey("aging", f, asOf.Format("2006-01-02"))
	err := s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return AgingBuckets(snap.Invoices, asOf), nil
	})
	return out, err
}

// GetDSO resolves the average invoice-to-due-date window in days.
func (s *Service) GetDSO(ctx context.Context, f Filter) (float64, error) {
	var out float64
	err := s.fetch(ctx, reportKey("dso", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return DSO(snap.Invoices), nil
	})
	return out, err
}

// GetStatusBreakdown resolves invoice counts per status.
func (s *Service) GetStatusBreakdown(ctx context.Context, f Filter) (map[string]int, error) {
	var out map[string]int
	err := s.fetch(ctx, reportKey("status", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		counts := StatusBreakdown(snap.Invoices)
		plain := make(map[string]int, len(counts))
		for status, n := range counts {
			plain[string(status)] = n
		}
		return plain, nil
	})
	return out, err
}

// GetMethodBreakdown resolves payment counts per method.
func (s *Service) GetMethodBreakdown(ctx context.Context, f Filter) (map[string]int, error) {
	var out map[string]int
	err := s.fetch(ctx, reportKey("methods", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return MethodBreakdown(snap.Invoices), nil
	})
	return out, err
}

// GetCashflow resolves the daily income-vs-expense timeline.
func (s *Service) GetCashflow(ctx context.Context, f Filter) ([]CashflowPoint, error) {
	var out []CashflowPoint
	err := s.fetch(ctx, reportKey("cashflow", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return CashflowTimeline(snap.Invoices, snap.Expenses), nil
	})
	return out, err
}

// GetCategoryTrend resolves the top-5 service revenue trend by month.
func (s *Service) GetCategoryTrend(ctx context.Context, f Filter) (CategoryTrend, error) {
	var out CategoryTrend
	err := s.fetch(ctx, reportKey("categories", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return TopCategoryTrend(snap, 5), nil
	})
	return out, err
}

// GetBurn resolves the monthly revenue pace projection.
func (s *Service) GetBurn(ctx context.Context, f Filter) (BurnForecast, error) {
	now := s.now()
	var out BurnForecast
	key := reportKey("burn", f, now.Format("2006-01-02"))
	err := s.fetch(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return Burn(snap.Invoices, s.goal, now), nil
	})
	return out, err
}

// GetPareto resolves revenue concentration across customers.
func (s *Service) GetPareto(ctx context.Context, f Filter) (ParetoResult, error) {
	var out ParetoResult
	err := s.fetch(ctx, reportKey("pareto", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return Pareto(snap), nil
	})
	return out, err
}

// GetCLV resolves ranked customer lifetime value estimates.
func (s *Service) GetCLV(ctx context.Context, f Filter) ([]CLVRow, error) {
	var out []CLVRow
	err := s.fetch(ctx, reportKey("clv", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return CLVRows(snap, s.now()), nil
	})
	return out, err
}

// GetRisk resolves ranked collection risk scores.
func (s *Service) GetRisk(ctx context.Context, f Filter) ([]RiskRow, error) {
	var out []RiskRow
	err := s.fetch(ctx, reportKey("risk", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return CollectionRisk(snap, s.now()), nil
	})
	return out, err
}

// ForecastResult pairs the observed revenue series with its projection.
type ForecastResult struct {
	Actual   []SeriesPoint `json:"actual"`
	Forecast []SeriesPoint `json:"forecast"`
}

// GetForecast resolves the 3-month revenue projection.
func (s *Service) GetForecast(ctx context.Context, f Filter) (ForecastResult, error) {
	var out ForecastResult
	err := s.fetch(ctx, reportKey("forecast", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		actual := MonthlyRevenue(snap.Invoices)
		return ForecastResult{Actual: actual, Forecast: Forecast(actual, 3)}, nil
	})
	return out, err
}

// GetCommission resolves the four-way allocated commission aggregation.
func (s *Service) GetCommission(ctx context.Context, f Filter) (CommissionReport, error) {
	var out CommissionReport
	err := s.fetch(ctx, reportKey("commission", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return CommissionSummary(snap.Invoices), nil
	})
	return out, err
}

// GetLedger resolves per-customer balances and credit usage.
func (s *Service) GetLedger(ctx context.Context, f Filter) ([]LedgerRow, error) {
	var out []LedgerRow
	err := s.fetch(ctx, reportKey("ledger", f), &out, func(ctx context.Context) (interface{}, error) {
		snap, err := s.scoped(ctx, f)
		if err != nil {
			return nil, err
		}
		return CustomerLedger(snap), nil
	})
	return out, err
}
