package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerkite/ledgerkite/internal/platform/httpx"
)

// Handler exposes the derived reports as a JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.getSummary)
	r.Get("/aging", h.getAging)
	r.Get("/dso", h.getDSO)
	r.Get("/status", h.getStatus)
	r.Get("/methods", h.getMethods)
	r.Get("/cashflow", h.getCashflow)
	r.Get("/categories", h.getCategories)
	r.Get("/burn", h.getBurn)
	r.Get("/pareto", h.getPareto)
	r.Get("/clv", h.getCLV)
	r.Get("/risk", h.getRisk)
	r.Get("/forecast", h.getForecast)
	r.Get("/commission", h.getCommission)
	r.Get("/ledger", h.getLedger)
	r.Get("/dashboard", h.getDashboard)
}

// parseFilter reads the common scoping params. Bad dates are ignored
// rather than rejected; a missing bound means unbounded.
func parseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{
		BusinessID: q.Get("business_id"),
		CustomerID: q.Get("customer_id"),
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		f.From = from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		f.To = to
	}
	return f
}

func (h *Handler) respond(w http.ResponseWriter, op string, data any, err error) {
	if err != nil {
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetSummary(r.Context(), parseFilter(r))
	h.respond(w, "summary report", out, err)
}

func (h *Handler) getAging(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if parsed, err := time.Parse("2006-01-02", r.URL.Query().Get("as_of")); err == nil {
		asOf = parsed
	}
	out, err := h.service.GetAging(r.Context(), parseFilter(r), asOf)
	h.respond(w, "aging report", out, err)
}

func (h *Handler) getDSO(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetDSO(r.Context(), parseFilter(r))
	h.respond(w, "dso report", map[string]float64{"dso": out}, err)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetStatusBreakdown(r.Context(), parseFilter(r))
	h.respond(w, "status report", out, err)
}

func (h *Handler) getMethods(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetMethodBreakdown(r.Context(), parseFilter(r))
	h.respond(w, "methods report", out, err)
}

func (h *Handler) getCashflow(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCashflow(r.Context(), parseFilter(r))
	h.respond(w, "cashflow report", out, err)
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCategoryTrend(r.Context(), parseFilter(r))
	h.respond(w, "categories report", out, err)
}

func (h *Handler) getBurn(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetBurn(r.Context(), parseFilter(r))
	h.respond(w, "burn report", out, err)
}

func (h *Handler) getPareto(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetPareto(r.Context(), parseFilter(r))
	h.respond(w, "pareto report", out, err)
}

func (h *Handler) getCLV(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCLV(r.Context(), parseFilter(r))
	h.respond(w, "clv report", out, err)
}

func (h *Handler) getRisk(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetRisk(r.Context(), parseFilter(r))
	h.respond(w, "risk report", out, err)
}

func (h *Handler) getForecast(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetForecast(r.Context(), parseFilter(r))
	h.respond(w, "forecast report", out, err)
}

func (h *Handler) getCommission(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCommission(r.Context(), parseFilter(r))
	h.respond(w, "commission report", out, err)
}

func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetLedger(r.Context(), parseFilter(r))
	h.respond(w, "ledger report", out, err)
}

// Dashboard bundles the widgets the overview page renders in one call.
type Dashboard struct {
	Summary  Summary            `json:"summary"`
	Aging    map[string]float64 `json:"aging"`
	DSO      float64            `json:"dso"`
	Status   map[string]int     `json:"status"`
	Cashflow []CashflowPoint    `json:"cashflow"`
	Burn     BurnForecast       `json:"burn"`
	Forecast ForecastResult     `json:"forecast"`
	Risk     []RiskRow          `json:"risk"`
}

// getDashboard fans the widget computations out concurrently; each widget
// still resolves through the cache on its own key.
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	var dash Dashboard

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		dash.Summary, err = h.service.GetSummary(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Aging, err = h.service.GetAging(ctx, f, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		dash.DSO, err = h.service.GetDSO(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Status, err = h.service.GetStatusBreakdown(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Cashflow, err = h.service.GetCashflow(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Burn, err = h.service.GetBurn(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Forecast, err = h.service.GetForecast(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		dash.Risk, err = h.service.GetRisk(ctx, f)
		return err
	})

	if err := g.Wait(); err != nil {
		h.logger.Error("dashboard report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}
