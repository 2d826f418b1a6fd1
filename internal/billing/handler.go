package billing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerkite/ledgerkite/internal/platform/httpx"
)

// Handler exposes the billing workflows as a JSON API.
type Handler struct {
	logger  *slog.Logger
	manager *Manager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", h.listBusinesses)
		r.Post("/", h.createBusiness)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Put("/{id}", h.updateCustomer)
	})
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.listServices)
		r.Post("/", h.createService)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.createExpense)
	})
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.createInvoice)
		r.Post("/import", h.importInvoices)
		r.Get("/{id}", h.getInvoice)
		r.Post("/{id}/payments", h.registerPayment)
	})
}

// respondError translates manager failures into problem responses.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, verr.Error()))
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrConflict):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, err.Error()))
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listBusinesses(w http.ResponseWriter, r *http.Request) {
	out, err := h.manager.ListBusinesses(r.Context())
	if err != nil {
		h.respondError(w, "list businesses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createBusiness(w http.ResponseWriter, r *http.Request) {
	var input BusinessInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	b, err := h.manager.CreateBusiness(r.Context(), input)
	if err != nil {
		h.respondError(w, "create business", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := h.manager.ListCustomers(r.Context(), r.URL.Query().Get("business_id"))
	if err != nil {
		h.respondError(w, "list customers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var input CustomerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	c, err := h.manager.CreateCustomer(r.Context(), input)
	if err != nil {
		h.respondError(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var input CustomerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	c, err := h.manager.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	out, err := h.manager.ListServices(r.Context(), r.URL.Query().Get("business_id"))
	if err != nil {
		h.respondError(w, "list services", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var input ServiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	s, err := h.manager.CreateService(r.Context(), input)
	if err != nil {
		h.respondError(w, "create service", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	out, err := h.manager.ListExpenses(r.Context())
	if err != nil {
		h.respondError(w, "list expenses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var input ExpenseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	e, err := h.manager.CreateExpense(r.Context(), input)
	if err != nil {
		h.respondError(w, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	out, err := h.manager.ListInvoices(r.Context())
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.manager.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var input InvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	inv, err := h.manager.CreateInvoice(r.Context(), input)
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	inv, err := h.manager.RegisterPayment(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, "register payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) importInvoices(w http.ResponseWriter, r *http.Request) {
	var raws []RawInvoice
	if err := httpx.DecodeJSON(r, &raws); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	out, err := h.manager.ImportInvoices(r.Context(), raws)
	if err != nil {
		h.respondError(w, "import invoices", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"imported": len(out), "invoices": out})
}
