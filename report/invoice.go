package report

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerkite/ledgerkite/internal/billing"
)

// InvoiceSource resolves invoices for rendering.
type InvoiceSource interface {
	GetInvoice(ctx context.Context, id string) (*billing.Invoice, error)
}

// Handler manages printable report endpoints.
type Handler struct {
	client   *Client
	invoices InvoiceSource
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, invoices InvoiceSource, logger *slog.Logger) *Handler {
	return &Handler{client: client, invoices: invoices, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/invoices/{id}", h.invoicePDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inv, err := h.invoices.GetInvoice(r.Context(), id)
	if err != nil {
		h.logger.Warn("load invoice for pdf", slog.String("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	pdf, err := h.client.RenderHTML(r.Context(), InvoiceHTML(inv))
	if err != nil {
		h.logger.Error("render invoice pdf", slog.String("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+inv.InvoiceNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// InvoiceHTML lays out a printable invoice.
func InvoiceHTML(inv *billing.Invoice) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(html.EscapeString(inv.InvoiceNumber))
	b.WriteString("</title><style>body{font-family:sans-serif}table{width:100%;border-collapse:collapse}td,th{border:1px solid #ccc;padding:6px;text-align:right}th:first-child,td:first-child{text-align:left}</style></head><body>")
	fmt.Fprintf(&b, "<h1>Invoice %s</h1>", html.EscapeString(inv.InvoiceNumber))
	if !inv.Date.IsZero() {
		fmt.Fprintf(&b, "<p>Date: %s</p>", inv.Date.Format("02 Jan 2006"))
	}
	if !inv.DueDate.IsZero() {
		fmt.Fprintf(&b, "<p>Due: %s</p>", inv.DueDate.Format("02 Jan 2006"))
	}

	b.WriteString("<table><tr><th>Service</th><th>Qty</th><th>Rate</th><th>Amount</th></tr>")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%.2f</td><td>%.2f</td><td>%.2f</td></tr>",
			html.EscapeString(it.ServiceID), it.Qty, it.Rate, it.Amount)
	}
	b.WriteString("</table>")

	fmt.Fprintf(&b, "<p>Subtotal: %.2f</p>", inv.Subtotal)
	fmt.Fprintf(&b, "<p>Tax: %.2f</p>", inv.TaxTotal)
	if inv.Discount > 0 {
		fmt.Fprintf(&b, "<p>Discount: %.2f</p>", inv.Discount)
	}
	fmt.Fprintf(&b, "<h2>Total: %.2f</h2>", inv.Total)
	fmt.Fprintf(&b, "<p>Paid: %.2f &mdash; Status: %s</p>", inv.Paid(), html.EscapeString(string(inv.Status)))
	b.WriteString("</body></html>")
	return b.String()
}
