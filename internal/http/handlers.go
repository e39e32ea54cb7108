package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/service"
)

// CatalogSource supplies head-office products to import.
type CatalogSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type Handlers struct {
	svc     *service.Service
	badges  *bus.Badges
	catalog CatalogSource
	ready   func(ctx context.Context) error
}

// NewHandlers wires the view endpoints. catalog and ready may be nil.
func NewHandlers(svc *service.Service, badges *bus.Badges, catalog CatalogSource, ready func(ctx context.Context) error) *Handlers {
	return &Handlers{svc: svc, badges: badges, catalog: catalog, ready: ready}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrQuotaExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConfirmationRequired),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrSerializationFailure):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context()).Error("request failed: ", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handlers) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !decode(w, r, &p) {
		return
	}
	p, err := h.svc.UpsertProduct(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) SetOnShelf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OnShelf bool `json:"on_shelf"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.SetOnShelf(r.Context(), chi.URLParam(r, "id"), req.OnShelf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SyncCatalog imports the head-office catalog into the shared store.
func (h *Handlers) SyncCatalog(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no catalog configured"})
		return
	}
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.ImportProducts(r.Context(), products); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(products)})
}

func (h *Handlers) ListMerchTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListMerchTickets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handlers) ClaimMerch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string              `json:"product_id"`
		Quantity  int                 `json:"quantity"`
		Method    domain.RedeemMethod `json:"method"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.ClaimMerch(r.Context(), req.ProductID, req.Quantity, req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) RedeemMerch(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.RedeemMerch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) RefundMerch(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.RefundMerch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) ListGuestTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListGuestTickets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handlers) GiftTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		People int    `json:"people"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.GiftTicket(r.Context(), req.Name, req.People)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) RedeemCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.RedeemCode(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) ExpireTickets(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExpireTickets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

func (h *Handlers) ListStaffTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListStaffTickets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handlers) GenerateStaffTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		People int    `json:"people"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.GenerateStaffTicket(r.Context(), req.Name, req.People)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.ConfirmBooking(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) GlobalBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.GlobalBookings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) UserSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.UserSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handlers) BackstageRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.BackstageRecords(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handlers) sessionAction(fn func(ctx context.Context, id string) (domain.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	sess, err := h.svc.Transfer(r.Context(), chi.URLParam(r, "id"), req.Confirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) ClaimPoints(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClaimPoints(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"awarded": n})
}

func (h *Handlers) Points(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Points(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int    `json:"delta"`
		Ref   string `json:"ref"`
	}
	if !decode(w, r, &req) {
		return
	}
	balance, err := h.svc.AdjustPoints(r.Context(), req.Delta, req.Ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListMessages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From domain.ChatRole `json:"from"`
		Text string          `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	m, err := h.svc.PostMessage(r.Context(), req.From, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) ListOfflineSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListOfflineSales(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handlers) RecordOfflineSale(w http.ResponseWriter, r *http.Request) {
	var sale domain.OfflineSale
	if !decode(w, r, &sale) {
		return
	}
	sale, err := h.svc.RecordOfflineSale(r.Context(), sale)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (h *Handlers) Badges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.badges.Counts())
}

func (h *Handlers) FocusView(w http.ResponseWriter, r *http.Request) {
	v := bus.View(chi.URLParam(r, "view"))
	switch v {
	case bus.ViewFrontOfHouse, bus.ViewBackstage, bus.ViewGuestChat, bus.ViewGuestApp:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown view"})
		return
	}
	h.badges.Focus(v)
	writeJSON(w, http.StatusOK, h.badges.Counts())
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
