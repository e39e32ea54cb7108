package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/venue-sync/internal/idempotency"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/rateLimit"
)

// SetupRouter mounts the view API. rl may be nil when no redis is configured.
func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	if rl != nil {
		r.Use(RateLimitMiddleware(rl, 100, time.Minute))
	}
	r.Use(IdempotencyMiddleware(idemp))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.UpsertProduct)
		r.Post("/products/sync", h.SyncCatalog)
		r.Post("/products/{id}/shelf", h.SetOnShelf)

		r.Get("/merch-tickets", h.ListMerchTickets)
		r.Post("/merch-tickets", h.ClaimMerch)
		r.Post("/merch-tickets/{id}/redeem", h.RedeemMerch)
		r.Post("/merch-tickets/{id}/refund", h.RefundMerch)

		r.Get("/guest-tickets", h.ListGuestTickets)
		r.Post("/guest-tickets/gift", h.GiftTicket)
		r.Post("/guest-tickets/redeem", h.RedeemCode)
		r.Post("/guest-tickets/expire", h.ExpireTickets)

		r.Get("/staff-tickets", h.ListStaffTickets)
		r.Post("/staff-tickets", h.GenerateStaffTicket)

		r.Get("/bookings", h.GlobalBookings)
		r.Post("/bookings", h.ConfirmBooking)
		r.Get("/sessions", h.UserSessions)
		r.Get("/backstage", h.BackstageRecords)
		r.Post("/sessions/{id}/check-in", h.sessionAction(h.svc.CheckIn))
		r.Post("/sessions/{id}/transfer", h.Transfer)
		r.Post("/sessions/{id}/start", h.sessionAction(h.svc.StartGame))
		r.Post("/sessions/{id}/end", h.sessionAction(h.svc.EndGame))
		r.Post("/sessions/{id}/cancel", h.sessionAction(h.svc.CancelSession))
		r.Post("/sessions/{id}/claim-points", h.ClaimPoints)

		r.Get("/points", h.Points)
		r.Post("/points/adjust", h.AdjustPoints)

		r.Get("/chat", h.ListMessages)
		r.Post("/chat", h.PostMessage)

		r.Get("/offline-sales", h.ListOfflineSales)
		r.Post("/offline-sales", h.RecordOfflineSale)

		r.Get("/badges", h.Badges)
		r.Post("/badges/{view}/focus", h.FocusView)

		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
