package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes groups the handlers mounted by NewRouter. Metrics and Health may be
// nil.
type Routes struct {
	Middleware *Middleware
	Chat       *ChatHandler
	Models     *ModelsHandler
	Webhooks   *WebhookHandler
	Account    *AccountHandler
	Admin      *AdminHandler
	Metrics    http.Handler
	Health     http.HandlerFunc
}

// NewRouter builds the HTTP surface.
func NewRouter(rt Routes) http.Handler {
	m := rt.Middleware
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(m.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(m.CORSMiddleware)

	health := rt.Health
	if health == nil {
		health = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}
	}
	r.Get("/health", health)
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics)
	}

	// Provider signs these; no session.
	r.Route("/api/webhooks/cashfree", func(r chi.Router) {
		r.Post("/", rt.Webhooks.HandleCashfree)
		r.Get("/", rt.Webhooks.HandleCashfreeStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(m.Authenticate)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/models", rt.Models.HandleList)
			r.Get("/models/{id}", rt.Models.HandleGet)
			// Streams run longer than the default timeout allows.
			r.Post("/chat/completions", rt.Chat.HandleChatCompletion)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))
			r.Use(m.RequireAuth)
			r.Post("/api/cashfree/checkout", rt.Account.HandleCheckout)
			r.Get("/api/subscription/status", rt.Account.HandleSubscriptionStatus)
			r.Post("/api/notifications/email", rt.Account.HandleNotification)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))
			r.Use(m.RequireAdmin)
			r.Get("/users", rt.Admin.HandleListUsers)
			r.Post("/premium-access", rt.Admin.HandlePremiumAccess)
			r.Get("/grants", rt.Admin.HandleListGrants)
		})
	})

	return r
}
