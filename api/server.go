/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the register frontend

ROUTE GROUPS:
  /api/bills/*       Sales recording and queries
  /api/day/*         Current day summary and end-of-day
  /api/summary/*     Daily and monthly summaries
  /api/products/*    Product catalog

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Bill routes. Literal segments (today, date, recent) are registered
		// alongside {billId}; chi routes literals before wildcards.
		r.Route("/bills", func(r chi.Router) {
			r.Post("/", h.CreateBill)
			r.Get("/today", h.ListTodayBills)
			r.Get("/recent", h.ListRecentBills)
			r.Get("/date/{date}", h.ListBillsByDate)
			r.Get("/{billId}", h.GetBill)
			r.Delete("/{billId}", h.DeleteBill)
		})

		// Day routes
		r.Route("/day", func(r chi.Router) {
			r.Get("/current", h.GetCurrentDay)
			r.Post("/end", h.EndDay)
		})

		// Summary routes
		r.Route("/summary", func(r chi.Router) {
			r.Get("/daily/{date}", h.GetDailySummary)
			r.Get("/dates", h.ListSummaryDates)
			r.Post("/monthly", h.RefreshMonthlySummary)
			r.Get("/monthly", h.ListMonthlySummaries)
			r.Get("/monthly/{month}", h.GetMonthlySummary)
		})

		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/next-id", h.NextProductID)
			r.Get("/search", h.SearchProducts)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	return r
}
