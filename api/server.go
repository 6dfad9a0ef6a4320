/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/holders/*        Holders, underwriting, premium, valuation, bonuses
  /api/loans/*          Loan interest and repayments
  /api/claims/*         Claim decisions and payments
  /api/products         Product catalog
  /api/agents/*         Agents and monthly reports
  /api/scenarios/*      Demo scenarios
  /api/admin/*          Catalog install, accrual runs
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows no cross-origin requests.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Holder routes
		r.Route("/holders", func(r chi.Router) {
			r.Get("/", h.ListHolders)
			r.Post("/", h.RegisterHolder)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetHolder)
				r.Post("/issue", h.IssuePolicy)
				r.Post("/status", h.TransitionPolicy)

				r.Get("/underwriting", h.GetUnderwriting)
				r.Post("/underwriting/score", h.ScoreUnderwriting)
				r.Post("/underwriting/override", h.OverrideUnderwriting)

				r.Get("/premium", h.GetPremiumLedger)
				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.RecordPayment)
				r.Get("/surrender-value", h.GetSurrenderValue)
				r.Get("/maturity", h.GetMaturityValue)
				r.Get("/bonuses", h.ListBonuses)
				r.Post("/bonuses/accrue", h.AccrueBonus)

				r.Get("/loan-eligibility", h.GetLoanEligibility)
				r.Get("/loans", h.ListLoans)
				r.Post("/loans", h.CreateLoan)

				r.Get("/claims", h.ListClaims)
				r.Post("/claims", h.RaiseClaim)
			})
		})

		// Loan routes
		r.Route("/loans/{id}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Post("/accrue", h.AccrueLoanInterest)
			r.Get("/repayments", h.ListRepayments)
			r.Post("/repayments", h.ApplyRepayment)
		})

		// Claim routes
		r.Route("/claims/{id}", func(r chi.Router) {
			r.Get("/", h.GetClaim)
			r.Post("/decision", h.DecideClaim)
			r.Get("/payment", h.GetClaimPayment)
		})

		// Reference data
		r.Get("/products", h.ListProducts)
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Post("/", h.CreateAgent)
			r.Get("/{id}/reports", h.ListAgentReports)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/catalog", h.InstallCatalog)
			r.Get("/accrual", h.LastAccrual)
			r.Post("/accrual", h.RunAccrual)
		})
	})

	return r
}
