/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Per-route request counters and latency (when enabled)
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/admins/*         Admin management
  /api/clients/*        Clients, reports, per-client records and uploads
  /api/work-logs/*      Work log edits and status changes
  /api/payments/*       Payment deletion
  /api/hour-requests/*  Approval queue
  /api/invoices|contracts|documents/*  Attachment delete and download
  /api/dashboard        Portfolio overview
  /api/scenarios/*      Demo data
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness and database ping

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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
// allowedOrigins allows every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(MetricsMiddleware(h.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Admin routes
		r.Route("/admins", func(r chi.Router) {
			r.Get("/", h.ListAdmins)
			r.Post("/", h.CreateAdmin)
			r.Get("/{id}", h.GetAdmin)
			r.Put("/{id}", h.UpdateAdmin)
			r.Delete("/{id}", h.DeleteAdmin)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Delete("/", h.DeleteClient)

				r.Get("/report", h.GetClientReport)
				r.Get("/allocation", h.GetClientAllocation)

				r.Get("/admins", h.ListClientAdmins)
				r.Post("/admins", h.AssignClientAdmin)
				r.Delete("/admins/{adminID}", h.UnassignClientAdmin)

				r.Get("/work-logs", h.ListWorkLogs)
				r.Post("/work-logs", h.CreateWorkLog)

				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.CreatePayment)

				r.Post("/hour-requests", h.CreateHourRequest)

				for _, kind := range []AttachmentKind{KindInvoices, KindContracts, KindDocuments} {
					r.Get("/"+string(kind), h.ListAttachments(kind))
					r.Post("/"+string(kind), h.UploadAttachment(kind))
				}
			})
		})

		// Work log routes
		r.Route("/work-logs", func(r chi.Router) {
			r.Put("/{id}", h.UpdateWorkLog)
			r.Delete("/{id}", h.DeleteWorkLog)
			r.Post("/{id}/status", h.UpdateWorkLogStatus)
		})

		// Payment routes
		r.Delete("/payments/{id}", h.DeletePayment)

		// Hour request approval routes
		r.Route("/hour-requests", func(r chi.Router) {
			r.Get("/", h.ListHourRequests)
			r.Post("/{id}/approve", h.ApproveHourRequest)
			r.Post("/{id}/reject", h.RejectHourRequest)
		})

		// Attachment routes
		for _, kind := range []AttachmentKind{KindInvoices, KindContracts, KindDocuments} {
			r.Delete("/"+string(kind)+"/{id}", h.DeleteAttachment(kind))
			r.Get("/"+string(kind)+"/{id}/file", h.DownloadAttachment(kind))
		}

		r.Get("/dashboard", h.GetDashboard)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// Health reports whether the database is reachable.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
