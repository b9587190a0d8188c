package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Per-client request budget.
const (
	requestsPerSecond = 20
	requestBurst      = 60
)

// NewRouter creates the router with all routes configured. A non-empty
// token makes every /api route require "Authorization: Bearer <token>".
func NewRouter(h *Handler, token string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: h.logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(rate.Limit(requestsPerSecond), requestBurst))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", actorHeader},
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		if token != "" {
			r.Use(requireToken(token))
		}

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/balance", h.GetBalance)
			r.Post("/{id}/balance/adjustments", h.AdjustBalance)
			r.Get("/{id}/vacations", h.ListEmployeeVacations)
			r.Post("/{id}/vacations", h.SubmitVacation)
			r.Get("/{id}/absences", h.ListEmployeeAbsences)
			r.Post("/{id}/absences", h.RecordAbsence)
		})

		r.Route("/vacations", func(r chi.Router) {
			r.Get("/pending", h.ListPendingVacations)
			r.Get("/{id}", h.GetVacation)
			r.Get("/{id}/history", h.VacationHistory)
			r.Post("/{id}/department", h.SetDepartmentStatus)
			r.Post("/{id}/manager", h.SetManagerStatus)
			r.Post("/{id}/cancel", h.CancelVacation)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", h.ListDepartments)
			r.Post("/", h.CreateDepartment)
			r.Put("/{name}/head", h.SetDepartmentHead)
		})

		r.Route("/absences", func(r chi.Router) {
			r.Get("/", h.ListMonthAbsences)
			r.Get("/report", h.AbsenceReport)
		})

		r.Route("/transfer", func(r chi.Router) {
			r.Get("/employees", h.ExportEmployees)
			r.Post("/employees", h.ImportEmployees)
			r.Get("/template", h.ImportTemplate)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/emergency-reset", h.ResetEmergencyBalances)
			r.Get("/stats", h.Stats)
		})
	})

	return r
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "missing or invalid API token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
