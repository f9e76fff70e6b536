// Copyright 2026 The ClinicStack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinicstack/clinicstack/internal/appointment"
	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/patient"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	patientService     *patient.Service
	appointmentService *appointment.Service
	branchService      *branch.Service
	identityService    *identity.Service
	auditLogger        audit.Logger
	jwtSecret          []byte
	devHeaderEnabled   bool
}

// AuthConfig holds the transport-side auth boundary configuration
type AuthConfig struct {
	JWTSecret        []byte
	DevHeaderEnabled bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	patientService *patient.Service,
	appointmentService *appointment.Service,
	branchService *branch.Service,
	identityService *identity.Service,
	auditLogger audit.Logger,
	authConfig AuthConfig,
) *Handler {
	return &Handler{
		patientService:     patientService,
		appointmentService: appointmentService,
		branchService:      branchService,
		identityService:    identityService,
		auditLogger:        auditLogger,
		jwtSecret:          authConfig.JWTSecret,
		devHeaderEnabled:   authConfig.DevHeaderEnabled,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantOverrideMiddleware)
		r.Use(h.AuthMiddleware)

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", h.ListPatients)
			r.Get("/{id}", h.GetPatient)
			r.With(RequireWriter).Post("/", h.CreatePatient)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.ListAppointments)
			r.Get("/{id}", h.GetAppointment)
			r.With(RequireWriter).Post("/", h.BookAppointment)
		})

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", h.ListBranches)
			r.With(RequireAdmin).Post("/", h.CreateBranch)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(RequireAdmin).Post("/", h.CreateUser)
			r.With(RequireAdmin).Get("/{username}", h.GetUser)
		})
	})

	return r
}

// HealthCheck reports service liveness
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain outcomes onto HTTP statuses. Conflicts keep
// their human-readable reason; an unresolved tenant is an authorization
// failure, never a silent widening of scope.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrTenantRequired):
		respondError(w, http.StatusUnauthorized, "no tenant resolved for this request")
	case errors.Is(err, patient.ErrPhoneExists),
		errors.Is(err, appointment.ErrSlotTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, branch.ErrBranchNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
