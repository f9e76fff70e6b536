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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/appointment"
)

// BookAppointment handles POST /api/v1/appointments
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartAt.IsZero() {
		respondError(w, http.StatusBadRequest, "start_at is required")
		return
	}

	a, err := h.appointmentService.Book(r.Context(), appointment.BookInput{
		BranchID:  req.BranchID,
		PatientID: req.PatientID,
		StartAt:   req.StartAt,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toAppointmentResponse(a))
}

// GetAppointment handles GET /api/v1/appointments/{id}
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	a, err := h.appointmentService.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAppointmentResponse(a))
}

// ListAppointments handles GET /api/v1/appointments?branch_id=
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := appointment.ListFilter{}

	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid branch_id")
			return
		}
		filter.BranchID = &branchID
	}

	appointments, err := h.appointmentService.List(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAppointmentResponses(appointments))
}
