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

	"github.com/clinicstack/clinicstack/internal/patient"
)

// CreatePatient handles POST /api/v1/patients
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.PhoneNumber == "" {
		respondError(w, http.StatusBadRequest, "first_name, last_name and phone_number are required")
		return
	}

	p, err := h.patientService.Create(r.Context(), patient.CreateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		BranchID:    req.BranchID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPatientResponse(p))
}

// GetPatient handles GET /api/v1/patients/{id}
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	p, err := h.patientService.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toPatientResponse(p))
}

// ListPatients handles GET /api/v1/patients?branch_id=&sort=
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := patient.ListFilter{}

	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid branch_id")
			return
		}
		filter.BranchID = &branchID
	}
	if r.URL.Query().Get("sort") == "createdAt_desc" {
		filter.SortCreatedDesc = true
	}

	patients, err := h.patientService.List(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toPatientResponses(patients))
}
