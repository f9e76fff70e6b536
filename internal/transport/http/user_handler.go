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

	"github.com/go-chi/chi/v5"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/identity"
)

// CreateUser handles POST /api/v1/users. Admin-only; the account lands in the
// caller's own tenant.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.identityService.Create(r.Context(), req.Username, role)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeUserCreated,
		TenantID: user.TenantID.String(),
		Resource: user.ID.String(),
	})

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /api/v1/users/{username}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
