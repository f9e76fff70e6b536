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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/observability/logger"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// TenantOverrideMiddleware records an explicit X-Tenant-Id header as the
// tenant override. The raw value goes into the context unparsed; resolution
// validates it and gives it precedence over the identity's claim.
func TenantOverrideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Tenant-Id"); raw != "" {
			r = r.WithContext(tenant.WithOverride(r.Context(), raw))
		}
		next.ServeHTTP(w, r)
	})
}

var errNoCredentials = errors.New("no credentials presented")

// AuthMiddleware resolves the request's identity: a Bearer token signed by
// the upstream auth collaborator, or the X-User-ID dev header when enabled.
// Either way the user row in the store is authoritative for role and tenant
// claim; the lookup goes through the privileged identity path because no
// tenant is resolved yet.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.resolveUserID(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := h.identityService.Authenticate(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, identity.ErrUserNotFound) {
				slog.ErrorContext(r.Context(), "identity lookup failed", logger.Error(err))
			}
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:    audit.TypeIdentityLookupFail,
				ActorID: userID.String(),
			})
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, user)
		ctx = tenant.WithClaim(ctx, user.TenantID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUserID extracts the identity id from the request credentials.
func (h *Handler) resolveUserID(r *http.Request) (uuid.UUID, error) {
	if raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return h.subjectFromToken(raw)
	}
	if h.devHeaderEnabled {
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			return uuid.Parse(raw)
		}
	}
	return uuid.Nil, errNoCredentials
}

// subjectFromToken verifies an HMAC-signed token and returns its subject.
func (h *Handler) subjectFromToken(raw string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse bearer token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("bearer token subject: %w", err)
	}
	return uuid.Parse(sub)
}

// RequireWriter rejects read-only roles on record-creating routes.
func RequireWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if principal == nil || !principal.Role.CanWrite() {
			respondError(w, http.StatusForbidden, "role does not permit this operation")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restricts a route to tenant administrators.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if principal == nil || principal.Role != identity.RoleAdmin {
			respondError(w, http.StatusForbidden, "role does not permit this operation")
			return
		}
		next.ServeHTTP(w, r)
	})
}
