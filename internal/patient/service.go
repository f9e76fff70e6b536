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

package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/cache"
	"github.com/clinicstack/clinicstack/internal/observability/logger"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

const cacheKind = "patients"

// Service provides patient business logic
type Service struct {
	repo        Repository
	cache       cache.Store
	auditLogger audit.Logger
}

// NewService creates a new patient service
func NewService(repo Repository, cacheStore cache.Store, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		cache:       cacheStore,
		auditLogger: auditLogger,
	}
}

// CreateInput carries the caller-supplied patient fields. Any tenant value in
// the inbound payload never reaches the store; stamping happens from the
// resolved scope.
type CreateInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	BranchID    uuid.UUID
}

// Create registers a patient under the active tenant.
//
// The phone pre-check gives a friendly rejection in the common case. It is
// racy by nature: two writers can both pass it. The storage constraint is the
// arbiter; the repository translates that violation into the same
// ErrPhoneExists outcome.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	if in.PhoneNumber == "" {
		return nil, fmt.Errorf("phone number is required")
	}
	if in.BranchID == uuid.Nil {
		return nil, fmt.Errorf("branch id is required")
	}

	exists, err := s.repo.PhoneExists(ctx, scope, in.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("check phone number: %w", err)
	}
	if exists {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeDuplicatePhone,
			TenantID: scope.TenantID().String(),
			Metadata: map[string]any{"phone_number": in.PhoneNumber},
		})
		return nil, ErrPhoneExists
	}

	p := &Patient{
		ID:          uuid.New(),
		BranchID:    in.BranchID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
	}
	if err := s.repo.Insert(ctx, scope, p); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx, scope, p.BranchID)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePatientCreated,
		TenantID: scope.TenantID().String(),
		Resource: p.ID.String(),
	})

	return p, nil
}

// GetByID retrieves one patient within the active tenant. Rows of other
// tenants are indistinguishable from absent rows. Point lookups bypass the
// cache.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, id)
}

// List returns the active tenant's patients, optionally narrowed to a branch,
// read through the cache. The cached value is the canonical creation-order
// list; the descending sort is applied after retrieval so a sort option never
// forks the cache key space.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Patient, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.ListKey(scope.TenantID(), cacheKind, partitionFor(filter.BranchID))

	patients, ok := s.cachedList(ctx, key)
	if !ok {
		patients, err = s.repo.List(ctx, scope, ListFilter{BranchID: filter.BranchID})
		if err != nil {
			return nil, fmt.Errorf("list patients: %w", err)
		}
		if data, err := json.Marshal(patients); err == nil {
			if err := s.cache.Set(ctx, key, data, 0); err != nil {
				slog.WarnContext(ctx, "patient cache store failed", logger.Error(err))
			}
		}
	}

	if filter.SortCreatedDesc {
		patients = slices.Clone(patients)
		slices.Reverse(patients)
	}
	return patients, nil
}

// cachedList fetches and decodes a cached list. Any cache failure degrades to
// a store read.
func (s *Service) cachedList(ctx context.Context, key string) ([]Patient, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cached []Patient
	if err := json.Unmarshal(data, &cached); err != nil {
		slog.WarnContext(ctx, "discarding undecodable patient cache entry", logger.String("key", key))
		return nil, false
	}
	return cached, true
}

// invalidateLists removes every cached list that could include the written
// row: the unfiltered list and the row's own branch partition. Runs only
// after the insert has committed; a failure here is logged and self-heals at
// TTL expiry.
func (s *Service) invalidateLists(ctx context.Context, scope tenant.Scope, branchID uuid.UUID) {
	keys := []string{
		cache.ListKey(scope.TenantID(), cacheKind, cache.AllPartitions),
		cache.ListKey(scope.TenantID(), cacheKind, branchID.String()),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "patient cache invalidation failed", logger.Error(err))
	}
}

func partitionFor(branchID *uuid.UUID) string {
	if branchID == nil {
		return cache.AllPartitions
	}
	return branchID.String()
}
