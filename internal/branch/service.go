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

package branch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/cache"
	"github.com/clinicstack/clinicstack/internal/observability/logger"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

const cacheKind = "branches"

// Service provides branch business logic
type Service struct {
	repo        Repository
	cache       cache.Store
	auditLogger audit.Logger
}

// NewService creates a new branch service
func NewService(repo Repository, cacheStore cache.Store, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		cache:       cacheStore,
		auditLogger: auditLogger,
	}
}

// Create registers a new branch under the active tenant.
func (s *Service) Create(ctx context.Context, name string) (*Branch, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("branch name is required")
	}

	b := &Branch{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.repo.Insert(ctx, scope, b); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	key := cache.ListKey(scope.TenantID(), cacheKind, cache.AllPartitions)
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "branch cache invalidation failed", logger.Error(err))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBranchCreated,
		TenantID: scope.TenantID().String(),
		Resource: b.ID.String(),
	})

	return b, nil
}

// List returns all branches of the active tenant, read through the cache.
func (s *Service) List(ctx context.Context) ([]Branch, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.ListKey(scope.TenantID(), cacheKind, cache.AllPartitions)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached []Branch
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		slog.WarnContext(ctx, "discarding undecodable branch cache entry", logger.String("key", key))
	}

	branches, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	if data, err := json.Marshal(branches); err == nil {
		if err := s.cache.Set(ctx, key, data, 0); err != nil {
			slog.WarnContext(ctx, "branch cache store failed", logger.Error(err))
		}
	}

	return branches, nil
}

// GetByID retrieves one branch within the active tenant. Point lookups bypass
// the cache.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Branch, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, id)
}
