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

package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Repository defines the interface for user storage.
//
// LookupAnyTenant is the single deliberate exception to tenant isolation: the
// auth middleware has to find a user by id before any tenant is known. It is
// a distinct operation, never a flag on the scoped paths, so the bypass
// cannot be reused by accident.
type Repository interface {
	Create(ctx context.Context, scope tenant.Scope, user *User) error
	GetByUsername(ctx context.Context, scope tenant.Scope, username string) (*User, error)
	LookupAnyTenant(ctx context.Context, id uuid.UUID) (*User, error)
}

// Service resolves authenticated identities for the transport layer.
type Service struct {
	repo Repository
}

// NewService creates a new identity service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate finds the user behind a resolved identity id. This is the only
// caller of the privileged any-tenant lookup.
func (s *Service) Authenticate(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.LookupAnyTenant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authenticate user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user within the active tenant.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByUsername(ctx, scope, username)
}

// Create registers a staff account under the active tenant.
func (s *Service) Create(ctx context.Context, username string, role Role) (*User, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:       uuid.New(),
		Username: username,
		Role:     role,
	}
	if err := s.repo.Create(ctx, scope, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
