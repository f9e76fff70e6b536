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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// UserRepository implements identity.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a staff account, stamped with the scope's tenant.
func (r *UserRepository) Create(ctx context.Context, scope tenant.Scope, user *identity.User) error {
	now := time.Now()
	user.TenantID = scope.TenantID()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, username, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.TenantID, user.Username, string(user.Role), now)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.CreatedAt = now
	return nil
}

// GetByUsername retrieves a user by username within the scope's tenant.
func (r *UserRepository) GetByUsername(ctx context.Context, scope tenant.Scope, username string) (*identity.User, error) {
	var user identity.User
	var role string

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, username, role, created_at
		FROM users
		WHERE tenant_id = $1 AND username = $2
	`, scope.TenantID(), username).Scan(&user.ID, &user.TenantID, &user.Username, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = identity.Role(role)
	return &user, nil
}

// LookupAnyTenant retrieves a user by id across all tenants. This is the
// privileged identity-lookup bypass: authentication needs the user row before
// the tenant is known. Nothing else may query users without a scope.
func (r *UserRepository) LookupAnyTenant(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	var role string

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, username, role, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.TenantID, &user.Username, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user.Role = identity.Role(role)
	return &user, nil
}
