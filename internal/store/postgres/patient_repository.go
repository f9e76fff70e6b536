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

	"github.com/clinicstack/clinicstack/internal/patient"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// PatientRepository implements patient.Repository
type PatientRepository struct {
	db *DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Insert persists a patient, stamped with the scope's tenant. A violation of
// the phone uniqueness constraint comes back as patient.ErrPhoneExists; any
// other failure propagates unchanged.
func (r *PatientRepository) Insert(ctx context.Context, scope tenant.Scope, p *patient.Patient) error {
	now := time.Now()
	p.TenantID = scope.TenantID()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO patients (id, tenant_id, branch_id, first_name, last_name, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.TenantID, p.BranchID, p.FirstName, p.LastName, p.PhoneNumber, now)
	if err != nil {
		if violatesConstraint(err, constraintPatientPhone) {
			return patient.ErrPhoneExists
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}

	p.CreatedAt = now
	return nil
}

// GetByID retrieves a patient within the scope's tenant. A row belonging to
// another tenant reads as not found.
func (r *PatientRepository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, branch_id, first_name, last_name, phone_number, created_at
		FROM patients
		WHERE tenant_id = $1 AND id = $2
	`, scope.TenantID(), id).Scan(
		&p.ID, &p.TenantID, &p.BranchID, &p.FirstName, &p.LastName, &p.PhoneNumber, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

// List returns patients of the scope's tenant in creation order, optionally
// narrowed to one branch.
func (r *PatientRepository) List(ctx context.Context, scope tenant.Scope, filter patient.ListFilter) ([]patient.Patient, error) {
	query := `
		SELECT id, tenant_id, branch_id, first_name, last_name, phone_number, created_at
		FROM patients
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID()}
	if filter.BranchID != nil {
		query += ` AND branch_id = $2`
		args = append(args, *filter.BranchID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	patients := []patient.Patient{}
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(&p.ID, &p.TenantID, &p.BranchID, &p.FirstName, &p.LastName, &p.PhoneNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patients: %w", err)
	}
	return patients, nil
}

// PhoneExists reports whether any patient of the scope's tenant already uses
// the phone number.
func (r *PatientRepository) PhoneExists(ctx context.Context, scope tenant.Scope, phone string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patients WHERE tenant_id = $1 AND phone_number = $2
		)
	`, scope.TenantID(), phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check phone number: %w", err)
	}
	return exists, nil
}
