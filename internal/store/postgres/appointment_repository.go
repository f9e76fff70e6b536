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

	"github.com/clinicstack/clinicstack/internal/appointment"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// AppointmentRepository implements appointment.Repository
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Insert persists an appointment, stamped with the scope's tenant. A
// violation of the slot uniqueness constraint comes back as
// appointment.ErrSlotTaken; any other failure propagates unchanged.
func (r *AppointmentRepository) Insert(ctx context.Context, scope tenant.Scope, a *appointment.Appointment) error {
	now := time.Now()
	a.TenantID = scope.TenantID()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO appointments (id, tenant_id, branch_id, patient_id, start_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.TenantID, a.BranchID, a.PatientID, a.StartAt, now)
	if err != nil {
		if violatesConstraint(err, constraintAppointmentSlot) {
			return appointment.ErrSlotTaken
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	a.CreatedAt = now
	return nil
}

// GetByID retrieves an appointment within the scope's tenant.
func (r *AppointmentRepository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, branch_id, patient_id, start_at, created_at
		FROM appointments
		WHERE tenant_id = $1 AND id = $2
	`, scope.TenantID(), id).Scan(&a.ID, &a.TenantID, &a.BranchID, &a.PatientID, &a.StartAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// List returns appointments of the scope's tenant ordered by start time,
// optionally narrowed to one branch.
func (r *AppointmentRepository) List(ctx context.Context, scope tenant.Scope, filter appointment.ListFilter) ([]appointment.Appointment, error) {
	query := `
		SELECT id, tenant_id, branch_id, patient_id, start_at, created_at
		FROM appointments
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID()}
	if filter.BranchID != nil {
		query += ` AND branch_id = $2`
		args = append(args, *filter.BranchID)
	}
	query += ` ORDER BY start_at, id`

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []appointment.Appointment{}
	for rows.Next() {
		var a appointment.Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.BranchID, &a.PatientID, &a.StartAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}
	return appointments, nil
}

// SlotExists reports whether the scope's tenant already has a booking for the
// exact (branch, patient, start) slot.
func (r *AppointmentRepository) SlotExists(ctx context.Context, scope tenant.Scope, branchID, patientID uuid.UUID, startAt time.Time) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE tenant_id = $1 AND branch_id = $2 AND patient_id = $3 AND start_at = $4
		)
	`, scope.TenantID(), branchID, patientID, startAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check booking slot: %w", err)
	}
	return exists, nil
}
