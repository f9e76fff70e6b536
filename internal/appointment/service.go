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

package appointment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/events"
	"github.com/clinicstack/clinicstack/internal/observability/logger"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Service provides appointment booking business logic
type Service struct {
	repo        Repository
	publisher   events.Publisher
	auditLogger audit.Logger
}

// NewService creates a new appointment service
func NewService(repo Repository, publisher events.Publisher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		publisher:   publisher,
		auditLogger: auditLogger,
	}
}

// BookInput carries the caller-supplied booking fields.
type BookInput struct {
	BranchID  uuid.UUID
	PatientID uuid.UUID
	StartAt   time.Time
}

// Book creates an appointment under the active tenant.
//
// The slot pre-check handles the common duplicate with a friendly rejection;
// under concurrent identical bookings the storage constraint decides, and the
// repository translates its violation into the same ErrSlotTaken outcome.
// The AppointmentCreated event goes out only after the insert committed, and
// a publish failure never undoes the booking.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	if in.BranchID == uuid.Nil || in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("branch id and patient id are required")
	}
	if in.StartAt.IsZero() {
		return nil, fmt.Errorf("start time is required")
	}

	exists, err := s.repo.SlotExists(ctx, scope, in.BranchID, in.PatientID, in.StartAt)
	if err != nil {
		return nil, fmt.Errorf("check booking slot: %w", err)
	}
	if exists {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeBookingConflict,
			TenantID: scope.TenantID().String(),
			Resource: in.PatientID.String(),
			Metadata: map[string]any{"branch_id": in.BranchID.String(), "start_at": in.StartAt},
		})
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		ID:        uuid.New(),
		BranchID:  in.BranchID,
		PatientID: in.PatientID,
		StartAt:   in.StartAt,
	}
	if err := s.repo.Insert(ctx, scope, a); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishAppointmentCreated(ctx, events.AppointmentCreated{
		AppointmentID: a.ID,
		TenantID:      a.TenantID,
		BranchID:      a.BranchID,
		StartAt:       a.StartAt,
	}); err != nil {
		slog.WarnContext(ctx, "appointment event publish failed",
			logger.Error(err),
			logger.String("appointment_id", a.ID.String()),
		)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAppointmentBooked,
		TenantID: scope.TenantID().String(),
		Resource: a.ID.String(),
	})

	return a, nil
}

// GetByID retrieves one appointment within the active tenant.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, scope, id)
}

// List returns the active tenant's appointments, optionally narrowed to a
// branch.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	scope, err := tenant.ScopeFor(ctx)
	if err != nil {
		return nil, err
	}
	appointments, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}
