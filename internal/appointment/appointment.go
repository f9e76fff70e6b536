package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Appointment is a booked slot: one patient at one branch at one start time.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	PatientID uuid.UUID `json:"patient_id"`
	StartAt   time.Time `json:"start_at"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the conflict outcome for the
	// (tenant, branch, patient, start_at) uniqueness rule.
	ErrSlotTaken = errors.New("a booking already exists for this patient at the same time and branch")
)

// ListFilter narrows an appointment list query.
type ListFilter struct {
	BranchID *uuid.UUID
}

// Repository defines the interface for appointment storage. Insert must
// return ErrSlotTaken when the slot uniqueness constraint fires, and must
// leave unrelated store failures untranslated.
type Repository interface {
	Insert(ctx context.Context, scope tenant.Scope, a *Appointment) error
	GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Appointment, error)
	SlotExists(ctx context.Context, scope tenant.Scope, branchID, patientID uuid.UUID, startAt time.Time) (bool, error)
}
