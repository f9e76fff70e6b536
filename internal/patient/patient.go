package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Patient is a clinic patient record. TenantID is stamped by the store from
// the active scope; caller-supplied values are ignored.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrPatientNotFound = errors.New("patient not found")

	// ErrPhoneExists is the conflict outcome for the (tenant, phone_number)
	// uniqueness rule, whether detected by the pre-check or translated from
	// the storage constraint.
	ErrPhoneExists = errors.New("phone number already exists for this tenant")
)

// ListFilter narrows a patient list query.
type ListFilter struct {
	BranchID        *uuid.UUID
	SortCreatedDesc bool
}

// Repository defines the interface for patient storage. Insert must return
// ErrPhoneExists when the phone uniqueness constraint fires, and must leave
// unrelated store failures untranslated.
type Repository interface {
	Insert(ctx context.Context, scope tenant.Scope, p *Patient) error
	GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Patient, error)
	PhoneExists(ctx context.Context, scope tenant.Scope, phone string) (bool, error)
}
