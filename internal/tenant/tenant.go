package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated clinic organization. Every scoped record in
// the store belongs to exactly one tenant, assigned at creation and never
// changed afterwards.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrTenantNotFound = errors.New("tenant not found")

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}
