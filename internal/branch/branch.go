package branch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/tenant"
)

// Branch is a clinic location within a tenant.
type Branch struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrBranchNotFound = errors.New("branch not found")

// Repository defines the interface for branch storage. Every method is bound
// to a tenant scope; insert stamps the scope's tenant over whatever the
// entity carries.
type Repository interface {
	Insert(ctx context.Context, scope tenant.Scope, branch *Branch) error
	GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*Branch, error)
	List(ctx context.Context, scope tenant.Scope) ([]Branch, error)
}
