package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role determines what a user may do within their tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// ParseRole validates a raw role value against the fixed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleUser, RoleViewer:
		return Role(raw), nil
	}
	return "", fmt.Errorf("invalid role: %q", raw)
}

// CanWrite reports whether the role may create records. Viewers are read-only.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is a clinic staff account. It is read by this service only to resolve
// the active tenant and the authorization role; nothing here mutates it.
type User struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrUserNotFound = errors.New("user not found")
