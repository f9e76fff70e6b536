package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/tenant"
)

// BranchRepository implements branch.Repository
type BranchRepository struct {
	db *DB
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db *DB) *BranchRepository {
	return &BranchRepository{db: db}
}

// Insert persists a branch, stamped with the scope's tenant.
func (r *BranchRepository) Insert(ctx context.Context, scope tenant.Scope, b *branch.Branch) error {
	now := time.Now()
	b.TenantID = scope.TenantID()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO branches (id, tenant_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, b.ID, b.TenantID, b.Name, now)
	if err != nil {
		return fmt.Errorf("failed to insert branch: %w", err)
	}

	b.CreatedAt = now
	return nil
}

// GetByID retrieves a branch within the scope's tenant.
func (r *BranchRepository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*branch.Branch, error) {
	var b branch.Branch
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM branches
		WHERE tenant_id = $1 AND id = $2
	`, scope.TenantID(), id).Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, branch.ErrBranchNotFound
		}
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &b, nil
}

// List returns all branches of the scope's tenant in creation order.
func (r *BranchRepository) List(ctx context.Context, scope tenant.Scope) ([]branch.Branch, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM branches
		WHERE tenant_id = $1
		ORDER BY created_at, id
	`, scope.TenantID())
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	branches := []branch.Branch{}
	for rows.Next() {
		var b branch.Branch
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read branches: %w", err)
	}
	return branches, nil
}
