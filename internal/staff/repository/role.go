package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
)

// Role represents a job role, e.g. Baker or Cashier
type Role struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoleRepository handles role persistence
type RoleRepository struct {
	db *database.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role
func (r *RoleRepository) Create(ctx context.Context, role *Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}

	query := `INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query, role.ID, role.Name).Scan(&role.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	var role Role

	query := `SELECT id, name, created_at FROM roles WHERE id = $1`
	err := r.db.GetContext(ctx, &role, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("role")
	}
	if err != nil {
		return nil, err
	}

	return &role, nil
}

// List returns all roles sorted by name
func (r *RoleRepository) List(ctx context.Context) ([]*Role, error) {
	roles := []*Role{}

	query := `SELECT id, name, created_at FROM roles ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, err
	}

	return roles, nil
}

// Delete removes a role. Employees referencing it keep a null role.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("role")
	}
	return nil
}
