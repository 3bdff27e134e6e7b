package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classhub/classhub/internal/platform/db"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
)

const userColumns = `id::text, email, name, role, is_active, is_verified, custom_permissions,
	permission_source, COALESCE(whitelist_entry_id::text, ''), created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of req and writes audit in the same
// transaction.
func (r *Repository) UpdateUser(ctx context.Context, id string, req UpdateUserRequest, audit shared.AuditLog) (User, error) {
	const query = `UPDATE users SET
		role = COALESCE($2, role),
		is_active = COALESCE($3, is_active),
		custom_permissions = COALESCE($4, custom_permissions),
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns
	var perms []string
	if req.CustomPermissions != nil {
		perms = *req.CustomPermissions
		if perms == nil {
			perms = []string{}
		}
	}
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		user, err = scanUser(tx.QueryRow(ctx, query, id, req.Role, req.IsActive, perms))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := shared.RecordWith(ctx, tx, audit); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// LoadPrincipal reads the live authorization record for id.
func (r *Repository) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rbac.Principal{}, rbac.ErrPrincipalNotFound
		}
		return rbac.Principal{}, fmt.Errorf("users: load principal: %w", err)
	}
	return user.Principal(), nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role, source string
	if err := row.Scan(
		&user.ID, &user.Email, &user.Name, &role, &user.IsActive, &user.IsVerified,
		&user.CustomPermissions, &source, &user.WhitelistEntryID, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	user.Role = rbac.Role(role)
	user.PermissionSource = rbac.PermissionSource(source)
	return user, nil
}

var _ rbac.PrincipalLoader = (*Repository)(nil)
