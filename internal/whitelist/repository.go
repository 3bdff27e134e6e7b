package whitelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classhub/classhub/internal/platform/db"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
)

const entryColumns = `id::text, principal_id::text, permissions, is_active, expires_at,
	COALESCE(granted_by::text, ''), reason, created_at, revoked_at`

// Repository persists whitelist entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadWhitelistEntry returns nil without error when id is unknown.
func (r *Repository) LoadWhitelistEntry(ctx context.Context, id string) (*rbac.WhitelistEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM whitelist_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("whitelist: load entry: %w", err)
	}
	return entry.Authorization(), nil
}

// List returns active entries, newest first.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM whitelist_entries WHERE is_active ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Grant stores a new entry, points the principal at it and writes the audit
// row in the same transaction.
func (r *Repository) Grant(ctx context.Context, actorID string, req GrantRequest, audit AuditFunc) (Entry, error) {
	var entry Entry
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, req.PrincipalID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPrincipalNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE whitelist_entries SET is_active = FALSE, revoked_at = NOW()
			WHERE principal_id = $1 AND is_active`, req.PrincipalID); err != nil {
			return err
		}
		entry, err = scanEntry(tx.QueryRow(ctx, `INSERT INTO whitelist_entries
			(principal_id, permissions, is_active, expires_at, granted_by, reason)
			VALUES ($1, $2, TRUE, $3, NULLIF($4, '')::uuid, $5)
			RETURNING `+entryColumns,
			req.PrincipalID, req.Permissions, req.ExpiresAt, actorID, req.Reason))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET permission_source = 'whitelist', whitelist_entry_id = $2, updated_at = NOW()
			WHERE id = $1`, req.PrincipalID, entry.ID); err != nil {
			return err
		}
		return recordAudit(ctx, tx, audit, entry)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Revoke deactivates an entry and returns its principal to default resolution.
func (r *Repository) Revoke(ctx context.Context, id string, audit AuditFunc) (Entry, error) {
	var entry Entry
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		entry, err = scanEntry(tx.QueryRow(ctx, `UPDATE whitelist_entries SET is_active = FALSE, revoked_at = NOW()
			WHERE id = $1 AND is_active
			RETURNING `+entryColumns, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET permission_source = 'default', whitelist_entry_id = NULL, updated_at = NOW()
			WHERE whitelist_entry_id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, audit, entry)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ExpireDue deactivates entries whose expiry is at or before now and resets
// their principals. It returns the expired entry IDs.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time, audit AuditFunc) ([]string, error) {
	var ids []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `UPDATE whitelist_entries SET is_active = FALSE, revoked_at = $1
			WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1
			RETURNING id::text`, now)
		if err != nil {
			return err
		}
		ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET permission_source = 'default', whitelist_entry_id = NULL, updated_at = NOW()
			WHERE whitelist_entry_id::text = ANY($1)`, ids); err != nil {
			return err
		}
		for _, id := range ids {
			if err := recordAudit(ctx, tx, audit, Entry{ID: id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func recordAudit(ctx context.Context, tx pgx.Tx, audit AuditFunc, entry Entry) error {
	if audit == nil {
		return nil
	}
	if err := shared.RecordWith(ctx, tx, audit(entry)); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	if err := row.Scan(
		&entry.ID, &entry.PrincipalID, &entry.Permissions, &entry.IsActive, &entry.ExpiresAt,
		&entry.GrantedBy, &entry.Reason, &entry.CreatedAt, &entry.RevokedAt,
	); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

var _ rbac.WhitelistLoader = (*Repository)(nil)
