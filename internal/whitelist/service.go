package whitelist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
)

// AuditFunc builds the audit record for a changed entry. Stores write it in
// the same transaction as the change and roll the change back when the
// audit write fails.
type AuditFunc func(Entry) shared.AuditLog

// Store is the persistence the service depends on.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Grant(ctx context.Context, actorID string, req GrantRequest, audit AuditFunc) (Entry, error)
	Revoke(ctx context.Context, id string, audit AuditFunc) (Entry, error)
	ExpireDue(ctx context.Context, now time.Time, audit AuditFunc) ([]string, error)
}

// Service manages whitelist grants.
type Service struct {
	store  Store
	clock  quartz.Clock
	logger *slog.Logger
}

// NewService builds a Service. A nil clock uses the wall clock.
func NewService(store Store, clock quartz.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, clock: clock, logger: logger}
}

// List returns active entries.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.store.List(ctx)
}

// Grant validates and stores a whitelist entry.
func (s *Service) Grant(ctx context.Context, actorID string, req GrantRequest) (Entry, error) {
	set, err := rbac.ParsePermissions(req.Permissions)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.clock.Now()) {
		return Entry{}, fmt.Errorf("%w: expires_at must be in the future", httpx.ErrValidation)
	}
	req.Permissions = set.Strings()

	entry, err := s.store.Grant(ctx, actorID, req, func(e Entry) shared.AuditLog {
		meta := map[string]any{
			"principal_id": e.PrincipalID,
			"permissions":  e.Permissions,
		}
		if e.ExpiresAt != nil {
			meta["expires_at"] = e.ExpiresAt.UTC().Format(time.RFC3339)
		}
		if req.Reason != "" {
			meta["reason"] = req.Reason
		}
		return auditEntry(actorID, "whitelist.grant", e.ID, meta)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("whitelist: grant: %w", err)
	}
	s.logger.Info("whitelist entry granted",
		slog.String("entry_id", entry.ID),
		slog.String("principal_id", entry.PrincipalID),
		slog.String("actor_id", actorID),
		slog.Int("permissions", len(entry.Permissions)))
	return entry, nil
}

// Revoke deactivates an entry.
func (s *Service) Revoke(ctx context.Context, actorID, id string) (Entry, error) {
	entry, err := s.store.Revoke(ctx, id, func(e Entry) shared.AuditLog {
		return auditEntry(actorID, "whitelist.revoke", e.ID, map[string]any{"principal_id": e.PrincipalID})
	})
	if err != nil {
		return Entry{}, fmt.Errorf("whitelist: revoke: %w", err)
	}
	s.logger.Info("whitelist entry revoked",
		slog.String("entry_id", entry.ID),
		slog.String("principal_id", entry.PrincipalID),
		slog.String("actor_id", actorID))
	return entry, nil
}

// Sweep expires entries that are due at the current clock time. Expiry and
// its audit rows commit together, so a failed audit write leaves the entries
// for the next run.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	ids, err := s.store.ExpireDue(ctx, now, func(e Entry) shared.AuditLog {
		return auditEntry("", "whitelist.expire", e.ID, map[string]any{"expired_at": now.UTC().Format(time.RFC3339)})
	})
	if err != nil {
		return 0, fmt.Errorf("whitelist: sweep: %w", err)
	}
	if len(ids) > 0 {
		s.logger.Info("whitelist entries expired", slog.Int("count", len(ids)))
	}
	return len(ids), nil
}

func auditEntry(actorID, action, entityID string, meta map[string]any) shared.AuditLog {
	return shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "whitelist_entry",
		EntityID: entityID,
		Meta:     meta,
	}
}
