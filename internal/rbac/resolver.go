package rbac

import (
	"context"
	"log/slog"

	"github.com/coder/quartz"
)

// ResolvedSource names the precedence step that produced the effective
// permission set.
type ResolvedSource string

const (
	ResolvedWhitelist ResolvedSource = "whitelist"
	ResolvedCustom    ResolvedSource = "custom"
	ResolvedRole      ResolvedSource = "role"
)

// Resolution is the effective permission set for one authorization check.
type Resolution struct {
	Permissions PermissionSet
	Source      ResolvedSource
}

// resolveStep either resolves the permission set or defers to the next step.
type resolveStep func(ctx context.Context, p Principal) (Resolution, bool)

// Resolver computes effective permissions using the precedence chain
// whitelist > custom > role default. Results replace each other, they are
// never merged.
type Resolver struct {
	whitelist WhitelistLoader
	clock     quartz.Clock
	logger    *slog.Logger
}

// NewResolver builds a Resolver. A nil clock uses the wall clock.
func NewResolver(whitelist WhitelistLoader, clock quartz.Clock, logger *slog.Logger) *Resolver {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Resolver{whitelist: whitelist, clock: clock, logger: logger}
}

// Resolve runs the chain sequentially for principal p.
func (r *Resolver) Resolve(ctx context.Context, p Principal) Resolution {
	steps := []resolveStep{r.fromWhitelist, fromCustom, fromRole}
	for _, step := range steps {
		if res, ok := step(ctx, p); ok {
			return res
		}
	}
	return Resolution{Source: ResolvedRole}
}

func (r *Resolver) fromWhitelist(ctx context.Context, p Principal) (Resolution, bool) {
	if p.PermissionSource != SourceWhitelist || p.WhitelistEntryID == "" {
		return Resolution{}, false
	}
	if r.whitelist == nil {
		r.log().Warn("whitelist loader not configured, falling back to default",
			slog.String("principal_id", p.ID))
		return Resolution{}, false
	}
	entry, err := r.whitelist.LoadWhitelistEntry(ctx, p.WhitelistEntryID)
	if err != nil {
		r.log().Warn("whitelist lookup failed, falling back to default",
			slog.String("principal_id", p.ID),
			slog.String("whitelist_entry_id", p.WhitelistEntryID),
			slog.Any("error", err))
		return Resolution{}, false
	}
	if entry == nil || !entry.Effective(r.clock.Now()) {
		r.log().Info("whitelist entry not effective, falling back to default",
			slog.String("principal_id", p.ID),
			slog.String("whitelist_entry_id", p.WhitelistEntryID),
			slog.Bool("found", entry != nil))
		return Resolution{}, false
	}
	return Resolution{Permissions: entry.Permissions, Source: ResolvedWhitelist}, true
}

func fromCustom(_ context.Context, p Principal) (Resolution, bool) {
	if p.CustomPermissions.Len() == 0 {
		return Resolution{}, false
	}
	return Resolution{Permissions: p.CustomPermissions, Source: ResolvedCustom}, true
}

func fromRole(_ context.Context, p Principal) (Resolution, bool) {
	return Resolution{Permissions: RolePermissions(p.Role), Source: ResolvedRole}, true
}

func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}
