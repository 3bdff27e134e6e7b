package whitelist_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
	"github.com/classhub/classhub/internal/whitelist"
)

// memStore mirrors the repository: entries plus the principal rows they
// redirect. Each mutation writes its audit record last and is undone when
// that write fails, the way the repository transaction rolls back.
type memStore struct {
	mu         sync.Mutex
	seq        int
	entries    map[string]whitelist.Entry
	principals map[string]rbac.Principal
	now        func() time.Time
	audit      *recordingAudit
}

type memSnapshot struct {
	seq        int
	entries    map[string]whitelist.Entry
	principals map[string]rbac.Principal
}

func newMemStore(now func() time.Time, audit *recordingAudit, ps ...rbac.Principal) *memStore {
	s := &memStore{
		entries:    make(map[string]whitelist.Entry),
		principals: make(map[string]rbac.Principal),
		now:        now,
		audit:      audit,
	}
	for _, p := range ps {
		s.principals[p.ID] = p
	}
	return s
}

func (s *memStore) List(ctx context.Context) ([]whitelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []whitelist.Entry
	for _, e := range s.entries {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		seq:        s.seq,
		entries:    make(map[string]whitelist.Entry, len(s.entries)),
		principals: make(map[string]rbac.Principal, len(s.principals)),
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	for k, v := range s.principals {
		snap.principals[k] = v
	}
	return snap
}

// commitLocked writes the audit records and restores snap if that fails.
func (s *memStore) commitLocked(ctx context.Context, snap memSnapshot, audit whitelist.AuditFunc, entries ...whitelist.Entry) error {
	if audit == nil || s.audit == nil {
		return nil
	}
	for _, e := range entries {
		if err := s.audit.Record(ctx, audit(e)); err != nil {
			s.seq, s.entries, s.principals = snap.seq, snap.entries, snap.principals
			return fmt.Errorf("audit: %w", err)
		}
	}
	return nil
}

func (s *memStore) Grant(ctx context.Context, actorID string, req whitelist.GrantRequest, audit whitelist.AuditFunc) (whitelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	p, ok := s.principals[req.PrincipalID]
	if !ok {
		return whitelist.Entry{}, whitelist.ErrPrincipalNotFound
	}
	for id, e := range s.entries {
		if e.PrincipalID == req.PrincipalID && e.IsActive {
			e.IsActive = false
			s.entries[id] = e
		}
	}
	s.seq++
	entry := whitelist.Entry{
		ID:          fmt.Sprintf("entry-%d", s.seq),
		PrincipalID: req.PrincipalID,
		Permissions: req.Permissions,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		GrantedBy:   actorID,
		Reason:      req.Reason,
		CreatedAt:   s.now(),
	}
	s.entries[entry.ID] = entry
	p.PermissionSource = rbac.SourceWhitelist
	p.WhitelistEntryID = entry.ID
	s.principals[p.ID] = p
	if err := s.commitLocked(ctx, snap, audit, entry); err != nil {
		return whitelist.Entry{}, err
	}
	return entry, nil
}

func (s *memStore) Revoke(ctx context.Context, id string, audit whitelist.AuditFunc) (whitelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	e, ok := s.entries[id]
	if !ok || !e.IsActive {
		return whitelist.Entry{}, whitelist.ErrNotFound
	}
	e.IsActive = false
	s.entries[id] = e
	s.resetLocked(id)
	if err := s.commitLocked(ctx, snap, audit, e); err != nil {
		return whitelist.Entry{}, err
	}
	return e, nil
}

func (s *memStore) ExpireDue(ctx context.Context, now time.Time, audit whitelist.AuditFunc) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	var ids []string
	for id, e := range s.entries {
		if e.IsActive && e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
			e.IsActive = false
			s.entries[id] = e
			s.resetLocked(id)
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	expired := make([]whitelist.Entry, 0, len(ids))
	for _, id := range ids {
		expired = append(expired, whitelist.Entry{ID: id})
	}
	if err := s.commitLocked(ctx, snap, audit, expired...); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *memStore) resetLocked(entryID string) {
	for id, p := range s.principals {
		if p.WhitelistEntryID == entryID {
			p.PermissionSource = rbac.SourceDefault
			p.WhitelistEntryID = ""
			s.principals[id] = p
		}
	}
}

func (s *memStore) LoadWhitelistEntry(ctx context.Context, id string) (*rbac.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return e.Authorization(), nil
}

func (s *memStore) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[id]
	if !ok {
		return rbac.Principal{}, rbac.ErrPrincipalNotFound
	}
	return p, nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
	err  error
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}
