package rbac_test

import (
	"context"
	"sync"

	"github.com/classhub/classhub/internal/rbac"
)

type fakePrincipals struct {
	mu         sync.Mutex
	principals map[string]rbac.Principal
	err        error
	calls      int
	block      chan struct{}
}

func newFakePrincipals(ps ...rbac.Principal) *fakePrincipals {
	f := &fakePrincipals{principals: make(map[string]rbac.Principal)}
	for _, p := range ps {
		f.principals[p.ID] = p
	}
	return f
}

func (f *fakePrincipals) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return rbac.Principal{}, ctx.Err()
		}
	}
	if f.err != nil {
		return rbac.Principal{}, f.err
	}
	p, ok := f.principals[id]
	if !ok {
		return rbac.Principal{}, rbac.ErrPrincipalNotFound
	}
	return p, nil
}

func (f *fakePrincipals) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWhitelist struct {
	mu      sync.Mutex
	entries map[string]rbac.WhitelistEntry
	err     error
	calls   int
}

func newFakeWhitelist(entries ...rbac.WhitelistEntry) *fakeWhitelist {
	f := &fakeWhitelist{entries: make(map[string]rbac.WhitelistEntry)}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

func (f *fakeWhitelist) LoadWhitelistEntry(ctx context.Context, id string) (*rbac.WhitelistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
