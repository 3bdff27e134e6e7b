package users

import (
	"context"
	"fmt"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	// UpdateUser persists the change and its audit record atomically.
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest, audit shared.AuditLog) (User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateUser changes role, activity or custom permissions of an account.
// Custom permissions must name known permissions.
func (s *Service) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (User, error) {
	if req.Role == nil && req.IsActive == nil && req.CustomPermissions == nil {
		return User{}, fmt.Errorf("%w: no changes requested", httpx.ErrValidation)
	}
	if req.Role != nil {
		if _, err := rbac.ParseRole(*req.Role); err != nil {
			return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
	}
	if req.CustomPermissions != nil {
		set, err := rbac.ParsePermissions(*req.CustomPermissions)
		if err != nil {
			return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		normalized := set.Strings()
		req.CustomPermissions = &normalized
	}
	meta := map[string]any{}
	if req.Role != nil {
		meta["role"] = *req.Role
	}
	if req.IsActive != nil {
		meta["is_active"] = *req.IsActive
	}
	if req.CustomPermissions != nil {
		meta["custom_permissions"] = *req.CustomPermissions
	}
	user, err := s.repo.UpdateUser(ctx, id, req, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.update",
		Entity:   "user",
		EntityID: id,
		Meta:     meta,
	})
	if err != nil {
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	return user, nil
}
