package service

import (
	"context"
	"fmt"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/cache"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/pkg/logging"
)

// DefaultRoleCacheTTL bounds how long a revoked admin can keep acting on
// another instance whose cache missed the invalidation.
const DefaultRoleCacheTTL = 30 * time.Second

// RoleService answers capability questions from the role table. Answers are
// cached; every write through this service invalidates the cached entry.
type RoleService struct {
	repo  repository.RoleRepository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewRoleService creates a role service.
func NewRoleService(repo repository.RoleRepository, c cache.Cache, ttl time.Duration, opts Options) *RoleService {
	opts = opts.withDefaults()
	if ttl <= 0 {
		ttl = DefaultRoleCacheTTL
	}
	return &RoleService{repo: repo, cache: c, ttl: ttl, now: opts.Clock}
}

func roleKey(userID string, role model.Role) string {
	return "role:" + string(role) + ":" + userID
}

// HasRole reports whether userID holds role.
func (s *RoleService) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	if userID == "" {
		return false, nil
	}
	value, err := s.cache.GetOrSet(ctx, roleKey(userID, role), s.ttl, func() ([]byte, error) {
		ok, err := s.repo.HasRole(ctx, userID, role)
		if err != nil {
			return nil, err
		}
		if ok {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}
	return string(value) == "1", nil
}

// IsAdmin reports whether userID may moderate.
func (s *RoleService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.HasRole(ctx, userID, model.RoleAdmin)
}

// RequireAdmin returns auction.ErrForbidden unless userID is an admin.
func (s *RoleService) RequireAdmin(ctx context.Context, userID string) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return auction.ErrForbidden
	}
	return nil
}

// Grant gives userID a role. Only admins may grant.
func (s *RoleService) Grant(ctx context.Context, actorID, userID string, role model.Role) error {
	if err := s.validate(userID, role); err != nil {
		return err
	}
	if err := s.RequireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.grant(ctx, actorID, userID, role)
}

// Revoke removes a role from userID. Only admins may revoke, and an admin
// cannot revoke their own admin role.
func (s *RoleService) Revoke(ctx context.Context, actorID, userID string, role model.Role) error {
	if err := s.validate(userID, role); err != nil {
		return err
	}
	if err := s.RequireAdmin(ctx, actorID); err != nil {
		return err
	}
	if actorID == userID && role == model.RoleAdmin {
		return &auction.ValidationError{Fields: []auction.FieldError{{Field: "user_id", Message: "cannot revoke your own admin role"}}}
	}
	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return err
	}
	return s.invalidate(ctx, userID, role)
}

// Roles lists the roles held by userID.
func (s *RoleService) Roles(ctx context.Context, userID string) ([]model.Role, error) {
	return s.repo.ListRoles(ctx, userID)
}

// Bootstrap grants the admin role to the configured operators at startup.
// It is the only path that grants without an acting admin.
func (s *RoleService) Bootstrap(ctx context.Context, adminIDs []string) error {
	log := logging.Component("roles")
	for _, id := range adminIDs {
		if id == "" {
			continue
		}
		if err := s.grant(ctx, "bootstrap", id, model.RoleAdmin); err != nil {
			return err
		}
		log.Info("bootstrap admin ensured", "user", id)
	}
	return nil
}

func (s *RoleService) grant(ctx context.Context, actorID, userID string, role model.Role) error {
	err := s.repo.GrantRole(ctx, model.RoleAssignment{
		UserID:    userID,
		Role:      role,
		GrantedBy: actorID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return err
	}
	return s.invalidate(ctx, userID, role)
}

func (s *RoleService) invalidate(ctx context.Context, userID string, role model.Role) error {
	if err := s.cache.Delete(ctx, roleKey(userID, role)); err != nil {
		return fmt.Errorf("failed to invalidate role cache: %w", err)
	}
	return nil
}

func (s *RoleService) validate(userID string, role model.Role) error {
	verr := &auction.ValidationError{}
	if userID == "" {
		verr.Add("user_id", "is required")
	}
	if !role.Valid() {
		verr.Add("role", "must be one of user, seller, admin")
	}
	return verr.OrNil()
}
