package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

// Me is the signed-in user's own view: their profile and roles.
type Me struct {
	Profile *model.Profile `json:"profile"`
	Roles   []model.Role   `json:"roles"`
}

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileService manages user profiles. Roles are never read from or written
// to profiles.
type ProfileService struct {
	repo  repository.ProfileRepository
	roles *RoleService
	now   func() time.Time
}

// NewProfileService creates a profile service.
func NewProfileService(repo repository.ProfileRepository, roles *RoleService, opts Options) *ProfileService {
	opts = opts.withDefaults()
	return &ProfileService{repo: repo, roles: roles, now: opts.Clock}
}

// Me returns the profile and roles of userID. A user without a profile gets
// an empty one.
func (s *ProfileService) Me(ctx context.Context, userID string) (*Me, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, auction.ErrNotFound) {
		p = &model.Profile{ID: userID}
	} else if err != nil {
		return nil, err
	}
	roles, err := s.roles.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Me{Profile: p, Roles: roles}, nil
}

// Get returns a public profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update creates or edits userID's profile.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	verr := &auction.ValidationError{}
	if n := len(in.Username); n < minUsernameLength || n > maxUsernameLength {
		verr.Add("username", "must be between 3 and 50 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now()
	p := model.Profile{
		ID:        userID,
		Username:  in.Username,
		Bio:       strings.TrimSpace(in.Bio),
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.repo.GetProfile(ctx, userID); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, auction.ErrNotFound) {
		return nil, err
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}
