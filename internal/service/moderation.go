package service

import (
	"context"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
)

// ModerationService is the only way a pending auction goes live or gets
// rejected. Every caller, including admin tooling, goes through it.
type ModerationService struct {
	repo    repository.AuctionRepository
	roles   *RoleService
	events  emitter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewModerationService creates a moderation service.
func NewModerationService(repo repository.AuctionRepository, roles *RoleService, opts Options) *ModerationService {
	opts = opts.withDefaults()
	return &ModerationService{
		repo:    repo,
		roles:   roles,
		events:  newEmitter(opts, "moderation"),
		metrics: opts.Metrics,
		now:     opts.Clock,
	}
}

type decision func(a model.Auction, now time.Time) (model.Auction, bool, error)

// Approve puts a pending auction live for its full duration starting now.
// Approving an auction that is already live succeeds without changing it.
func (s *ModerationService) Approve(ctx context.Context, auctionID, actorID string) (*model.Auction, error) {
	return s.decide(ctx, "approve", auctionID, actorID, auction.Approve, model.StatusLive, model.EventAuctionApproved)
}

// Reject cancels a pending auction. Rejecting an already cancelled auction
// succeeds without changing it.
func (s *ModerationService) Reject(ctx context.Context, auctionID, actorID string) (*model.Auction, error) {
	return s.decide(ctx, "reject", auctionID, actorID, auction.Reject, model.StatusCancelled, model.EventAuctionRejected)
}

// Pending lists the moderation queue, newest first.
func (s *ModerationService) Pending(ctx context.Context, actorID string, limit, offset int) ([]model.Listing, error) {
	if err := s.roles.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListListings(ctx, model.AuctionFilter{
		Statuses: []model.Status{model.StatusPending},
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *ModerationService) decide(ctx context.Context, action, auctionID, actorID string, fn decision, target model.Status, evType model.EventType) (*model.Auction, error) {
	a, err := s.apply(ctx, auctionID, actorID, fn, target)
	switch {
	case err != nil:
		s.metrics.Moderation.WithLabelValues(action, string(auction.KindOf(err))).Inc()
		return nil, err
	case a.changed:
		s.metrics.Moderation.WithLabelValues(action, metrics.ResultOK).Inc()
		s.events.emit(ctx, evType, a.auction, nil, a.at)
	default:
		s.metrics.Moderation.WithLabelValues(action, metrics.ResultNoop).Inc()
	}
	return a.auction, nil
}

type outcome struct {
	auction *model.Auction
	changed bool
	at      time.Time
}

func (s *ModerationService) apply(ctx context.Context, auctionID, actorID string, fn decision, target model.Status) (outcome, error) {
	if err := s.roles.RequireAdmin(ctx, actorID); err != nil {
		return outcome{}, err
	}

	current, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return outcome{}, err
	}
	now := s.now()
	next, changed, err := fn(*current, now)
	if err != nil {
		return outcome{}, err
	}
	if !changed {
		return outcome{auction: current, at: now}, nil
	}

	ok, err := s.repo.UpdateStatusIf(ctx, model.StatusPending, next)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		// Someone else decided first. Their decision is final; matching it is a no-op.
		latest, err := s.repo.GetAuction(ctx, auctionID)
		if err != nil {
			return outcome{}, err
		}
		if latest.Status == target {
			return outcome{auction: latest, at: now}, nil
		}
		return outcome{}, auction.ErrAlreadyDecided
	}
	return outcome{auction: &next, changed: true, at: now}, nil
}
