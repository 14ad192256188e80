// Package profile resolves and stores users' dietary profiles
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EventHandler receives events raised by profile writes
type EventHandler interface {
	Handle(ctx context.Context, event shared.DomainEvent)
}

// Service implements the profile service. It doubles as the resolver used by
// search to read the requester's restrictions on every call.
type Service struct {
	repo   outbound.ProfileRepository
	store  *cachepolicy.Store
	keys   cachepolicy.KeyBuilder
	events EventHandler
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewService creates a new profile service
func NewService(repo outbound.ProfileRepository, cache outbound.Cache, events EventHandler, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger = logger.Named("profile-service")
	return &Service{
		repo:   repo,
		store:  cachepolicy.NewStore(cache, logger),
		keys:   cachepolicy.NewKeyBuilder(),
		events: events,
		ttl:    ttl,
		logger: logger,
	}
}

var _ inbound.ProfileService = (*Service)(nil)

// GetProfile returns the profile of userID, or nil when the user has none.
// An empty user id resolves to nil without touching the store.
func (s *Service) GetProfile(ctx context.Context, userID string) (*user.DietProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	key := s.keys.Profile(userID)
	var cached user.DietProfile
	if s.store.Fetch(ctx, key, &cached) {
		return &cached, nil
	}

	// concurrent misses for one user share a single store read, which
	// outlives any one caller's cancellation
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(userID, func() (interface{}, error) {
		p, err := s.repo.FindByUserID(flightCtx, userID)
		if errors.Is(err, outbound.ErrNotFound) {
			// absence is not cached so a new profile is seen on the next call
			return (*user.DietProfile)(nil), nil
		}
		if err != nil {
			return nil, outbound.AsAppError(err, "Profile", userID, "load dietary profile")
		}
		s.store.Save(flightCtx, key, p, s.ttl)
		return p, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	p, _ := res.Val.(*user.DietProfile)
	if p == nil {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// UpsertProfile writes the profile and drops its cache entry
func (s *Service) UpsertProfile(ctx context.Context, p *user.DietProfile) error {
	if p == nil || strings.TrimSpace(p.UserID) == "" {
		return apperrors.NewValidationError("userId is required")
	}
	vegType, err := user.ParseVegType(string(p.VegType))
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	p.VegType = vegType
	p.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, p); err != nil {
		return outbound.AsAppError(err, "Profile", p.UserID, "save dietary profile")
	}

	s.logger.Info("Dietary profile updated",
		zap.String("user_id", p.UserID),
		zap.String("veg_type", string(p.VegType)))

	if s.events != nil {
		s.events.Handle(ctx, catalog.ProfileChangedEvent{
			EventBase: shared.NewEventBase(),
			UserID:    p.UserID,
		})
	}
	return nil
}
