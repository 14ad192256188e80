package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/validation"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.uber.org/zap"
)

// EngagementService records bookmarks, cooks and ratings
type EngagementService struct {
	engagement outbound.EngagementRepository
	dishes     outbound.DishRepository
	validator  *validation.Service
	notify     notifier
	logger     *zap.Logger
}

// NewEngagementService creates a new engagement service
func NewEngagementService(
	engagement outbound.EngagementRepository,
	dishes outbound.DishRepository,
	validator *validation.Service,
	events EventHandler,
	metrics MutationRecorder,
	logger *zap.Logger,
) *EngagementService {
	return &EngagementService{
		engagement: engagement,
		dishes:     dishes,
		validator:  validator,
		notify:     notifier{events: events, metrics: metrics},
		logger:     logger.Named("engagement-service"),
	}
}

var _ inbound.EngagementService = (*EngagementService)(nil)

func checkUser(kind catalog.DishKind, userID string) error {
	if !kind.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown dish kind %q", kind))
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewValidationError("user id is required")
	}
	return nil
}

// Bookmark saves a dish for a user. Bookmarking twice is a conflict.
func (s *EngagementService) Bookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error {
	if err := checkUser(kind, userID); err != nil {
		return err
	}
	err := s.engagement.AddBookmark(ctx, kind, dishID, userID)
	if errors.Is(err, outbound.ErrDuplicate) {
		return apperrors.NewConflictError(fmt.Sprintf("%s already bookmarked", entityName(kind))).WithCause(err)
	}
	if err != nil {
		return outbound.AsAppError(err, entityName(kind), dishID.String(), "add bookmark")
	}

	s.emit(ctx, kind, dishID, userID, catalog.EngagementBookmarked)
	return nil
}

// Unbookmark removes a saved dish
func (s *EngagementService) Unbookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error {
	if err := checkUser(kind, userID); err != nil {
		return err
	}
	if err := s.engagement.RemoveBookmark(ctx, kind, dishID, userID); err != nil {
		return outbound.AsAppError(err, "Bookmark", dishID.String(), "remove bookmark")
	}

	s.emit(ctx, kind, dishID, userID, catalog.EngagementUnbookmarked)
	return nil
}

// ListBookmarks pages through a user's bookmarks, newest first
func (s *EngagementService) ListBookmarks(ctx context.Context, kind catalog.DishKind, userID string, limit, offset int) (*inbound.DishPage, error) {
	if err := checkUser(kind, userID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit < 0 || limit > maxPageLimit || offset < 0 || offset > math.MaxInt-limit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d and offset non-negative", maxPageLimit))
	}

	ids, total, err := s.engagement.ListBookmarks(ctx, kind, userID, limit, offset)
	if err != nil {
		return nil, outbound.AsAppError(err, "Bookmark", userID, "list bookmarks")
	}
	dishes, err := s.dishes.FindByIDs(ctx, kind, ids)
	if err != nil {
		return nil, outbound.AsAppError(err, entityName(kind), "", "load bookmarked dishes")
	}

	byID := make(map[uuid.UUID]*catalog.Dish, len(dishes))
	for _, d := range dishes {
		byID[d.ID] = d
	}
	ordered := make([]*catalog.Dish, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}

	return &inbound.DishPage{
		Dishes:  summaries(ordered),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: total > int64(offset+limit),
	}, nil
}

// RateDish records a cook, with an optional 1 to 5 rating, and returns the
// dish's new average rating
func (s *EngagementService) RateDish(ctx context.Context, cmd inbound.RateDishCommand) (float64, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return 0, err
	}

	avg, err := s.engagement.AddCookLog(ctx, &outbound.CookLog{
		ID:     uuid.New(),
		Kind:   cmd.Kind,
		DishID: cmd.DishID,
		UserID: cmd.UserID,
		Rating: cmd.Rating,
		Notes:  strings.TrimSpace(cmd.Notes),
	})
	if err != nil {
		return 0, outbound.AsAppError(err, entityName(cmd.Kind), cmd.DishID.String(), "record cook")
	}

	engagement := catalog.EngagementCooked
	if cmd.Rating != nil {
		engagement = catalog.EngagementRated
	}
	s.emit(ctx, cmd.Kind, cmd.DishID, cmd.UserID, engagement)

	s.logger.Debug("Cook recorded",
		zap.String("dish_id", cmd.DishID.String()),
		zap.Bool("rated", cmd.Rating != nil),
		zap.Float64("avg_rating", avg))
	return avg, nil
}

func (s *EngagementService) emit(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string, engagement catalog.EngagementKind) {
	// the slug detail entry carries the same counters as the id one
	var slug string
	if d, err := s.dishes.FindByID(ctx, kind, dishID); err == nil {
		slug = d.Slug
	} else {
		s.logger.Warn("Slug lookup failed, slug detail entry left to expire",
			zap.String("dish_id", dishID.String()),
			zap.Error(err))
	}

	s.notify.emit(ctx, "engagement", string(engagement), catalog.DishEngagedEvent{
		EventBase:  shared.NewEventBase(),
		Kind:       kind,
		DishID:     dishID,
		Slug:       slug,
		UserID:     userID,
		Engagement: engagement,
	})
}
