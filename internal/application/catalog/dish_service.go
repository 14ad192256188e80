package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/validation"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.uber.org/zap"
)

const maxPopularLimit = 50

// DishService implements the meal and recipe use cases
type DishService struct {
	dishes    outbound.DishRepository
	profiles  ProfileResolver
	resolver  *ingredientResolver
	validator *validation.Service
	store     *cachepolicy.Store
	keys      cachepolicy.KeyBuilder
	ttl       TTLs
	notify    notifier
	logger    *zap.Logger
}

// DishDependencies groups the collaborators of a DishService
type DishDependencies struct {
	Dishes      outbound.DishRepository
	Ingredients outbound.IngredientRepository
	Profiles    ProfileResolver
	Cache       outbound.Cache
	Validator   *validation.Service
	Events      EventHandler
	Metrics     MutationRecorder
}

// NewDishService creates a new dish service
func NewDishService(deps DishDependencies, ttl TTLs, logger *zap.Logger) *DishService {
	logger = logger.Named("dish-service")
	notify := notifier{events: deps.Events, metrics: deps.Metrics}
	return &DishService{
		dishes:   deps.Dishes,
		profiles: deps.Profiles,
		resolver: &ingredientResolver{
			repo:   deps.Ingredients,
			notify: notify,
			logger: logger,
		},
		validator: deps.Validator,
		store:     cachepolicy.NewStore(deps.Cache, logger),
		keys:      cachepolicy.NewKeyBuilder(),
		ttl:       ttl.withDefaults(),
		notify:    notify,
		logger:    logger,
	}
}

var _ inbound.DishService = (*DishService)(nil)

func entityName(kind catalog.DishKind) string {
	if kind == catalog.KindRecipe {
		return "Recipe"
	}
	return "Meal"
}

// CreateDish creates a dish, resolving its ingredients and deriving its
// dietary flags
func (s *DishService) CreateDish(ctx context.Context, cmd inbound.CreateDishCommand) (*catalog.Dish, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return nil, err
	}
	difficulty, err := catalog.ParseDifficulty(cmd.Difficulty)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	s.logger.Info("Creating dish",
		zap.String("kind", string(cmd.Kind)),
		zap.String("title", cmd.Title),
		zap.Int("ingredients", len(cmd.Ingredients)))

	dish, err := catalog.NewDish(cmd.Kind, cmd.Title, difficulty)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	dish.ShortDescription = strings.TrimSpace(cmd.ShortDescription)
	dish.Instructions = cmd.Instructions
	dish.ImageURL = cmd.ImageURL
	dish.CookingTimeMinutes = cmd.CookingTimeMinutes
	dish.CategoryID = cmd.CategoryID

	set, err := s.resolver.resolve(ctx, cmd.Ingredients)
	if err != nil {
		return nil, err
	}
	dish.SetIngredients(set.ingredients, cmd.DiabetesFriendly)

	if err := s.dishes.Create(ctx, dish, set.lines); err != nil {
		if errors.Is(err, outbound.ErrDuplicate) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("%s with this title already exists", entityName(cmd.Kind))).
				WithMetadata("slug", dish.Slug)
		}
		return nil, outbound.AsAppError(err, entityName(cmd.Kind), "", "create dish")
	}

	s.notify.emit(ctx, string(dish.Kind), "create", catalog.DishChangedEvent{
		EventBase: shared.NewEventBase(),
		Kind:      dish.Kind,
		DishID:    dish.ID,
		Slug:      dish.Slug,
		Op:        shared.OpCreated,
	})

	s.logger.Info("Dish created",
		zap.String("dish_id", dish.ID.String()),
		zap.String("slug", dish.Slug))
	return dish, nil
}

// UpdateDish patches a dish. Replacing the ingredient set recomputes the
// dietary flags from scratch.
func (s *DishService) UpdateDish(ctx context.Context, cmd inbound.UpdateDishCommand) (*catalog.Dish, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return nil, err
	}

	dish, err := s.dishes.FindByID(ctx, cmd.Kind, cmd.ID)
	if err != nil {
		return nil, outbound.AsAppError(err, entityName(cmd.Kind), cmd.ID.String(), "load dish")
	}
	previousSlug := dish.Slug

	if cmd.Title != nil {
		if err := dish.Retitle(*cmd.Title); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	if cmd.ShortDescription != nil {
		dish.ShortDescription = strings.TrimSpace(*cmd.ShortDescription)
	}
	if cmd.Instructions != nil {
		dish.Instructions = *cmd.Instructions
	}
	if cmd.ImageURL != nil {
		dish.ImageURL = *cmd.ImageURL
	}
	if cmd.Difficulty != nil {
		d, err := catalog.ParseDifficulty(*cmd.Difficulty)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if d != "" {
			dish.Difficulty = d
		}
	}
	if cmd.CookingTimeMinutes != nil {
		dish.CookingTimeMinutes = cmd.CookingTimeMinutes
	}
	if cmd.CategoryID != nil {
		dish.CategoryID = cmd.CategoryID
	}

	diabetes := dish.Flags.DiabetesFriendly
	if cmd.DiabetesFriendly != nil {
		diabetes = *cmd.DiabetesFriendly
	}

	var lines []catalog.IngredientLine
	if cmd.Ingredients != nil {
		for _, in := range *cmd.Ingredients {
			if err := s.validator.Validate(in); err != nil {
				return nil, err
			}
		}
		set, err := s.resolver.resolve(ctx, *cmd.Ingredients)
		if err != nil {
			return nil, err
		}
		dish.SetIngredients(set.ingredients, diabetes)
		lines = set.lines
	} else {
		dish.Flags.DiabetesFriendly = diabetes
	}

	if err := s.dishes.Update(ctx, dish, lines); err != nil {
		if errors.Is(err, outbound.ErrDuplicate) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("%s with this title already exists", entityName(cmd.Kind))).
				WithMetadata("slug", dish.Slug)
		}
		return nil, outbound.AsAppError(err, entityName(cmd.Kind), cmd.ID.String(), "update dish")
	}

	s.notify.emit(ctx, string(dish.Kind), "update", catalog.DishChangedEvent{
		EventBase:    shared.NewEventBase(),
		Kind:         dish.Kind,
		DishID:       dish.ID,
		Slug:         dish.Slug,
		PreviousSlug: previousSlug,
		Op:           shared.OpUpdated,
	})

	s.logger.Info("Dish updated",
		zap.String("dish_id", dish.ID.String()),
		zap.Bool("ingredients_replaced", lines != nil))
	return dish, nil
}

// DeleteDish removes a dish with its lines, bookmarks and cook logs
func (s *DishService) DeleteDish(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error {
	dish, err := s.dishes.FindByID(ctx, kind, id)
	if err != nil {
		return outbound.AsAppError(err, entityName(kind), id.String(), "load dish")
	}
	if err := s.dishes.Delete(ctx, kind, id); err != nil {
		return outbound.AsAppError(err, entityName(kind), id.String(), "delete dish")
	}

	s.notify.emit(ctx, string(kind), "delete", catalog.DishChangedEvent{
		EventBase: shared.NewEventBase(),
		Kind:      kind,
		DishID:    id,
		Slug:      dish.Slug,
		Op:        shared.OpDeleted,
	})

	s.logger.Info("Dish deleted", zap.String("dish_id", id.String()))
	return nil
}

// GetDish returns a dish with its ingredient lines and the requester's
// compatibility verdict. Store reads count as a view.
func (s *DishService) GetDish(ctx context.Context, kind catalog.DishKind, id uuid.UUID, userID string) (*inbound.DishDetail, error) {
	dish, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Dish(kind, id), s.ttl.Detail,
		func(ctx context.Context) (*catalog.Dish, error) {
			d, err := s.dishes.FindByID(ctx, kind, id)
			if err != nil {
				return nil, outbound.AsAppError(err, entityName(kind), id.String(), "load dish")
			}
			s.countView(ctx, d)
			return d, nil
		})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, dish, userID)
}

// GetDishBySlug is GetDish addressed by slug
func (s *DishService) GetDishBySlug(ctx context.Context, kind catalog.DishKind, slug, userID string) (*inbound.DishDetail, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	dish, _, err := cachepolicy.Remember(ctx, s.store, s.keys.DishSlug(kind, slug), s.ttl.Detail,
		func(ctx context.Context) (*catalog.Dish, error) {
			d, err := s.dishes.FindBySlug(ctx, kind, slug)
			if err != nil {
				return nil, outbound.AsAppError(err, entityName(kind), slug, "load dish")
			}
			s.countView(ctx, d)
			return d, nil
		})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, dish, userID)
}

func (s *DishService) countView(ctx context.Context, d *catalog.Dish) {
	if err := s.dishes.IncrementCounter(ctx, d.Kind, d.ID, outbound.CounterView, 1); err != nil {
		s.logger.Warn("Failed to count view", zap.String("dish_id", d.ID.String()), zap.Error(err))
		return
	}
	d.ViewCount++
}

func (s *DishService) detail(ctx context.Context, dish *catalog.Dish, userID string) (*inbound.DishDetail, error) {
	lines, _, err := cachepolicy.Remember(ctx, s.store, s.keys.DishIngredients(dish.Kind, dish.ID), s.ttl.Detail,
		func(ctx context.Context) ([]catalog.IngredientLine, error) {
			lines, err := s.dishes.FindIngredientLines(ctx, dish.Kind, dish.ID)
			if err != nil {
				return nil, outbound.AsAppError(err, entityName(dish.Kind), dish.ID.String(), "load ingredient lines")
			}
			return lines, nil
		})
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &inbound.DishDetail{
		Dish:          dish,
		Ingredients:   lines,
		Compatibility: profile.CheckCompatibility(dish.Flags),
	}, nil
}

// ListDishes pages through a catalog, newest first
func (s *DishService) ListDishes(ctx context.Context, q inbound.ListDishesQuery) (*inbound.DishPage, error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}

	b := query.NewBuilder()
	if q.CategoryID != nil {
		b.Where(query.Equals{Field: query.FieldCategoryID, Value: *q.CategoryID})
	}
	if q.Difficulty != "" {
		d, err := catalog.ParseDifficulty(q.Difficulty)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		b.Where(query.Equals{Field: query.FieldDifficulty, Value: d})
	}
	if q.IsVeg != nil {
		b.Where(query.Equals{Field: query.FieldIsVeg, Value: *q.IsVeg})
	}
	pred := b.Build()

	dishes, err := s.dishes.FindMany(ctx, q.Kind, pred, outbound.FindOptions{
		OrderBy: []outbound.Order{
			{Field: query.FieldCreatedAt, Desc: true},
			{Field: query.FieldID},
		},
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, outbound.AsAppError(err, entityName(q.Kind), "", "list dishes")
	}
	total, err := s.dishes.Count(ctx, q.Kind, pred)
	if err != nil {
		return nil, outbound.AsAppError(err, entityName(q.Kind), "", "count dishes")
	}

	return &inbound.DishPage{
		Dishes:  summaries(dishes),
		Total:   total,
		Limit:   limit,
		Offset:  q.Offset,
		HasMore: total > int64(q.Offset+limit),
	}, nil
}

// Popular lists the most cooked dishes, then the most bookmarked, then the
// best rated
func (s *DishService) Popular(ctx context.Context, kind catalog.DishKind, limit int) ([]inbound.DishSummary, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown dish kind %q", kind))
	}
	if limit == 0 {
		limit = 10
	}
	if limit < 0 || limit > maxPopularLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", maxPopularLimit))
	}

	out, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Popular(kind, limit), s.ttl.Popular,
		func(ctx context.Context) ([]inbound.DishSummary, error) {
			dishes, err := s.dishes.FindMany(ctx, kind, nil, outbound.FindOptions{
				OrderBy: []outbound.Order{
					{Field: query.FieldCookCount, Desc: true},
					{Field: query.FieldBookmarkCount, Desc: true},
					{Field: query.FieldAvgRating, Desc: true},
					{Field: query.FieldID},
				},
				Limit: limit,
			})
			if err != nil {
				return nil, outbound.AsAppError(err, entityName(kind), "", "list popular dishes")
			}
			return summaries(dishes), nil
		})
	return out, err
}

// RecordClick counts a click from a listing
func (s *DishService) RecordClick(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error {
	if err := s.dishes.IncrementCounter(ctx, kind, id, outbound.CounterClick, 1); err != nil {
		return outbound.AsAppError(err, entityName(kind), id.String(), "record click")
	}
	return nil
}

func summaries(dishes []*catalog.Dish) []inbound.DishSummary {
	out := make([]inbound.DishSummary, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, inbound.SummaryOf(d))
	}
	return out
}
