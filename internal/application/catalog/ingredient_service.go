package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
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

// IngredientService implements the ingredient catalog use cases
type IngredientService struct {
	ingredients outbound.IngredientRepository
	dishes      outbound.DishRepository
	categories  outbound.CategoryRepository
	validator   *validation.Service
	store       *cachepolicy.Store
	keys        cachepolicy.KeyBuilder
	ttl         TTLs
	notify      notifier
	logger      *zap.Logger
}

// IngredientDependencies groups the collaborators of an IngredientService
type IngredientDependencies struct {
	Ingredients outbound.IngredientRepository
	Dishes      outbound.DishRepository
	Categories  outbound.CategoryRepository
	Cache       outbound.Cache
	Validator   *validation.Service
	Events      EventHandler
	Metrics     MutationRecorder
}

// NewIngredientService creates a new ingredient service
func NewIngredientService(deps IngredientDependencies, ttl TTLs, logger *zap.Logger) *IngredientService {
	logger = logger.Named("ingredient-service")
	return &IngredientService{
		ingredients: deps.Ingredients,
		dishes:      deps.Dishes,
		categories:  deps.Categories,
		validator:   deps.Validator,
		store:       cachepolicy.NewStore(deps.Cache, logger),
		keys:        cachepolicy.NewKeyBuilder(),
		ttl:         ttl.withDefaults(),
		notify:      notifier{events: deps.Events, metrics: deps.Metrics},
		logger:      logger,
	}
}

var _ inbound.IngredientService = (*IngredientService)(nil)

func normalizeAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		a = catalog.NormalizeName(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// CreateIngredient adds a verified ingredient to the catalog
func (s *IngredientService) CreateIngredient(ctx context.Context, cmd inbound.CreateIngredientCommand) (*catalog.Ingredient, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return nil, err
	}

	ing, err := catalog.NewIngredient(cmd.Name)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if existing, err := s.ingredients.FindByNameOrAlias(ctx, ing.Name); err == nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("ingredient %q already exists", existing.Name)).
			WithMetadata("ingredient_id", existing.ID.String())
	} else if !errors.Is(err, outbound.ErrNotFound) {
		return nil, outbound.AsAppError(err, "Ingredient", ing.Name, "look up ingredient")
	}

	ing.Aliases = normalizeAliases(cmd.Aliases)
	ing.CategoryID = cmd.CategoryID
	ing.IsVeg = cmd.IsVeg
	ing.IsVegan = cmd.IsVegan
	ing.IsDairy = cmd.IsDairy
	ing.IsNut = cmd.IsNut
	ing.IsGluten = cmd.IsGluten

	if err := s.ingredients.Create(ctx, ing); err != nil {
		return nil, outbound.AsAppError(err, "Ingredient", ing.Slug, "create ingredient")
	}

	s.notify.emit(ctx, "ingredient", "create", catalog.IngredientChangedEvent{
		EventBase:    shared.NewEventBase(),
		IngredientID: ing.ID,
		Slug:         ing.Slug,
		Op:           shared.OpCreated,
	})

	s.logger.Info("Ingredient created",
		zap.String("ingredient_id", ing.ID.String()),
		zap.String("name", ing.Name))
	return ing, nil
}

// UpdateIngredient patches an ingredient. Renames and dietary tag changes
// are written through to every dish that lists it.
func (s *IngredientService) UpdateIngredient(ctx context.Context, cmd inbound.UpdateIngredientCommand) (*catalog.Ingredient, error) {
	if err := s.validator.Validate(cmd); err != nil {
		return nil, err
	}

	ing, err := s.ingredients.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, outbound.AsAppError(err, "Ingredient", cmd.ID.String(), "load ingredient")
	}
	before := *ing
	previousSlug := ing.Slug

	if cmd.Name != nil && catalog.NormalizeName(*cmd.Name) != catalog.NormalizeName(ing.Name) {
		existing, err := s.ingredients.FindByNameOrAlias(ctx, *cmd.Name)
		switch {
		case err == nil && existing.ID != ing.ID:
			return nil, apperrors.NewConflictError(fmt.Sprintf("ingredient %q already exists", existing.Name)).
				WithMetadata("ingredient_id", existing.ID.String())
		case err != nil && !errors.Is(err, outbound.ErrNotFound):
			return nil, outbound.AsAppError(err, "Ingredient", *cmd.Name, "look up ingredient")
		}
		if err := ing.Rename(*cmd.Name); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}
	if cmd.Aliases != nil {
		ing.Aliases = normalizeAliases(*cmd.Aliases)
	}
	if cmd.CategoryID != nil {
		ing.CategoryID = cmd.CategoryID
	}
	if cmd.IsVeg != nil {
		ing.IsVeg = *cmd.IsVeg
	}
	if cmd.IsVegan != nil {
		ing.IsVegan = *cmd.IsVegan
	}
	if cmd.IsDairy != nil {
		ing.IsDairy = *cmd.IsDairy
	}
	if cmd.IsNut != nil {
		ing.IsNut = *cmd.IsNut
	}
	if cmd.IsGluten != nil {
		ing.IsGluten = *cmd.IsGluten
	}
	if cmd.IsVerified != nil {
		ing.IsVerified = *cmd.IsVerified
	}

	if err := s.ingredients.Update(ctx, ing); err != nil {
		return nil, outbound.AsAppError(err, "Ingredient", ing.ID.String(), "update ingredient")
	}

	s.notify.emit(ctx, "ingredient", "update", catalog.IngredientChangedEvent{
		EventBase:    shared.NewEventBase(),
		IngredientID: ing.ID,
		Slug:         ing.Slug,
		PreviousSlug: previousSlug,
		Op:           shared.OpUpdated,
	})

	if affectsDishes(before, *ing) {
		s.refreshDishes(ctx, ing)
	}

	s.logger.Info("Ingredient updated",
		zap.String("ingredient_id", ing.ID.String()),
		zap.String("name", ing.Name))
	return ing, nil
}

// affectsDishes reports whether a change shows up in the denormalized dish
// arrays, lines or flags
func affectsDishes(before, after catalog.Ingredient) bool {
	return before.Name != after.Name ||
		before.Slug != after.Slug ||
		before.IsVeg != after.IsVeg ||
		before.IsVegan != after.IsVegan ||
		before.IsDairy != after.IsDairy ||
		before.IsNut != after.IsNut ||
		before.IsGluten != after.IsGluten
}

// refreshDishes rebuilds the ingredient arrays, lines and flags of every dish
// listing ing. Failures are logged per dish and leave that dish stale until
// its next update.
func (s *IngredientService) refreshDishes(ctx context.Context, ing *catalog.Ingredient) {
	pred := query.SetOverlaps{Field: query.FieldIngredientIDs, Values: []string{ing.ID.String()}}
	for _, kind := range []catalog.DishKind{catalog.KindMeal, catalog.KindRecipe} {
		dishes, err := s.dishes.FindMany(ctx, kind, pred, outbound.FindOptions{
			OrderBy: []outbound.Order{{Field: query.FieldID}},
		})
		if err != nil {
			s.logger.Error("Failed to list dishes for ingredient refresh",
				zap.String("kind", string(kind)),
				zap.String("ingredient_id", ing.ID.String()),
				zap.Error(err))
			continue
		}
		for _, d := range dishes {
			if err := s.refreshDish(ctx, d, ing); err != nil {
				s.logger.Error("Failed to refresh dish ingredients",
					zap.String("dish_id", d.ID.String()),
					zap.String("ingredient_id", ing.ID.String()),
					zap.Error(err))
			}
		}
	}
}

func (s *IngredientService) refreshDish(ctx context.Context, d *catalog.Dish, changed *catalog.Ingredient) error {
	lines, err := s.dishes.FindIngredientLines(ctx, d.Kind, d.ID)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(d.IngredientIDs))
	for _, raw := range d.IngredientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("dish %s lists malformed ingredient id %q: %w", d.ID, raw, err)
		}
		ids = append(ids, id)
	}
	found, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]catalog.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	byID[changed.ID] = *changed

	ings := make([]catalog.Ingredient, 0, len(ids))
	for _, id := range ids {
		if ing, ok := byID[id]; ok {
			ings = append(ings, ing)
		}
	}
	for i, line := range lines {
		if line.IngredientID == changed.ID {
			lines[i] = catalog.LineFor(*changed, line.Quantity, line.IsOptional)
		}
	}

	d.SetIngredients(ings, d.Flags.DiabetesFriendly)
	if err := s.dishes.Update(ctx, d, lines); err != nil {
		return err
	}

	s.notify.emit(ctx, string(d.Kind), "update", catalog.DishChangedEvent{
		EventBase: shared.NewEventBase(),
		Kind:      d.Kind,
		DishID:    d.ID,
		Slug:      d.Slug,
		Op:        shared.OpUpdated,
	})
	return nil
}

// DeleteIngredient removes an ingredient no dish lists
func (s *IngredientService) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	ing, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return outbound.AsAppError(err, "Ingredient", id.String(), "load ingredient")
	}

	refs, err := s.dishes.CountReferencing(ctx, id)
	if err != nil {
		return outbound.AsAppError(err, "Ingredient", id.String(), "count ingredient references")
	}
	if refs > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("ingredient %q is used by %d dishes", ing.Name, refs)).
			WithMetadata("references", refs)
	}

	if err := s.ingredients.Delete(ctx, id); err != nil {
		return outbound.AsAppError(err, "Ingredient", id.String(), "delete ingredient")
	}

	s.notify.emit(ctx, "ingredient", "delete", catalog.IngredientChangedEvent{
		EventBase:    shared.NewEventBase(),
		IngredientID: id,
		Slug:         ing.Slug,
		Op:           shared.OpDeleted,
	})

	s.logger.Info("Ingredient deleted", zap.String("ingredient_id", id.String()))
	return nil
}

// GetIngredient returns an ingredient by ID
func (s *IngredientService) GetIngredient(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error) {
	ing, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Ingredient(id), s.ttl.Ingredient,
		func(ctx context.Context) (*catalog.Ingredient, error) {
			ing, err := s.ingredients.FindByID(ctx, id)
			if err != nil {
				return nil, outbound.AsAppError(err, "Ingredient", id.String(), "load ingredient")
			}
			return ing, nil
		})
	return ing, err
}

// GetIngredientBySlug returns an ingredient by slug
func (s *IngredientService) GetIngredientBySlug(ctx context.Context, slug string) (*catalog.Ingredient, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	ing, _, err := cachepolicy.Remember(ctx, s.store, s.keys.IngredientSlug(slug), s.ttl.Ingredient,
		func(ctx context.Context) (*catalog.Ingredient, error) {
			ing, err := s.ingredients.FindBySlug(ctx, slug)
			if err != nil {
				return nil, outbound.AsAppError(err, "Ingredient", slug, "load ingredient")
			}
			return ing, nil
		})
	return ing, err
}

// SearchIngredients pages through the catalog by name
func (s *IngredientService) SearchIngredients(ctx context.Context, q inbound.IngredientSearchQuery) (*inbound.IngredientPage, error) {
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	offset, ok := inbound.PageOffset(page, limit)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("page must be at most %d for limit %d", math.MaxInt/limit, limit))
	}

	filter := outbound.IngredientFilter{
		Search:     strings.TrimSpace(q.Search),
		CategoryID: q.CategoryID,
		IsVeg:      q.IsVeg,
		IsVegan:    q.IsVegan,
	}
	key := s.keys.IngredientSearch(ingredientSearchFilters(filter, page, limit))

	out, _, err := cachepolicy.Remember(ctx, s.store, key, s.ttl.IngredientSearch,
		func(ctx context.Context) (*inbound.IngredientPage, error) {
			ings, total, err := s.ingredients.Search(ctx, filter, limit, offset)
			if err != nil {
				return nil, outbound.AsAppError(err, "Ingredient", "", "search ingredients")
			}
			return &inbound.IngredientPage{
				Ingredients: ings,
				Total:       total,
				Page:        page,
				Limit:       limit,
				HasMore:     total > int64(page*limit),
			}, nil
		})
	return out, err
}

func ingredientSearchFilters(f outbound.IngredientFilter, page, limit int) map[string]interface{} {
	filters := map[string]interface{}{
		"search": strings.ToLower(f.Search),
		"page":   page,
		"limit":  limit,
	}
	if f.CategoryID != nil {
		filters["category"] = f.CategoryID.String()
	}
	if f.IsVeg != nil {
		filters["veg"] = *f.IsVeg
	}
	if f.IsVegan != nil {
		filters["vegan"] = *f.IsVegan
	}
	return filters
}

// ListCategories returns the ingredient categories
func (s *IngredientService) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	out, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Categories(catalog.CategoryKindIngredient), s.ttl.Categories,
		func(ctx context.Context) ([]catalog.Category, error) {
			cats, err := s.categories.List(ctx, catalog.CategoryKindIngredient)
			if err != nil {
				return nil, outbound.AsAppError(err, "Category", "", "list categories")
			}
			return cats, nil
		})
	return out, err
}

// CreateCategory adds an ingredient category
func (s *IngredientService) CreateCategory(ctx context.Context, name, description string) (*catalog.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, apperrors.NewValidationError("category name must be between 1 and 100 characters")
	}

	c := &catalog.Category{
		ID:          uuid.New(),
		Kind:        catalog.CategoryKindIngredient,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, outbound.AsAppError(err, "Category", name, "create category")
	}

	s.store.Drop(ctx, s.keys.Categories(catalog.CategoryKindIngredient))
	s.notify.emit(ctx, "category", "create", nil)

	s.logger.Info("Category created",
		zap.String("category_id", c.ID.String()),
		zap.String("name", c.Name))
	return c, nil
}
