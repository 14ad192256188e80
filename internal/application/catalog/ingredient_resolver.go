package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.uber.org/zap"
)

// ingredientResolver turns dish ingredient inputs into catalog ingredients,
// creating provisional entries for names the catalog does not know
type ingredientResolver struct {
	repo   outbound.IngredientRepository
	notify notifier
	logger *zap.Logger
}

type resolvedSet struct {
	ingredients []catalog.Ingredient
	lines       []catalog.IngredientLine
}

func (r *ingredientResolver) resolve(ctx context.Context, inputs []inbound.IngredientInput) (*resolvedSet, error) {
	set := &resolvedSet{
		ingredients: make([]catalog.Ingredient, 0, len(inputs)),
		lines:       make([]catalog.IngredientLine, 0, len(inputs)),
	}
	seen := make(map[uuid.UUID]bool, len(inputs))

	for _, in := range inputs {
		ing, err := r.lookup(ctx, strings.TrimSpace(in.Ref))
		if err != nil {
			return nil, err
		}
		// listing an ingredient twice keeps the first line
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true
		set.ingredients = append(set.ingredients, *ing)
		set.lines = append(set.lines, catalog.LineFor(*ing, strings.TrimSpace(in.Quantity), in.IsOptional))
	}
	return set, nil
}

func (r *ingredientResolver) lookup(ctx context.Context, ref string) (*catalog.Ingredient, error) {
	if id, err := uuid.Parse(ref); err == nil {
		ing, err := r.repo.FindByID(ctx, id)
		if errors.Is(err, outbound.ErrNotFound) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("ingredient %s does not exist", id))
		}
		if err != nil {
			return nil, outbound.AsAppError(err, "Ingredient", ref, "load ingredient")
		}
		return ing, nil
	}

	ing, err := r.repo.FindByNameOrAlias(ctx, ref)
	if err == nil {
		return ing, nil
	}
	if !errors.Is(err, outbound.ErrNotFound) {
		return nil, outbound.AsAppError(err, "Ingredient", ref, "look up ingredient")
	}
	return r.createProvisional(ctx, ref)
}

func (r *ingredientResolver) createProvisional(ctx context.Context, name string) (*catalog.Ingredient, error) {
	ing, err := catalog.NewProvisionalIngredient(name)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%q is not a valid ingredient name", name))
	}

	err = r.repo.Create(ctx, ing)
	if errors.Is(err, outbound.ErrDuplicate) {
		// a concurrent writer or a name differing only in punctuation got the slug first
		existing, findErr := r.repo.FindBySlug(ctx, ing.Slug)
		if findErr != nil {
			return nil, outbound.AsAppError(findErr, "Ingredient", ing.Slug, "load ingredient")
		}
		return existing, nil
	}
	if err != nil {
		return nil, outbound.AsAppError(err, "Ingredient", name, "create provisional ingredient")
	}

	r.logger.Info("Created provisional ingredient",
		zap.String("ingredient_id", ing.ID.String()),
		zap.String("name", ing.Name))
	r.notify.emit(ctx, "ingredient", "create", catalog.IngredientChangedEvent{
		EventBase:    shared.NewEventBase(),
		IngredientID: ing.ID,
		Slug:         ing.Slug,
		Op:           shared.OpCreated,
	})
	return ing, nil
}
