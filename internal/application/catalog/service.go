// Package catalog provides the application layer for dish, ingredient and
// engagement management
package catalog

import (
	"context"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
)

// EventHandler receives the change events raised by catalog writes
type EventHandler interface {
	Handle(ctx context.Context, event shared.DomainEvent)
}

// ProfileResolver reads a requester's dietary profile
type ProfileResolver interface {
	GetProfile(ctx context.Context, userID string) (*user.DietProfile, error)
}

// MutationRecorder counts catalog writes
type MutationRecorder interface {
	CatalogMutation(entity, operation string)
}

// TTLs holds the lifetimes of the entries this package caches
type TTLs struct {
	Detail           time.Duration
	Popular          time.Duration
	Ingredient       time.Duration
	IngredientSearch time.Duration
	Categories       time.Duration
}

// DefaultTTLs returns the stock cache lifetimes
func DefaultTTLs() TTLs {
	return TTLs{
		Detail:           time.Hour,
		Popular:          time.Hour,
		Ingredient:       time.Hour,
		IngredientSearch: time.Hour,
		Categories:       time.Hour,
	}
}

func (t TTLs) withDefaults() TTLs {
	d := DefaultTTLs()
	if t.Detail <= 0 {
		t.Detail = d.Detail
	}
	if t.Popular <= 0 {
		t.Popular = d.Popular
	}
	if t.Ingredient <= 0 {
		t.Ingredient = d.Ingredient
	}
	if t.IngredientSearch <= 0 {
		t.IngredientSearch = d.IngredientSearch
	}
	if t.Categories <= 0 {
		t.Categories = d.Categories
	}
	return t
}

type notifier struct {
	events  EventHandler
	metrics MutationRecorder
}

func (n notifier) emit(ctx context.Context, entity, op string, event shared.DomainEvent) {
	if n.metrics != nil {
		n.metrics.CatalogMutation(entity, op)
	}
	if n.events != nil && event != nil {
		n.events.Handle(ctx, event)
	}
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)
