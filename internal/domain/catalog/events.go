package catalog

import (
	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
)

// IngredientChangedEvent is raised after an ingredient is created, updated or deleted
type IngredientChangedEvent struct {
	shared.EventBase
	IngredientID uuid.UUID
	Slug         string
	// PreviousSlug is set when a rename moved the slug
	PreviousSlug string
	Op           shared.ChangeOp
}

// EventName implements shared.DomainEvent
func (e IngredientChangedEvent) EventName() string { return "ingredient." + string(e.Op) }

// DishChangedEvent is raised after a dish is created, updated or deleted
type DishChangedEvent struct {
	shared.EventBase
	Kind         DishKind
	DishID       uuid.UUID
	Slug         string
	PreviousSlug string
	Op           shared.ChangeOp
}

// EventName implements shared.DomainEvent
func (e DishChangedEvent) EventName() string { return string(e.Kind) + "." + string(e.Op) }

// EngagementKind names a counter-only interaction
type EngagementKind string

const (
	EngagementBookmarked   EngagementKind = "bookmarked"
	EngagementUnbookmarked EngagementKind = "unbookmarked"
	EngagementRated        EngagementKind = "rated"
	EngagementCooked       EngagementKind = "cooked"
)

// DishEngagedEvent is raised when a counter on a dish moves without the
// dish itself changing
type DishEngagedEvent struct {
	shared.EventBase
	Kind       DishKind
	DishID     uuid.UUID
	Slug       string
	UserID     string
	Engagement EngagementKind
}

// EventName implements shared.DomainEvent
func (e DishEngagedEvent) EventName() string { return string(e.Kind) + "." + string(e.Engagement) }

// ProfileChangedEvent is raised when a user's dietary profile is written
type ProfileChangedEvent struct {
	shared.EventBase
	UserID string
}

// EventName implements shared.DomainEvent
func (e ProfileChangedEvent) EventName() string { return "profile.updated" }
