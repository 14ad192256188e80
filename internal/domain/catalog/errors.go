package catalog

import "errors"

// Domain errors for catalog operations

var (
	ErrIngredientNameRequired = errors.New("ingredient name is required")
	ErrTitleRequired          = errors.New("dish title is required")
	ErrInvalidSlug            = errors.New("name does not produce a usable slug")
	ErrInvalidDifficulty      = errors.New("difficulty must be one of EASY, MEDIUM, HARD")
	ErrInvalidKind            = errors.New("unknown dish kind")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
)
