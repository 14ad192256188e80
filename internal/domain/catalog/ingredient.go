package catalog

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Ingredient is a catalog ingredient with its dietary tags
type Ingredient struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Aliases    []string   `json:"aliases"`
	IsVeg      bool       `json:"isVeg"`
	IsVegan    bool       `json:"isVegan"`
	IsDairy    bool       `json:"isDairy"`
	IsNut      bool       `json:"isNut"`
	IsGluten   bool       `json:"isGluten"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	IsVerified bool       `json:"isVerified"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewIngredient creates a verified ingredient with a slug derived from its name
func NewIngredient(name string) (*Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrIngredientNameRequired
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, ErrInvalidSlug
	}
	now := time.Now()
	return &Ingredient{
		ID:         uuid.New(),
		Name:       name,
		Slug:       slug,
		Aliases:    []string{},
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewProvisionalIngredient builds the unverified placeholder created when a
// dish references an ingredient name the catalog does not know yet.
// All dietary tags start false.
func NewProvisionalIngredient(rawName string) (*Ingredient, error) {
	ing, err := NewIngredient(CapitalizeWords(rawName))
	if err != nil {
		return nil, err
	}
	ing.Slug = Slugify(rawName)
	ing.Aliases = []string{strings.ToLower(strings.TrimSpace(rawName))}
	ing.IsVerified = false
	return ing, nil
}

// HasAlias reports whether the ingredient answers to the given lower-cased alias
func (i *Ingredient) HasAlias(alias string) bool {
	alias = strings.ToLower(strings.TrimSpace(alias))
	for _, a := range i.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// Rename changes the ingredient name and slug together
func (i *Ingredient) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrIngredientNameRequired
	}
	slug := Slugify(name)
	if slug == "" {
		return ErrInvalidSlug
	}
	i.Name = name
	i.Slug = slug
	i.UpdatedAt = time.Now()
	return nil
}

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, collapses every run of characters outside [a-z0-9]
// into a single dash and trims dashes from both ends.
func Slugify(s string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// SlugifyMax is Slugify truncated to max bytes, without a trailing dash
func SlugifyMax(s string, max int) string {
	slug := Slugify(s)
	if max > 0 && len(slug) > max {
		slug = strings.TrimRight(slug[:max], "-")
	}
	return slug
}

// CapitalizeWords upper-cases the first letter of each space separated word
func CapitalizeWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeName is the comparison form of an ingredient name
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
