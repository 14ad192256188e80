// Package cachepolicy owns cache key layout, read-through helpers and the
// invalidation rules applied after catalog writes
package cachepolicy

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/matching"
)

const separator = ":"

// KeyBuilder provides standardized cache key generation
type KeyBuilder struct{}

// NewKeyBuilder creates a new key builder
func NewKeyBuilder() KeyBuilder {
	return KeyBuilder{}
}

// BuildKey joins components with the key separator
func (KeyBuilder) BuildKey(components ...string) string {
	return strings.Join(components, separator)
}

// SearchKeyParts are the normalized inputs of a pantry search key
type SearchKeyParts struct {
	UserID         string
	Ingredients    []string
	Category       string
	Difficulty     catalog.Difficulty
	MaxCookingTime *int
	Page           int
	Limit          int
}

// Search builds {kind}-search:{user}:{ingredients}:{category}:{difficulty}:{maxTime}:{page}:{limit}.
// Ingredients are lower-cased, de-duplicated and sorted so permutations share a key.
func (kb KeyBuilder) Search(kind catalog.DishKind, p SearchKeyParts) string {
	ingredients := matching.NormalizeSet(p.Ingredients)
	sort.Strings(ingredients)

	maxTime := ""
	if p.MaxCookingTime != nil {
		maxTime = strconv.Itoa(*p.MaxCookingTime)
	}

	return kb.BuildKey(
		kb.SearchFamily(kind)+p.UserID,
		strings.Join(ingredients, ","),
		strings.ToLower(strings.TrimSpace(p.Category)),
		string(p.Difficulty),
		maxTime,
		strconv.Itoa(p.Page),
		strconv.Itoa(p.Limit),
	)
}

// SearchFamily is the prefix shared by all search keys of kind
func (KeyBuilder) SearchFamily(kind catalog.DishKind) string {
	return string(kind) + "-search" + separator
}

// Similar builds similar-{kind}s:{id}:{limit}
func (kb KeyBuilder) Similar(kind catalog.DishKind, id uuid.UUID, limit int) string {
	return kb.SimilarFamily(kind, id) + strconv.Itoa(limit)
}

// SimilarFamily is the prefix of every similar-dishes key for one source dish
func (kb KeyBuilder) SimilarFamily(kind catalog.DishKind, id uuid.UUID) string {
	return kb.BuildKey("similar-"+string(kind)+"s", id.String()) + separator
}

// Profile builds user:profile:{userId}
func (kb KeyBuilder) Profile(userID string) string {
	return kb.BuildKey("user", "profile", userID)
}

// Dish builds {kind}:{id}
func (kb KeyBuilder) Dish(kind catalog.DishKind, id uuid.UUID) string {
	return kb.BuildKey(string(kind), id.String())
}

// DishSlug builds {kind}:slug:{slug}
func (kb KeyBuilder) DishSlug(kind catalog.DishKind, slug string) string {
	return kb.BuildKey(string(kind), "slug", slug)
}

// DishIngredients builds {kind}:ingredients:{id}
func (kb KeyBuilder) DishIngredients(kind catalog.DishKind, id uuid.UUID) string {
	return kb.BuildKey(string(kind), "ingredients", id.String())
}

// Trending builds trending-{kind}s:{limit}
func (kb KeyBuilder) Trending(kind catalog.DishKind, limit int) string {
	return kb.TrendingFamily(kind) + strconv.Itoa(limit)
}

// TrendingFamily is the prefix of every trending key of kind
func (KeyBuilder) TrendingFamily(kind catalog.DishKind) string {
	return "trending-" + string(kind) + "s" + separator
}

// Popular builds popular-{kind}s:{limit}
func (kb KeyBuilder) Popular(kind catalog.DishKind, limit int) string {
	return kb.PopularFamily(kind) + strconv.Itoa(limit)
}

// PopularFamily is the prefix of every popular key of kind
func (KeyBuilder) PopularFamily(kind catalog.DishKind) string {
	return "popular-" + string(kind) + "s" + separator
}

// Ingredient builds ingredient:{id}
func (kb KeyBuilder) Ingredient(id uuid.UUID) string {
	return kb.BuildKey("ingredient", id.String())
}

// IngredientSlug builds ingredient:slug:{slug}
func (kb KeyBuilder) IngredientSlug(slug string) string {
	return kb.BuildKey("ingredient", "slug", slug)
}

// IngredientSearch builds ingredient:search:{hash of filters}
func (kb KeyBuilder) IngredientSearch(filters map[string]interface{}) string {
	return kb.BuildKey("ingredient", "search", kb.hashFilters(filters))
}

// IngredientFamily covers ingredient records, slugs and searches
func (KeyBuilder) IngredientFamily() string {
	return "ingredient" + separator
}

// Autocomplete builds autocomplete:{query}:{limit}
func (kb KeyBuilder) Autocomplete(q string, limit int) string {
	return kb.AutocompleteFamily() + kb.BuildKey(catalog.NormalizeName(q), strconv.Itoa(limit))
}

// AutocompleteFamily is the prefix of every autocomplete key
func (KeyBuilder) AutocompleteFamily() string {
	return "autocomplete" + separator
}

// Categories builds categories:{kind}
func (kb KeyBuilder) Categories(kind string) string {
	return kb.BuildKey("categories", kind)
}

// hashFilters creates a consistent hash from filter parameters
func (kb KeyBuilder) hashFilters(filters map[string]interface{}) string {
	if len(filters) == 0 {
		return "none"
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := fmt.Sprintf("%v", filters[key])
		parts = append(parts, fmt.Sprintf("%s=%s", key, url.QueryEscape(value)))
	}

	return kb.hashString(strings.Join(parts, "&"))
}

// hashString returns the first 16 hex characters of the MD5 of s
func (KeyBuilder) hashString(s string) string {
	hash := md5.Sum([]byte(s))
	return fmt.Sprintf("%x", hash)[:16]
}
