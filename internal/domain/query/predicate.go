// Package query is a small typed predicate language over dish fields.
// Store adapters compile predicates to their own filters; nothing here
// produces query text.
package query

import "fmt"

// Field names a filterable dish attribute
type Field string

const (
	FieldIngredientNames  Field = "ingredient_names"
	FieldIngredientIDs    Field = "ingredient_ids"
	FieldIsVeg            Field = "is_veg"
	FieldIsVegan          Field = "is_vegan"
	FieldDairyFree        Field = "dairy_free"
	FieldNutFree          Field = "nut_free"
	FieldGlutenFree       Field = "gluten_free"
	FieldDiabetesFriendly Field = "diabetes_friendly"
	FieldDifficulty       Field = "difficulty"
	FieldCookingTime      Field = "cooking_time_minutes"
	FieldCategoryID       Field = "category_id"
	FieldID               Field = "id"
	FieldClickCount       Field = "click_count"
	FieldTitle            Field = "title"
	FieldViewCount        Field = "view_count"
	FieldCookCount        Field = "cook_count"
	FieldBookmarkCount    Field = "bookmark_count"
	FieldAvgRating        Field = "avg_rating"
	FieldCreatedAt        Field = "created_at"
)

// Predicate is a node of a filter expression
type Predicate interface {
	// Accept dispatches to the matching Visitor method
	Accept(v Visitor) error
}

// Visitor compiles predicates into a store-specific form
type Visitor interface {
	VisitEquals(p Equals) error
	VisitSetOverlaps(p SetOverlaps) error
	VisitLessThanOrEqual(p LessThanOrEqual) error
	VisitGreaterThan(p GreaterThan) error
	VisitContainsSubstring(p ContainsSubstring) error
	VisitAnd(p And) error
	VisitOr(p Or) error
	VisitNot(p Not) error
}

// Equals matches Field == Value
type Equals struct {
	Field Field
	Value interface{}
}

// SetOverlaps matches dishes whose array Field shares at least one element with Values
type SetOverlaps struct {
	Field  Field
	Values []string
}

// LessThanOrEqual matches Field <= Value
type LessThanOrEqual struct {
	Field Field
	Value interface{}
}

// GreaterThan matches Field > Value
type GreaterThan struct {
	Field Field
	Value interface{}
}

// ContainsSubstring matches a case-insensitive substring of a text Field
type ContainsSubstring struct {
	Field Field
	Value string
}

// And is the conjunction of its terms. The empty conjunction is true.
type And []Predicate

// Or is the disjunction of its terms. The empty disjunction is false.
type Or []Predicate

// Not negates Term
type Not struct {
	Term Predicate
}

func (p Equals) Accept(v Visitor) error            { return v.VisitEquals(p) }
func (p SetOverlaps) Accept(v Visitor) error       { return v.VisitSetOverlaps(p) }
func (p LessThanOrEqual) Accept(v Visitor) error   { return v.VisitLessThanOrEqual(p) }
func (p GreaterThan) Accept(v Visitor) error       { return v.VisitGreaterThan(p) }
func (p ContainsSubstring) Accept(v Visitor) error { return v.VisitContainsSubstring(p) }
func (p And) Accept(v Visitor) error               { return v.VisitAnd(p) }
func (p Or) Accept(v Visitor) error                { return v.VisitOr(p) }
func (p Not) Accept(v Visitor) error               { return v.VisitNot(p) }

// Builder accumulates conjunctive terms
type Builder struct {
	terms And
}

// NewBuilder returns an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Where appends a term, ignoring nil
func (b *Builder) Where(p Predicate) *Builder {
	if p != nil {
		b.terms = append(b.terms, p)
	}
	return b
}

// Build returns the conjunction of all appended terms
func (b *Builder) Build() And {
	out := make(And, len(b.terms))
	copy(out, b.terms)
	return out
}

// String renders a predicate for logs and tests
func String(p Predicate) string {
	switch t := p.(type) {
	case Equals:
		return fmt.Sprintf("%s = %v", t.Field, t.Value)
	case SetOverlaps:
		return fmt.Sprintf("%s && %v", t.Field, t.Values)
	case LessThanOrEqual:
		return fmt.Sprintf("%s <= %v", t.Field, t.Value)
	case GreaterThan:
		return fmt.Sprintf("%s > %v", t.Field, t.Value)
	case ContainsSubstring:
		return fmt.Sprintf("%s ~ %q", t.Field, t.Value)
	case And:
		return join("AND", t)
	case Or:
		return join("OR", t)
	case Not:
		return "NOT (" + String(t.Term) + ")"
	}
	return fmt.Sprintf("%T", p)
}

func join(op string, terms []Predicate) string {
	if len(terms) == 0 {
		return "(" + op + ")"
	}
	s := "("
	for i, term := range terms {
		if i > 0 {
			s += " " + op + " "
		}
		s += String(term)
	}
	return s + ")"
}
