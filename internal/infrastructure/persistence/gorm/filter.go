package gorm

import (
	"fmt"
	"strings"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"gorm.io/gorm/clause"
)

const dishTable = "dishes"

var (
	trueExpr  = clause.Expr{SQL: "1 = 1"}
	falseExpr = clause.Expr{SQL: "1 = 0"}
)

// dishColumns whitelists the scalar columns a predicate may reference
var dishColumns = map[query.Field]string{
	query.FieldIsVeg:            "is_veg",
	query.FieldIsVegan:          "is_vegan",
	query.FieldDairyFree:        "dairy_free",
	query.FieldNutFree:          "nut_free",
	query.FieldGlutenFree:       "gluten_free",
	query.FieldDiabetesFriendly: "diabetes_friendly",
	query.FieldDifficulty:       "difficulty",
	query.FieldCookingTime:      "cooking_time_minutes",
	query.FieldCategoryID:       "category_id",
	query.FieldID:               "id",
	query.FieldClickCount:       "click_count",
	query.FieldTitle:            "title",
	query.FieldViewCount:        "view_count",
	query.FieldCookCount:        "cook_count",
	query.FieldBookmarkCount:    "bookmark_count",
	query.FieldAvgRating:        "avg_rating",
	query.FieldCreatedAt:        "created_at",
}

// dishArrayColumns maps array fields to their dish_ingredients column
var dishArrayColumns = map[query.Field]string{
	query.FieldIngredientNames: "name",
	query.FieldIngredientIDs:   "ingredient_id",
}

// filterCompiler turns a predicate tree into a parameterized GORM expression.
// Field names only ever come from the whitelists above; values are bound.
type filterCompiler struct {
	stack []clause.Expression
}

// compileDishFilter compiles p against the dishes table. A nil predicate is true.
func compileDishFilter(p query.Predicate) (clause.Expression, error) {
	if p == nil {
		return trueExpr, nil
	}
	c := &filterCompiler{}
	return c.compile(p)
}

func (c *filterCompiler) compile(p query.Predicate) (clause.Expression, error) {
	if err := p.Accept(c); err != nil {
		return nil, err
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top, nil
}

func (c *filterCompiler) push(e clause.Expression) error {
	c.stack = append(c.stack, e)
	return nil
}

func column(f query.Field) (clause.Column, error) {
	name, ok := dishColumns[f]
	if !ok {
		return clause.Column{}, fmt.Errorf("field %q cannot be filtered", f)
	}
	return clause.Column{Table: dishTable, Name: name}, nil
}

// bindValue unwraps named domain types so drivers receive plain values
func bindValue(v interface{}) interface{} {
	switch t := v.(type) {
	case catalog.Difficulty:
		return string(t)
	case catalog.DishKind:
		return string(t)
	}
	return v
}

func (c *filterCompiler) VisitEquals(p query.Equals) error {
	col, err := column(p.Field)
	if err != nil {
		return err
	}
	return c.push(clause.Eq{Column: col, Value: bindValue(p.Value)})
}

func (c *filterCompiler) VisitLessThanOrEqual(p query.LessThanOrEqual) error {
	col, err := column(p.Field)
	if err != nil {
		return err
	}
	return c.push(clause.Lte{Column: col, Value: bindValue(p.Value)})
}

func (c *filterCompiler) VisitGreaterThan(p query.GreaterThan) error {
	col, err := column(p.Field)
	if err != nil {
		return err
	}
	return c.push(clause.Gt{Column: col, Value: bindValue(p.Value)})
}

func (c *filterCompiler) VisitSetOverlaps(p query.SetOverlaps) error {
	col, ok := dishArrayColumns[p.Field]
	if !ok {
		return fmt.Errorf("field %q is not an array field", p.Field)
	}
	values := p.Values
	if p.Field == query.FieldIngredientNames {
		values = make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			values = append(values, catalog.NormalizeName(v))
		}
	}
	if len(values) == 0 {
		return c.push(falseExpr)
	}
	return c.push(clause.Expr{
		SQL: "? IN (SELECT dish_id FROM dish_ingredients WHERE ? IN ?)",
		Vars: []interface{}{
			clause.Column{Table: dishTable, Name: "id"},
			clause.Column{Table: "dish_ingredients", Name: col},
			values,
		},
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (c *filterCompiler) VisitContainsSubstring(p query.ContainsSubstring) error {
	col, err := column(p.Field)
	if err != nil {
		return err
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(p.Value)) + "%"
	return c.push(clause.Expr{
		SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
		Vars: []interface{}{col, pattern},
	})
}

func (c *filterCompiler) VisitAnd(p query.And) error {
	return c.junction(p, " AND ", trueExpr)
}

func (c *filterCompiler) VisitOr(p query.Or) error {
	return c.junction(p, " OR ", falseExpr)
}

func (c *filterCompiler) junction(terms []query.Predicate, op string, empty clause.Expression) error {
	vars := make([]interface{}, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		e, err := c.compile(t)
		if err != nil {
			return err
		}
		vars = append(vars, e)
	}
	switch len(vars) {
	case 0:
		return c.push(empty)
	case 1:
		return c.push(vars[0].(clause.Expression))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?"+op, len(vars)), op)
	return c.push(clause.Expr{SQL: "(" + placeholders + ")", Vars: vars})
}

func (c *filterCompiler) VisitNot(p query.Not) error {
	if p.Term == nil {
		return c.push(falseExpr)
	}
	e, err := c.compile(p.Term)
	if err != nil {
		return err
	}
	return c.push(clause.Expr{SQL: "NOT (?)", Vars: []interface{}{e}})
}
