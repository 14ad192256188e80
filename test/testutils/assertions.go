// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"testing"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorAssertions provides AppError-specific assertion methods
type ErrorAssertions struct {
	t *testing.T
}

// NewErrorAssertions creates a new error assertions helper
func NewErrorAssertions(t *testing.T) *ErrorAssertions {
	return &ErrorAssertions{t: t}
}

// HasCode asserts that err is an AppError carrying code
func (ea *ErrorAssertions) HasCode(err error, code apperrors.ErrorCode, msgAndArgs ...interface{}) {
	ea.t.Helper()
	require.Error(ea.t, err, msgAndArgs...)
	assert.Equal(ea.t, code, apperrors.GetCode(err), msgAndArgs...)
}

// IsValidation asserts a VALIDATION_FAILED error
func (ea *ErrorAssertions) IsValidation(err error, msgAndArgs ...interface{}) {
	ea.t.Helper()
	ea.HasCode(err, apperrors.CodeValidationFailed, msgAndArgs...)
}

// IsNotFound asserts a NOT_FOUND error
func (ea *ErrorAssertions) IsNotFound(err error, msgAndArgs ...interface{}) {
	ea.t.Helper()
	ea.HasCode(err, apperrors.CodeNotFound, msgAndArgs...)
}

// IsConflict asserts a CONFLICT error
func (ea *ErrorAssertions) IsConflict(err error, msgAndArgs ...interface{}) {
	ea.t.Helper()
	ea.HasCode(err, apperrors.CodeConflict, msgAndArgs...)
}

// SearchAssertions provides ranking-specific assertion methods
type SearchAssertions struct {
	t *testing.T
}

// NewSearchAssertions creates a new search assertions helper
func NewSearchAssertions(t *testing.T) *SearchAssertions {
	return &SearchAssertions{t: t}
}

// Ranked asserts that results are ordered by matched count descending, then
// match percentage descending, then id ascending
func (sa *SearchAssertions) Ranked(results []inbound.RankedDish) {
	sa.t.Helper()
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		switch {
		case prev.MatchedCount != cur.MatchedCount:
			assert.Greater(sa.t, prev.MatchedCount, cur.MatchedCount, "result %d out of order by matched count", i)
		case prev.MatchPercentage != cur.MatchPercentage:
			assert.Greater(sa.t, prev.MatchPercentage, cur.MatchPercentage, "result %d out of order by percentage", i)
		default:
			assert.Less(sa.t, prev.ID.String(), cur.ID.String(), "result %d out of order by id", i)
		}
	}
}

// Titles returns the titles of results in order
func Titles(results []inbound.RankedDish) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Title)
	}
	return out
}

// SummaryTitles returns the titles of summaries in order
func SummaryTitles(summaries []inbound.DishSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Title)
	}
	return out
}

// FlagsSatisfy asserts that every result carries the flags required of it
func (sa *SearchAssertions) FlagsSatisfy(results []inbound.RankedDish, required catalog.DietaryFlags) {
	sa.t.Helper()
	for _, r := range results {
		if required.IsVeg {
			assert.True(sa.t, r.Flags.IsVeg, "%s should be veg", r.Title)
		}
		if required.IsVegan {
			assert.True(sa.t, r.Flags.IsVegan, "%s should be vegan", r.Title)
		}
		if required.DairyFree {
			assert.True(sa.t, r.Flags.DairyFree, "%s should be dairy free", r.Title)
		}
		if required.NutFree {
			assert.True(sa.t, r.Flags.NutFree, "%s should be nut free", r.Title)
		}
		if required.GlutenFree {
			assert.True(sa.t, r.Flags.GlutenFree, "%s should be gluten free", r.Title)
		}
		if required.DiabetesFriendly {
			assert.True(sa.t, r.Flags.DiabetesFriendly, "%s should be diabetes friendly", r.Title)
		}
	}
}
