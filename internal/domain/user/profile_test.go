package user

import (
	"testing"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	t.Run("nil profile is always compatible", func(t *testing.T) {
		var p *DietProfile
		verdict := p.CheckCompatibility(catalog.DietaryFlags{})
		assert.True(t, verdict.IsCompatible)
		assert.Empty(t, verdict.Reasons)
	})

	t.Run("vegan with dairy allergy", func(t *testing.T) {
		p := &DietProfile{UserID: "u1", VegType: VegTypeVegan, DairyFree: true, HasDiabetes: true}
		flags := catalog.DietaryFlags{IsVeg: true, IsVegan: false, DairyFree: false, NutFree: true, GlutenFree: true}

		verdict := p.CheckCompatibility(flags)

		assert.False(t, verdict.IsCompatible)
		assert.Equal(t, []string{
			"Contains animal products",
			"Contains dairy",
			"Not suitable for diabetes",
		}, verdict.Reasons)
	})

	t.Run("matching restrictions", func(t *testing.T) {
		p := &DietProfile{VegType: VegTypeVegetarian, NutFree: true, GlutenFree: true}
		flags := catalog.DietaryFlags{IsVeg: true, NutFree: true, GlutenFree: true}

		assert.True(t, p.CheckCompatibility(flags).IsCompatible)
	})
}

func TestRequiredFlags(t *testing.T) {
	p := &DietProfile{VegType: VegTypeVegetarian, GlutenFree: true, HasDiabetes: true}

	req := p.RequiredFlags()

	assert.Equal(t, catalog.DietaryFlags{IsVeg: true, GlutenFree: true, DiabetesFriendly: true}, req)
	assert.Equal(t, catalog.DietaryFlags{}, (*DietProfile)(nil).RequiredFlags())
}

func TestParseVegType(t *testing.T) {
	v, err := ParseVegType("")
	require.NoError(t, err)
	assert.Equal(t, VegTypeOmnivore, v)

	v, err = ParseVegType(" Vegan ")
	require.NoError(t, err)
	assert.Equal(t, VegTypeVegan, v)

	_, err = ParseVegType("pescatarian")
	assert.ErrorIs(t, err, ErrInvalidVegType)
}
