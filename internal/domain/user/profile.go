package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
)

// VegType is the vegetarian preference of a user
type VegType string

const (
	VegTypeOmnivore   VegType = "omnivore"
	VegTypeVegetarian VegType = "vegetarian"
	VegTypeVegan      VegType = "vegan"
)

var ErrInvalidVegType = errors.New("veg type must be omnivore, vegetarian or vegan")

// ParseVegType parses a veg type, treating empty input as omnivore
func ParseVegType(s string) (VegType, error) {
	switch v := VegType(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VegTypeOmnivore, nil
	case VegTypeOmnivore, VegTypeVegetarian, VegTypeVegan:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVegType, s)
}

// DietProfile holds the dietary restrictions of one user
type DietProfile struct {
	UserID      string    `json:"userId"`
	VegType     VegType   `json:"vegType"`
	DairyFree   bool      `json:"dairyFree"`
	NutFree     bool      `json:"nutFree"`
	GlutenFree  bool      `json:"glutenFree"`
	HasDiabetes bool      `json:"hasDiabetes"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RequiredFlags lists the dish flags a compatible dish must have set.
// A nil profile requires nothing.
func (p *DietProfile) RequiredFlags() catalog.DietaryFlags {
	var req catalog.DietaryFlags
	if p == nil {
		return req
	}
	req.IsVeg = p.VegType == VegTypeVegetarian
	req.IsVegan = p.VegType == VegTypeVegan
	req.DairyFree = p.DairyFree
	req.NutFree = p.NutFree
	req.GlutenFree = p.GlutenFree
	req.DiabetesFriendly = p.HasDiabetes
	return req
}

// Compatibility is the verdict of checking a dish against a profile
type Compatibility struct {
	IsCompatible bool     `json:"isCompatibleWithUserDiet"`
	Reasons      []string `json:"incompatibleReasons"`
}

// CheckCompatibility explains which restrictions of p the dish flags violate
func (p *DietProfile) CheckCompatibility(flags catalog.DietaryFlags) Compatibility {
	reasons := []string{}
	if p == nil {
		return Compatibility{IsCompatible: true, Reasons: reasons}
	}
	if p.VegType == VegTypeVegetarian && !flags.IsVeg {
		reasons = append(reasons, "Contains non-vegetarian ingredients")
	}
	if p.VegType == VegTypeVegan && !flags.IsVegan {
		reasons = append(reasons, "Contains animal products")
	}
	if p.DairyFree && !flags.DairyFree {
		reasons = append(reasons, "Contains dairy")
	}
	if p.NutFree && !flags.NutFree {
		reasons = append(reasons, "Contains nuts")
	}
	if p.GlutenFree && !flags.GlutenFree {
		reasons = append(reasons, "Contains gluten")
	}
	if p.HasDiabetes && !flags.DiabetesFriendly {
		reasons = append(reasons, "Not suitable for diabetes")
	}
	return Compatibility{IsCompatible: len(reasons) == 0, Reasons: reasons}
}
