// Package validation validates command and query structs before they reach
// the store
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.uber.org/zap"
)

// Service wraps a configured validator
type Service struct {
	logger    *zap.Logger
	validator *validator.Validate
}

// NewService creates a validator with the domain rules registered
func NewService(logger *zap.Logger) *Service {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails on an empty tag or nil func
	_ = validate.RegisterValidation("difficulty", validateDifficulty)
	_ = validate.RegisterValidation("ingredient", validateIngredient)

	return &Service{
		logger:    logger.Named("validation"),
		validator: validate,
	}
}

func validateDifficulty(fl validator.FieldLevel) bool {
	_, err := catalog.ParseDifficulty(fl.Field().String())
	return err == nil
}

// validateIngredient rejects names that cannot produce a slug
func validateIngredient(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	return name != "" && len(name) <= 100 && catalog.Slugify(name) != ""
}

// Validate checks s and converts failures into a VALIDATION_FAILED AppError
func (v *Service) Validate(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.logger.Error("Validator misuse", zap.Error(err))
		return apperrors.NewValidationError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, apperrors.ValidationError{
			Field:   e.Field(),
			Value:   e.Value(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return apperrors.NewValidationErrors(out)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "difficulty":
		return fmt.Sprintf("%s must be one of EASY, MEDIUM, HARD", field)
	case "ingredient":
		return fmt.Sprintf("%s is not a valid ingredient name", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
