package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern      = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	cssFunctionPattern = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\([0-9.,%\s/]+\)$`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("palette_id", func(fl validator.FieldLevel) bool {
			return theme.ValidPaletteID(fl.Field().String())
		})

		_ = v.RegisterValidation("css_length", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || theme.IsCSSLength(value)
		})

		_ = v.RegisterValidation("token_name", func(fl validator.FieldLevel) bool {
			return theme.ValidTokenName(fl.Field().String())
		})

		_ = v.RegisterValidation("css_color", func(fl validator.FieldLevel) bool {
			return IsCSSColor(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// IsCSSColor accepts hex colours, rgb()/hsl() functions and a few keywords.
func IsCSSColor(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "transparent", "currentcolor", "white", "black":
		return true
	}
	if strings.HasPrefix(value, "#") {
		return validatorInstance().Var(value, "hexcolor") == nil
	}
	return cssFunctionPattern.MatchString(value)
}

// ValidateConfig performs schema and cross-field validation on the configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return prismerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if width := cfg.Defaults.Accessibility.FocusRingWidth; v.Var(width, "css_length") != nil {
		return prismerrors.NewValidationError("defaults.accessibility.focus_ring_width", fmt.Sprintf("%q is not a CSS length", width), nil)
	}

	if cfg.Analytics.MaxEvents < cfg.Analytics.MinSamples {
		return prismerrors.NewValidationError("analytics.max_events", "must be at least analytics.min_samples", nil)
	}

	return nil
}

// convertValidationError normalizes validator errors into prism validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return prismerrors.NewValidationError(field, msg, err)
	}

	return prismerrors.NewValidationError("config", err.Error(), err)
}

// ConvertValidationError exposes the validator error mapping to other packages
// validating their own structs with GetValidator.
func ConvertValidationError(err error) error {
	return convertValidationError(err)
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(camelBoundary.ReplaceAllString(part, "${1}_${2}")))
	}
	return strings.Join(lowered, ".")
}
