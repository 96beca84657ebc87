package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	clockExpr    = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return clockExpr.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks structural constraints and returns semantic warnings separately.
// Warnings never prevent a run: missing or odd scoring values fall back to defaults.
func Validate(cfg Config) ([]string, error) {
	var problems []string
	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	var warnings []string
	if sum := cfg.Weights.Values().Sum(); math.Abs(sum-1.0) > 0.05 {
		warnings = append(warnings, fmt.Sprintf("scoring_weights sum to %.2f, expected about 1.0", sum))
	}

	t := cfg.Thresholds.Values()
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium >= t.Low) {
		warnings = append(warnings, fmt.Sprintf(
			"priority_thresholds are not descending (critical=%.2f high=%.2f medium=%.2f low=%.2f)",
			t.Critical, t.High, t.Medium, t.Low))
	}

	if min, max := cfg.Budget.Range(); min >= max {
		warnings = append(warnings, fmt.Sprintf("budget_filters min_budget %.0f is not below max_budget %.0f", min, max))
	}

	seen := map[string]struct{}{}
	for _, site := range cfg.Websites.All() {
		key := strings.ToLower(strings.TrimSpace(site.Name))
		if _, dup := seen[key]; dup && key != "" {
			warnings = append(warnings, fmt.Sprintf("target_websites lists %q more than once", site.Name))
		}
		seen[key] = struct{}{}
	}

	if len(problems) > 0 {
		return warnings, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return warnings, nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
