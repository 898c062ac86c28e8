package model

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	validate    = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks a question sheet's structural rules: labels, question
// kinds, slug shape and condition triggers.
func (s *QuestionSheet) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid question sheet: %w", err)
	}
	ids := make(map[string]bool)
	for _, q := range s.Questions() {
		if ids[q.ID] {
			return fmt.Errorf("invalid question sheet: duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
	}
	for _, c := range s.Conditions {
		if !ids[c.TriggerID] {
			return fmt.Errorf("invalid question sheet: condition %q triggers on unknown question %q", c.ID, c.TriggerID)
		}
		if c.ToggleID != "" && !ids[c.ToggleID] {
			return fmt.Errorf("invalid question sheet: condition %q toggles unknown question %q", c.ID, c.ToggleID)
		}
	}
	for _, q := range s.Questions() {
		if q.RequiredWhen != nil && !ids[q.RequiredWhen.TriggerID] {
			return fmt.Errorf("invalid question sheet: question %q required when unknown question %q", q.ID, q.RequiredWhen.TriggerID)
		}
	}
	return nil
}
