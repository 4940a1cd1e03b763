package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var telPattern = regexp.MustCompile(`^\+?[0-9 ()\-]{6,20}$`)

// Validator checks member form input and credentials
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator with the "tel" rule registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("tel", func(fl validator.FieldLevel) bool {
		return telPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s and converts failures to a ValidationError
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fe.Tag()
	}
	return out
}

// Var validates a single value against tag
func (val *Validator) Var(field, tag string, value interface{}) error {
	if err := val.v.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Fields: map[string]string{field: verrs[0].Tag()}}
		}
		return err
	}
	return nil
}
