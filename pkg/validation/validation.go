// Package validation registers the custom binding rules and turns
// validator errors into client messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
)

var usernameRe = regexp.MustCompile(constants.UsernamePattern)

// Register adds the username and epoch rules to v and reports fields by
// their JSON names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("epoch", func(fl validator.FieldLevel) bool {
		sec := fl.Field().Int()
		return sec >= filter.MinEpochSeconds && sec <= filter.MaxEpochSeconds
	})
}

// RegisterGin installs the rules on gin's default validator.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("validation: gin validator engine is not go-playground/validator")
	}
	return Register(v)
}

// Messages describes every failed rule of err. Errors that are not
// validation errors (malformed JSON) yield their own text.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if custom := CustomMessage(e.Field()); custom != nil {
			if msg, ok := custom[e.Tag()]; ok {
				out = append(out, msg)
				continue
			}
		}
		out = append(out, DefaultMessage(e.Field(), e.Tag(), e.Param()))
	}
	return out
}
