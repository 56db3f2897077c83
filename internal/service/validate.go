package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the struct tags of a request. Length violations
// become ErrLimitExceeded, everything else ErrInvalid.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	kind := ErrLimitExceeded
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "required":
			kind = ErrInvalid
			msgs = append(msgs, fe.Field()+" is required")
		default:
			kind = ErrInvalid
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(msgs, ", "))
}

func checkLimit(field, value string, max int) error {
	if !models.WithinLimit(value, max) {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrLimitExceeded, field, max)
	}
	return nil
}
