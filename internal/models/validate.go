// internal/models/validate.go
package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("zone", isLogisticZone); err != nil {
		panic("models: register zone validation: " + err.Error())
	}
	return v
}

func isLogisticZone(fl validator.FieldLevel) bool {
	_, err := ParseZone(fl.Field().String())
	return err == nil
}

// IsEmail reports whether s is a well-formed email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// validationError flattens validator.ValidationErrors into one readable message.
func validationError(record string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%s: %w", record, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, record, strings.Join(parts, "; "))
}
