package submission

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("submission: validation failed")

// ValidationError names the first payload field that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validator checks payloads before they are submitted.
type Validator struct {
	v *validator.Validate
}

// NewValidator configures struct validation to report JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate runs the struct rules and then the business rules: the items list
// must not be empty and the amount paid must cover the total.
func (val *Validator) Validate(p Payload) error {
	if len(p.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "bill has no items"}
	}
	if err := val.v.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: fieldPath(fe), Reason: reason(fe)}
		}
		return err
	}
	if p.AmountPaid < p.TotalAmount {
		return &ValidationError{
			Field:  "amountPaid",
			Reason: fmt.Sprintf("amount paid %.2f is less than total %.2f", p.AmountPaid, p.TotalAmount),
		}
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must contain digits only"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "max", "gt", "gte", "lte":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	default:
		return "is invalid"
	}
}
