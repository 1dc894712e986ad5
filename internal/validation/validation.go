// Package validation checks request payloads before they reach a service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	apperrors "railpay/internal/errors"
	"railpay/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var ErrInvalidInput = apperrors.New(apperrors.KindValidation, "VALIDATION_FAILED", "request validation failed")

const MaxDescriptionLength = 140

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("amount", validAmount)
	_ = v.RegisterValidation("rail", func(fl validator.FieldLevel) bool {
		return models.RailType(strings.ToUpper(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		return models.ValidAccountType(models.AccountType(strings.ToUpper(fl.Field().String())))
	})
	return v
}

// validAmount accepts positive decimals with at most two fractional digits.
func validAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Truncate(2))
}

// Validator collects field errors.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first message recorded for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

func (v *Validator) MaxLength(field, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Struct runs the validate tags of input.
func (v *Validator) Struct(input interface{}) {
	err := validate.Struct(input)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddError("body", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fe.Field(), message(fe))
	}
}

// Err returns nil when valid, otherwise ErrInvalidInput listing every field.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + v.Errors[f]
	}
	return ErrInvalidInput.WithMessage(strings.Join(parts, "; "))
}

// Struct validates input and returns the combined error.
func Struct(input interface{}) error {
	v := New()
	v.Struct(input)
	return v.Err()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return "must be a positive amount with at most 2 decimal places"
	case "rail":
		return "must be one of BIFAST, SKN, RTGS, QRIS"
	case "account_type":
		return "must be one of SAVINGS, CHECKING, POCKET"
	case "iso4217":
		return "must be an ISO-4217 currency code"
	case "max":
		return fmt.Sprintf("must not be more than %s characters long", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
