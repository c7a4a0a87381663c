// Package validator provides struct validation utilities with custom validators.
package validator

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// cveIDRegex validates CVE IDs: CVE-YYYY-NNNN (4-7 digits).
var cveIDRegex = regexp.MustCompile(`^CVE-\d{4}-\d{4,7}$`)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return sb.String()
}

// New creates a new Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("cve_id", validateCVEID)
	_ = v.RegisterValidation("severity", validateSeverity)
	_ = v.RegisterValidation("ticket_status", validateTicketStatus)

	return &Validator{validate: v}
}

// Struct validates a struct and returns user-friendly errors.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalidErr *validator.InvalidValidationError
	if stderrors.As(err, &invalidErr) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
		})
	}
	return errs
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "cve_id":
		return "must be a valid CVE identifier (CVE-YYYY-NNNN)"
	case "severity":
		return "must be one of: info, low, medium, high, critical"
	case "ticket_status":
		return "must be a valid ticket status"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validateCVEID(fl validator.FieldLevel) bool {
	return cveIDRegex.MatchString(strings.ToUpper(fl.Field().String()))
}

func validateSeverity(fl validator.FieldLevel) bool {
	return vulnerability.Severity(strings.ToLower(fl.Field().String())).IsValid()
}

func validateTicketStatus(fl validator.FieldLevel) bool {
	return ticket.Status(fl.Field().String()).IsValid()
}
