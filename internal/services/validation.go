package services

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apierrors.Validation("Name is required")
	}
	if utf8.RuneCountInString(name) > constants.MaxNameLength {
		return apierrors.Validationf("Name cannot exceed %d characters", constants.MaxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apierrors.Validation("Email is required")
	}
	if err := validate.Var(email, "email,max=255"); err != nil {
		return apierrors.Validation("Please enter a valid email")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apierrors.Validation("Password is required")
	}
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return apierrors.Validationf("Password must be at least %d characters", constants.MinPasswordLength)
	}
	if len(password) > constants.MaxPasswordBytes {
		return apierrors.Validationf("Password cannot exceed %d bytes", constants.MaxPasswordBytes)
	}
	return nil
}

// validateText checks a required or optional free-text field against a rune limit.
func validateText(field, value string, required bool, limit int) error {
	value = strings.TrimSpace(value)
	if required && value == "" {
		return apierrors.Validationf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > limit {
		return apierrors.Validationf("%s cannot exceed %d characters", field, limit)
	}
	return nil
}
