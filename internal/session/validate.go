package session

import (
	"net/mail"
	"strings"
)

const minPasswordLength = 6

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	// ConfirmPassword is checked only when non-empty.
	ConfirmPassword string
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return &ValidationError{Field: "first_name", Message: "First name is required"}
	case strings.TrimSpace(in.LastName) == "":
		return &ValidationError{Field: "last_name", Message: "Last name is required"}
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	switch {
	case in.Password == "":
		return &ValidationError{Field: "password", Message: "Password is required"}
	case len(in.Password) < minPasswordLength:
		return &ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	case in.ConfirmPassword != "" && in.ConfirmPassword != in.Password:
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	return nil
}

func validateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return &ValidationError{Field: "email", Message: "Invalid email address"}
	}
	return nil
}
