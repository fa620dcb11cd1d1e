package auth

import (
	"context"

	"github.com/fsonnyboy/medcare/pkg/validator"
)

// SignupData is the registration form payload. Optional fields are empty
// strings.
type SignupData struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	MiddleName    string `json:"middleName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	DateOfBirth   string `json:"DateOfBirth"`
	Age           string `json:"age,omitempty"`
	Address       string `json:"address,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

// SignupResult mirrors LoginResult with per-field validation messages.
type SignupResult struct {
	Status      LoginStatus
	Message     string
	FieldErrors []string
}

type registerResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// ValidateSignupData runs the client-side checks that must pass before any
// network dispatch.
func ValidateSignupData(data SignupData) []string {
	var errs []string

	if err := validator.ValidateUsername(data.Username); err != nil {
		errs = append(errs, "Username must be at least 3 characters long")
	}
	if err := validator.ValidatePassword(data.Password); err != nil {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if err := validator.ValidateName(data.Name); err != nil {
		errs = append(errs, "Name is required")
	}
	if err := validator.ValidateDateOfBirth(data.DateOfBirth); err != nil {
		errs = append(errs, "A valid date of birth is required")
	}
	if err := validator.ValidateAge(data.Age); err != nil {
		errs = append(errs, "Invalid age value")
	}
	if err := validator.ValidateContactNumber(data.ContactNumber); err != nil {
		errs = append(errs, "Invalid contact number format")
	}

	return errs
}

// Register creates a password account. New accounts start PENDING, so no
// session is established; the user signs in once approved.
func (m *Manager) Register(ctx context.Context, data SignupData) SignupResult {
	if errs := ValidateSignupData(data); len(errs) > 0 {
		return SignupResult{
			Status:      LoginError,
			Message:     "Please fix the highlighted fields.",
			FieldErrors: errs,
		}
	}

	var resp registerResponse
	if err := m.anonymousClient().Post(ctx, "/auth/register", data, &resp); err != nil {
		return SignupResult{Status: LoginError, Message: loginErrorMessage(err)}
	}

	message := resp.Message
	if message == "" {
		message = "Account created. Your registration is pending approval."
	}
	return SignupResult{Status: LoginSuccess, Message: message}
}
