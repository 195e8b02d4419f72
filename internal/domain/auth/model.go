package auth

import (
	"net/mail"
	"unicode"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register and POST /auth/upgrade
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of PUT /auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ValidateRequest is the body of POST /auth/validate
type ValidateRequest struct {
	Token string `json:"token"`
}

// PasswordResetRequest is the body of POST /auth/password-reset
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// Validate checks the login request fields. Login only requires a present
// identifier and a minimally long password; the strict rules apply at
// registration time.
func (r *LoginRequest) Validate() map[string]string {
	fields := map[string]string{}
	if r.Identifier == "" {
		fields["identifier"] = "Email or username is required"
	}
	if len(r.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters long"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Validate checks username, email and password strength
func (r *RegisterRequest) Validate() map[string]string {
	fields := map[string]string{}

	if msg := validateUsername(r.Username); msg != "" {
		fields["username"] = msg
	}
	if !validEmail(r.Email) {
		fields["email"] = "Valid email is required"
	}
	if msg := validatePassword(r.Password); msg != "" {
		fields["password"] = msg
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Validate checks the password-change request fields
func (r *ChangePasswordRequest) Validate() map[string]string {
	fields := map[string]string{}
	if r.CurrentPassword == "" {
		fields["currentPassword"] = "Current password is required"
	}
	if msg := validatePassword(r.NewPassword); msg != "" {
		fields["newPassword"] = msg
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Validate checks the reset request email
func (r *PasswordResetRequest) Validate() map[string]string {
	if !validEmail(r.Email) {
		return map[string]string{"email": "Valid email is required"}
	}
	return nil
}

func validateUsername(username string) string {
	if len(username) < 3 || len(username) > 50 {
		return "Username must be between 3 and 50 characters"
	}
	for _, r := range username {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return "Username can only contain letters, numbers, and underscores"
		}
	}
	return ""
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validatePassword(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters long"
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return "Password must contain at least one lowercase letter, one uppercase letter, and one number"
	}
	return ""
}
