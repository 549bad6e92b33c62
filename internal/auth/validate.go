package auth

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Minimum form lengths, counted in characters.
const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

// LogicError is a form problem caught before any request is sent.
type LogicError struct {
	Field   string
	Message string
}

func (e *LogicError) Error() string { return e.Message }

var lower = cases.Lower(language.Und)

// NormalizeUsername trims and NFC-normalises a display name.
func NormalizeUsername(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// NormalizeEmail trims, NFC-normalises and lowercases an address.
func NormalizeEmail(s string) string {
	return lower.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Registration is a validated sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
}

// ValidateRegistration checks a sign-up form and returns it normalised.
func ValidateRegistration(username, email, password, confirm string) (Registration, error) {
	r := Registration{
		Username: NormalizeUsername(username),
		Email:    NormalizeEmail(email),
		Password: password,
	}
	if utf8.RuneCountInString(r.Username) < MinUsernameLen {
		return r, &LogicError{Field: "username", Message: "Username must be at least 3 characters long"}
	}
	if !validEmail(r.Email) {
		return r, &LogicError{Field: "email", Message: "Please enter a valid email address"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return r, &LogicError{Field: "password", Message: "Password must be at least 6 characters long"}
	}
	if password != confirm {
		return r, &LogicError{Field: "confirm", Message: "Passwords do not match"}
	}
	return r, nil
}

// ValidateLogin checks an email login form and returns the normalised email.
func ValidateLogin(email, password string) (string, error) {
	e := NormalizeEmail(email)
	if !validEmail(e) {
		return e, &LogicError{Field: "email", Message: "Please enter a valid email address"}
	}
	if password == "" {
		return e, &LogicError{Field: "password", Message: "Please enter your password"}
	}
	return e, nil
}

// ValidateSteam checks that a Steam identity is available.
func ValidateSteam(steamID string) error {
	if strings.TrimSpace(steamID) == "" {
		return &LogicError{Field: "steam_id", Message: "Steam is not running. Please start Steam and try again."}
	}
	return nil
}

func validEmail(s string) bool {
	return s != "" && strings.Contains(s, "@")
}
