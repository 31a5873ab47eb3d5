package domain

import (
	"strings"
	"time"
)

// Account is a registered user: identity, credential, profile and settings.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Profile      FinancialProfile
	Settings     Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Password length bounds. The upper bound counts bytes, which is what bcrypt
// limits.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// NormalizeEmail trims and lower-cases an address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs a structural check on an already normalized address.
func ValidateEmail(email string) error {
	if email == "" {
		return Invalid("email", "is required")
	}
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || host == "" || strings.Contains(host, "@") || strings.ContainsAny(email, " \t\r\n") {
		return Invalid("email", "is not a valid address")
	}
	return nil
}

// ValidatePassword checks the registration password policy.
func ValidatePassword(password string) error {
	if password == "" {
		return Invalid("password", "is required")
	}
	if len(password) < MinPasswordLength {
		return Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return Invalid("password", "must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// Settings holds the user's UI and notification preferences.
type Settings struct {
	EmailNotifications bool `json:"emailNotifications" bson:"emailNotifications"`
	DarkMode           bool `json:"darkMode" bson:"darkMode"`
	TwoFactorAuth      bool `json:"twoFactorAuth" bson:"twoFactorAuth"`
	MarketingEmails    bool `json:"marketingEmails" bson:"marketingEmails"`
}

// DefaultSettings returns the settings given to new accounts.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications: true,
		DarkMode:           false,
		TwoFactorAuth:      false,
		MarketingEmails:    false,
	}
}

// SettingsPatch is a partial update of Settings.
type SettingsPatch struct {
	EmailNotifications *bool `json:"emailNotifications,omitempty"`
	DarkMode           *bool `json:"darkMode,omitempty"`
	TwoFactorAuth      *bool `json:"twoFactorAuth,omitempty"`
	MarketingEmails    *bool `json:"marketingEmails,omitempty"`
}

// Apply merges the patch over s.
func (p SettingsPatch) Apply(s Settings) Settings {
	mergeValue(&s.EmailNotifications, p.EmailNotifications)
	mergeValue(&s.DarkMode, p.DarkMode)
	mergeValue(&s.TwoFactorAuth, p.TwoFactorAuth)
	mergeValue(&s.MarketingEmails, p.MarketingEmails)
	return s
}
