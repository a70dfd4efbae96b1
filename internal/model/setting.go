package model

import "fmt"

// Setting keys.
const (
	SettingAdminPassword = "admin_password"
	SettingJWTSecret     = "jwt_secret"
)

// DefaultAdminPassword is the shared password used until an admin changes it.
const DefaultAdminPassword = "0000"

// Admin password length bounds.
const (
	MinAdminPasswordLen = 4
	MaxAdminPasswordLen = 12
)

// ValidateAdminPassword checks that a password is a short numeric code that
// can be typed on a phone keypad.
func ValidateAdminPassword(password string) error {
	if len(password) < MinAdminPasswordLen || len(password) > MaxAdminPasswordLen {
		return fmt.Errorf("password must be %d to %d digits", MinAdminPasswordLen, MaxAdminPasswordLen)
	}
	for _, c := range password {
		if c < '0' || c > '9' {
			return fmt.Errorf("password must contain digits only")
		}
	}
	return nil
}
