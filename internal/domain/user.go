// Package domain contains the portfolio records exchanged with the backend.
//
// Records are decoded loosely from JSON and then normalized once, so the
// rest of the application never has to guard against missing fields.
package domain

import "strings"

// Roles known to the backend.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a back-office account and the cached profile of the session.
type User struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Normalize applies display defaults.
func (u *User) Normalize() {
	u.Email = strings.TrimSpace(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Name == "" {
		if at := strings.IndexByte(u.Email, '@'); at > 0 {
			u.Name = u.Email[:at]
		} else {
			u.Name = "Anonymous"
		}
	}
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the data returned by a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Normalize normalizes the embedded user.
func (l *LoginResult) Normalize() { l.User.Normalize() }

// PasswordChange is the payload for changing the session user's password.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
