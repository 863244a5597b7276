// Package models defines the records persisted by the store and shared by
// the listing, posts and handler packages.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of an admin account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// User is an admin account able to manage posts.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // set during 2FA enrolment
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManagePosts reports whether the account may create, edit or delete posts.
func (u *User) CanManagePosts() bool {
	return u.Role == RoleAdmin || u.Role == RoleEditor
}

// Needs2FASetup returns true until the user has confirmed a TOTP code.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
