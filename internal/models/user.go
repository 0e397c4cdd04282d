package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Unregistered people appear only as
// email-keyed Members on a group roster until they sign up.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique, used for login).
	Email string

	// DisplayName is the name shown to other group members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser builds a User with a fresh ID and creation timestamp.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}

// Member returns the registered Member identity for this user.
func (u *User) Member() Member {
	return RegisteredMember(u.ID, u.DisplayName)
}
