package models

import "strings"

// Member identifies one participant within a group. Exactly one of UserID or
// Email is set: UserID for registered accounts, Email for people invited by
// email who have not registered yet.
type Member struct {
	// UserID is the registered account ID (UUID format). Empty for
	// unregistered placeholders.
	UserID string

	// Email is the normalized email address of an unregistered placeholder.
	// Empty for registered members.
	Email string

	// DisplayName is the human-readable name shown in balance views.
	DisplayName string
}

// RegisteredMember builds a Member backed by a user account.
func RegisteredMember(userID, displayName string) Member {
	return Member{UserID: userID, DisplayName: displayName}
}

// UnregisteredMember builds a placeholder Member identified by email.
func UnregisteredMember(email, displayName string) Member {
	return Member{Email: NormalizeEmail(email), DisplayName: displayName}
}

// Registered reports whether the member is backed by a user account.
func (m Member) Registered() bool {
	return m.UserID != ""
}

// Key returns the stable identifier used for equality, map keys, and all
// deterministic orderings in the calculator: the user ID when registered,
// the normalized email otherwise.
func (m Member) Key() string {
	if m.UserID != "" {
		return m.UserID
	}
	return NormalizeEmail(m.Email)
}

// NormalizeEmail lowercases and trims an email address so the same person
// always resolves to the same member key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
