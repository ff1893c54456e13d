package entity

import "strings"

// UserID is the profile owner supplied by the upstream auth layer.
type UserID string

func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

func (id UserID) String() string {
	return strings.TrimSpace(string(id))
}

func (id UserID) IsZero() bool {
	return id.String() == ""
}

// User is an authenticated caller: who they are and the GitHub token to act
// with on their behalf.
type User struct {
	ID    UserID
	Token string
}

// NewUser builds a User from a raw id and an Authorization header value.
func NewUser(rawID, authorization string) User {
	return User{ID: NormalizeUserID(rawID), Token: BearerToken(authorization)}
}

// Authenticated reports whether both the id and the token are present.
func (u User) Authenticated() bool {
	return !u.ID.IsZero() && u.Token != ""
}

// String never includes the token.
func (u User) String() string {
	if u.Token == "" {
		return u.ID.String()
	}
	return u.ID.String() + " (token redacted)"
}

// BearerToken extracts the credential from "Bearer <token>", case-insensitive
// on the scheme. Anything else yields "".
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
