package models

import "github.com/google/uuid"

// UserIdentity is the authenticated caller as resolved from the identity
// provider's session token. Services take it as an explicit parameter.
type UserIdentity struct {
	ID       uuid.UUID
	Email    string
	Metadata map[string]any
}

// DisplayName returns the best-effort human name from provider metadata.
func (u *UserIdentity) DisplayName() string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	for _, key := range []string{"full_name", "name"} {
		if v, ok := u.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
