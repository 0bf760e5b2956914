package models

import "time"

// Profile holds display data for a user.
//
// Accounts and credentials live with the external identity provider. A profile
// is upserted from the verified token claims whenever the user acts on the
// service, so members can be shown by name.
type Profile struct {
	// ID is the user ID issued by the identity provider.
	ID string

	// FullName is the display name. May be empty.
	FullName string

	// Email is the user's email address. May be empty.
	Email string

	// CreatedAt is the Unix timestamp when the profile was first seen.
	CreatedAt int64
}

// NewProfile creates a profile stamped with the current time.
func NewProfile(id, fullName, email string) *Profile {
	return &Profile{
		ID:        id,
		FullName:  fullName,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}

// DisplayName returns the best available label for the profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}
