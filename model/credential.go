package model

import "time"

// Credential is a user's provider OAuth grant. There is at most one per user
// and only the token manager mutates it.
type Credential struct {
	UserID         string
	ProviderUserID string // Yahoo "sub", when userinfo was available at link time
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExpiresWithin reports whether the access token expires before now+margin.
func (c *Credential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return c.ExpiresAt.Before(now.Add(margin))
}

// LinkStatus is the client safe view of a Credential.
type LinkStatus struct {
	Linked         bool       `json:"linked"`
	ProviderUserID string     `json:"providerUserId,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	// Expired is true when the access token has lapsed. The next API call refreshes it.
	Expired   bool       `json:"expired"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
