package domain

import "time"

// Credential is the bearer credential pair held by the session manager.
// Expiry is decoded from the access token's exp claim; the zero value means
// the expiry could not be determined.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the access token is unusable at now.
func (c Credential) Expired(now time.Time) bool {
	if c.AccessToken == "" || c.Expiry.IsZero() {
		return true
	}
	return now.After(c.Expiry)
}
