package malauth

import "time"

// Credential holds the MyAnimeList OAuth tokens. Absent credentials are
// represented as a nil pointer, never as a zero struct.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ExpiresWithin reports whether the access token is already expired or will
// expire inside the given safety margin.
func (c Credential) ExpiresWithin(margin time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt.Add(-margin))
}

// Store persists the credential across restarts. Load returns (nil, nil)
// when no credential has been stored yet.
type Store interface {
	Load() (*Credential, error)
	Save(Credential) error
}
