package malauth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotAuthenticated means no usable access token exists and the user must
// go through the authorization flow again. Callers treat this as a
// precondition failure, never as a fatal error.
var ErrNotAuthenticated = errors.New("malauth: re-authentication required")

const refreshMargin = 5 * time.Minute

type refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}

// Manager owns the credential lifecycle: it loads the stored credential,
// refreshes it ahead of expiry and persists every replacement. Refreshes are
// serialized so concurrent sync workers cannot race with the same stale
// refresh token.
type Manager struct {
	mu     sync.Mutex
	store  Store
	auth   refresher
	logger *slog.Logger

	current *Credential
	loaded  bool
}

func NewManager(store Store, auth refresher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, auth: auth, logger: logger}
}

// GetValidToken returns an access token that is valid for at least the
// refresh margin, refreshing at most once. ErrNotAuthenticated is returned
// when no credential is stored, the refresh token is missing, or the refresh
// call fails.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.currentLocked()
	if cred == nil {
		return "", ErrNotAuthenticated
	}
	if !cred.ExpiresWithin(refreshMargin) {
		return cred.AccessToken, nil
	}
	if cred.RefreshToken == "" {
		m.logger.Warn("access token expired and no refresh token stored")
		return "", ErrNotAuthenticated
	}

	refreshed, err := m.auth.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return "", ErrNotAuthenticated
	}

	if err := m.store.Save(refreshed); err != nil {
		m.logger.Warn("persist refreshed credential failed", "error", err)
	}
	m.current = &refreshed
	return refreshed.AccessToken, nil
}

// SetCredential replaces the credential wholesale, persisting it first. Used
// after a successful authorization code exchange.
func (m *Manager) SetCredential(cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(cred); err != nil {
		return err
	}
	m.current = &cred
	m.loaded = true
	return nil
}

// Status reports whether a credential is stored and when it expires.
func (m *Manager) Status() (bool, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.currentLocked()
	if cred == nil {
		return false, time.Time{}
	}
	return true, cred.ExpiresAt
}

func (m *Manager) currentLocked() *Credential {
	if !m.loaded {
		cred, err := m.store.Load()
		if err != nil {
			m.logger.Warn("load credential failed", "error", err)
			return nil
		}
		m.current = cred
		m.loaded = true
	}
	return m.current
}
