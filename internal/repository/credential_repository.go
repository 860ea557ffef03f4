package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mpetrov/anisync/internal/malauth"
)

// CredentialRepository stores the single MyAnimeList credential in sqlite.
// It implements malauth.Store.
type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Load() (*malauth.Credential, error) {
	row := r.db.QueryRow(`SELECT access_token, refresh_token, expires_at FROM credentials WHERE id = 1`)

	var accessToken string
	var refreshToken sql.NullString
	var expiresAt string
	if err := row.Scan(&accessToken, &refreshToken, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse credential expiry %q: %w", expiresAt, err)
	}

	return &malauth.Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.String,
		ExpiresAt:    parsed,
	}, nil
}

func (r *CredentialRepository) Save(cred malauth.Credential) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`
		INSERT INTO credentials (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		cred.AccessToken, nullable(cred.RefreshToken), cred.ExpiresAt.UTC().Format(time.RFC3339), now)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
