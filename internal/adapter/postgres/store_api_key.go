package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/apikey"
)

func (s *Store) CreateAPIKey(ctx context.Context, k *apikey.Key) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, prefix, secret_hash, scopes, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		k.ID, k.Name, k.Prefix, k.SecretHash, k.Scopes, nullTime(k.ExpiresAt), k.CreatedAt)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]apikey.Key, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, prefix, secret_hash, scopes, expires_at, revoked_at, created_at
		 FROM api_keys ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	return collectAPIKeys(rows)
}

// GetAPIKeysByPrefix returns every key sharing a display prefix. Prefixes
// are not unique, so authentication walks the candidates and checks the
// secret hash of each.
func (s *Store) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]apikey.Key, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, prefix, secret_hash, scopes, expires_at, revoked_at, created_at
		 FROM api_keys WHERE prefix = $1 ORDER BY created_at`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api keys by prefix: %w", err)
	}
	defer rows.Close()

	return collectAPIKeys(rows)
}

func (s *Store) RevokeAPIKey(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = $2 WHERE id = $1`, id, at)
	return execExpectOne(tag, err, "revoke api key %s", id)
}

func collectAPIKeys(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]apikey.Key, error) {
	var keys []apikey.Key
	for rows.Next() {
		var k apikey.Key
		var expiresAt, revokedAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.Prefix, &k.SecretHash, &k.Scopes, &expiresAt, &revokedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		if expiresAt.Valid {
			k.ExpiresAt = expiresAt.Time.UTC()
		}
		if revokedAt.Valid {
			k.RevokedAt = revokedAt.Time.UTC()
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
