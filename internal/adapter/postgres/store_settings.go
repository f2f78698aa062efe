package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentdeck/agentdeck/internal/domain/settings"
)

// ListSettings returns settings in one namespace, or every namespace when
// namespace is empty.
func (s *Store) ListSettings(ctx context.Context, namespace string) ([]settings.Setting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT namespace, key, value, updated_at FROM settings
		 WHERE ($1 = '' OR namespace = $1)
		 ORDER BY namespace, key`, namespace)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var result []settings.Setting
	for rows.Next() {
		var st settings.Setting
		if err := rows.Scan(&st.Namespace, &st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// GetSetting returns a single setting by namespace and key.
func (s *Store) GetSetting(ctx context.Context, namespace, key string) (*settings.Setting, error) {
	var st settings.Setting
	err := s.pool.QueryRow(ctx,
		`SELECT namespace, key, value, updated_at FROM settings
		 WHERE namespace = $1 AND key = $2`,
		namespace, key).Scan(&st.Namespace, &st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get setting %s/%s", namespace, key)
	}
	return &st, nil
}

// UpsertSettings writes a batch of values into one namespace atomically.
func (s *Store) UpsertSettings(ctx context.Context, namespace string, values map[string]json.RawMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for key, value := range values {
		_, err := tx.Exec(ctx,
			`INSERT INTO settings (namespace, key, value, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			namespace, key, value)
		if err != nil {
			return fmt.Errorf("upsert setting %s/%s: %w", namespace, key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}
