package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/pricing"
)

func (s *Store) ListPricing(ctx context.Context) ([]pricing.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT model, input_per_1k_micro, output_per_1k_micro, updated_at
		 FROM model_prices ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("list pricing: %w", err)
	}
	defer rows.Close()

	var entries []pricing.Entry
	for rows.Next() {
		var e pricing.Entry
		if err := rows.Scan(&e.Model, &e.InputPer1KMicro, &e.OutputPer1KMicro, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pricing entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpsertPricing(ctx context.Context, e *pricing.Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO model_prices (model, input_per_1k_micro, output_per_1k_micro, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (model) DO UPDATE SET
		   input_per_1k_micro = EXCLUDED.input_per_1k_micro,
		   output_per_1k_micro = EXCLUDED.output_per_1k_micro,
		   updated_at = EXCLUDED.updated_at`,
		e.Model, e.InputPer1KMicro, e.OutputPer1KMicro, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert pricing %s: %w", e.Model, err)
	}
	return nil
}

func (s *Store) DeletePricing(ctx context.Context, model string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM model_prices WHERE model = $1`, model)
	return execExpectOne(tag, err, "delete pricing %s", model)
}
