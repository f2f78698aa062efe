package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/cache"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// pricingCacheKey is the cache slot for the serialized pricing rows.
const pricingCacheKey = "pricing:table"

// PricingService manages the model pricing table that converts token
// counts into cost. Reads go through the cache; any write invalidates it.
type PricingService struct {
	store database.Store
	cache cache.Cache
	hub   broadcast.Broadcaster
	ttl   time.Duration
}

// NewPricingService creates a new PricingService.
func NewPricingService(store database.Store, c cache.Cache, hub broadcast.Broadcaster, ttl time.Duration) *PricingService {
	return &PricingService{store: store, cache: c, hub: hub, ttl: ttl}
}

// Table returns an immutable pricing snapshot, served from cache when
// fresh. An empty store falls back to the built-in catalog so costing
// never runs against an empty table.
func (s *PricingService) Table(ctx context.Context) (*pricing.Table, error) {
	if data, ok, err := s.cache.Get(ctx, pricingCacheKey); err == nil && ok {
		var entries []pricing.Entry
		if json.Unmarshal(data, &entries) == nil {
			if t, err := pricing.NewTable(entries); err == nil {
				return t, nil
			}
		}
		// Poisoned cache entry; rebuild from the store.
		_ = s.cache.Delete(ctx, pricingCacheKey)
	}

	entries, err := s.store.ListPricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pricing: %w", err)
	}
	if len(entries) == 0 {
		slog.Warn("pricing table is empty, serving built-in catalog")
		entries = pricing.Catalog()
	}

	t, err := pricing.NewTable(entries)
	if err != nil {
		return nil, fmt.Errorf("build pricing table: %w", err)
	}

	if data, err := json.Marshal(entries); err == nil {
		_ = s.cache.Set(ctx, pricingCacheKey, data, s.ttl)
	}
	return t, nil
}

// List returns all pricing rows sorted by model.
func (s *PricingService) List(ctx context.Context) ([]pricing.Entry, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Entries(), nil
}

// Upsert creates or replaces one pricing row.
func (s *PricingService) Upsert(ctx context.Context, e *pricing.Entry) (*pricing.Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.Model = pricing.Normalize(e.Model)
	e.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertPricing(ctx, e); err != nil {
		return nil, fmt.Errorf("upsert pricing: %w", err)
	}
	s.invalidate(ctx)

	s.hub.BroadcastEvent(ctx, ws.EventPricingUpdated, ws.PricingUpdatedEvent{Model: e.Model})
	slog.Info("pricing row upserted",
		"model", e.Model,
		"input_per_1k_micro", e.InputPer1KMicro,
		"output_per_1k_micro", e.OutputPer1KMicro,
	)
	return e, nil
}

// Delete removes one pricing row. The fallback row is load-bearing and
// cannot be removed.
func (s *PricingService) Delete(ctx context.Context, model string) error {
	model = pricing.Normalize(model)
	if model == pricing.FallbackModel {
		return fmt.Errorf("the %q pricing row cannot be deleted: %w", pricing.FallbackModel, domain.ErrValidation)
	}

	if err := s.store.DeletePricing(ctx, model); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.hub.BroadcastEvent(ctx, ws.EventPricingUpdated, ws.PricingUpdatedEvent{Model: model, Deleted: true})
	return nil
}

// Seed persists any built-in catalog row that has no stored counterpart
// yet. It returns the number of rows written.
func (s *PricingService) Seed(ctx context.Context) (int, error) {
	existing, err := s.store.ListPricing(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pricing: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[pricing.Normalize(e.Model)] = true
	}

	var written int
	for _, e := range pricing.Catalog() {
		if have[pricing.Normalize(e.Model)] {
			continue
		}
		if err := s.store.UpsertPricing(ctx, &e); err != nil {
			return written, fmt.Errorf("seed %s: %w", e.Model, err)
		}
		written++
	}

	if written > 0 {
		s.invalidate(ctx)
		slog.Info("pricing catalog seeded", "rows", written)
	}
	return written, nil
}

func (s *PricingService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, pricingCacheKey); err != nil {
		slog.Warn("invalidate pricing cache failed", "error", err)
	}
}
