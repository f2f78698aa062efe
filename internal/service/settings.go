package service

import (
	"context"
	"fmt"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/settings"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// SettingsService provides namespaced dashboard configuration storage.
type SettingsService struct {
	store database.Store
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(store database.Store) *SettingsService {
	return &SettingsService{store: store}
}

// List returns all settings in a namespace; an empty namespace lists
// everything.
func (s *SettingsService) List(ctx context.Context, namespace string) ([]settings.Setting, error) {
	return s.store.ListSettings(ctx, namespace)
}

// Get returns a single setting.
func (s *SettingsService) Get(ctx context.Context, namespace, key string) (*settings.Setting, error) {
	if namespace == "" || key == "" {
		return nil, fmt.Errorf("namespace and key are required: %w", domain.ErrValidation)
	}
	return s.store.GetSetting(ctx, namespace, key)
}

// Update upserts a batch of settings within one namespace atomically:
// either every value lands or none do.
func (s *SettingsService) Update(ctx context.Context, req settings.UpdateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.store.UpsertSettings(ctx, req.Namespace, req.Settings)
}
