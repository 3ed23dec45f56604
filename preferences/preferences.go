package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"opsecho/models"
)

// Key is the fixed storage key of the operator preferences
const Key = "opsecho_user_preferences"

// Store loads and saves user preferences as opaque JSON
type Store struct {
	kv     KVStore
	logger *zap.Logger
}

// NewStore creates a preferences store over kv
func NewStore(kv KVStore, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Load returns the persisted preferences.
// Missing or malformed values yield the defaults; malformed values are logged.
func (s *Store) Load(ctx context.Context) (models.UserPreferences, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.DefaultPreferences(), fmt.Errorf("failed to read preferences: %w", err)
	}

	prefs := models.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("failed to parse stored preferences, using defaults", zap.String("key", Key), zap.Error(err))
		return models.DefaultPreferences(), nil
	}
	return prefs, nil
}

// Save replaces the persisted preferences
func (s *Store) Save(ctx context.Context, prefs models.UserPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data), 0); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
