package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/kv"
	"deliverydesk/backend/internal/logger"
)

// ThemeStore keeps the selected theme under kv.KeyTheme. Unlike the archive
// it is written synchronously.
type ThemeStore struct {
	store kv.Store
	log   zerolog.Logger
}

func NewThemeStore(store kv.Store) *ThemeStore {
	return &ThemeStore{store: store, log: logger.WithComponent("persistence")}
}

// Get returns the saved theme, or light when nothing usable is stored.
func (t *ThemeStore) Get(ctx context.Context) domain.Theme {
	raw, ok, err := t.store.Get(ctx, kv.KeyTheme)
	if err != nil {
		t.log.Warn().Err(err).Msg("read theme")
		return domain.ThemeLight
	}
	if !ok {
		return domain.ThemeLight
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		// bare value
		value = string(raw)
	}
	theme, err := domain.ParseTheme(value)
	if err != nil {
		t.log.Warn().Err(err).Msg("stored theme ignored")
		return domain.ThemeLight
	}
	return theme
}

func (t *ThemeStore) Set(ctx context.Context, theme domain.Theme) error {
	parsed, err := domain.ParseTheme(string(theme))
	if err != nil {
		return err
	}
	raw, err := json.Marshal(string(parsed))
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, kv.KeyTheme, raw); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

func (t *ThemeStore) Toggle(ctx context.Context) (domain.Theme, error) {
	next := t.Get(ctx).Toggle()
	if err := t.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
