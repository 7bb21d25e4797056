package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"golang.org/x/sync/singleflight"
)

// Store holds the active settings snapshot. Readers get the pointer that was current when they
// asked; Update and Refresh swap in a new snapshot without touching the old one.
type Store struct {
	repo    settings.Repository
	current atomic.Pointer[settings.Settings]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewStore starts from the built-in defaults. Call Refresh to pick up a stored snapshot.
func NewStore(repo settings.Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{repo: repo, logger: logger}
	s.current.Store(settings.Default())
	return s
}

func (s *Store) Current(ctx context.Context) (*settings.Settings, error) {
	return s.current.Load(), nil
}

// Refresh reloads the snapshot from the repository. Concurrent callers share one load.
func (s *Store) Refresh(ctx context.Context) (*settings.Settings, error) {
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		loaded, err := s.repo.Load(ctx)
		if errors.Is(err, settings.ErrSettingsNotFound) {
			return s.current.Load(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			s.logger.Error("Stored settings rejected, keeping current snapshot", "error", err)
			return nil, err
		}
		s.current.Store(loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*settings.Settings), nil
}

// Update validates next, persists it and makes it current.
func (s *Store) Update(ctx context.Context, next *settings.Settings) (*settings.Settings, error) {
	if next == nil {
		return nil, errors.New("settings are required")
	}
	snapshot := next.Clone()
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	snapshot.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.current.Store(snapshot)
	s.logger.Info("Settings updated", "timezone", snapshot.Timezone, "brackets", len(snapshot.TaxBrackets))
	return snapshot, nil
}
