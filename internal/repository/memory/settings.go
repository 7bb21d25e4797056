package memory

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
)

type settingsRepository struct {
	s *Store
}

func NewSettingsRepository(s *Store) settings.Repository {
	return &settingsRepository{s: s}
}

func (r *settingsRepository) Load(ctx context.Context) (*settings.Settings, error) {
	defer r.s.lock(ctx)()
	if r.s.settings == nil {
		return nil, settings.ErrSettingsNotFound
	}
	return r.s.settings.Clone(), nil
}

func (r *settingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	defer r.s.lock(ctx)()
	r.s.settings = s.Clone()
	return nil
}
