package settings

import (
	"context"
	"errors"
)

var ErrSettingsNotFound = errors.New("no stored settings")

// Repository persists the active snapshot.
type Repository interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// Provider hands out the current snapshot. Implementations may swap snapshots at any time;
// a caller keeps using the snapshot it obtained for the duration of one operation.
type Provider interface {
	Current(ctx context.Context) (*Settings, error)
}

// Service exposes settings to administrators.
type Service interface {
	Provider
	Refresh(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, next *Settings) (*Settings, error)
}

// Static is a Provider that always returns the same snapshot.
type Static struct {
	S *Settings
}

func (p Static) Current(ctx context.Context) (*Settings, error) {
	return p.S, nil
}
