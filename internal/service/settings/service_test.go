package settings

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	stored *settings.Settings
	loads  int32
	delay  time.Duration
}

func (f *fakeRepo) Load(ctx context.Context) (*settings.Settings, error) {
	atomic.AddInt32(&f.loads, 1)
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		return nil, settings.ErrSettingsNotFound
	}
	return f.stored.Clone(), nil
}

func (f *fakeRepo) Save(ctx context.Context, s *settings.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = s.Clone()
	return nil
}

func TestStore_StartsWithDefaults(t *testing.T) {
	store := NewStore(&fakeRepo{}, nil)
	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, current.GracePeriodMinutes)

	refreshed, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, current, refreshed)
}

func TestStore_UpdateSwapsSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo, nil)
	ctx := context.Background()

	before, _ := store.Current(ctx)
	next := before.Clone()
	next.GracePeriodMinutes = 5

	updated, err := store.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.GracePeriodMinutes)

	after, _ := store.Current(ctx)
	assert.Equal(t, 5, after.GracePeriodMinutes)
	assert.Equal(t, 15, before.GracePeriodMinutes, "previous snapshot must stay untouched")
	assert.Equal(t, 5, repo.stored.GracePeriodMinutes)
}

func TestStore_UpdateRejectsInvalid(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo, nil)
	ctx := context.Background()

	bad := settings.Default()
	bad.StandardMonthlyHours = decimal.Zero

	_, err := store.Update(ctx, bad)
	require.Error(t, err)

	current, _ := store.Current(ctx)
	assert.True(t, current.StandardMonthlyHours.Equal(decimal.NewFromInt(160)))
	assert.Nil(t, repo.stored)
}

func TestStore_RefreshCoalescesLoads(t *testing.T) {
	stored := settings.Default()
	stored.GracePeriodMinutes = 30
	repo := &fakeRepo{stored: stored, delay: 20 * time.Millisecond}
	store := NewStore(repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&repo.loads), int32(10))
	current, _ := store.Current(context.Background())
	assert.Equal(t, 30, current.GracePeriodMinutes)
}
