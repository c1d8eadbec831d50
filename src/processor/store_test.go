package processor

import (
	"CuryDashboard/src/storage"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *storage.Logger {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "test.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestStoreReload(t *testing.T) {
	raw := rawFrame(t, sampleRows...)
	fail := false
	load := func(ctx context.Context) (dataframe.DataFrame, error) {
		if fail {
			return dataframe.DataFrame{}, errors.New("disk gone")
		}
		return raw, nil
	}

	s := NewStore(load, DefaultCleanOptions(), testLogger(t))
	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)

	sub := s.Subscribe()
	require.NoError(t, s.Reload(context.Background(), "startup"))

	b, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())

	select {
	case ev := <-sub:
		assert.Equal(t, "startup", ev.Source)
		assert.Equal(t, 4, ev.Rows)
		assert.Equal(t, 6, ev.RawRows)
		assert.Empty(t, ev.Err)
	case <-time.After(time.Second):
		t.Fatal("no reload event")
	}

	// 加载失败时保留旧数据
	fail = true
	err = s.Reload(context.Background(), "cron")
	require.Error(t, err)
	b, err = s.Current()
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
	assert.Contains(t, s.LastReload().Err, "disk gone")

	ev := <-sub
	assert.Equal(t, "cron", ev.Source)
	assert.NotEmpty(t, ev.Err)

	s.Unsubscribe(sub)
	_, open := <-sub
	assert.False(t, open)
}

func TestStoreReloadCastFailureKeepsPrevious(t *testing.T) {
	good := rawFrame(t, sampleRows...)
	bad := sampleRows[0]
	bad.minutes = "fast"
	broken := rawFrame(t, bad)

	current := good
	s := NewStore(func(ctx context.Context) (dataframe.DataFrame, error) { return current, nil },
		DefaultCleanOptions(), testLogger(t))
	require.NoError(t, s.Reload(context.Background(), "startup"))

	current = broken
	err := s.Reload(context.Background(), "watch")
	assert.ErrorIs(t, err, ErrCast)

	b, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
}

func TestStoreReloadCancelled(t *testing.T) {
	called := false
	s := NewStore(func(ctx context.Context) (dataframe.DataFrame, error) {
		called = true
		return dataframe.DataFrame{}, nil
	}, DefaultCleanOptions(), testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Reload(ctx, "signal"), context.Canceled)
	assert.False(t, called)
}
