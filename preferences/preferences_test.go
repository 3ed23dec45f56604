package preferences

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"opsecho/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	return mr, NewRedisKV(NewRedisClient(mr.Addr(), "", 0))
}

func TestStore_RoundTripRedis(t *testing.T) {
	mr, kv := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, kv.Ping(ctx))
	s := NewStore(kv, zap.NewNop())

	prefs, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)

	prefs.Theme = "light"
	prefs.Dashboard.SoundAlerts = true
	require.NoError(t, s.Save(ctx, prefs))

	stored, err := mr.Get(Key)
	require.NoError(t, err)
	assert.Contains(t, stored, `"theme":"light"`)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs, loaded)
}

func TestStore_MalformedFallsBackToDefaults(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), Key, "{not json", 0))

	prefs, err := NewStore(kv, zap.New(core)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)
	assert.Equal(t, 1, logs.Len())
}

func TestStore_PartialDocumentKeepsDefaults(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), Key, `{"language":"ar"}`, 0))

	prefs, err := NewStore(kv, zap.NewNop()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ar", prefs.Language)
	assert.Equal(t, "dark", prefs.Theme)
}

func TestStore_BackendErrorIsReturned(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	kv := NewRedisKV(NewRedisClient(mr.Addr(), "", 0))
	mr.Close()

	prefs, err := NewStore(kv, zap.NewNop()).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)
}

func TestMemoryKV_NotFound(t *testing.T) {
	_, err := NewMemoryKV().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
