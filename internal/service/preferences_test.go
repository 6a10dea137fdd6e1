package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/model"
)

func TestPreferences_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewPreferencesService(RedisKV{Client: rdb}, quietLogger())
	ctx := context.Background()

	p, err := s.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, p.SidebarCollapsed, "missing key reads as expanded")

	require.NoError(t, s.Save(ctx, 7, model.Preferences{SidebarCollapsed: true}))
	got, err := mr.Get("prefs:7:sidebar_collapsed")
	require.NoError(t, err)
	assert.Equal(t, "true", got)

	p, err = s.Load(ctx, 7)
	require.NoError(t, err)
	assert.True(t, p.SidebarCollapsed)

	p, err = s.Load(ctx, 8)
	require.NoError(t, err)
	assert.False(t, p.SidebarCollapsed)
}

func TestPreferences_BadValueFallsBack(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "prefs:1:sidebar_collapsed", "maybe"))

	p, err := NewPreferencesService(kv, quietLogger()).Load(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, p.SidebarCollapsed)
}

func TestPreferences_StoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	s := NewPreferencesService(RedisKV{Client: rdb}, quietLogger())
	p, err := s.Load(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, model.Preferences{}, p)
	assert.Error(t, s.Save(context.Background(), 1, model.Preferences{SidebarCollapsed: true}))
}
