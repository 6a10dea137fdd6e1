package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// KVStore is a string key-value store.  ok is false for missing keys.
type KVStore interface {
	Get(ctx context.Context, key string) (val string, ok bool, err error)
	Set(ctx context.Context, key, val string) error
}

// RedisKV stores values in Redis without expiry.
type RedisKV struct {
	Client *redis.Client
}

func (r RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r RedisKV) Set(ctx context.Context, key, val string) error {
	return r.Client.Set(ctx, key, val, 0).Err()
}

// MemoryKV keeps values in process memory.  Used when Redis is not
// reachable; values are lost on restart.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{m: map[string]string{}} }

func (k *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *MemoryKV) Set(_ context.Context, key, val string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = val
	return nil
}

// PreferencesService loads and saves the admin UI settings.  The caller
// loads once when the back office starts and saves on every change.
type PreferencesService struct {
	Store  KVStore
	Logger echo.Logger
}

func NewPreferencesService(store KVStore, logger echo.Logger) *PreferencesService {
	return &PreferencesService{Store: store, Logger: logger}
}

func sidebarKey(userID uint64) string {
	return fmt.Sprintf("prefs:%d:sidebar_collapsed", userID)
}

// Load returns the stored preferences.  Missing or unreadable values fall
// back to the defaults (sidebar expanded); a store failure is returned
// together with the defaults.
func (s *PreferencesService) Load(ctx context.Context, userID uint64) (model.Preferences, error) {
	var p model.Preferences
	v, ok, err := s.Store.Get(ctx, sidebarKey(userID))
	if err != nil {
		s.Logger.Errorf("preferences: load for user %d failed: %v", userID, err)
		return p, err
	}
	if !ok {
		return p, nil
	}
	if b, err := strconv.ParseBool(v); err == nil {
		p.SidebarCollapsed = b
	} else {
		s.Logger.Warnf("preferences: ignoring bad value %q for user %d", v, userID)
	}
	return p, nil
}

// Save persists p.
func (s *PreferencesService) Save(ctx context.Context, userID uint64, p model.Preferences) error {
	if err := s.Store.Set(ctx, sidebarKey(userID), strconv.FormatBool(p.SidebarCollapsed)); err != nil {
		s.Logger.Errorf("preferences: save for user %d failed: %v", userID, err)
		return err
	}
	return nil
}
