package storage

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
)

// RemovedFunc reacts to an object that has been removed from the store.
type RemovedFunc func(ctx context.Context, bucket, key string) error

// notifyingStore runs a callback after each successful removal, the way a
// hosted storage service fires an "object deleted" event.  The media
// library uses it to drop the matching metadata row.
type notifyingStore struct {
	ObjectStore
	onRemoved RemovedFunc
	logger    echo.Logger
}

// WithRemoveHook wraps s so that fn runs after every successful Remove.
func WithRemoveHook(s ObjectStore, fn RemovedFunc, logger echo.Logger) ObjectStore {
	return &notifyingStore{ObjectStore: s, onRemoved: fn, logger: logger}
}

func (n *notifyingStore) Remove(ctx context.Context, bucket, key string) error {
	if err := n.ObjectStore.Remove(ctx, bucket, key); err != nil {
		return err
	}
	if n.onRemoved == nil {
		return nil
	}
	if err := n.onRemoved(ctx, bucket, key); err != nil {
		if n.logger != nil {
			n.logger.Errorf("storage: removed %s/%s but cleanup failed: %v", bucket, key, err)
		}
		return fmt.Errorf("object removed, cleanup failed: %w", err)
	}
	return nil
}

// Unwrap returns the store beneath any remove hooks.
func Unwrap(s ObjectStore) ObjectStore {
	for {
		n, ok := s.(*notifyingStore)
		if !ok {
			return s
		}
		s = n.ObjectStore
	}
}
