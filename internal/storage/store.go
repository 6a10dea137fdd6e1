// Package storage is the object-store side of the media library.  It
// stores file bytes under bucket/key and resolves URLs; the metadata rows
// describing the files live in repository.StorageItemRepo.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/iliyamo/yacht-charter/internal/config"
)

// ErrNotFound is returned when the bucket or object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore is implemented by the S3 and local-disk backends.
type ObjectStore interface {
	// Put writes body under bucket/key.  size may be -1 when unknown.
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	// Remove deletes bucket/key.  Removing a missing object is not an error.
	Remove(ctx context.Context, bucket, key string) error
	// PublicURL is the unauthenticated address of bucket/key.  It is only
	// meaningful for public buckets.
	PublicURL(bucket, key string) string
	// SignedURL grants temporary read access to bucket/key.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// EnsureBucket creates bucket when missing.  public opens it for
	// anonymous reads.
	EnsureBucket(ctx context.Context, bucket string, public bool) error
}

// ObjectKey builds the collision-resistant key "<unix-millis>_<name>" with
// name reduced to a safe file name.
func ObjectKey(name string, now time.Time) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), SanitizeName(name))
}

// SanitizeName keeps letters, digits, dot, dash and underscore.  Runs of
// dots collapse to one and runs of anything else become a single
// underscore.  Directory parts are dropped.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var sb strings.Builder
	under, dot := false, false
	for _, r := range name {
		switch {
		case r == '.':
			if !dot {
				sb.WriteByte('.')
			}
			dot, under = true, false
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-':
			sb.WriteRune(r)
			under, dot = false, false
		case !under:
			sb.WriteByte('_')
			under, dot = true, false
		}
	}
	out := strings.Trim(sb.String(), "._")
	if out == "" {
		return "file"
	}
	if len(out) > 180 {
		out = out[len(out)-180:]
	}
	return out
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// New returns the backend selected by cfg.Driver.
func New(cfg config.StorageConfig, signKey []byte) (ObjectStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		return NewS3Store(cfg)
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.BaseURL, signKey)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
