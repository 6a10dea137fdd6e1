package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalStore keeps objects on disk under dir/<bucket>/<key>.  It is the
// development fallback when no S3 credentials are configured.  Files are
// served by FileHandler under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
	signKey []byte
	now     func() time.Time
}

// NewLocalStore creates dir when missing.  signKey authenticates signed
// URLs.
func NewLocalStore(dir, baseURL string, signKey []byte) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		signKey: signKey,
		now:     time.Now,
	}, nil
}

func (l *LocalStore) objectPath(bucket, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || strings.Contains(bucket, "..") {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	return filepath.Join(l.dir, bucket, filepath.FromSlash(key)), nil
}

func (l *LocalStore) Put(ctx context.Context, bucket, key string, body io.Reader, _ int64, _ string) error {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(l.dir, bucket)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext(ctx, body)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (l *LocalStore) Remove(_ context.Context, bucket, key string) error {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", l.baseURL, bucket, escapeKey(key))
}

// SignedURL appends an expiry and an HMAC over bucket, key and expiry.
func (l *LocalStore) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if _, err := l.objectPath(bucket, key); err != nil {
		return "", err
	}
	exp := l.now().Add(ttl).Unix()
	return fmt.Sprintf("%s?expires=%d&signature=%s", l.PublicURL(bucket, key), exp, l.sign(bucket, key, exp)), nil
}

// Verify checks a signature produced by SignedURL.
func (l *LocalStore) Verify(bucket, key, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || l.now().Unix() > exp {
		return false
	}
	want := l.sign(bucket, key, exp)
	return hmac.Equal([]byte(want), []byte(signature))
}

func (l *LocalStore) sign(bucket, key string, exp int64) string {
	mac := hmac.New(sha256.New, l.signKey)
	fmt.Fprintf(mac, "%s\n%s\n%d", bucket, key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *LocalStore) EnsureBucket(_ context.Context, bucket string, _ bool) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || strings.Contains(bucket, "..") {
		return fmt.Errorf("invalid bucket %q", bucket)
	}
	return os.MkdirAll(filepath.Join(l.dir, bucket), 0o755)
}

// Open returns the file behind bucket/key for serving.
func (l *LocalStore) Open(bucket, key string) (*os.File, error) {
	p, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// readerWithContext stops a copy once ctx is cancelled.
func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
