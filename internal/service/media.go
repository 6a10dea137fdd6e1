package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/yacht-charter/internal/config"
	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/repository"
	"github.com/iliyamo/yacht-charter/internal/storage"
)

// ItemStore is the slice of repository.StorageItemRepo the media library
// needs.
type ItemStore interface {
	Create(ctx context.Context, it *model.StorageItem) error
	GetByID(ctx context.Context, id string) (model.StorageItem, error)
	List(ctx context.Context, f repository.StorageItemFilter) ([]model.StorageItem, int, error)
	Update(ctx context.Context, id string, u repository.StorageItemUpdate) error
	ReplaceCategories(ctx context.Context, itemID string, categoryIDs []uint64) error
	AttachCategories(ctx context.Context, itemID string, categoryIDs []uint64) error
	CategoriesFor(ctx context.Context, itemIDs []string) (map[string][]model.Category, error)
	ListSizes(ctx context.Context) ([]model.ItemSize, error)
}

// ErrInvalidBucket is returned for bucket names the object stores reject.
var ErrInvalidBucket = errors.New("invalid bucket name")

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Upload is one file handed to the media library.  Size may be -1 when the
// caller does not know it; the stored size is the number of bytes read.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// UploadOptions apply to every file of an upload call.
type UploadOptions struct {
	Bucket      string
	OwnerID     uint64
	Metadata    map[string]any
	CategoryIDs []uint64
}

// ItemQuery selects a page of the library.
type ItemQuery struct {
	Limit      int
	Offset     int
	Search     string
	CategoryID uint64
	MimeType   string
}

// ItemPage is one page of storage items.
type ItemPage struct {
	Items  []model.StorageItem `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// ItemChanges is a partial update.  A nil CategoryIDs leaves categories
// alone; an empty non-nil slice removes them all.
type ItemChanges struct {
	Name        *string
	Metadata    map[string]any
	CategoryIDs *[]uint64
}

// BatchFailure names one item of a batch that failed and why.
type BatchFailure struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// BatchResult reports every item of a batch call.  Items holds the records
// created by an upload batch, in input order.
type BatchResult struct {
	Succeeded []string            `json:"succeeded"`
	Failed    []BatchFailure      `json:"failed"`
	Items     []model.StorageItem `json:"items,omitempty"`
}

// MediaService is the storage access layer: object bytes go to the
// object store, metadata rows and category links go to the database.
//
// Deleting an object does not touch the database here; the object store
// is wrapped with storage.WithRemoveHook, whose callback deletes the row.
type MediaService struct {
	Items       ItemStore
	Objects     storage.ObjectStore
	Storage     config.StorageConfig
	Concurrency int
	Logger      echo.Logger

	now     func() time.Time
	keyMu   sync.Mutex
	lastKey int64
}

func NewMediaService(items ItemStore, objects storage.ObjectStore, cfg config.StorageConfig, concurrency int, logger echo.Logger) *MediaService {
	return &MediaService{
		Items:       items,
		Objects:     objects,
		Storage:     cfg,
		Concurrency: concurrency,
		Logger:      logger,
		now:         time.Now,
	}
}

func (s *MediaService) bucketOr(b string) string {
	if b = strings.TrimSpace(b); b != "" {
		return b
	}
	return s.Storage.DefaultBucket
}

// UploadFile stores the object, records its metadata row, then tags it.
// Tagging failures are logged and do not fail the upload.  When the row
// cannot be written the object is removed again.
func (s *MediaService) UploadFile(ctx context.Context, f Upload, opts UploadOptions) (*model.StorageItem, error) {
	bucket := s.bucketOr(opts.Bucket)
	key := storage.ObjectKey(f.Name, s.keyTime())

	body := bufio.NewReaderSize(f.Body, 512)
	contentType := detectContentType(f.Name, f.ContentType, body)
	counter := &countingReader{r: body}

	if err := s.Objects.Put(ctx, bucket, key, counter, f.Size, contentType); err != nil {
		s.Logger.Errorf("media: upload %s to %s failed: %v", f.Name, bucket, err)
		return nil, err
	}

	meta := map[string]any{
		"original_name": f.Name,
		"content_type":  contentType,
	}
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	it := &model.StorageItem{
		Bucket:   bucket,
		Name:     f.Name,
		Path:     key,
		Size:     counter.n,
		MimeType: contentType,
		Metadata: meta,
		OwnerID:  opts.OwnerID,
	}
	if err := s.Items.Create(ctx, it); err != nil {
		s.Logger.Errorf("media: record %s/%s failed: %v", bucket, key, err)
		if rmErr := s.Objects.Remove(context.WithoutCancel(ctx), bucket, key); rmErr != nil {
			s.Logger.Errorf("media: remove orphan %s/%s failed: %v", bucket, key, rmErr)
		}
		return nil, err
	}

	it.Categories = []model.Category{}
	if len(opts.CategoryIDs) > 0 {
		if err := s.Items.AttachCategories(ctx, it.ID, opts.CategoryIDs); err != nil {
			s.Logger.Warnf("media: tag %s failed: %v", it.ID, err)
		} else if cats, err := s.Items.CategoriesFor(ctx, []string{it.ID}); err == nil {
			if c, ok := cats[it.ID]; ok {
				it.Categories = c
			}
		}
	}
	it.URL = s.urlFor(*it)
	return it, nil
}

// keyTime hands out strictly increasing millisecond timestamps so files
// of one batch never share an object key.
func (s *MediaService) keyTime() time.Time {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.lastKey {
		ms = s.lastKey + 1
	}
	s.lastKey = ms
	return time.UnixMilli(ms)
}

// GetStorageItems returns one page of bucket with URLs and categories.
func (s *MediaService) GetStorageItems(ctx context.Context, bucket string, q ItemQuery) (ItemPage, error) {
	f := repository.StorageItemFilter{
		Bucket:     strings.TrimSpace(bucket),
		Limit:      q.Limit,
		Offset:     q.Offset,
		Search:     q.Search,
		CategoryID: q.CategoryID,
		MimeType:   q.MimeType,
	}
	items, total, err := s.Items.List(ctx, f)
	if err != nil {
		s.Logger.Errorf("media: list %q failed: %v", bucket, err)
		return ItemPage{}, err
	}
	if err := s.decorate(ctx, items); err != nil {
		s.Logger.Warnf("media: load categories failed: %v", err)
	}
	return ItemPage{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// GetStorageItem returns a single record with URL and categories.
func (s *MediaService) GetStorageItem(ctx context.Context, id string) (*model.StorageItem, error) {
	it, err := s.Items.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.Errorf("media: get %s failed: %v", id, err)
		}
		return nil, err
	}
	items := []model.StorageItem{it}
	if err := s.decorate(ctx, items); err != nil {
		s.Logger.Warnf("media: load categories of %s failed: %v", id, err)
	}
	return &items[0], nil
}

// DeleteStorageItem removes the object behind id.  The metadata row goes
// with it through the store's remove hook.
func (s *MediaService) DeleteStorageItem(ctx context.Context, id string) error {
	it, err := s.Items.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.Errorf("media: lookup %s for delete failed: %v", id, err)
		}
		return err
	}
	if err := s.Objects.Remove(ctx, it.Bucket, it.Path); err != nil {
		s.Logger.Errorf("media: delete %s/%s failed: %v", it.Bucket, it.Path, err)
		return err
	}
	return nil
}

// UpdateStorageItem applies ch and returns the refreshed record.  The
// category set, when given, replaces the current one.
func (s *MediaService) UpdateStorageItem(ctx context.Context, id string, ch ItemChanges, actor uint64) (*model.StorageItem, error) {
	if ch.Name != nil {
		name := strings.TrimSpace(*ch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidItem)
		}
		ch.Name = &name
	}
	if err := s.Items.Update(ctx, id, repository.StorageItemUpdate{
		Name:      ch.Name,
		Metadata:  ch.Metadata,
		UpdatedBy: actor,
	}); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.Logger.Errorf("media: update %s failed: %v", id, err)
		}
		return nil, err
	}
	if ch.CategoryIDs != nil {
		if err := s.Items.ReplaceCategories(ctx, id, *ch.CategoryIDs); err != nil {
			s.Logger.Errorf("media: replace categories of %s failed: %v", id, err)
			return nil, err
		}
	}
	return s.GetStorageItem(ctx, id)
}

// ErrInvalidItem is returned for updates that would leave a record unusable.
var ErrInvalidItem = errors.New("invalid storage item")

// GetStorageStats sums sizes over every row.  It reads the whole table;
// the library is expected to stay in the low thousands of files.
func (s *MediaService) GetStorageStats(ctx context.Context) (model.StorageStats, error) {
	sizes, err := s.Items.ListSizes(ctx)
	if err != nil {
		s.Logger.Errorf("media: stats failed: %v", err)
		return model.StorageStats{}, err
	}
	return aggregateSizes(sizes), nil
}

func aggregateSizes(sizes []model.ItemSize) model.StorageStats {
	per := map[string]*model.BucketStats{}
	stats := model.StorageStats{Buckets: []model.BucketStats{}}
	for _, sz := range sizes {
		b, ok := per[sz.Bucket]
		if !ok {
			b = &model.BucketStats{Bucket: sz.Bucket}
			per[sz.Bucket] = b
		}
		b.FileCount++
		b.TotalSize += sz.Size
		stats.FileCount++
		stats.TotalSize += sz.Size
	}
	for _, b := range per {
		stats.Buckets = append(stats.Buckets, *b)
	}
	sort.Slice(stats.Buckets, func(i, j int) bool { return stats.Buckets[i].Bucket < stats.Buckets[j].Bucket })
	return stats
}

// UploadFiles uploads every file concurrently.  One failure does not stop
// the others.
func (s *MediaService) UploadFiles(ctx context.Context, files []Upload, opts UploadOptions) BatchResult {
	items := make([]*model.StorageItem, len(files))
	errs := make([]error, len(files))
	s.fanOut(len(files), func(i int) {
		items[i], errs[i] = s.UploadFile(ctx, files[i], opts)
	})

	res := newBatchResult()
	for i, f := range files {
		if errs[i] != nil {
			res.Failed = append(res.Failed, BatchFailure{Ref: f.Name, Error: errs[i].Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, items[i].ID)
		res.Items = append(res.Items, *items[i])
	}
	return res
}

// DeleteStorageItems deletes every id concurrently.
func (s *MediaService) DeleteStorageItems(ctx context.Context, ids []string) BatchResult {
	errs := make([]error, len(ids))
	s.fanOut(len(ids), func(i int) {
		errs[i] = s.DeleteStorageItem(ctx, ids[i])
	})

	res := newBatchResult()
	for i, id := range ids {
		if errs[i] != nil {
			res.Failed = append(res.Failed, BatchFailure{Ref: id, Error: errs[i].Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

func newBatchResult() BatchResult {
	return BatchResult{Succeeded: []string{}, Failed: []BatchFailure{}}
}

// fanOut runs fn for 0..n-1 with at most Concurrency calls in flight.
func (s *MediaService) fanOut(n int, fn func(i int)) {
	var g errgroup.Group
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// SignedURL grants temporary access to a file.  ttl <= 0 uses the
// configured default.
func (s *MediaService) SignedURL(ctx context.Context, id string, ttl time.Duration) (string, error) {
	it, err := s.Items.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = s.Storage.SignedURLTTL
	}
	u, err := s.Objects.SignedURL(ctx, it.Bucket, it.Path, ttl)
	if err != nil {
		s.Logger.Errorf("media: sign %s failed: %v", id, err)
		return "", err
	}
	return u, nil
}

// EnsureBucket creates a bucket in the object store.
func (s *MediaService) EnsureBucket(ctx context.Context, name string, public bool) error {
	if !bucketName.MatchString(name) || strings.Contains(name, "..") {
		return ErrInvalidBucket
	}
	if err := s.Objects.EnsureBucket(ctx, name, public); err != nil {
		s.Logger.Errorf("media: ensure bucket %s failed: %v", name, err)
		return err
	}
	return nil
}

// decorate resolves URLs and loads categories for items in place.
func (s *MediaService) decorate(ctx context.Context, items []model.StorageItem) error {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
		items[i].URL = s.urlFor(items[i])
		if items[i].Categories == nil {
			items[i].Categories = []model.Category{}
		}
	}
	cats, err := s.Items.CategoriesFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if c, ok := cats[items[i].ID]; ok {
			items[i].Categories = c
		}
	}
	return nil
}

func (s *MediaService) urlFor(it model.StorageItem) string {
	if !s.Storage.IsPublic(it.Bucket) {
		return ""
	}
	return s.Objects.PublicURL(it.Bucket, it.Path)
}

// detectContentType trusts a declared specific type, then the file
// extension, then the first bytes of the body.
func detectContentType(name, declared string, body *bufio.Reader) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	head, _ := body.Peek(512)
	return http.DetectContentType(head)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
