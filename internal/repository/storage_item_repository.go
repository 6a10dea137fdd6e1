package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// StorageItemRepo persists the metadata rows of the media library and their
// category links.  The object bytes live in the object store; a row only
// records where they are.
type StorageItemRepo struct {
	db *sql.DB
}

// NewStorageItemRepo returns a new StorageItemRepo bound to the given database.
func NewStorageItemRepo(db *sql.DB) *StorageItemRepo { return &StorageItemRepo{db: db} }

// StorageItemFilter narrows List.  Zero values mean "no filter"; all set
// filters must match.
type StorageItemFilter struct {
	Bucket     string
	Limit      int
	Offset     int
	Search     string // case-insensitive substring of name or path
	CategoryID uint64
	MimeType   string // prefix, e.g. "image/"
}

// StorageItemUpdate carries the mutable fields.  Nil pointers and a nil map
// leave the column untouched.
type StorageItemUpdate struct {
	Name      *string
	Metadata  map[string]any
	UpdatedBy uint64
}

const storageCols = `id, bucket, name, path, size, mime_type, metadata, owner_id, updated_by, created_at, updated_at`

// Create inserts it and fills ID and timestamps.
func (r *StorageItemRepo) Create(ctx context.Context, it *model.StorageItem) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	meta, err := encodeMetadata(it.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO storage_items (id, bucket, name, path, size, mime_type, metadata, owner_id, updated_by)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Bucket, it.Name, it.Path, it.Size, it.MimeType, meta, nullID(it.OwnerID), nullID(it.OwnerID))
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	it.UpdatedBy = it.OwnerID
	return nil
}

// GetByID loads one row without categories.
func (r *StorageItemRepo) GetByID(ctx context.Context, id string) (model.StorageItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storageCols+` FROM storage_items WHERE id = ? LIMIT 1`, id)
	it, err := scanStorageItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StorageItem{}, ErrNotFound
	}
	return it, err
}

// List returns one page of rows, newest first, plus the number of rows
// matching the filter across all pages.
func (r *StorageItemRepo) List(ctx context.Context, f StorageItemFilter) ([]model.StorageItem, int, error) {
	where := []string{"1=1"}
	var args []any
	if f.Bucket != "" {
		where = append(where, "bucket = ?")
		args = append(args, f.Bucket)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(path) LIKE ?)")
		args = append(args, like, like)
	}
	if f.MimeType != "" {
		where = append(where, "mime_type LIKE ?")
		args = append(args, escapeLike(f.MimeType)+"%")
	}
	if f.CategoryID != 0 {
		where = append(where, "id IN (SELECT storage_item_id FROM storage_item_categories WHERE category_id = ?)")
		args = append(args, f.CategoryID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM storage_items WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storageCols+` FROM storage_items WHERE `+cond+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.StorageItem{}
	for rows.Next() {
		it, err := scanStorageItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// Update writes the set fields of u.
func (r *StorageItemRepo) Update(ctx context.Context, id string, u StorageItemUpdate) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Metadata != nil {
		meta, err := encodeMetadata(u.Metadata)
		if err != nil {
			return err
		}
		sets = append(sets, "metadata = ?")
		args = append(args, meta)
	}
	if u.UpdatedBy != 0 {
		sets = append(sets, "updated_by = ?")
		args = append(args, u.UpdatedBy)
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE storage_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "storage_items", id)
}

// ReplaceCategories makes categoryIDs the complete category set of the
// item: existing links are deleted, then the new ones inserted, in one
// transaction.
func (r *StorageItemRepo) ReplaceCategories(ctx context.Context, itemID string, categoryIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM storage_item_categories WHERE storage_item_id = ?`, itemID); err != nil {
		return err
	}
	if err := insertLinks(ctx, tx, itemID, categoryIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// AttachCategories adds links without touching existing ones.
func (r *StorageItemRepo) AttachCategories(ctx context.Context, itemID string, categoryIDs []uint64) error {
	return insertLinks(ctx, r.db, itemID, categoryIDs)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLinks(ctx context.Context, db execer, itemID string, categoryIDs []uint64) error {
	ids := dedupe(categoryIDs)
	if len(ids) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO storage_item_categories (storage_item_id, category_id) VALUES `)
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, itemID, id)
	}
	_, err := db.ExecContext(ctx, sb.String(), args...)
	return err
}

// CategoriesFor returns the categories of every listed item keyed by item
// ID.  Items without categories are absent from the map.
func (r *StorageItemRepo) CategoriesFor(ctx context.Context, itemIDs []string) (map[string][]model.Category, error) {
	out := map[string][]model.Category{}
	if len(itemIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT sic.storage_item_id, c.id, c.name, c.slug, c.description, c.created_at
		FROM storage_item_categories sic JOIN categories c ON c.id = sic.category_id
		WHERE sic.storage_item_id IN (`+placeholders(len(itemIDs))+`)
		ORDER BY c.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemID string
			c      model.Category
			desc   sql.NullString
		)
		if err := rows.Scan(&itemID, &c.ID, &c.Name, &c.Slug, &desc, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Description = desc.String
		out[itemID] = append(out[itemID], c)
	}
	return out, rows.Err()
}

// DeleteByObject removes the row describing bucket/path.  It is the
// metadata side of an object removal and reports how many rows went away.
func (r *StorageItemRepo) DeleteByObject(ctx context.Context, bucket, path string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM storage_items WHERE bucket = ? AND path = ?`, bucket, path)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListSizes returns bucket and size of every row.
func (r *StorageItemRepo) ListSizes(ctx context.Context) ([]model.ItemSize, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT bucket, size FROM storage_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ItemSize
	for rows.Next() {
		var s model.ItemSize
		if err := rows.Scan(&s.Bucket, &s.Size); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStorageItem(s rowScanner) (model.StorageItem, error) {
	var (
		it        model.StorageItem
		meta      []byte
		owner     sql.NullInt64
		updatedBy sql.NullInt64
	)
	if err := s.Scan(&it.ID, &it.Bucket, &it.Name, &it.Path, &it.Size, &it.MimeType, &meta,
		&owner, &updatedBy, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return model.StorageItem{}, err
	}
	it.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &it.Metadata); err != nil {
			return model.StorageItem{}, fmt.Errorf("storage item %s metadata: %w", it.ID, err)
		}
	}
	it.OwnerID = uint64(owner.Int64)
	it.UpdatedBy = uint64(updatedBy.Int64)
	it.Categories = []model.Category{}
	return it, nil
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func nullID(id uint64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
