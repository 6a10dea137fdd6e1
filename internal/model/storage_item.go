package model

import "time"

// StorageItem mirrors a row of the storage_items table together with the
// values resolved at read time (public URL and categories).
//
// Fields:
//  ID         – primary key (UUID).
//  Bucket     – object store bucket holding the file.
//  Name       – display name, initially the uploaded file name.
//  Path       – object key inside the bucket.
//  Size       – size in bytes.
//  MimeType   – detected or declared content type.
//  Metadata   – free-form JSON object.
//  OwnerID    – user who uploaded the file.
//  UpdatedBy  – user who last changed the record.
//  URL        – public URL, empty for private buckets.
//  Categories – category tags (many-to-many).
type StorageItem struct {
    ID         string         `json:"id"`
    Bucket     string         `json:"bucket"`
    Name       string         `json:"name"`
    Path       string         `json:"path"`
    Size       int64          `json:"size"`
    MimeType   string         `json:"mime_type"`
    Metadata   map[string]any `json:"metadata"`
    OwnerID    uint64         `json:"owner_id,omitempty"`
    UpdatedBy  uint64         `json:"updated_by,omitempty"`
    CreatedAt  time.Time      `json:"created_at"`
    UpdatedAt  time.Time      `json:"updated_at"`
    URL        string         `json:"url,omitempty"`
    Categories []Category     `json:"categories"`
}

// Category is a tag that can be attached to storage items.
type Category struct {
    ID          uint64    `json:"id"`
    Name        string    `json:"name"`
    Slug        string    `json:"slug"`
    Description string    `json:"description,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// ItemSize is the slice of a storage item needed to compute statistics.
type ItemSize struct {
    Bucket string
    Size   int64
}

// BucketStats aggregates the files of one bucket.
type BucketStats struct {
    Bucket    string `json:"bucket"`
    FileCount int    `json:"file_count"`
    TotalSize int64  `json:"total_size"`
}

// StorageStats aggregates the whole library.  The zero value is returned
// when statistics cannot be computed.
type StorageStats struct {
    TotalSize int64         `json:"total_size"`
    FileCount int           `json:"file_count"`
    Buckets   []BucketStats `json:"buckets"`
}
