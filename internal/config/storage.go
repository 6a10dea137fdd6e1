package config

import "time"

// StorageConfig selects and configures the object store behind the media
// library.  Driver "s3" talks to AWS S3 or any S3-compatible endpoint;
// "local" writes under LocalDir and serves files from BaseURL.
type StorageConfig struct {
	Driver        string
	Region        string
	AccessKey     string
	SecretKey     string
	Endpoint      string // custom S3 endpoint (MinIO, R2); empty for AWS
	PathStyle     bool
	DefaultBucket string
	PublicBuckets []string
	LocalDir      string
	BaseURL       string
	SignedURLTTL  time.Duration
	MaxUploadMB   int
}

func LoadStorageConfig() StorageConfig {
	cfg := StorageConfig{
		Driver:        envStr("STORAGE_DRIVER", "local"),
		Region:        envStr("AWS_REGION", "eu-central-1"),
		AccessKey:     envStr("AWS_ACCESS_KEY_ID", ""),
		SecretKey:     envStr("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		PathStyle:     envBool("S3_FORCE_PATH_STYLE", false),
		DefaultBucket: envStr("STORAGE_DEFAULT_BUCKET", "media"),
		PublicBuckets: envList("STORAGE_PUBLIC_BUCKETS"),
		LocalDir:      envStr("STORAGE_LOCAL_DIR", "uploads"),
		BaseURL:       envStr("STORAGE_BASE_URL", "http://localhost:8080/files"),
		SignedURLTTL:  envDur("STORAGE_SIGNED_URL_TTL", 15*time.Minute),
		MaxUploadMB:   envInt("STORAGE_MAX_UPLOAD_MB", 25),
	}
	if len(cfg.PublicBuckets) == 0 {
		cfg.PublicBuckets = []string{cfg.DefaultBucket}
	}
	return cfg
}

// IsPublic reports whether objects in bucket get a public URL.
func (c StorageConfig) IsPublic(bucket string) bool {
	for _, b := range c.PublicBuckets {
		if b == bucket {
			return true
		}
	}
	return false
}
