package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order at startup.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('ADMIN','CUSTOMER') NOT NULL DEFAULT 'CUSTOMER',
		is_active     TINYINT(1) NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS charter_bookings (
		id                CHAR(36) PRIMARY KEY,
		yacht_name        VARCHAR(120) NOT NULL,
		start_at          DATETIME NOT NULL,
		end_at            DATETIME NOT NULL,
		customer_name     VARCHAR(200) NOT NULL,
		customer_email    VARCHAR(255) NOT NULL,
		customer_phone    VARCHAR(50) NOT NULL DEFAULT '',
		guests            INT NOT NULL DEFAULT 1,
		total_price_cents BIGINT NOT NULL DEFAULT 0,
		status            ENUM('pending','confirmed','cancelled','completed') NOT NULL DEFAULT 'pending',
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_charter_window (start_at, end_at),
		KEY idx_charter_email (customer_email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS racing_bookings (
		id                CHAR(36) PRIMARY KEY,
		boat_name         VARCHAR(120) NULL,
		booking_date      DATE NOT NULL,
		start_time        TIME NOT NULL,
		end_time          TIME NOT NULL,
		customer_name     VARCHAR(200) NOT NULL,
		customer_email    VARCHAR(255) NOT NULL,
		customer_phone    VARCHAR(50) NOT NULL DEFAULT '',
		participants      INT NOT NULL DEFAULT 1,
		total_price_cents BIGINT NOT NULL DEFAULT 0,
		status            ENUM('pending','confirmed','cancelled','completed') NOT NULL DEFAULT 'pending',
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_racing_date (booking_date),
		KEY idx_racing_email (customer_email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS storage_items (
		id         CHAR(36) PRIMARY KEY,
		bucket     VARCHAR(100) NOT NULL,
		name       VARCHAR(255) NOT NULL,
		path       VARCHAR(512) NOT NULL,
		size       BIGINT NOT NULL DEFAULT 0,
		mime_type  VARCHAR(150) NOT NULL DEFAULT 'application/octet-stream',
		metadata   JSON NULL,
		owner_id   BIGINT UNSIGNED NULL,
		updated_by BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_storage_object (bucket, path),
		KEY idx_storage_bucket (bucket, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS categories (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(120) NOT NULL,
		slug        VARCHAR(120) NOT NULL UNIQUE,
		description TEXT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS storage_item_categories (
		storage_item_id CHAR(36) NOT NULL,
		category_id     BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (storage_item_id, category_id),
		CONSTRAINT fk_sic_item FOREIGN KEY (storage_item_id) REFERENCES storage_items(id) ON DELETE CASCADE,
		CONSTRAINT fk_sic_category FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
