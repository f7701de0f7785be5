package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the ledger tables.  Column order of reservations and
// feedback follows the layout operators export to spreadsheets.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
        id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        requested_at    DATETIME NOT NULL,
        full_name       VARCHAR(255) NOT NULL,
        institute       VARCHAR(255) NOT NULL,
        ticket_count    INT UNSIGNED NOT NULL,
        pickup_date     VARCHAR(32) NOT NULL,
        pickup_location VARCHAR(255) NOT NULL,
        pickup_time     VARCHAR(32) NOT NULL,
        screenshot_ref  VARCHAR(255) NOT NULL DEFAULT '',
        participant_id  BIGINT NOT NULL,
        handle          VARCHAR(64) NOT NULL DEFAULT '',
        status          ENUM('New','Confirmed','Rejected') NOT NULL DEFAULT 'New',
        KEY idx_reservations_status (status, id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS feedback (
        id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        created_at     DATETIME NOT NULL,
        handle         VARCHAR(64) NOT NULL DEFAULT '',
        message        TEXT NOT NULL,
        status         VARCHAR(128) NOT NULL DEFAULT 'New',
        reply          TEXT NOT NULL,
        participant_id BIGINT NOT NULL,
        KEY idx_feedback_handle (handle, id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS schedule (
        id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        pickup_date VARCHAR(32) NOT NULL,
        location    VARCHAR(255) NOT NULL,
        times       VARCHAR(255) NOT NULL DEFAULT ''
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS participants (
        id         BIGINT NOT NULL PRIMARY KEY,
        full_name  VARCHAR(255) NOT NULL DEFAULT '',
        handle     VARCHAR(64) NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing ledger tables.  Existing tables are left
// untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
