package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the scheduling tables.  Statements are
// idempotent so Migrate can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS scheduler_items (
		id             CHAR(36)     NOT NULL PRIMARY KEY,
		item           VARCHAR(191) NOT NULL,
		resource_type  VARCHAR(32)  NOT NULL,
		description    TEXT         NULL,
		service_status VARCHAR(32)  NOT NULL DEFAULT 'IN_SERVICE',
		service_notes  TEXT         NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_items_type_name (resource_type, item)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id               CHAR(36)      NOT NULL PRIMARY KEY,
		rented_to        VARCHAR(255)  NOT NULL,
		item             VARCHAR(1024) NOT NULL,
		items            JSON          NULL,
		resource_type    VARCHAR(32)   NOT NULL,
		status           VARCHAR(16)   NOT NULL,
		start_time       DATETIME(6)   NOT NULL,
		end_time         DATETIME(6)   NOT NULL,
		total_cost       DECIMAL(12,2) NOT NULL DEFAULT 0,
		scheduled_by     VARCHAR(255)  NOT NULL,
		edit_by          VARCHAR(255)  NULL,
		last_update      DATETIME(6)   NULL,
		rental_notes     TEXT          NOT NULL,
		return_notes     TEXT          NULL,
		completed_by     VARCHAR(255)  NULL,
		cancellation_fee DECIMAL(12,2) NULL,
		override_lock    BOOLEAN       NOT NULL DEFAULT FALSE,
		created_at       DATETIME(6)   NOT NULL,
		KEY idx_reservations_active (resource_type, status, start_time),
		CONSTRAINT chk_reservations_range CHECK (start_time < end_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
