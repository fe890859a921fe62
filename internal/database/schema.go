package database

import (
	"context"
	"database/sql"
)

// schema lists the DDL for every table the service owns. Statements use
// IF NOT EXISTS so Migrate is safe to run on every boot, mirroring the
// original deployment which created its schema at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(80)  NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		role          ENUM('admin','user') NOT NULL,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS parking_lots (
		id                  BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		prime_location_name VARCHAR(120) NOT NULL,
		price_per_hour      DOUBLE NOT NULL,
		address             VARCHAR(200),
		pincode             VARCHAR(20),
		max_spots           INT NOT NULL,
		created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS parking_spots (
		id     BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		lot_id BIGINT UNSIGNED NOT NULL,
		status ENUM('A','O') NOT NULL DEFAULT 'A',
		CONSTRAINT fk_spot_lot FOREIGN KEY (lot_id) REFERENCES parking_lots(id),
		INDEX idx_spot_lot_status (lot_id, status)
	) ENGINE=InnoDB`,

	// reservations.spot_id deliberately carries no foreign key: reservation
	// history outlives the spots (and lots) it refers to once a lot is
	// deleted. The composite indexes keep the open-reservation lookups fast.
	`CREATE TABLE IF NOT EXISTS reservations (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		spot_id    BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		start_time DATETIME NOT NULL,
		end_time   DATETIME NULL,
		cost       DOUBLE NULL,
		CONSTRAINT fk_res_user FOREIGN KEY (user_id) REFERENCES users(id),
		INDEX idx_res_user_open (user_id, end_time),
		INDEX idx_res_spot_open (spot_id, end_time)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_token_user FOREIGN KEY (user_id) REFERENCES users(id),
		INDEX idx_token_hash (token_hash)
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables. It is idempotent and intended to run
// once during startup before the server begins accepting requests.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
