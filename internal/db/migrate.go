package db

import (
	"context"
	"database/sql"
	"fmt"

	"frenchdriver/internal/utils"

	"go.uber.org/zap"
)

type migration struct {
	table string
	ddl   string
}

var migrations = []migration{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(150) NOT NULL,
	email VARCHAR(254) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	first_name VARCHAR(150) NOT NULL DEFAULT '',
	last_name VARCHAR(150) NOT NULL DEFAULT '',
	phone_number VARCHAR(17) NOT NULL DEFAULT '',
	user_type VARCHAR(10) NOT NULL DEFAULT 'CLIENT',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_username (username),
	UNIQUE KEY uniq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"drivers", `
CREATE TABLE IF NOT EXISTS drivers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	phone_number VARCHAR(17) NOT NULL,
	email VARCHAR(254) NOT NULL,
	license_number VARCHAR(50) NOT NULL,
	vehicle_info TEXT NOT NULL,
	telegram_chat_id VARCHAR(64) NULL,
	notifications_enabled TINYINT(1) NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_drivers_phone (phone_number),
	UNIQUE KEY uniq_drivers_email (email),
	UNIQUE KEY uniq_drivers_license (license_number),
	KEY idx_drivers_telegram (telegram_chat_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	confirmation_number VARCHAR(20) NOT NULL,
	user_id BIGINT NOT NULL,
	driver_id BIGINT NULL,
	pickup_address VARCHAR(255) NOT NULL,
	pickup_latitude DECIMAL(10,8) NOT NULL,
	pickup_longitude DECIMAL(11,8) NOT NULL,
	destination_address VARCHAR(255) NOT NULL,
	destination_latitude DECIMAL(10,8) NOT NULL,
	destination_longitude DECIMAL(11,8) NOT NULL,
	vehicle_type VARCHAR(16) NOT NULL DEFAULT 'eco',
	estimated_price DECIMAL(8,2) NOT NULL,
	final_price DECIMAL(8,2) NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	scheduled_time DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	completed_at DATETIME NULL,
	UNIQUE KEY uniq_bookings_confirmation (confirmation_number),
	KEY idx_bookings_user (user_id),
	KEY idx_bookings_status (status),
	KEY idx_bookings_created (created_at),
	CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
	CONSTRAINT fk_bookings_driver FOREIGN KEY (driver_id) REFERENCES drivers (id) ON DELETE SET NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"invoices", `
CREATE TABLE IF NOT EXISTS invoices (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	invoice_number VARCHAR(32) NOT NULL,
	amount DECIMAL(10,2) NOT NULL,
	tax_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	total_amount DECIMAL(10,2) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'ISSUED',
	generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	pdf_path VARCHAR(255) NULL,
	UNIQUE KEY uniq_invoices_booking (booking_id),
	UNIQUE KEY uniq_invoices_number (invoice_number),
	CONSTRAINT fk_invoices_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// Migrate creates the missing tables, in dependency order.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	for _, m := range migrations {
		if HasTable(ctx, db, m.table) {
			continue
		}
		if _, err := db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", m.table, err)
		}
		utils.L().Info("table created", zap.String("table", m.table))
	}
	return nil
}
