package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "frenchdriver/internal/config"
	intdb "frenchdriver/internal/db"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
)

type DriverRepo struct {
	DB *sql.DB
}

func (r DriverRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const driverColumns = `id, name, phone_number, email, license_number, vehicle_info, COALESCE(telegram_chat_id, ''), notifications_enabled, created_at`

func scanDriver(row interface{ Scan(...any) error }) (models.Driver, error) {
	var d models.Driver
	if err := row.Scan(&d.ID, &d.Name, &d.PhoneNumber, &d.Email, &d.LicenseNumber, &d.VehicleInfo,
		&d.TelegramChatID, &d.NotificationsEnabled, &d.CreatedAt); err != nil {
		return models.Driver{}, err
	}
	d.Decorate()
	return d, nil
}

// List returns drivers ordered by name.
func (r DriverRepo) List(ctx context.Context) ([]models.Driver, error) {
	db := r.db()
	if db == nil {
		return nil, domain.InternalError{Msg: "database not available"}
	}
	rows, err := db.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	out := []models.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r DriverRepo) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	db := r.db()
	if db == nil {
		return models.Driver{}, domain.InternalError{Msg: "database not available"}
	}
	d, err := scanDriver(db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Driver{}, domain.NotFoundError{Resource: "driver", Err: err}
	}
	if err != nil {
		return models.Driver{}, fmt.Errorf("get driver: %w", err)
	}
	return d, nil
}

// GetByTelegramChatID resolves the driver behind a Telegram chat.
func (r DriverRepo) GetByTelegramChatID(ctx context.Context, chatID string) (models.Driver, error) {
	db := r.db()
	if db == nil {
		return models.Driver{}, domain.InternalError{Msg: "database not available"}
	}
	d, err := scanDriver(db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE telegram_chat_id = ? LIMIT 1`,
		strings.TrimSpace(chatID)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Driver{}, domain.NotFoundError{Resource: "driver", Err: err}
	}
	if err != nil {
		return models.Driver{}, fmt.Errorf("get driver by chat: %w", err)
	}
	return d, nil
}

// Create inserts d. Duplicate phone, email or licence is a ConflictError.
func (r DriverRepo) Create(ctx context.Context, d models.Driver) (models.Driver, error) {
	db := r.db()
	if db == nil {
		return models.Driver{}, domain.InternalError{Msg: "database not available"}
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO drivers (name, phone_number, email, license_number, vehicle_info, telegram_chat_id, notifications_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.Name, d.PhoneNumber, strings.ToLower(d.Email), d.LicenseNumber, d.VehicleInfo,
		intdb.NullIfEmpty(d.TelegramChatID), d.NotificationsEnabled, d.CreatedAt)
	if err != nil {
		if intdb.IsDuplicate(err) {
			return models.Driver{}, domain.ConflictError{Resource: "driver", Msg: "téléphone, email ou permis déjà enregistré", Err: err}
		}
		return models.Driver{}, fmt.Errorf("insert driver: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Driver{}, fmt.Errorf("driver id: %w", err)
	}
	d.ID = id
	d.Email = strings.ToLower(d.Email)
	d.Decorate()
	return d, nil
}

// CountActiveBookings counts the trips a driver currently holds.
func (r DriverRepo) CountActiveBookings(ctx context.Context, driverID int64) (int, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not available"}
	}
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE driver_id = ? AND status IN ('DRIVER_ASSIGNED', 'IN_PROGRESS')
	`, driverID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count driver bookings: %w", err)
	}
	return n, nil
}
