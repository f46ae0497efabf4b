package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "frenchdriver/internal/config"
	intdb "frenchdriver/internal/db"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingSelect = `
	SELECT
		b.id, b.confirmation_number, b.user_id, b.driver_id,
		b.pickup_address, b.pickup_latitude, b.pickup_longitude,
		b.destination_address, b.destination_latitude, b.destination_longitude,
		b.vehicle_type, b.estimated_price, b.final_price, b.status,
		b.scheduled_time, b.created_at, b.updated_at, b.completed_at,
		u.username, u.email, u.first_name, u.last_name, u.phone_number, u.user_type,
		COALESCE(d.name, ''), COALESCE(d.phone_number, ''), COALESCE(d.email, ''),
		COALESCE(d.license_number, ''), COALESCE(d.vehicle_info, ''),
		COALESCE(d.telegram_chat_id, ''), COALESCE(d.notifications_enabled, 0)
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	LEFT JOIN drivers d ON d.id = b.driver_id`

// BookingColumns lists the column names produced by bookingSelect, in order.
// Tests build sqlmock rows from it.
var BookingColumns = []string{
	"id", "confirmation_number", "user_id", "driver_id",
	"pickup_address", "pickup_latitude", "pickup_longitude",
	"destination_address", "destination_latitude", "destination_longitude",
	"vehicle_type", "estimated_price", "final_price", "status",
	"scheduled_time", "created_at", "updated_at", "completed_at",
	"username", "email", "first_name", "last_name", "phone_number", "user_type",
	"driver_name", "driver_phone", "driver_email", "driver_license", "driver_vehicle",
	"driver_chat", "driver_notifications",
}

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var (
		b           models.Booking
		u           models.User
		d           models.Driver
		driverID    sql.NullInt64
		finalPrice  sql.NullFloat64
		completedAt sql.NullTime
		vehicle     string
		status      string
		userType    string
	)
	err := row.Scan(
		&b.ID, &b.ConfirmationNumber, &b.UserID, &driverID,
		&b.PickupAddress, &b.PickupLatitude, &b.PickupLongitude,
		&b.DestinationAddress, &b.DestinationLatitude, &b.DestinationLongitude,
		&vehicle, &b.EstimatedPrice, &finalPrice, &status,
		&b.ScheduledTime, &b.CreatedAt, &b.UpdatedAt, &completedAt,
		&u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &userType,
		&d.Name, &d.PhoneNumber, &d.Email, &d.LicenseNumber, &d.VehicleInfo,
		&d.TelegramChatID, &d.NotificationsEnabled,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.VehicleType = models.VehicleType(vehicle)
	b.Status = models.BookingStatus(status)
	u.ID = b.UserID
	u.UserType = models.UserType(userType)
	b.User = &u
	if driverID.Valid {
		id := driverID.Int64
		d.ID = id
		b.DriverID = &id
		b.Driver = &d
	}
	if finalPrice.Valid {
		v := finalPrice.Float64
		b.FinalPrice = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	b.Decorate()
	return b, nil
}

// Create inserts a booking. A clash on the confirmation number is reported as
// a ConflictError so the caller can draw a new one.
func (r BookingRepo) Create(ctx context.Context, b models.Booking) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not available"}
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (
			confirmation_number, user_id, pickup_address, pickup_latitude, pickup_longitude,
			destination_address, destination_latitude, destination_longitude,
			vehicle_type, estimated_price, status, scheduled_time, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ConfirmationNumber, b.UserID, b.PickupAddress, b.PickupLatitude, b.PickupLongitude,
		b.DestinationAddress, b.DestinationLatitude, b.DestinationLongitude,
		string(b.VehicleType), b.EstimatedPrice, string(b.Status), b.ScheduledTime, b.CreatedAt, b.CreatedAt)
	if err != nil {
		if intdb.IsDuplicate(err) {
			return 0, domain.ConflictError{Resource: "booking", Msg: "numéro de confirmation déjà utilisé", Err: err}
		}
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("booking id: %w", err)
	}
	return id, nil
}

// GetByID loads a booking with its customer and driver.
func (r BookingRepo) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "id invalide"}
	}
	db := r.db()
	if db == nil {
		return models.Booking{}, domain.InternalError{Msg: "database not available"}
	}
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func bookingWhere(f models.BookingFilter) (string, []any) {
	conds := []string{}
	args := []any{}
	if f.UserID > 0 {
		conds = append(conds, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.DriverID > 0 {
		conds = append(conds, "b.driver_id = ?")
		args = append(args, f.DriverID)
	}
	if f.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, `(b.confirmation_number LIKE ? OR u.email LIKE ? OR u.first_name LIKE ?
			OR u.last_name LIKE ? OR u.phone_number LIKE ? OR b.pickup_address LIKE ? OR b.destination_address LIKE ?)`)
		args = append(args, like, like, like, like, like, like, like)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns bookings matching f, newest first.
func (r BookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, domain.InternalError{Msg: "database not available"}
	}
	where, args := bookingWhere(f)
	query := bookingSelect + where + ` ORDER BY b.created_at DESC, b.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns how many bookings match f, ignoring Limit/Offset.
func (r BookingRepo) Count(ctx context.Context, f models.BookingFilter) (int, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not available"}
	}
	where, args := bookingWhere(f)
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b JOIN users u ON u.id = b.user_id`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

// Recent returns the latest bookings created within [from, to].
func (r BookingRepo) Recent(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, domain.InternalError{Msg: "database not available"}
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, bookingSelect+`
		WHERE b.created_at BETWEEN ? AND ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BookingPatch lists the columns an update touches; nil fields are kept.
type BookingPatch struct {
	Status      *models.BookingStatus
	DriverID    *int64
	FinalPrice  *float64
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

func (p BookingPatch) empty() bool {
	return p.Status == nil && p.DriverID == nil && p.FinalPrice == nil && p.CompletedAt == nil
}

func (r BookingRepo) Update(ctx context.Context, id int64, p BookingPatch) error {
	if p.empty() {
		return nil
	}
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not available"}
	}
	sets := []string{}
	args := []any{}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.DriverID != nil {
		sets = append(sets, "driver_id = ?")
		args = append(args, *p.DriverID)
	}
	if p.FinalPrice != nil {
		sets = append(sets, "final_price = ?")
		args = append(args, *p.FinalPrice)
	}
	if p.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *p.CompletedAt)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, p.UpdatedAt, id)

	res, err := db.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// Stats aggregates bookings created within [from, to].
func (r BookingRepo) Stats(ctx context.Context, from, to time.Time) (models.BookingStats, error) {
	db := r.db()
	if db == nil {
		return models.BookingStats{}, domain.InternalError{Msg: "database not available"}
	}
	var s models.BookingStats
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'PENDING'), 0),
			COALESCE(SUM(status = 'CONFIRMED'), 0),
			COALESCE(SUM(status = 'DRIVER_ASSIGNED'), 0),
			COALESCE(SUM(status = 'IN_PROGRESS'), 0),
			COALESCE(SUM(status = 'COMPLETED'), 0),
			COALESCE(SUM(status = 'CANCELLED'), 0),
			COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN final_price END), 0),
			COALESCE(AVG(estimated_price), 0)
		FROM bookings
		WHERE created_at BETWEEN ? AND ?
	`, from, to).Scan(&s.Total, &s.Pending, &s.Confirmed, &s.DriverAssigned, &s.InProgress,
		&s.Completed, &s.Cancelled, &s.TotalRevenue, &s.AveragePrice)
	if err != nil {
		return models.BookingStats{}, fmt.Errorf("booking stats: %w", err)
	}
	return s, nil
}
