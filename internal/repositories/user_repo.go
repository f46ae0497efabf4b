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

type UserRepo struct {
	DB *sql.DB
}

func (r UserRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number, user_type, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var userType string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &userType, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	u.UserType = models.UserType(userType)
	u.Decorate()
	return u, nil
}

// Create inserts u and returns it with its new id.
func (r UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	db := r.db()
	if db == nil {
		return models.User{}, domain.InternalError{Msg: "database not available"}
	}
	if u.UserType == "" {
		u.UserType = models.UserTypeClient
	}
	now := u.CreatedAt
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, user_type, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, string(u.UserType), now, now)
	if err != nil {
		if intdb.IsDuplicate(err) {
			return models.User{}, domain.ConflictError{Resource: "user", Msg: "nom d'utilisateur ou email déjà utilisé", Err: err}
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	u.Email = strings.ToLower(u.Email)
	u.IsActive = true
	u.UpdatedAt = now
	u.Decorate()
	return u, nil
}

func (r UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	db := r.db()
	if db == nil {
		return models.User{}, domain.InternalError{Msg: "database not available"}
	}
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByLogin finds a user by username or email (case-insensitive on email).
func (r UserRepo) GetByLogin(ctx context.Context, login string) (models.User, error) {
	db := r.db()
	if db == nil {
		return models.User{}, domain.InternalError{Msg: "database not available"}
	}
	login = strings.TrimSpace(login)
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`,
		login, strings.ToLower(login)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

// Exists reports whether username or email is already taken.
func (r UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	db := r.db()
	if db == nil {
		return false, domain.InternalError{Msg: "database not available"}
	}
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}
