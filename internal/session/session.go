// Package session persists the command-line login and the booking a visitor
// started before logging in.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"frenchdriver/internal/domain/models"

	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".vtcctl"
	fileName = "session.yaml"
)

type User struct {
	ID       int64  `yaml:"id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name,omitempty"`
	Role     string `yaml:"role"`
}

// PendingBooking is a reservation draft kept until the visitor logs in.
type PendingBooking struct {
	PickupAddress        string    `yaml:"pickup_address"`
	PickupLatitude       *float64  `yaml:"pickup_latitude,omitempty"`
	PickupLongitude      *float64  `yaml:"pickup_longitude,omitempty"`
	DestinationAddress   string    `yaml:"destination_address"`
	DestinationLatitude  *float64  `yaml:"destination_latitude,omitempty"`
	DestinationLongitude *float64  `yaml:"destination_longitude,omitempty"`
	VehicleType          string    `yaml:"vehicle_type"`
	ScheduledTime        time.Time `yaml:"scheduled_time"`
	// PickupNow marks an immediate pickup: the time is taken again when sent.
	PickupNow bool         `yaml:"pickup_now,omitempty"`
	Quote     models.Quote `yaml:"quote"`
	SavedAt   time.Time    `yaml:"saved_at"`
}

type Session struct {
	Token     string          `yaml:"access_token,omitempty"`
	ExpiresAt time.Time       `yaml:"expires_at,omitempty"`
	User      *User           `yaml:"user,omitempty"`
	Pending   *PendingBooking `yaml:"pending_booking,omitempty"`
}

func (s Session) LoggedIn() bool { return s.Token != "" }

func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.Role == string(models.UserTypeAdmin)
}

// Logout forgets the credentials but keeps a pending booking.
func (s *Session) Logout() {
	s.Token = ""
	s.ExpiresAt = time.Time{}
	s.User = nil
}

// FromLogin builds the credential part of a session from a login answer.
func FromLogin(res models.LoginResult) Session {
	return Session{
		Token:     res.Access,
		ExpiresAt: res.ExpiresAt,
		User: &User{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
			FullName: res.User.DisplayName(),
			Role:     string(res.User.UserType),
		},
	}
}

// Store reads and writes one session file.
type Store struct {
	Path string
}

// DefaultPath is ~/.vtcctl/session.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName, fileName), nil
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load returns an empty session when the file does not exist yet.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return sess, nil
}

// Save writes the session readable by the owner only; it holds a bearer token.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(sess)
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Clear deletes the session file.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
