package models

import (
	"regexp"
	"strings"
	"time"
)

// UserType separates customers from back-office staff.
type UserType string

const (
	UserTypeClient UserType = "CLIENT"
	UserTypeAdmin  UserType = "ADMIN"
)

func (t UserType) Valid() bool {
	return t == UserTypeClient || t == UserTypeAdmin
}

// PhonePattern accepts international numbers of 9 to 15 digits.
var PhonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	PhoneNumber  string    `json:"phone_number"`
	UserType     UserType  `json:"user_type"`
	IsActive     bool      `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Decorate fills the derived fields exposed to API clients.
func (u *User) Decorate() {
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the username when no name was given.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Username
}

func (u User) IsAdmin() bool  { return u.UserType == UserTypeAdmin }
func (u User) IsClient() bool { return u.UserType == UserTypeClient }

// RegisterInput is the payload of POST /api/auth/register/.
type RegisterInput struct {
	Username        string   `json:"username" binding:"required,max=150"`
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required"`
	PasswordConfirm string   `json:"password_confirm" binding:"required"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	PhoneNumber     string   `json:"phone_number"`
	UserType        UserType `json:"user_type"`
}

// LoginInput accepts either the username or the email in Username.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns whichever login identifier was provided.
func (in LoginInput) Identifier() string {
	if s := strings.TrimSpace(in.Username); s != "" {
		return s
	}
	return strings.TrimSpace(in.Email)
}

// LoginResult is returned by POST /api/auth/login/.
type LoginResult struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
