package services

import (
	"context"
	"testing"
	"time"

	"frenchdriver/internal/auth"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "phone_number", "user_type", "is_active", "created_at", "updated_at"}

func TestRegisterValidation(t *testing.T) {
	svc := AuthService{}
	base := models.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "motdepasse", PasswordConfirm: "motdepasse"}

	in := base
	in.PasswordConfirm = "different"
	_, err := svc.Register(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsValidation(err))

	in = base
	in.Password, in.PasswordConfirm = "court", "court"
	_, err = svc.Register(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsValidation(err))

	in = base
	in.PhoneNumber = "06-12"
	_, err = svc.Register(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsValidation(err))

	in = base
	in.UserType = "DRIVER"
	_, err = svc.Register(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsValidation(err))
}

func TestRegisterCreatesClient(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").WithArgs("alice", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), "Alice", "Martin", "+33612345678", "CLIENT", testNow, testNow).
		WillReturnResult(sqlmock.NewResult(7, 1))

	svc := AuthService{DB: db, Now: fixedNow}
	u, err := svc.Register(context.Background(), domain.RequestContext{}, models.RegisterInput{
		Username: "alice", Email: "Alice@Example.com", Password: "motdepasse", PasswordConfirm: "motdepasse",
		FirstName: "Alice", LastName: "Martin", PhoneNumber: "+33612345678",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, models.UserTypeClient, u.UserType)
	assert.NotEqual(t, "motdepasse", u.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterAdminNeedsAdminCaller(t *testing.T) {
	in := models.RegisterInput{Username: "mallory", Email: "m@example.com", Password: "motdepasse",
		PasswordConfirm: "motdepasse", UserType: models.UserTypeAdmin}

	_, err := AuthService{}.Register(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsForbidden(err))
	_, err = AuthService{}.Register(context.Background(), domain.RequestContext{UserID: 7, Role: string(models.UserTypeClient)}, in)
	assert.True(t, domain.IsForbidden(err))

	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("mallory", "m@example.com", sqlmock.AnyArg(), "", "", "", "ADMIN", testNow, testNow).
		WillReturnResult(sqlmock.NewResult(8, 1))

	u, err := AuthService{DB: db, Now: fixedNow}.Register(context.Background(),
		domain.RequestContext{UserID: 1, Role: string(models.UserTypeAdmin)}, in)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeAdmin, u.UserType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	_, err := AuthService{DB: db}.Register(context.Background(), domain.RequestContext{}, models.RegisterInput{
		Username: "alice", Email: "a@b.fr", Password: "motdepasse", PasswordConfirm: "motdepasse",
	})
	assert.True(t, domain.IsConflict(err))
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("motdepasse")
	require.NoError(t, err)
	tokens, err := auth.NewManager("secret", time.Hour)
	require.NoError(t, err)

	db, mock := newMock(t)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(7, "alice", "alice@example.com", hash, "Alice", "Martin", "", "ADMIN", true, testNow, testNow)
	}
	mock.ExpectQuery("FROM users").WillReturnRows(row())
	mock.ExpectQuery("FROM users").WillReturnRows(row())
	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows(userCols))

	svc := AuthService{DB: db, Tokens: tokens}
	res, err := svc.Login(context.Background(), models.LoginInput{Email: "alice@example.com", Password: "motdepasse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Access)
	assert.Equal(t, "Alice Martin", res.User.FullName)

	claims, err := tokens.Parse(res.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = svc.Login(context.Background(), models.LoginInput{Username: "alice", Password: "mauvais!"})
	assert.True(t, domain.IsUnauthorized(err))

	_, err = svc.Login(context.Background(), models.LoginInput{Username: "ghost", Password: "motdepasse"})
	assert.True(t, domain.IsUnauthorized(err))
}
