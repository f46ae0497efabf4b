package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"frenchdriver/internal/auth"
	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"
	h "frenchdriver/internal/http/handlers"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *h.ErrorBody    `json:"error"`
}

type fixture struct {
	router *gin.Engine
	tokens *auth.Manager
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T, configure func(*h.Handlers)) fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	hs := &h.Handlers{
		Auth:      services.AuthService{DB: db, Tokens: tokens},
		Bookings:  services.BookingService{DB: db},
		Dashboard: services.DashboardService{DB: db},
		Drivers:   services.DriverService{DB: db},
		Invoices:  services.InvoiceService{DB: db},
		Bot:       services.TelegramBot{DB: db},
	}
	hs.Dispatch = services.DispatchService{Bookings: hs.Bookings}
	if configure != nil {
		configure(hs)
	}
	env := intconfig.Env{RateLimitPerMinute: 1000}
	return fixture{router: NewRouter(env, hs, tokens), tokens: tokens, mock: mock}
}

func (f fixture) token(t *testing.T, userID int64, role models.UserType) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(userID, string(role))
	require.NoError(t, err)
	return tok
}

func (f fixture) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w, env := f.do(t, http.MethodGet, "/api/health/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, nil)
	w, env := f.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "route_not_found", env.Error.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/api/me", "/api/me/bookings", "/api/bookings/3/", "/api/invoices/3/pdf"} {
		w, env := f.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.False(t, env.Success)
	}

	w, env := f.do(t, http.MethodGet, "/api/me", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", env.Error.Code)
}

func TestAdminRoutesRejectClients(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.token(t, 7, models.UserTypeClient)
	for _, path := range []string{"/api/admin/dashboard/", "/api/admin/bookings", "/api/drivers/"} {
		w, env := f.do(t, http.MethodGet, path, tok, "")
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, "forbidden", env.Error.Code)
	}
}

func TestDashboardUnknownPeriodShowsToday(t *testing.T) {
	f := newFixture(t, nil)
	f.mock.ExpectQuery("FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"total", "p", "c", "d", "i", "done", "x", "revenue", "avg"}).
			AddRow(0, 0, 0, 0, 0, 0, 0, 0, 0))
	f.mock.ExpectQuery("WHERE b.created_at BETWEEN").
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns))

	w, env := f.do(t, http.MethodGet, "/api/admin/dashboard/?period=decade", f.token(t, 1, models.UserTypeAdmin), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dash models.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, models.PeriodToday, dash.Period)
}

func TestRegisterAdminRequiresAdminToken(t *testing.T) {
	f := newFixture(t, nil)
	body := `{"username":"mallory","email":"m@example.com","password":"motdepasse","password_confirm":"motdepasse","user_type":"ADMIN"}`

	w, env := f.do(t, http.MethodPost, "/api/auth/register/", "", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", env.Error.Code)

	w, _ = f.do(t, http.MethodPost, "/api/auth/register/", f.token(t, 7, models.UserTypeClient), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	f.mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(8, 1))
	w, _ = f.do(t, http.MethodPost, "/api/auth/register/", f.token(t, 1, models.UserTypeAdmin), body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	hash, err := auth.HashPassword("motdepasse")
	require.NoError(t, err)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	f.mock.ExpectQuery("FROM users WHERE username = \\? OR email = \\?").WithArgs("alice", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name",
			"phone_number", "user_type", "is_active", "created_at", "updated_at"}).
			AddRow(7, "alice", "alice@example.com", hash, "Alice", "Martin", "+33612345678", "CLIENT", true, now, now))

	w, env := f.do(t, http.MethodPost, "/api/auth/login/", "", `{"username":"alice","password":"motdepasse"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res models.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	claims, err := f.tokens.Parse(res.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", res.User.Username)
}

func TestLoginNeedsBody(t *testing.T) {
	f := newFixture(t, nil)
	w, env := f.do(t, http.MethodPost, "/api/auth/login/", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_body", env.Error.Code)
}

func TestEstimate(t *testing.T) {
	f := newFixture(t, nil)
	body := `{"pickup_address":"Paris","destination_address":"CDG","scheduled_time":"2026-10-20T08:00:00Z","vehicle_type":"berline"}`
	w, env := f.do(t, http.MethodPost, "/api/bookings/estimate/", f.token(t, 7, models.UserTypeClient), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var est models.Estimate
	require.NoError(t, json.Unmarshal(env.Data, &est))
	assert.InDelta(t, 22.2, est.DistanceKm, 0.3)
	assert.Equal(t, 49.0097, est.DestinationCoordinates.Latitude)
	assert.Greater(t, est.EstimatedPrice, est.BasePrice)
}

func TestGetBookingOfAnotherCustomer(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	f.mock.ExpectQuery("FROM bookings b").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns).AddRow(
			3, "VTC1A2B3C4D", 8, nil,
			"10 Rue de Rivoli, Paris", 48.8556, 2.3601,
			"Aéroport CDG", 49.0097, 2.5479,
			"eco", 45.5, nil, "PENDING",
			now, now, now, nil,
			"bob", "bob@example.com", "Bob", "Durand", "", "CLIENT",
			"", "", "", "", "", "", false))

	w, env := f.do(t, http.MethodGet, "/api/bookings/3/", f.token(t, 7, models.UserTypeClient), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "accès refusé à cette réservation", env.Error.Message)
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q string, _ int) ([]geo.Suggestion, error) {
	return []geo.Suggestion{{ID: "1", Label: q + " 75001 Paris", Lat: 48.86, Lon: 2.34}}, nil
}

func TestGeoSearch(t *testing.T) {
	f := newFixture(t, nil)
	w, _ := f.do(t, http.MethodGet, "/api/geo/search?q=rivoli", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f = newFixture(t, func(hs *h.Handlers) { hs.Geo.Searcher = stubSearcher{} })
	w, env := f.do(t, http.MethodGet, "/api/geo/search?q=rivoli", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out []geo.Suggestion
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "rivoli 75001 Paris", out[0].Label)
}

func TestTelegramWebhookSecret(t *testing.T) {
	f := newFixture(t, func(hs *h.Handlers) { hs.TelegramSecret = "s3cret" })
	w, env := f.do(t, http.MethodPost, "/api/telegram/webhook", "", `{"update_id":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)
}
