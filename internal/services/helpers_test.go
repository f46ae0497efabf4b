package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"frenchdriver/internal/events"
	"frenchdriver/internal/notify"
	"frenchdriver/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type bookingFixture struct {
	id       int64
	userID   int64
	status   string
	driverID any
	chatID   string
}

func (f bookingFixture) row() []driver.Value {
	if f.userID == 0 {
		f.userID = 7
	}
	driverName := ""
	if f.driverID != nil {
		driverName = "Karim B."
	}
	return []driver.Value{
		f.id, "VTC1A2B3C4D", f.userID, f.driverID,
		"10 Rue de Rivoli, Paris", 48.8556, 2.3601,
		"Aéroport CDG", 49.0097, 2.5479,
		"eco", 45.5, nil, f.status,
		testNow.Add(2 * time.Hour), testNow, testNow, nil,
		"alice", "alice@example.com", "Alice", "Martin", "+33612345678", "CLIENT",
		driverName, "", "", "", "Peugeot 508 noire", f.chatID, false,
	}
}

func expectBooking(mock sqlmock.Sqlmock, f bookingFixture) {
	mock.ExpectQuery("FROM bookings b").WithArgs(f.id).
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns).AddRow(f.row()...))
}

var driverColumns = []string{"id", "name", "phone_number", "email", "license_number", "vehicle_info", "telegram_chat_id", "notifications_enabled", "created_at"}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, e notify.Email) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

type sentMessage struct {
	chatID string
	text   string
	kb     *notify.InlineKeyboard
}

type fakeTelegram struct {
	mu       sync.Mutex
	enabled  bool
	fail     map[string]bool
	sent     []sentMessage
	edited   []string
	answered []string
}

func (f *fakeTelegram) Enabled() bool { return f.enabled }

func (f *fakeTelegram) SendMessage(_ context.Context, chatID, text string, kb *notify.InlineKeyboard) error {
	if f.fail[chatID] {
		return notify.ErrTelegramDisabled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, kb: kb})
	return nil
}

func (f *fakeTelegram) EditMessageText(_ context.Context, _ int64, _ int64, text string, _ *notify.InlineKeyboard) error {
	f.edited = append(f.edited, text)
	return nil
}

func (f *fakeTelegram) AnswerCallbackQuery(_ context.Context, id string) error {
	f.answered = append(f.answered, id)
	return nil
}
