package services

import (
	"context"
	"errors"
	"testing"

	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/events"
	"frenchdriver/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRefusesFinishedBookings(t *testing.T) {
	for _, status := range []string{"IN_PROGRESS", "COMPLETED", "CANCELLED"} {
		db, mock := newMock(t)
		expectBooking(mock, bookingFixture{id: 5, status: status})
		svc := DispatchService{Bookings: BookingService{DB: db}}

		_, err := svc.Dispatch(context.Background(), models.DispatchInput{BookingID: 5, Action: DispatchBroadcast})
		require.True(t, domain.IsValidation(err), status)
		assert.Contains(t, err.Error(), "ne peut plus être modifiée")
	}
}

func TestDispatchAssignNeedsDriver(t *testing.T) {
	_, err := DispatchService{}.Dispatch(context.Background(), models.DispatchInput{BookingID: 5, Action: DispatchAssign})
	assert.True(t, domain.IsValidation(err))

	_, err = DispatchService{}.Dispatch(context.Background(), models.DispatchInput{BookingID: 5, Action: "teleport"})
	assert.True(t, domain.IsValidation(err))
}

func TestDispatchUnknownBooking(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM bookings b").WithArgs(int64(404)).WillReturnRows(sqlmock.NewRows(nil))

	_, err := DispatchService{Bookings: BookingService{DB: db}}.Dispatch(context.Background(),
		models.DispatchInput{BookingID: 404, Action: DispatchBroadcast})
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Réservation introuvable.")
}

func TestDispatchBroadcastReport(t *testing.T) {
	db, mock := newMock(t)
	rec := &recorder{}
	expectBooking(mock, bookingFixture{id: 5, status: "PENDING"})
	mock.ExpectQuery("FROM drivers ORDER BY name").WillReturnRows(sqlmock.NewRows(driverColumns).
		AddRow(1, "Amine", "+33600000001", "amine@example.com", "L1", "Clio", "111", true, testNow).
		AddRow(2, "Bruno", "+33600000002", "", "L2", "Model 3", "222", true, testNow).
		AddRow(3, "Chloé", "+33600000003", "", "L3", "Prius", "", true, testNow))

	mailer := &fakeMailer{}
	tg := &fakeTelegram{enabled: true, fail: map[string]bool{"111": true}}
	svc := DispatchService{
		Bookings:      BookingService{DB: db, Events: rec, RequestID: "req-42"},
		Notifications: NotificationService{DB: db, Mailer: failingBlankMailer{mailer}, Telegram: tg, Now: fixedNow},
	}

	out, err := svc.Dispatch(context.Background(), models.DispatchInput{BookingID: 5, Action: DispatchBroadcast})
	require.NoError(t, err)
	report, ok := out.(models.BroadcastReport)
	require.True(t, ok)

	assert.Equal(t, 3, report.TotalDrivers)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, []string{"Amine", "Bruno"}, report.DriversContacted)
	assert.Equal(t, []string{"email", "telegram"}, report.ChannelsUsed)
	assert.Equal(t, testNow, report.BroadcastTime)
	require.Len(t, tg.sent, 1)
	assert.Equal(t, "222", tg.sent[0].chatID)
	assert.Equal(t, []string{events.BookingBroadcast}, rec.types())
	assert.Equal(t, "req-42", rec.events[0].RequestID)
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, events.Event) error {
	p.calls++
	return errors.New("broker down")
}

func TestDispatchBroadcastSurvivesPublishFailure(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, bookingFixture{id: 5, status: "CONFIRMED"})
	mock.ExpectQuery("FROM drivers ORDER BY name").WillReturnRows(sqlmock.NewRows(driverColumns))

	pub := &failingPublisher{}
	svc := DispatchService{
		Bookings:      BookingService{DB: db, Events: pub},
		Notifications: NotificationService{DB: db, Mailer: &fakeMailer{}, Now: fixedNow},
	}
	out, err := svc.Dispatch(context.Background(), models.DispatchInput{BookingID: 5, Action: DispatchBroadcast})
	require.NoError(t, err)
	assert.Equal(t, 0, out.(models.BroadcastReport).TotalDrivers)
	assert.Equal(t, 1, pub.calls)
}

// failingBlankMailer rejects mails without a usable address.
type failingBlankMailer struct{ *fakeMailer }

func (m failingBlankMailer) Send(ctx context.Context, e notify.Email) error {
	if len(e.To) == 0 || e.To[0] == "" {
		return errors.New("no address")
	}
	return m.fakeMailer.Send(ctx, e)
}

func TestHandleEventSendsConfirmation(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, bookingFixture{id: 5, status: "PENDING"})
	mailer := &fakeMailer{}
	svc := NotificationService{DB: db, Mailer: mailer}

	require.NoError(t, svc.HandleEvent(context.Background(), events.New(events.BookingCreated, 5)))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, "VTC1A2B3C4D")

	// status changes are only recorded
	require.NoError(t, svc.HandleEvent(context.Background(), events.New(events.BookingStatusChanged, 5)))
	assert.Len(t, mailer.sent, 1)
}

func TestHandleEventDriverAssignment(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, bookingFixture{id: 5, status: "DRIVER_ASSIGNED", driverID: int64(9)})
	mailer := &fakeMailer{}

	err := NotificationService{DB: db, Mailer: mailer}.HandleEvent(context.Background(), events.New(events.BookingDriverAssigned, 5))
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "Karim B.")
}
