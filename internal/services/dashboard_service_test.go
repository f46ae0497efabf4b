package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statsColumns = []string{"total", "p", "c", "d", "i", "done", "x", "revenue", "avg"}

func TestDashboardUnknownPeriodFallsBackToToday(t *testing.T) {
	db, mock := newMock(t)
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)

	mock.ExpectQuery("FROM bookings").WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(statsColumns).AddRow(0, 0, 0, 0, 0, 0, 0, 0, 0))
	mock.ExpectQuery("WHERE b.created_at BETWEEN").WithArgs(from, to, recentBookingsLimit).
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns))

	dash, err := DashboardService{DB: db, Now: fixedNow}.Get(context.Background(), "year")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodToday, dash.Period)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRevenueCountsFinalPricesOnly(t *testing.T) {
	db, mock := newMock(t)
	revenue := regexp.QuoteMeta("COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN final_price END), 0)")

	mock.ExpectQuery(revenue).
		WillReturnRows(sqlmock.NewRows(statsColumns).AddRow(2, 0, 0, 0, 0, 2, 0, 40, 45))
	mock.ExpectQuery("WHERE b.created_at BETWEEN").
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns))

	dash, err := DashboardService{DB: db, Now: fixedNow}.Get(context.Background(), models.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, 40.0, dash.TotalRevenue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardDefaultsToToday(t *testing.T) {
	db, mock := newMock(t)
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)

	mock.ExpectQuery("FROM bookings").WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(statsColumns).
			AddRow(4, 1, 1, 0, 0, 1, 1, 60.456, 41.3333))
	mock.ExpectQuery("WHERE b.created_at BETWEEN").WithArgs(from, to, recentBookingsLimit).
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns).
			AddRow(bookingFixture{id: 3, status: "COMPLETED"}.row()...))

	dash, err := DashboardService{DB: db, Now: fixedNow}.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodToday, dash.Period)
	assert.Equal(t, 4, dash.Total)
	assert.Equal(t, 1, dash.Completed)
	assert.Equal(t, 60.46, dash.TotalRevenue)
	assert.Equal(t, 41.33, dash.AveragePrice)
	require.Len(t, dash.RecentBookings, 1)
	assert.Equal(t, "Terminée", dash.RecentBookings[0].StatusDisplay)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardWeekWindow(t *testing.T) {
	db, mock := newMock(t)
	from := testNow.Add(-7 * 24 * time.Hour)

	mock.ExpectQuery("FROM bookings").WithArgs(from, testNow).
		WillReturnRows(sqlmock.NewRows(statsColumns).
			AddRow(0, 0, 0, 0, 0, 0, 0, 0, 0))
	mock.ExpectQuery("WHERE b.created_at BETWEEN").WithArgs(from, testNow, recentBookingsLimit).
		WillReturnRows(sqlmock.NewRows(repositories.BookingColumns))

	dash, err := DashboardService{DB: db, Now: fixedNow}.Get(context.Background(), models.PeriodWeek)
	require.NoError(t, err)
	assert.Empty(t, dash.RecentBookings)
	assert.Equal(t, from, dash.From)
}
