package services

import (
	"context"
	"database/sql"
	"time"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/utils"
)

const recentBookingsLimit = 10

type DashboardService struct {
	Bookings repositories.BookingRepo
	DB       *sql.DB
	Now      func() time.Time
}

func (s DashboardService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	db := s.DB
	if db == nil {
		db = intconfig.DB
	}
	return repositories.BookingRepo{DB: db}
}

// Get aggregates bookings created in period; an unknown period means today.
func (s DashboardService) Get(ctx context.Context, period models.DashboardPeriod) (models.Dashboard, error) {
	switch period {
	case models.PeriodToday, models.PeriodWeek, models.PeriodMonth:
	default:
		period = models.PeriodToday
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	from, to := period.Window(now)

	stats, err := s.bookings().Stats(ctx, from, to)
	if err != nil {
		return models.Dashboard{}, err
	}
	stats.TotalRevenue = utils.Round2(stats.TotalRevenue)
	stats.AveragePrice = utils.Round2(stats.AveragePrice)

	recent, err := s.bookings().Recent(ctx, from, to, recentBookingsLimit)
	if err != nil {
		return models.Dashboard{}, err
	}
	return models.Dashboard{
		BookingStats:   stats,
		Period:         period,
		From:           from,
		To:             to,
		RecentBookings: recent,
	}, nil
}
