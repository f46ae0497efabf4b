package models

import "time"

type DashboardPeriod string

const (
	PeriodToday DashboardPeriod = "today"
	PeriodWeek  DashboardPeriod = "week"
	PeriodMonth DashboardPeriod = "month"
)

// Window returns the [from, to] range of the period relative to now.
// Unknown periods behave like today.
func (p DashboardPeriod) Window(now time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), now
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), now
	default:
		y, m, d := now.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		return start, start.Add(24*time.Hour - time.Second)
	}
}

// BookingStats aggregates bookings created within a window.
type BookingStats struct {
	Total          int     `json:"total_bookings"`
	Pending        int     `json:"pending_bookings"`
	Confirmed      int     `json:"confirmed_bookings"`
	DriverAssigned int     `json:"driver_assigned_bookings"`
	InProgress     int     `json:"in_progress_bookings"`
	Completed      int     `json:"completed_bookings"`
	Cancelled      int     `json:"cancelled_bookings"`
	TotalRevenue   float64 `json:"total_revenue"`
	AveragePrice   float64 `json:"average_price"`
}

type Dashboard struct {
	BookingStats
	Period         DashboardPeriod `json:"period"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	RecentBookings []Booking       `json:"recent_bookings"`
}

// DispatchInput is the payload of POST /api/admin/dispatch/.
type DispatchInput struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	DriverID  *int64 `json:"driver_id"`
	Action    string `json:"action" binding:"required,oneof=assign broadcast"`
}

// Assignment is returned by the assign action.
type Assignment struct {
	BookingID      int64     `json:"booking_id"`
	DriverID       int64     `json:"driver_id"`
	AssignmentTime time.Time `json:"assignment_time"`
}

// BroadcastReport summarizes a broadcast of a booking to every driver.
type BroadcastReport struct {
	BookingID        int64     `json:"booking_id"`
	TotalDrivers     int       `json:"total_drivers"`
	SuccessCount     int       `json:"success_count"`
	FailedCount      int       `json:"failed_count"`
	DriversContacted []string  `json:"drivers_contacted"`
	ChannelsUsed     []string  `json:"channels_used"`
	BroadcastTime    time.Time `json:"broadcast_time"`
}
