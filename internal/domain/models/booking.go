package models

import (
	"time"
)

type BookingStatus string

const (
	StatusPending        BookingStatus = "PENDING"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusDriverAssigned BookingStatus = "DRIVER_ASSIGNED"
	StatusInProgress     BookingStatus = "IN_PROGRESS"
	StatusCompleted      BookingStatus = "COMPLETED"
	StatusCancelled      BookingStatus = "CANCELLED"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusDriverAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

var statusLabels = map[BookingStatus]string{
	StatusPending:        "En attente",
	StatusConfirmed:      "Confirmée",
	StatusDriverAssigned: "Chauffeur assigné",
	StatusInProgress:     "En cours",
	StatusCompleted:      "Terminée",
	StatusCancelled:      "Annulée",
}

func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Label is the French wording shown to customers.
func (s BookingStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// CanTransitionTo reports whether next is an allowed successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the successors allowed from s.
func (s BookingStatus) NextStatuses() []BookingStatus {
	out := make([]BookingStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

type VehicleType string

const (
	VehicleEco      VehicleType = "eco"
	VehicleBerline  VehicleType = "berline"
	VehicleVan      VehicleType = "van"
	VehicleGoldwing VehicleType = "goldwing"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleEco, VehicleBerline, VehicleVan, VehicleGoldwing:
		return true
	}
	return false
}

// APIType is the vehicle category stored by the API: the goldwing offer is
// booked as a van.
func (v VehicleType) APIType() VehicleType {
	if v == VehicleGoldwing {
		return VehicleVan
	}
	if v == "" {
		return VehicleEco
	}
	return v
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Booking struct {
	ID                   int64         `json:"id"`
	ConfirmationNumber   string        `json:"confirmation_number"`
	UserID               int64         `json:"user_id"`
	User                 *User         `json:"user,omitempty"`
	DriverID             *int64        `json:"driver_id"`
	Driver               *Driver       `json:"driver"`
	PickupAddress        string        `json:"pickup_address"`
	PickupLatitude       float64       `json:"pickup_latitude"`
	PickupLongitude      float64       `json:"pickup_longitude"`
	DestinationAddress   string        `json:"destination_address"`
	DestinationLatitude  float64       `json:"destination_latitude"`
	DestinationLongitude float64       `json:"destination_longitude"`
	VehicleType          VehicleType   `json:"vehicle_type"`
	EstimatedPrice       float64       `json:"estimated_price"`
	FinalPrice           *float64      `json:"final_price"`
	Status               BookingStatus `json:"status"`
	StatusDisplay        string        `json:"status_display"`
	ScheduledTime        time.Time     `json:"scheduled_time"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	CompletedAt          *time.Time    `json:"completed_at"`
}

// Decorate fills the derived fields of the booking and its relations.
func (b *Booking) Decorate() {
	b.StatusDisplay = b.Status.Label()
	if b.User != nil {
		b.User.Decorate()
	}
	if b.Driver != nil {
		b.Driver.Decorate()
	}
}

// IsActive is true until the trip ends or is cancelled.
func (b Booking) IsActive() bool {
	return b.Status != StatusCompleted && b.Status != StatusCancelled
}

// CanBeCancelled is true while no trip has started.
func (b Booking) CanBeCancelled() bool {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusDriverAssigned:
		return true
	}
	return false
}

// BillableAmount is the final price when set, the estimate otherwise.
func (b Booking) BillableAmount() float64 {
	if b.FinalPrice != nil {
		return *b.FinalPrice
	}
	return b.EstimatedPrice
}

// Pickup and Destination return the coordinates pairs.
func (b Booking) Pickup() Coordinates {
	return Coordinates{Latitude: b.PickupLatitude, Longitude: b.PickupLongitude}
}

func (b Booking) Destination() Coordinates {
	return Coordinates{Latitude: b.DestinationLatitude, Longitude: b.DestinationLongitude}
}

// CreateBookingInput is the payload of POST /api/bookings/create/.
type CreateBookingInput struct {
	PickupAddress        string      `json:"pickup_address" binding:"required,max=255"`
	PickupLatitude       *float64    `json:"pickup_latitude"`
	PickupLongitude      *float64    `json:"pickup_longitude"`
	DestinationAddress   string      `json:"destination_address" binding:"required,max=255"`
	DestinationLatitude  *float64    `json:"destination_latitude"`
	DestinationLongitude *float64    `json:"destination_longitude"`
	EstimatedPrice       Amount      `json:"estimated_price"`
	VehicleType          VehicleType `json:"vehicle_type"`
	ScheduledTime        time.Time   `json:"scheduled_time" binding:"required"`
}

// HasCoordinates is true when both ends carry latitude and longitude.
func (in CreateBookingInput) HasCoordinates() bool {
	return in.PickupLatitude != nil && in.PickupLongitude != nil &&
		in.DestinationLatitude != nil && in.DestinationLongitude != nil
}

// BookingCreated is the body returned after a reservation is stored.
type BookingCreated struct {
	BookingID          int64         `json:"booking_id"`
	ConfirmationNumber string        `json:"confirmation_number"`
	Status             BookingStatus `json:"status"`
	EstimatedPrice     float64       `json:"estimated_price"`
}

// BookingUpdateInput is the admin PATCH payload; nil fields are left untouched.
type BookingUpdateInput struct {
	Status     *BookingStatus `json:"status"`
	DriverID   *int64         `json:"driver"`
	FinalPrice *Amount        `json:"final_price"`
}

// BookingUpdated is returned by the admin update endpoint.
type BookingUpdated struct {
	BookingID int64         `json:"booking_id"`
	NewStatus BookingStatus `json:"new_status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BookingFilter narrows listings. Zero values mean "no filter".
type BookingFilter struct {
	UserID   int64
	DriverID int64
	Status   BookingStatus
	Search   string
	Limit    int
	Offset   int
}
