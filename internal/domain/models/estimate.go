package models

import "time"

// EstimateInput is the payload of POST /api/bookings/estimate/. Coordinates
// are optional; missing ones fall back to Paris centre and CDG airport.
type EstimateInput struct {
	PickupAddress        string      `json:"pickup_address" binding:"required,max=255"`
	DestinationAddress   string      `json:"destination_address" binding:"required,max=255"`
	ScheduledTime        time.Time   `json:"scheduled_time" binding:"required"`
	VehicleType          VehicleType `json:"vehicle_type"`
	PickupLatitude       *float64    `json:"pickup_latitude"`
	PickupLongitude      *float64    `json:"pickup_longitude"`
	DestinationLatitude  *float64    `json:"destination_latitude"`
	DestinationLongitude *float64    `json:"destination_longitude"`
}

// Estimate is the server side price breakdown.
type Estimate struct {
	DistanceKm               float64     `json:"distance_km"`
	EstimatedDurationMinutes int         `json:"estimated_duration_minutes"`
	BasePrice                float64     `json:"base_price"`
	DistancePrice            float64     `json:"distance_price"`
	TimePrice                float64     `json:"time_price"`
	EstimatedPrice           float64     `json:"estimated_price"`
	PickupCoordinates        Coordinates `json:"pickup_coordinates"`
	DestinationCoordinates   Coordinates `json:"destination_coordinates"`
}

// QuoteSource tells where a quote was computed.
type QuoteSource string

const (
	QuoteServer QuoteSource = "server"
	QuoteLocal  QuoteSource = "local"
)

// Quote is the client side fare estimate shown before booking.
type Quote struct {
	DistanceKm      float64     `json:"distance_km" yaml:"distance_km"`
	DurationMinutes int         `json:"duration_minutes" yaml:"duration_minutes"`
	Price           float64     `json:"price" yaml:"price"`
	Source          QuoteSource `json:"source" yaml:"source"`
}
