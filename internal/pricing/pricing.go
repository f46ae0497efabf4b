// Package pricing computes trip fares: the server tariff used for
// authoritative estimates and the per-vehicle tariffs quoted to visitors.
package pricing

import (
	"math"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/utils"
)

const (
	earthRadiusKm = 6371.0
	averageSpeed  = 30.0 // km/h

	basePrice   = 5.00
	pricePerKm  = 1.50
	pricePerMin = 0.30
)

var (
	DefaultPickup      = models.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	DefaultDestination = models.Coordinates{Latitude: 49.0097, Longitude: 2.5479}
)

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DurationMinutes is the drive time at the average city speed, truncated.
func DurationMinutes(km float64) int {
	return int(km / averageSpeed * 60)
}

// Estimate prices a trip between pickup and destination with the server tariff.
func Estimate(pickup, destination models.Coordinates) models.Estimate {
	km := Haversine(pickup, destination)
	minutes := DurationMinutes(km)

	distancePrice := km * pricePerKm
	timePrice := float64(minutes) * pricePerMin
	return models.Estimate{
		DistanceKm:               utils.Round2(km),
		EstimatedDurationMinutes: minutes,
		BasePrice:                basePrice,
		DistancePrice:            utils.Round2(distancePrice),
		TimePrice:                utils.Round2(timePrice),
		EstimatedPrice:           utils.Round2(basePrice + distancePrice + timePrice),
		PickupCoordinates:        pickup,
		DestinationCoordinates:   destination,
	}
}

// ResolveEndpoints fills missing coordinates with the Paris centre and CDG defaults.
func ResolveEndpoints(in models.EstimateInput) (models.Coordinates, models.Coordinates) {
	pickup, dest := DefaultPickup, DefaultDestination
	if in.PickupLatitude != nil && in.PickupLongitude != nil {
		pickup = models.Coordinates{Latitude: *in.PickupLatitude, Longitude: *in.PickupLongitude}
	}
	if in.DestinationLatitude != nil && in.DestinationLongitude != nil {
		dest = models.Coordinates{Latitude: *in.DestinationLatitude, Longitude: *in.DestinationLongitude}
	}
	return pickup, dest
}
