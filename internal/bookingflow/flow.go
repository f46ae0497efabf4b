// Package bookingflow drives a reservation from address search to booking:
// suggestions, route preview, quote, then creation. A visitor that is not
// logged in gets a local quote, and the booking is parked until login.
package bookingflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"
	"frenchdriver/internal/pricing"
	"frenchdriver/internal/session"
)

var (
	ErrMissingEndpoints    = errors.New("pickup and destination are required")
	ErrEstimateUnavailable = errors.New("estimate unavailable")
	ErrLoginRequired       = errors.New("login required to book")
)

// API is the part of the REST client the flow needs.
type API interface {
	Estimate(ctx context.Context, in models.EstimateInput) (models.Estimate, error)
	CreateBooking(ctx context.Context, in models.CreateBookingInput) (models.BookingCreated, error)
}

type AddressSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]geo.Suggestion, error)
}

type RouteFinder interface {
	Route(ctx context.Context, from, to models.Coordinates, withGeometry bool) (geo.Route, error)
}

type SessionStore interface {
	Load() (session.Session, error)
	Save(session.Session) error
}

// Place is an address, with coordinates once it was picked from suggestions.
type Place struct {
	Label  string
	Coords *models.Coordinates
}

func PlaceFromSuggestion(s geo.Suggestion) Place {
	return Place{Label: s.Label, Coords: &models.Coordinates{Latitude: s.Lat, Longitude: s.Lon}}
}

func (p Place) empty() bool { return strings.TrimSpace(p.Label) == "" }

// Draft is everything chosen before a booking is sent.
type Draft struct {
	Pickup      Place
	Destination Place
	Vehicle     models.VehicleType
	Schedule    Schedule
}

func (d Draft) vehicle() models.VehicleType {
	if d.Vehicle == "" {
		return models.VehicleEco
	}
	return d.Vehicle
}

func (d Draft) validate() error {
	if d.Pickup.empty() || d.Destination.empty() {
		return ErrMissingEndpoints
	}
	if !d.vehicle().Valid() {
		return fmt.Errorf("unknown vehicle type %q", d.Vehicle)
	}
	return nil
}

// Preview is the route drawn between the two chosen places.
type Preview struct {
	Route     geo.Route
	SouthWest models.Coordinates
	NorthEast models.Coordinates
}

type Flow struct {
	API      API
	Searcher AddressSearcher
	Router   RouteFinder
	Sessions SessionStore
	Now      func() time.Time
}

func (f Flow) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

func (f Flow) session() (session.Session, error) {
	if f.Sessions == nil {
		return session.Session{}, nil
	}
	return f.Sessions.Load()
}

// Suggest returns address suggestions; short queries yield none.
func (f Flow) Suggest(ctx context.Context, query string) ([]geo.Suggestion, error) {
	return f.Searcher.Search(ctx, query, geo.DefaultLimit)
}

// Preview fetches the full route geometry between two located places.
func (f Flow) Preview(ctx context.Context, from, to Place) (Preview, error) {
	if from.Coords == nil || to.Coords == nil {
		return Preview{}, ErrMissingEndpoints
	}
	r, err := f.Router.Route(ctx, *from.Coords, *to.Coords, true)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{Route: r}
	if sw, ne, ok := r.Bounds(); ok {
		p.SouthWest, p.NorthEast = sw, ne
	} else {
		p.SouthWest, p.NorthEast = *from.Coords, *to.Coords
	}
	return p, nil
}

func coords(p Place) (lat, lon *float64) {
	if p.Coords == nil {
		return nil, nil
	}
	a, b := p.Coords.Latitude, p.Coords.Longitude
	return &a, &b
}

// Estimate quotes the draft: through the API when logged in, with the OSRM
// route and the local tariffs otherwise.
func (f Flow) Estimate(ctx context.Context, d Draft) (models.Quote, error) {
	if err := d.validate(); err != nil {
		return models.Quote{}, err
	}
	at, err := d.Schedule.Resolve(f.now())
	if err != nil {
		return models.Quote{}, err
	}
	sess, err := f.session()
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %w", ErrEstimateUnavailable, err)
	}

	if sess.LoggedIn() && f.API != nil {
		in := models.EstimateInput{
			PickupAddress:      d.Pickup.Label,
			DestinationAddress: d.Destination.Label,
			ScheduledTime:      at,
			VehicleType:        d.vehicle().APIType(),
		}
		in.PickupLatitude, in.PickupLongitude = coords(d.Pickup)
		in.DestinationLatitude, in.DestinationLongitude = coords(d.Destination)
		est, err := f.API.Estimate(ctx, in)
		if err != nil {
			return models.Quote{}, fmt.Errorf("%w: %w", ErrEstimateUnavailable, err)
		}
		return models.Quote{
			DistanceKm:      est.DistanceKm,
			DurationMinutes: est.EstimatedDurationMinutes,
			Price:           est.EstimatedPrice,
			Source:          models.QuoteServer,
		}, nil
	}

	if d.Pickup.Coords == nil || d.Destination.Coords == nil {
		return models.Quote{}, fmt.Errorf("%w: pick both addresses from the suggestions", ErrEstimateUnavailable)
	}
	r, err := f.Router.Route(ctx, *d.Pickup.Coords, *d.Destination.Coords, false)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %w", ErrEstimateUnavailable, err)
	}
	return models.Quote{
		DistanceKm:      r.DistanceKm,
		DurationMinutes: r.DurationMinutes,
		Price:           pricing.LocalQuote(d.vehicle(), r.DistanceKm, r.DurationMinutes),
		Source:          models.QuoteLocal,
	}, nil
}

// bookingInput builds the API payload of p. An immediate pickup parked
// earlier is rescheduled at now.
func bookingInput(p session.PendingBooking, now time.Time) models.CreateBookingInput {
	if p.PickupNow {
		p.ScheduledTime = now.UTC().Truncate(time.Second)
	}
	return models.CreateBookingInput{
		PickupAddress:        p.PickupAddress,
		PickupLatitude:       p.PickupLatitude,
		PickupLongitude:      p.PickupLongitude,
		DestinationAddress:   p.DestinationAddress,
		DestinationLatitude:  p.DestinationLatitude,
		DestinationLongitude: p.DestinationLongitude,
		EstimatedPrice:       models.Amount(p.Quote.Price),
		VehicleType:          models.VehicleType(p.VehicleType).APIType(),
		ScheduledTime:        p.ScheduledTime,
	}
}

func (f Flow) pending(d Draft, q models.Quote) (session.PendingBooking, error) {
	at, err := d.Schedule.Resolve(f.now())
	if err != nil {
		return session.PendingBooking{}, err
	}
	p := session.PendingBooking{
		PickupAddress:      strings.TrimSpace(d.Pickup.Label),
		DestinationAddress: strings.TrimSpace(d.Destination.Label),
		VehicleType:        string(d.vehicle()),
		ScheduledTime:      at,
		PickupNow:          d.Schedule.IsNow(),
		Quote:              q,
		SavedAt:            f.now(),
	}
	p.PickupLatitude, p.PickupLongitude = coords(d.Pickup)
	p.DestinationLatitude, p.DestinationLongitude = coords(d.Destination)
	return p, nil
}

// Create books the draft at the quoted price. A visitor's draft is saved as
// the pending booking and ErrLoginRequired is returned.
func (f Flow) Create(ctx context.Context, d Draft, q models.Quote) (models.BookingCreated, error) {
	if err := d.validate(); err != nil {
		return models.BookingCreated{}, err
	}
	p, err := f.pending(d, q)
	if err != nil {
		return models.BookingCreated{}, err
	}
	sess, err := f.session()
	if err != nil {
		return models.BookingCreated{}, err
	}
	if !sess.LoggedIn() || f.API == nil {
		if f.Sessions == nil {
			return models.BookingCreated{}, ErrLoginRequired
		}
		sess.Pending = &p
		if err := f.Sessions.Save(sess); err != nil {
			return models.BookingCreated{}, fmt.Errorf("save pending booking: %w", err)
		}
		return models.BookingCreated{}, ErrLoginRequired
	}
	return f.API.CreateBooking(ctx, bookingInput(p, f.now()))
}

// ResumePending sends the booking parked before login. It returns nil when
// nothing is pending and keeps the draft when the API refuses it.
func (f Flow) ResumePending(ctx context.Context) (*models.BookingCreated, error) {
	sess, err := f.session()
	if err != nil {
		return nil, err
	}
	if sess.Pending == nil {
		return nil, nil
	}
	if !sess.LoggedIn() || f.API == nil {
		return nil, ErrLoginRequired
	}
	out, err := f.API.CreateBooking(ctx, bookingInput(*sess.Pending, f.now()))
	if err != nil {
		return nil, err
	}
	sess.Pending = nil
	if err := f.Sessions.Save(sess); err != nil {
		return &out, fmt.Errorf("clear pending booking: %w", err)
	}
	return &out, nil
}
