package bookingflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"
	"frenchdriver/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 9, 30, 15, 0, time.UTC)

type memStore struct {
	sess  session.Session
	saves int
}

func (m *memStore) Load() (session.Session, error) { return m.sess, nil }
func (m *memStore) Save(s session.Session) error {
	m.sess = s
	m.saves++
	return nil
}

type fakeAPI struct {
	estimateIn models.EstimateInput
	created    []models.CreateBookingInput
	err        error
}

func (f *fakeAPI) Estimate(_ context.Context, in models.EstimateInput) (models.Estimate, error) {
	f.estimateIn = in
	if f.err != nil {
		return models.Estimate{}, f.err
	}
	return models.Estimate{DistanceKm: 22.2, EstimatedDurationMinutes: 44, EstimatedPrice: 51.5}, nil
}

func (f *fakeAPI) CreateBooking(_ context.Context, in models.CreateBookingInput) (models.BookingCreated, error) {
	if f.err != nil {
		return models.BookingCreated{}, f.err
	}
	f.created = append(f.created, in)
	return models.BookingCreated{BookingID: 12, ConfirmationNumber: "VTCABCDEF12", Status: models.StatusPending, EstimatedPrice: 51.5}, nil
}

type fakeRouter struct {
	withGeometry bool
	err          error
}

func (f *fakeRouter) Route(_ context.Context, _, _ models.Coordinates, withGeometry bool) (geo.Route, error) {
	f.withGeometry = withGeometry
	if f.err != nil {
		return geo.Route{}, f.err
	}
	r := geo.Route{DistanceKm: 10, DurationMinutes: 20}
	if withGeometry {
		r.Path = [][2]float64{{48.85, 2.35}, {48.90, 2.30}, {48.88, 2.40}}
	}
	return r, nil
}

func paris() Place {
	return PlaceFromSuggestion(geo.Suggestion{Label: "Paris", Lat: 48.8566, Lon: 2.3522})
}

func cdg() Place {
	return PlaceFromSuggestion(geo.Suggestion{Label: "Aéroport CDG", Lat: 49.0097, Lon: 2.5479})
}

func TestScheduleResolve(t *testing.T) {
	at, err := Schedule{Mode: ModeNow}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, now, at)

	at, err = Schedule{Mode: ModeLater, Date: "2026-10-20", Time: "07:45"}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 7, 45, 0, 0, time.UTC), at)

	at, err = Schedule{Mode: ModeLater, Date: "2026-10-20"}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, now, at)

	_, err = Schedule{Mode: ModeLater, Date: "20/10/2026", Time: "07:45"}.Resolve(now)
	assert.Error(t, err)
}

func TestParseSchedule(t *testing.T) {
	assert.Equal(t, Schedule{Mode: ModeNow}, ParseSchedule("", now))
	assert.Equal(t, Schedule{Mode: ModeNow}, ParseSchedule("NOW", now))
	assert.Equal(t, Schedule{Mode: ModeLater, Date: "2026-10-19", Time: "18:30"}, ParseSchedule("18:30", now))
	assert.Equal(t, Schedule{Mode: ModeLater, Date: "2026-10-21", Time: "06:05"}, ParseSchedule("2026-10-21 06:05", now))
	assert.Equal(t, Schedule{Mode: ModeLater, Date: "2026-10-21", Time: "06:05"}, ParseSchedule("2026-10-21T06:05:00Z", now))
}

func TestEstimateNeedsEndpoints(t *testing.T) {
	_, err := Flow{}.Estimate(context.Background(), Draft{Pickup: paris()})
	assert.ErrorIs(t, err, ErrMissingEndpoints)
}

func TestEstimateLoggedInUsesAPI(t *testing.T) {
	api := &fakeAPI{}
	f := Flow{API: api, Sessions: &memStore{sess: session.Session{Token: "tok"}}, Now: func() time.Time { return now }}

	q, err := f.Estimate(context.Background(), Draft{Pickup: paris(), Destination: cdg(), Vehicle: models.VehicleGoldwing})
	require.NoError(t, err)
	assert.Equal(t, models.Quote{DistanceKm: 22.2, DurationMinutes: 44, Price: 51.5, Source: models.QuoteServer}, q)
	assert.Equal(t, models.VehicleVan, api.estimateIn.VehicleType)
	assert.Equal(t, now, api.estimateIn.ScheduledTime)
	require.NotNil(t, api.estimateIn.DestinationLatitude)
	assert.Equal(t, 49.0097, *api.estimateIn.DestinationLatitude)

	api.err = errors.New("boom")
	_, err = f.Estimate(context.Background(), Draft{Pickup: paris(), Destination: cdg()})
	assert.ErrorIs(t, err, ErrEstimateUnavailable)
}

func TestEstimateVisitorUsesLocalTariff(t *testing.T) {
	router := &fakeRouter{}
	f := Flow{Router: router, Sessions: &memStore{}}

	q, err := f.Estimate(context.Background(), Draft{Pickup: paris(), Destination: cdg(), Vehicle: models.VehicleBerline})
	require.NoError(t, err)
	assert.False(t, router.withGeometry)
	// 7 + 10*1.8 + 20*0.45
	assert.Equal(t, 34.0, q.Price)
	assert.Equal(t, models.QuoteLocal, q.Source)

	_, err = f.Estimate(context.Background(), Draft{Pickup: Place{Label: "Paris"}, Destination: cdg()})
	assert.ErrorIs(t, err, ErrEstimateUnavailable)

	router.err = geo.ErrNoRoute
	_, err = f.Estimate(context.Background(), Draft{Pickup: paris(), Destination: cdg()})
	assert.ErrorIs(t, err, ErrEstimateUnavailable)
	assert.ErrorIs(t, err, geo.ErrNoRoute)
}

func TestPreviewBounds(t *testing.T) {
	p, err := Flow{Router: &fakeRouter{}}.Preview(context.Background(), paris(), cdg())
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: 48.85, Longitude: 2.30}, p.SouthWest)
	assert.Equal(t, models.Coordinates{Latitude: 48.90, Longitude: 2.40}, p.NorthEast)

	_, err = Flow{Router: &fakeRouter{}}.Preview(context.Background(), Place{Label: "x"}, cdg())
	assert.ErrorIs(t, err, ErrMissingEndpoints)
}

func TestCreateAsVisitorParksBooking(t *testing.T) {
	store := &memStore{}
	f := Flow{API: &fakeAPI{}, Sessions: store, Now: func() time.Time { return now }}
	draft := Draft{Pickup: paris(), Destination: cdg(), Vehicle: models.VehicleGoldwing,
		Schedule: Schedule{Mode: ModeLater, Date: "2026-10-20", Time: "07:45"}}

	_, err := f.Create(context.Background(), draft, models.Quote{Price: 77.1, Source: models.QuoteLocal})
	require.ErrorIs(t, err, ErrLoginRequired)
	require.NotNil(t, store.sess.Pending)
	assert.Equal(t, "goldwing", store.sess.Pending.VehicleType)
	assert.Equal(t, time.Date(2026, 10, 20, 7, 45, 0, 0, time.UTC), store.sess.Pending.ScheduledTime)
}

func TestResumePendingAfterLogin(t *testing.T) {
	store := &memStore{}
	api := &fakeAPI{}
	f := Flow{API: api, Sessions: store, Now: func() time.Time { return now }}
	draft := Draft{Pickup: paris(), Destination: cdg(), Vehicle: models.VehicleGoldwing}
	_, err := f.Create(context.Background(), draft, models.Quote{Price: 77.1})
	require.ErrorIs(t, err, ErrLoginRequired)

	_, err = f.ResumePending(context.Background())
	assert.ErrorIs(t, err, ErrLoginRequired)

	// failure keeps the draft
	store.sess.Token = "tok"
	api.err = errors.New("api down")
	_, err = f.ResumePending(context.Background())
	require.Error(t, err)
	assert.NotNil(t, store.sess.Pending)

	api.err = nil
	out, err := f.ResumePending(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "VTCABCDEF12", out.ConfirmationNumber)
	assert.Nil(t, store.sess.Pending)
	require.Len(t, api.created, 1)
	assert.Equal(t, models.VehicleVan, api.created[0].VehicleType)
	assert.Equal(t, models.Amount(77.1), api.created[0].EstimatedPrice)

	out, err = f.ResumePending(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestResumePendingReschedulesImmediatePickup(t *testing.T) {
	store := &memStore{}
	api := &fakeAPI{}
	clock := now
	f := Flow{API: api, Sessions: store, Now: func() time.Time { return clock }}

	_, err := f.Create(context.Background(), Draft{Pickup: paris(), Destination: cdg()}, models.Quote{Price: 51.5})
	require.ErrorIs(t, err, ErrLoginRequired)
	require.NotNil(t, store.sess.Pending)
	assert.True(t, store.sess.Pending.PickupNow)
	assert.Equal(t, now, store.sess.Pending.ScheduledTime)

	clock = now.Add(3 * time.Hour)
	store.sess.Token = "tok"
	_, err = f.ResumePending(context.Background())
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, now.Add(3*time.Hour), api.created[0].ScheduledTime)
}

func TestResumePendingKeepsChosenTime(t *testing.T) {
	store := &memStore{}
	api := &fakeAPI{}
	clock := now
	f := Flow{API: api, Sessions: store, Now: func() time.Time { return clock }}
	draft := Draft{Pickup: paris(), Destination: cdg(),
		Schedule: Schedule{Mode: ModeLater, Date: "2026-10-20", Time: "07:45"}}

	_, err := f.Create(context.Background(), draft, models.Quote{Price: 51.5})
	require.ErrorIs(t, err, ErrLoginRequired)
	assert.False(t, store.sess.Pending.PickupNow)

	clock = now.Add(3 * time.Hour)
	store.sess.Token = "tok"
	_, err = f.ResumePending(context.Background())
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, time.Date(2026, 10, 20, 7, 45, 0, 0, time.UTC), api.created[0].ScheduledTime)
}

func TestCreateLoggedIn(t *testing.T) {
	api := &fakeAPI{}
	f := Flow{API: api, Sessions: &memStore{sess: session.Session{Token: "tok"}}, Now: func() time.Time { return now }}
	out, err := f.Create(context.Background(), Draft{Pickup: paris(), Destination: cdg()}, models.Quote{Price: 51.5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.BookingID)
	require.Len(t, api.created, 1)
	assert.Equal(t, models.VehicleEco, api.created[0].VehicleType)
	assert.Equal(t, now, api.created[0].ScheduledTime)
}
