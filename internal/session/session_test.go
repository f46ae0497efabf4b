package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"frenchdriver/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	sess, err := NewStore(filepath.Join(t.TempDir(), "none.yaml")).Load()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
	assert.Nil(t, sess.Pending)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))
	lat := 48.8556
	at := time.Date(2026, 10, 20, 8, 30, 0, 0, time.UTC)

	sess := FromLogin(models.LoginResult{
		Access:    "tok",
		ExpiresAt: at,
		User:      models.User{ID: 7, Username: "alice", FirstName: "Alice", LastName: "Martin", UserType: models.UserTypeAdmin},
	})
	sess.Pending = &PendingBooking{
		PickupAddress:      "10 Rue de Rivoli, Paris",
		PickupLatitude:     &lat,
		DestinationAddress: "Aéroport CDG",
		VehicleType:        "berline",
		ScheduledTime:      at,
		Quote:              models.Quote{DistanceKm: 22.2, DurationMinutes: 44, Price: 66.76, Source: models.QuoteLocal},
	}
	require.NoError(t, store.Save(sess))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.Equal(t, "Alice Martin", got.User.FullName)
	require.NotNil(t, got.Pending)
	assert.Equal(t, lat, *got.Pending.PickupLatitude)
	assert.Nil(t, got.Pending.DestinationLatitude)
	assert.True(t, at.Equal(got.Pending.ScheduledTime))
	assert.Equal(t, 66.76, got.Pending.Quote.Price)
}

func TestLogoutKeepsPending(t *testing.T) {
	sess := Session{Token: "tok", User: &User{ID: 1}, Pending: &PendingBooking{PickupAddress: "Paris"}}
	sess.Logout()
	assert.False(t, sess.LoggedIn())
	assert.NotNil(t, sess.Pending)
}

func TestClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Save(Session{Token: "tok"}))
	require.NoError(t, store.Clear())
	_, err := os.Stat(store.Path)
	assert.True(t, os.IsNotExist(err))
}
