package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// fakeBackend serves the API, the address search and OSRM on one server.
type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	created  []models.CreateBookingInput
	bookings []models.Booking
	status   int
}

func (f *fakeBackend) ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 && strings.HasPrefix(r.URL.Path, "/api/") {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"unauthorized","message":"Token invalide."}}`))
		return
	}
	switch {
	case r.URL.Path == "/search/":
		q := strings.ToLower(r.URL.Query().Get("q"))
		lon, lat, label := 2.3601, 48.8556, "10 Rue de Rivoli 75004 Paris"
		if strings.Contains(q, "cdg") {
			lon, lat, label = 2.5479, 49.0097, "Aéroport Charles de Gaulle 95700 Roissy"
		}
		fmt.Fprintf(w, `{"features":[{"geometry":{"coordinates":[%f,%f]},"properties":{"id":"x","label":%q}}]}`, lon, lat, label)
	case strings.HasPrefix(r.URL.Path, "/route/v1/driving/"):
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":25400,"duration":1830}]}`))
	case r.URL.Path == "/api/auth/login/":
		var in models.LoginInput
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		role := models.UserTypeClient
		if in.Username == "admin" {
			role = models.UserTypeAdmin
		}
		f.ok(w, models.LoginResult{
			Access:    "tok-" + in.Username,
			ExpiresAt: testNow.Add(24 * time.Hour),
			User:      models.User{ID: 7, Username: in.Username, FirstName: "Alice", LastName: "Martin", UserType: role},
		})
	case r.URL.Path == "/api/bookings/create/":
		assert.True(f.t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-"))
		var in models.CreateBookingInput
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		f.created = append(f.created, in)
		f.mu.Unlock()
		f.ok(w, models.BookingCreated{BookingID: 42, ConfirmationNumber: "VTC1A2B3C4D", Status: models.StatusPending, EstimatedPrice: in.EstimatedPrice.Float()})
	case r.URL.Path == "/api/bookings/estimate/":
		f.ok(w, models.Estimate{DistanceKm: 22.2, EstimatedDurationMinutes: 44, EstimatedPrice: 62.3})
	case r.URL.Path == "/api/admin/bookings":
		f.ok(w, map[string]any{
			"results":    f.bookings,
			"pagination": map[string]int{"page": 1, "page_size": 100, "total": len(f.bookings)},
		})
	case r.URL.Path == "/api/invoices/42/":
		f.ok(w, models.Invoice{BookingID: 42, InvoiceNumber: "INV-20261019-000042", TotalAmount: 52, GeneratedAt: testNow})
	case r.URL.Path == "/api/invoices/42/pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="../../etc/facture.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	case r.URL.Path == "/api/admin/dashboard/":
		f.ok(w, models.Dashboard{Period: models.PeriodWeek, BookingStats: models.BookingStats{Total: 3, TotalRevenue: 120.5}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	app     *App
	backend *fakeBackend
	store   *session.Store
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := &fakeBackend{t: t}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	app := NewApp(out, out)
	app.Now = func() time.Time { return testNow }
	path := filepath.Join(t.TempDir(), "session.yaml")
	app.cfg.Set("api_url", srv.URL)
	app.cfg.Set("geocoder_url", srv.URL)
	app.cfg.Set("router_url", srv.URL)
	app.cfg.Set("session", path)
	return &harness{app: app, backend: backend, store: session.NewStore(path), out: out}
}

func (h *harness) run(args ...string) error {
	root := h.app.NewRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func (h *harness) login(t *testing.T, role models.UserType) {
	t.Helper()
	require.NoError(t, h.store.Save(session.Session{
		Token: "tok-test",
		User:  &session.User{ID: 7, Username: "alice", Role: string(role)},
	}))
}

func TestBookAsVisitorParksDraft(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("book", "--from", "10 rue de Rivoli", "--to", "Aéroport CDG", "--vehicle", "berline", "--at", "18:30"))
	assert.Contains(t, h.out.String(), "Réservation mise de côté")
	assert.Contains(t, h.out.String(), "tarif indicatif")

	sess, err := h.store.Load()
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)
	assert.Equal(t, "berline", sess.Pending.VehicleType)
	assert.Equal(t, models.QuoteLocal, sess.Pending.Quote.Source)
	assert.InDelta(t, 25.4, sess.Pending.Quote.DistanceKm, 1e-9)
	assert.Equal(t, 31, sess.Pending.Quote.DurationMinutes)
	assert.True(t, time.Date(2026, 10, 19, 18, 30, 0, 0, time.UTC).Equal(sess.Pending.ScheduledTime))
	require.NotNil(t, sess.Pending.DestinationLatitude)
	assert.Equal(t, 49.0097, *sess.Pending.DestinationLatitude)
	assert.Empty(t, h.backend.created)
}

func TestLoginSendsPendingBooking(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("book", "--from", "10 rue de Rivoli", "--to", "CDG", "--vehicle", "goldwing"))
	h.out.Reset()

	require.NoError(t, h.run("login", "-u", "alice", "-p", "secret123"))
	assert.Contains(t, h.out.String(), "Bienvenue Alice Martin")
	assert.Contains(t, h.out.String(), "VTC1A2B3C4D")

	require.Len(t, h.backend.created, 1)
	assert.Equal(t, models.VehicleVan, h.backend.created[0].VehicleType)
	assert.Equal(t, "10 Rue de Rivoli 75004 Paris", h.backend.created[0].PickupAddress)

	sess, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", sess.Token)
	assert.Nil(t, sess.Pending)
}

func TestQuoteLoggedInUsesServer(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeClient)

	require.NoError(t, h.run("quote", "--from", "rivoli", "--to", "cdg"))
	assert.Contains(t, h.out.String(), "tarif serveur")
	assert.Contains(t, h.out.String(), "22.2 km")
}

func TestLogoutKeepsPendingDraft(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeClient)
	sess, err := h.store.Load()
	require.NoError(t, err)
	sess.Pending = &session.PendingBooking{PickupAddress: "Paris", DestinationAddress: "Orly"}
	require.NoError(t, h.store.Save(sess))

	require.NoError(t, h.run("logout"))
	sess, err = h.store.Load()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
	require.NotNil(t, sess.Pending)
	assert.Equal(t, "Orly", sess.Pending.DestinationAddress)
}

func TestHistoryRequiresLogin(t *testing.T) {
	h := newHarness(t)
	err := h.run("history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vtcctl login")
}

func TestExpiredTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeClient)
	h.backend.status = http.StatusUnauthorized

	err := h.run("history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expirée")

	sess, err := h.store.Load()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
}

func TestAdminCommandsRejectClients(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeClient)
	assert.ErrorIs(t, h.run("admin", "dashboard"), errAdminOnly)
}

func TestAdminDashboard(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeAdmin)
	require.NoError(t, h.run("admin", "dashboard", "--period", "week"))
	assert.Contains(t, h.out.String(), "Tableau de bord (week)")
	assert.Contains(t, h.out.String(), "120,50 €")
}

func TestAdminBookingsFiltersClientSide(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeAdmin)
	for i := 1; i <= 12; i++ {
		status := models.StatusConfirmed
		if i%2 == 0 {
			status = models.StatusPending
		}
		h.backend.bookings = append(h.backend.bookings, models.Booking{
			ID:                 int64(i),
			ConfirmationNumber: fmt.Sprintf("VTC%08X", i),
			Status:             status,
			PickupAddress:      "Paris",
			DestinationAddress: "Orly",
			ScheduledTime:      testNow,
			User:               &models.User{Email: fmt.Sprintf("client%d@example.com", i)},
		})
	}

	require.NoError(t, h.run("admin", "bookings", "--status", "confirmed"))
	out := h.out.String()
	assert.Contains(t, out, "VTC00000001")
	assert.NotContains(t, out, "VTC00000002")
	assert.Contains(t, out, "Page 1/1, 6 résultat(s)")

	h.out.Reset()
	require.NoError(t, h.run("admin", "bookings", "--page", "2"))
	assert.Contains(t, h.out.String(), "VTC0000000B")
	assert.Contains(t, h.out.String(), "Page 2/2, 12 résultat(s)")
}

func TestStatusRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeAdmin)
	err := h.run("admin", "status", "3", "DONE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statut inconnu")
}

func TestInvoicePDFStaysInWorkingDirectory(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.UserTypeClient)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, h.run("invoice", "42", "--pdf"))
	data, err := os.ReadFile(filepath.Join(dir, "facture.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Contains(t, h.out.String(), "Facture enregistrée : facture.pdf")
}

func TestPDFName(t *testing.T) {
	assert.Equal(t, "facture.pdf", pdfName("../../facture.pdf", 3))
	assert.Equal(t, "x.pdf", pdfName(`..\..\x.pdf`, 3))
	assert.Equal(t, "facture_3.pdf", pdfName("", 3))
	assert.Equal(t, "facture_3.pdf", pdfName("..", 3))
	assert.Equal(t, "facture_3.pdf", pdfName("/", 3))
}
