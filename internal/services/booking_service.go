package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/events"
	"frenchdriver/internal/pricing"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	confirmationAttempts = 3

	// scheduleGrace tolerates clock skew on "now" pickups.
	scheduleGrace = 5 * time.Minute
)

// NewConfirmationNumber returns "VTC" followed by 8 uppercase hex characters.
func NewConfirmationNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "VTC" + strings.ToUpper(hex[:8])
}

type BookingService struct {
	Bookings repositories.BookingRepo
	Drivers  repositories.DriverRepo
	Invoices InvoiceService
	Events   events.Publisher
	DB       *sql.DB
	Now      func() time.Time

	// RequestID tags published events with the HTTP request that caused them.
	RequestID string

	// NewConfirmation overrides NewConfirmationNumber in tests.
	NewConfirmation func() string
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s BookingService) drivers() repositories.DriverRepo {
	if s.Drivers.DB != nil {
		return s.Drivers
	}
	return repositories.DriverRepo{DB: s.db()}
}

func (s BookingService) invoices() InvoiceService {
	inv := s.Invoices
	if inv.DB == nil {
		inv.DB = s.db()
	}
	if inv.Now == nil {
		inv.Now = s.Now
	}
	return inv
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s BookingService) confirmation() string {
	if s.NewConfirmation != nil {
		return s.NewConfirmation()
	}
	return NewConfirmationNumber()
}

func (s BookingService) publish(ctx context.Context, e events.Event) {
	if s.Events == nil {
		return
	}
	if e.RequestID == "" {
		e.RequestID = s.RequestID
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		utils.L().Warn("publish booking event failed",
			zap.String("type", e.Type),
			zap.Int64("booking_id", e.BookingID),
			zap.Error(err))
	}
}

// Estimate prices a trip with the server tariff.
func (s BookingService) Estimate(in models.EstimateInput) (models.Estimate, error) {
	if strings.TrimSpace(in.PickupAddress) == "" || strings.TrimSpace(in.DestinationAddress) == "" {
		return models.Estimate{}, domain.ValidationError{Field: "pickup_address", Msg: "adresses de départ et de destination requises"}
	}
	if in.VehicleType != "" && !in.VehicleType.Valid() {
		return models.Estimate{}, domain.ValidationError{Field: "vehicle_type", Msg: "type de véhicule invalide"}
	}
	pickup, dest := pricing.ResolveEndpoints(in)
	return pricing.Estimate(pickup, dest), nil
}

// Create stores a PENDING booking for the caller. With full coordinates the
// price is recomputed server side; otherwise the client estimate is kept.
func (s BookingService) Create(ctx context.Context, rc domain.RequestContext, in models.CreateBookingInput) (models.BookingCreated, error) {
	if rc.UserID <= 0 {
		return models.BookingCreated{}, domain.UnauthorizedError{Msg: "authentification requise"}
	}
	pickupAddr := strings.TrimSpace(in.PickupAddress)
	destAddr := strings.TrimSpace(in.DestinationAddress)
	if pickupAddr == "" || destAddr == "" {
		return models.BookingCreated{}, domain.ValidationError{Field: "pickup_address", Msg: "adresses de départ et de destination requises"}
	}
	if in.ScheduledTime.IsZero() {
		return models.BookingCreated{}, domain.ValidationError{Field: "scheduled_time", Msg: "heure de prise en charge requise"}
	}
	now := s.now()
	if in.ScheduledTime.Before(now.Add(-scheduleGrace)) {
		return models.BookingCreated{}, domain.ValidationError{Field: "scheduled_time", Msg: "heure de prise en charge déjà passée"}
	}
	if in.VehicleType != "" && !in.VehicleType.Valid() {
		return models.BookingCreated{}, domain.ValidationError{Field: "vehicle_type", Msg: "type de véhicule invalide"}
	}

	pickup, dest := pricing.ResolveEndpoints(models.EstimateInput{
		PickupLatitude:       in.PickupLatitude,
		PickupLongitude:      in.PickupLongitude,
		DestinationLatitude:  in.DestinationLatitude,
		DestinationLongitude: in.DestinationLongitude,
	})
	price := utils.Round2(in.EstimatedPrice.Float())
	if in.HasCoordinates() {
		price = pricing.Estimate(pickup, dest).EstimatedPrice
	}
	if price <= 0 {
		return models.BookingCreated{}, domain.ValidationError{Field: "estimated_price", Msg: "prix estimé invalide"}
	}

	b := models.Booking{
		UserID:               rc.UserID,
		PickupAddress:        pickupAddr,
		PickupLatitude:       pickup.Latitude,
		PickupLongitude:      pickup.Longitude,
		DestinationAddress:   destAddr,
		DestinationLatitude:  dest.Latitude,
		DestinationLongitude: dest.Longitude,
		VehicleType:          in.VehicleType.APIType(),
		EstimatedPrice:       price,
		Status:               models.StatusPending,
		ScheduledTime:        in.ScheduledTime.UTC(),
		CreatedAt:            now,
	}

	var id int64
	var err error
	for attempt := 0; attempt < confirmationAttempts; attempt++ {
		b.ConfirmationNumber = s.confirmation()
		id, err = s.bookings().Create(ctx, b)
		if err == nil || !domain.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return models.BookingCreated{}, domain.InternalError{Msg: "création de la réservation impossible", Err: err}
	}

	e := events.New(events.BookingCreated, id)
	e.Status = string(b.Status)
	s.publish(ctx, e)

	return models.BookingCreated{
		BookingID:          id,
		ConfirmationNumber: b.ConfirmationNumber,
		Status:             b.Status,
		EstimatedPrice:     b.EstimatedPrice,
	}, nil
}

// Get returns a booking visible to the caller: its owner or an admin.
func (s BookingService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.Booking, error) {
	b, err := s.bookings().GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if !rc.IsAdmin() && b.UserID != rc.UserID {
		return models.Booking{}, domain.ForbiddenError{Msg: "accès refusé à cette réservation"}
	}
	return b, nil
}

// ListForUser returns the bookings of userID, newest first.
func (s BookingService) ListForUser(ctx context.Context, rc domain.RequestContext, userID int64, status models.BookingStatus, limit int) ([]models.Booking, error) {
	if !rc.IsAdmin() && userID != rc.UserID {
		return nil, domain.ForbiddenError{Msg: "accès refusé"}
	}
	if status != "" && !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "statut invalide"}
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.bookings().List(ctx, models.BookingFilter{UserID: userID, Status: status, Limit: limit})
}

// AdminList pages through every booking.
func (s BookingService) AdminList(ctx context.Context, f models.BookingFilter, page domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, page, domain.ValidationError{Field: "status", Msg: "statut invalide"}
	}
	if page.PageSize <= 0 || page.PageSize > 100 {
		page.PageSize = 20
	}
	if page.Page <= 0 {
		page.Page = 1
	}
	total, err := s.bookings().Count(ctx, f)
	if err != nil {
		return nil, page, err
	}
	f.Limit = page.PageSize
	f.Offset = page.Offset()
	list, err := s.bookings().List(ctx, f)
	if err != nil {
		return nil, page, err
	}
	page.Total = total
	return list, page, nil
}

// Update applies an admin change. Assigning a driver moves the booking to
// DRIVER_ASSIGNED; any other status change must follow the lifecycle.
func (s BookingService) Update(ctx context.Context, id int64, in models.BookingUpdateInput) (models.BookingUpdated, error) {
	b, err := s.bookings().GetByID(ctx, id)
	if err != nil {
		return models.BookingUpdated{}, err
	}
	now := s.now()
	patch := repositories.BookingPatch{UpdatedAt: now}
	current := b.Status
	next := current
	assigned := false

	if in.DriverID != nil && (b.DriverID == nil || *b.DriverID != *in.DriverID) {
		if !b.CanBeCancelled() {
			return models.BookingUpdated{}, domain.ValidationError{Field: "driver", Msg: "Cette réservation ne peut plus être modifiée."}
		}
		if _, err := s.drivers().GetByID(ctx, *in.DriverID); err != nil {
			if domain.IsNotFound(err) {
				return models.BookingUpdated{}, domain.ValidationError{Field: "driver", Msg: "Chauffeur introuvable.", Err: err}
			}
			return models.BookingUpdated{}, err
		}
		patch.DriverID = in.DriverID
		next = models.StatusDriverAssigned
		assigned = true
	}

	// An explicit status is checked against the stored one, even when a
	// driver change in the same patch implies DRIVER_ASSIGNED.
	if in.Status != nil {
		if !in.Status.Valid() {
			return models.BookingUpdated{}, domain.ValidationError{Field: "status", Msg: "statut invalide"}
		}
		if !current.CanTransitionTo(*in.Status) {
			return models.BookingUpdated{}, domain.ValidationError{
				Field: "status",
				Msg:   fmt.Sprintf("Transition de %s vers %s non autorisée.", current, *in.Status),
			}
		}
		next = *in.Status
	}
	if next != current {
		patch.Status = &next
	}
	if next == models.StatusCompleted && current != models.StatusCompleted {
		patch.CompletedAt = &now
	}

	if in.FinalPrice != nil {
		v := utils.Round2(in.FinalPrice.Float())
		if v < 0 {
			return models.BookingUpdated{}, domain.ValidationError{Field: "final_price", Msg: "prix final invalide"}
		}
		patch.FinalPrice = &v
	}

	if err := s.bookings().Update(ctx, id, patch); err != nil {
		return models.BookingUpdated{}, err
	}

	if assigned {
		e := events.New(events.BookingDriverAssigned, id)
		e.DriverID = *in.DriverID
		e.Status = string(next)
		s.publish(ctx, e)
	}
	if next != current {
		e := events.New(events.BookingStatusChanged, id)
		e.Status = string(next)
		e.PrevStatus = string(current)
		s.publish(ctx, e)
	}
	if patch.CompletedAt != nil {
		b.Status = next
		b.CompletedAt = patch.CompletedAt
		if patch.FinalPrice != nil {
			b.FinalPrice = patch.FinalPrice
		}
		if _, err := s.invoices().Generate(ctx, b); err != nil {
			utils.L().Error("invoice generation failed", zap.Int64("booking_id", id), zap.Error(err))
		}
	}

	return models.BookingUpdated{BookingID: id, NewStatus: next, UpdatedAt: now}, nil
}

// AssignDriver attaches driverID to the booking and sets DRIVER_ASSIGNED.
func (s BookingService) AssignDriver(ctx context.Context, bookingID, driverID int64) (models.Assignment, error) {
	if driverID <= 0 {
		return models.Assignment{}, domain.ValidationError{Field: "driver_id", Msg: "L'assignation nécessite un ID de chauffeur."}
	}
	upd, err := s.Update(ctx, bookingID, models.BookingUpdateInput{DriverID: &driverID})
	if err != nil {
		return models.Assignment{}, err
	}
	return models.Assignment{BookingID: bookingID, DriverID: driverID, AssignmentTime: upd.UpdatedAt}, nil
}
