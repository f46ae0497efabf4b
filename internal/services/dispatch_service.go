package services

import (
	"context"

	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/events"
)

const (
	DispatchAssign    = "assign"
	DispatchBroadcast = "broadcast"
)

// DispatchService publishes through Bookings.Events.
type DispatchService struct {
	Bookings      BookingService
	Notifications NotificationService
}

// Dispatch assigns a driver or broadcasts the booking to all drivers. The
// result is a models.Assignment or a models.BroadcastReport.
func (s DispatchService) Dispatch(ctx context.Context, in models.DispatchInput) (any, error) {
	if in.Action != DispatchAssign && in.Action != DispatchBroadcast {
		return nil, domain.ValidationError{Field: "action", Msg: "action invalide"}
	}
	if in.Action == DispatchAssign && (in.DriverID == nil || *in.DriverID <= 0) {
		return nil, domain.ValidationError{Field: "driver_id", Msg: "L'assignation nécessite un ID de chauffeur."}
	}

	b, err := s.Bookings.bookings().GetByID(ctx, in.BookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ValidationError{Field: "booking_id", Msg: "Réservation introuvable.", Err: err}
		}
		return nil, err
	}
	if !b.CanBeCancelled() {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "Cette réservation ne peut plus être modifiée."}
	}

	if in.Action == DispatchAssign {
		return s.Bookings.AssignDriver(ctx, b.ID, *in.DriverID)
	}

	report, err := s.Notifications.Broadcast(ctx, b)
	if err != nil {
		return nil, err
	}
	s.Bookings.publish(ctx, events.New(events.BookingBroadcast, b.ID))
	return report, nil
}
