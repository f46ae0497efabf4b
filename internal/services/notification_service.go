package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/events"
	"frenchdriver/internal/notify"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TelegramSender is the part of the Bot API used to reach drivers.
type TelegramSender interface {
	Enabled() bool
	SendMessage(ctx context.Context, chatID string, text string, kb *notify.InlineKeyboard) error
}

type NotificationService struct {
	Mailer   notify.Mailer
	Telegram TelegramSender
	Bookings repositories.BookingRepo
	Drivers  repositories.DriverRepo
	DB       *sql.DB
	Now      func() time.Time
}

func (s NotificationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s NotificationService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s NotificationService) drivers() repositories.DriverRepo {
	if s.Drivers.DB != nil {
		return s.Drivers
	}
	return repositories.DriverRepo{DB: s.db()}
}

func (s NotificationService) mailer() notify.Mailer {
	if s.Mailer != nil {
		return s.Mailer
	}
	return notify.LogMailer{}
}

func (s NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s NotificationService) SendBookingConfirmation(ctx context.Context, b models.Booking) error {
	return s.mailer().Send(ctx, notify.BookingConfirmationEmail(b))
}

func (s NotificationService) SendDriverAssignment(ctx context.Context, b models.Booking) error {
	mail, ok := notify.DriverAssignmentEmail(b)
	if !ok {
		return nil
	}
	return s.mailer().Send(ctx, mail)
}

// NotifyDriver offers b to d by email and, when linked, Telegram.
func (s NotificationService) NotifyDriver(ctx context.Context, d models.Driver, b models.Booking) (emailOK, telegramOK bool) {
	if err := s.mailer().Send(ctx, notify.DriverOfferEmail(d, b)); err != nil {
		utils.L().Warn("driver offer email failed", zap.Int64("driver_id", d.ID), zap.Error(err))
	} else {
		emailOK = true
	}

	if d.CanReceiveNotifications() && s.Telegram != nil && s.Telegram.Enabled() {
		text, kb := notify.DriverOfferTelegram(b)
		if err := s.Telegram.SendMessage(ctx, d.TelegramChatID, text, kb); err != nil {
			utils.L().Warn("driver offer telegram failed", zap.Int64("driver_id", d.ID), zap.Error(err))
		} else {
			telegramOK = true
		}
	}
	return emailOK, telegramOK
}

// broadcastWorkers bounds the drivers notified at once.
const broadcastWorkers = 8

// Broadcast offers b to every driver. A driver counts as contacted when at
// least one channel succeeded; the report keeps the driver list order.
func (s NotificationService) Broadcast(ctx context.Context, b models.Booking) (models.BroadcastReport, error) {
	drivers, err := s.drivers().List(ctx)
	if err != nil {
		return models.BroadcastReport{}, err
	}
	report := models.BroadcastReport{
		BookingID:        b.ID,
		TotalDrivers:     len(drivers),
		DriversContacted: []string{},
		ChannelsUsed:     []string{},
		BroadcastTime:    s.now(),
	}
	type outcome struct{ email, telegram bool }
	results := make([]outcome, len(drivers))
	var g errgroup.Group
	g.SetLimit(broadcastWorkers)
	for i, d := range drivers {
		g.Go(func() error {
			results[i].email, results[i].telegram = s.NotifyDriver(ctx, d, b)
			return nil
		})
	}
	_ = g.Wait()

	channels := map[string]bool{}
	for i, d := range drivers {
		emailOK, tgOK := results[i].email, results[i].telegram
		if emailOK {
			channels["email"] = true
		}
		if tgOK {
			channels["telegram"] = true
		}
		if emailOK || tgOK {
			report.SuccessCount++
			report.DriversContacted = append(report.DriversContacted, d.Name)
		} else {
			report.FailedCount++
		}
	}
	for c := range channels {
		report.ChannelsUsed = append(report.ChannelsUsed, c)
	}
	sort.Strings(report.ChannelsUsed)
	return report, nil
}

// HandleEvent is the notification worker entry point.
func (s NotificationService) HandleEvent(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.BookingCreated, events.BookingDriverAssigned:
	default:
		utils.LogEvent(e.RequestID, "notifications", e.Type, "event recorded")
		return nil
	}

	b, err := s.bookings().GetByID(ctx, e.BookingID)
	if err != nil {
		return err
	}
	if e.Type == events.BookingCreated {
		err = s.SendBookingConfirmation(ctx, b)
	} else {
		err = s.SendDriverAssignment(ctx, b)
	}
	if err != nil {
		return err
	}
	utils.LogEvent(e.RequestID, "notifications", e.Type, "notification sent")
	return nil
}
