package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/notify"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/utils"

	"go.uber.org/zap"
)

// BotAPI is the part of the Telegram client the bot replies through.
type BotAPI interface {
	SendMessage(ctx context.Context, chatID string, text string, kb *notify.InlineKeyboard) error
	EditMessageText(ctx context.Context, chatID int64, messageID int64, text string, kb *notify.InlineKeyboard) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// TelegramBot answers driver commands and offer buttons received on the webhook.
type TelegramBot struct {
	API      BotAPI
	Drivers  repositories.DriverRepo
	Bookings repositories.BookingRepo
	DB       *sql.DB
}

func (s TelegramBot) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s TelegramBot) drivers() repositories.DriverRepo {
	if s.Drivers.DB != nil {
		return s.Drivers
	}
	return repositories.DriverRepo{DB: s.db()}
}

func (s TelegramBot) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s TelegramBot) HandleUpdate(ctx context.Context, u notify.Update) error {
	switch {
	case u.CallbackQuery != nil:
		return s.handleCallback(ctx, u)
	case u.Message != nil:
		return s.handleMessage(ctx, u.Message)
	}
	return nil
}

func command(text string) string {
	f := strings.Fields(text)
	if len(f) == 0 || !strings.HasPrefix(f[0], "/") {
		return ""
	}
	// "/status@FrenchDriverBot" in group chats
	cmd, _, _ := strings.Cut(f[0], "@")
	return strings.ToLower(cmd)
}

func (s TelegramBot) handleMessage(ctx context.Context, m *notify.Message) error {
	chatID := m.Chat.ID
	chat := strconv.FormatInt(chatID, 10)

	var reply string
	switch command(m.Text) {
	case "/start":
		reply = notify.WelcomeTelegram(chatID)
		username := ""
		if m.From != nil {
			username = m.From.Username
		}
		utils.L().Info("telegram driver started bot", zap.Int64("chat_id", chatID), zap.String("username", username))
	case "/help":
		reply = notify.HelpTelegram(chatID)
	case "/status":
		reply = s.statusReply(ctx, chat)
	default:
		reply = notify.FallbackTelegram
	}
	return s.API.SendMessage(ctx, chat, reply, nil)
}

func (s TelegramBot) statusReply(ctx context.Context, chat string) string {
	d, err := s.drivers().GetByTelegramChatID(ctx, chat)
	if err != nil {
		return notify.NotRegisteredTelegram(chat)
	}
	total, active, err := s.driverCounts(ctx, d.ID)
	if err != nil {
		utils.L().Warn("driver counts failed", zap.Int64("driver_id", d.ID), zap.Error(err))
	}
	return notify.StatusTelegram(d, chat, total, active)
}

func (s TelegramBot) driverCounts(ctx context.Context, driverID int64) (int, int, error) {
	total, err := s.bookings().Count(ctx, models.BookingFilter{DriverID: driverID})
	if err != nil {
		return 0, 0, err
	}
	active, err := s.drivers().CountActiveBookings(ctx, driverID)
	return total, active, err
}

// parseCallback splits "booking_<action>_<id>".
func parseCallback(data string) (string, int64, error) {
	for _, prefix := range []string{notify.CallbackAccept, notify.CallbackRefuse, notify.CallbackRoute} {
		if rest, ok := strings.CutPrefix(data, prefix); ok {
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil || id <= 0 {
				return "", 0, fmt.Errorf("invalid booking id in %q", data)
			}
			return prefix, id, nil
		}
	}
	return "", 0, fmt.Errorf("unknown callback %q", data)
}

func (s TelegramBot) handleCallback(ctx context.Context, u notify.Update) error {
	q := u.CallbackQuery
	if err := s.API.AnswerCallbackQuery(ctx, q.ID); err != nil {
		utils.L().Warn("answer callback failed", zap.Error(err))
	}
	chatID := u.ChatID()
	var messageID int64
	if q.Message != nil {
		messageID = q.Message.MessageID
	}
	edit := func(text string, kb *notify.InlineKeyboard) error {
		return s.API.EditMessageText(ctx, chatID, messageID, text, kb)
	}

	d, err := s.drivers().GetByTelegramChatID(ctx, strconv.FormatInt(chatID, 10))
	if err != nil {
		if domain.IsNotFound(err) {
			return edit(notify.NotRegisteredCallback, nil)
		}
		_ = edit(notify.CallbackErrorTelegram, nil)
		return err
	}

	action, bookingID, err := parseCallback(q.Data)
	if err != nil {
		_ = edit(notify.CallbackErrorTelegram, nil)
		return domain.ValidationError{Field: "callback_data", Msg: err.Error()}
	}

	if action == notify.CallbackRefuse {
		utils.L().Info("offer refused on telegram", zap.Int64("booking_id", bookingID), zap.String("driver", d.Name))
		return edit(notify.RefusedTelegram(d), nil)
	}

	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return edit(notify.NotFoundTelegram, nil)
		}
		_ = edit(notify.CallbackErrorTelegram, nil)
		return err
	}

	if action == notify.CallbackRoute {
		text, kb := notify.RouteTelegram(b)
		return edit(text, kb)
	}

	// accept is acknowledged only; the dispatcher confirms the assignment
	if b.Status != models.StatusPending {
		return edit(notify.UnavailableTelegram, nil)
	}
	utils.L().Info("offer accepted on telegram", zap.Int64("booking_id", bookingID), zap.String("driver", d.Name))
	return edit(notify.AcceptedTelegram(d, b), nil)
}
