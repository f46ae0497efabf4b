package handlers

import (
	"net/http"

	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/notify"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// POST /api/telegram/webhook
//
// Bot errors are logged and still answered with 200 so Telegram does not
// redeliver the update.
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	if h.TelegramSecret != "" && c.GetHeader(telegramSecretHeader) != h.TelegramSecret {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Secret webhook invalide.", nil)
		return
	}
	if h.Bot.API == nil {
		respondError(c, http.StatusServiceUnavailable, "telegram_disabled", "Bot Telegram non configuré.", nil)
		return
	}
	var u notify.Update
	if !BindJSONOrError(c, &u) {
		return
	}
	if err := h.Bot.HandleUpdate(c.Request.Context(), u); err != nil {
		utils.L().Warn("telegram update failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int64("update_id", u.UpdateID),
			zap.Error(err))
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
