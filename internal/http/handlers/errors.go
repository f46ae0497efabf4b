package handlers

import (
	"errors"
	"net/http"

	"frenchdriver/internal/domain"
	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorBody is the "error" member of a failed envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		var details any
		msg := err.Error()
		var ve domain.ValidationError
		if errors.As(err, &ve) {
			if ve.Msg != "" {
				msg = ve.Msg
			}
			if ve.Field != "" {
				details = gin.H{"field": ve.Field}
			}
		}
		respondError(c, http.StatusBadRequest, "validation_error", msg, details)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", messageOf(err), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", messageOf(err), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", "Ressource introuvable.", nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", messageOf(err), nil)
	default:
		utils.L().Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "Une erreur interne est survenue.", nil)
	}
}

// messageOf returns the user facing message carried by a domain error.
func messageOf(err error) string {
	var (
		ue domain.UnauthorizedError
		fe domain.ForbiddenError
		ce domain.ConflictError
	)
	switch {
	case errors.As(err, &ue) && ue.Msg != "":
		return ue.Msg
	case errors.As(err, &fe) && fe.Msg != "":
		return fe.Msg
	case errors.As(err, &ce) && ce.Msg != "":
		return ce.Msg
	}
	return err.Error()
}
