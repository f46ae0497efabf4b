package handlers

import (
	"net/http"
	"strings"

	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/dashboard/?period=today|week|month
func (h *Handlers) AdminDashboard(c *gin.Context) {
	period := models.DashboardPeriod(strings.ToLower(strings.TrimSpace(c.Query("period"))))
	dash, err := h.Dashboard.Get(c.Request.Context(), period)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dash)
}

// GET /api/admin/bookings?status=&search=&page=&page_size=
func (h *Handlers) AdminBookings(c *gin.Context) {
	f := models.BookingFilter{
		Status: models.BookingStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if f.Status == "ALL" {
		f.Status = ""
	}
	page := domain.Pagination{Page: queryInt(c, "page", 1), PageSize: queryInt(c, "page_size", 20)}

	list, page, err := h.Bookings.AdminList(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"results": list, "pagination": page})
}

// PATCH|PUT /api/admin/bookings/:id/update/
func (h *Handlers) UpdateBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.BookingUpdateInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	out, err := svc.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(svc.RequestID, "admin", "update_booking", "booking now "+string(out.NewStatus))
	respondOK(c, http.StatusOK, out)
}

// POST /api/admin/dispatch/
func (h *Handlers) AdminDispatch(c *gin.Context) {
	var in models.DispatchInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := h.Dispatch
	svc.Bookings.RequestID = middleware.GetRequestID(c)
	out, err := svc.Dispatch(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(svc.Bookings.RequestID, "admin", "dispatch_"+in.Action, "dispatch done")
	respondOK(c, http.StatusOK, out)
}
