package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"
)

func (c *Client) Register(ctx context.Context, in models.RegisterInput) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register/", nil, in, &out)
	return out.User, err
}

func (c *Client) Login(ctx context.Context, login, password string) (models.LoginResult, error) {
	var out models.LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login/", nil, models.LoginInput{Username: login, Password: password}, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/api/auth/profile/", nil, nil, &out)
	return out, err
}

func (c *Client) Estimate(ctx context.Context, in models.EstimateInput) (models.Estimate, error) {
	var out models.Estimate
	err := c.do(ctx, http.MethodPost, "/api/bookings/estimate/", nil, in, &out)
	return out, err
}

func (c *Client) CreateBooking(ctx context.Context, in models.CreateBookingInput) (models.BookingCreated, error) {
	var out models.BookingCreated
	err := c.do(ctx, http.MethodPost, "/api/bookings/create/", nil, in, &out)
	return out, err
}

func (c *Client) Booking(ctx context.Context, id int64) (models.Booking, error) {
	var out models.Booking
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/bookings/%d/", id), nil, nil, &out)
	return out, err
}

func historyQuery(status string, limit int) url.Values {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// MyBookings lists the caller's bookings, newest first.
func (c *Client) MyBookings(ctx context.Context, status string, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := c.do(ctx, http.MethodGet, "/api/me/bookings", historyQuery(status, limit), nil, &out)
	return out, err
}

func (c *Client) UserBookings(ctx context.Context, userID int64, status string, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/bookings/user/%d/", userID), historyQuery(status, limit), nil, &out)
	return out, err
}

func (c *Client) SearchAddress(ctx context.Context, query string) ([]geo.Suggestion, error) {
	var out []geo.Suggestion
	err := c.do(ctx, http.MethodGet, "/api/geo/search", url.Values{"q": {query}}, nil, &out)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context, period string) (models.Dashboard, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	var out models.Dashboard
	err := c.do(ctx, http.MethodGet, "/api/admin/dashboard/", q, nil, &out)
	return out, err
}

// BookingPage is one page of the admin booking list.
type BookingPage struct {
	Results    []models.Booking  `json:"results"`
	Pagination domain.Pagination `json:"pagination"`
}

func (c *Client) AdminBookings(ctx context.Context, status, search string, page, pageSize int) (BookingPage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var out BookingPage
	err := c.do(ctx, http.MethodGet, "/api/admin/bookings", q, nil, &out)
	return out, err
}

func (c *Client) UpdateBooking(ctx context.Context, id int64, in models.BookingUpdateInput) (models.BookingUpdated, error) {
	var out models.BookingUpdated
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d/update/", id), nil, in, &out)
	return out, err
}

func (c *Client) AssignDriver(ctx context.Context, bookingID, driverID int64) (models.Assignment, error) {
	var out models.Assignment
	err := c.do(ctx, http.MethodPost, "/api/admin/dispatch/", nil,
		models.DispatchInput{BookingID: bookingID, DriverID: &driverID, Action: "assign"}, &out)
	return out, err
}

func (c *Client) Broadcast(ctx context.Context, bookingID int64) (models.BroadcastReport, error) {
	var out models.BroadcastReport
	err := c.do(ctx, http.MethodPost, "/api/admin/dispatch/", nil,
		models.DispatchInput{BookingID: bookingID, Action: "broadcast"}, &out)
	return out, err
}

func (c *Client) Drivers(ctx context.Context) ([]models.Driver, error) {
	var out []models.Driver
	err := c.do(ctx, http.MethodGet, "/api/drivers/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateDriver(ctx context.Context, in models.DriverInput) (models.Driver, error) {
	var out models.Driver
	err := c.do(ctx, http.MethodPost, "/api/drivers/create/", nil, in, &out)
	return out, err
}

func (c *Client) Invoice(ctx context.Context, bookingID int64) (models.Invoice, error) {
	var out models.Invoice
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/invoices/%d/", bookingID), nil, nil, &out)
	return out, err
}

// InvoicePDF downloads the invoice document and its suggested filename.
func (c *Client) InvoicePDF(ctx context.Context, bookingID int64) ([]byte, string, error) {
	return c.download(ctx, fmt.Sprintf("/api/invoices/%d/pdf", bookingID))
}
