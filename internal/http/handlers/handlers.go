package handlers

import "frenchdriver/internal/services"

// Handlers groups the services behind the REST routes. Zero-value services
// work against the shared database connection.
type Handlers struct {
	Auth      services.AuthService
	Bookings  services.BookingService
	Dashboard services.DashboardService
	Dispatch  services.DispatchService
	Drivers   services.DriverService
	Invoices  services.InvoiceService
	Geo       services.GeoService
	Bot       services.TelegramBot

	// TelegramSecret, when set, must match the webhook secret token header.
	TelegramSecret string
}
