package models

import (
	"strings"
	"time"
)

const vehicleSummaryLen = 50

type Driver struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	PhoneNumber          string    `json:"phone_number"`
	Email                string    `json:"email"`
	LicenseNumber        string    `json:"license_number"`
	VehicleInfo          string    `json:"vehicle_info"`
	VehicleSummary       string    `json:"vehicle_summary"`
	TelegramChatID       string    `json:"telegram_chat_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// Decorate fills the derived fields exposed to API clients.
func (d *Driver) Decorate() {
	d.VehicleSummary = VehicleSummary(d.VehicleInfo)
}

// VehicleSummary keeps the first 50 characters of the vehicle description.
func VehicleSummary(info string) string {
	r := []rune(info)
	if len(r) > vehicleSummaryLen {
		return string(r[:vehicleSummaryLen]) + "..."
	}
	return info
}

// CanReceiveNotifications is true when a Telegram chat is linked and enabled.
func (d Driver) CanReceiveNotifications() bool {
	return d.NotificationsEnabled && strings.TrimSpace(d.TelegramChatID) != ""
}

// DriverInput is the payload of POST /api/drivers/create/.
type DriverInput struct {
	Name                 string `json:"name" binding:"required,max=100"`
	PhoneNumber          string `json:"phone_number" binding:"required,max=17"`
	Email                string `json:"email" binding:"required,email"`
	LicenseNumber        string `json:"license_number" binding:"required,max=50"`
	VehicleInfo          string `json:"vehicle_info" binding:"required"`
	TelegramChatID       string `json:"telegram_chat_id"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}
