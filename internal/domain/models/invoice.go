package models

import (
	"fmt"
	"time"
)

type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
)

type Invoice struct {
	ID            int64         `json:"id"`
	BookingID     int64         `json:"booking_id"`
	Booking       *Booking      `json:"booking,omitempty"`
	InvoiceNumber string        `json:"invoice_number"`
	Amount        float64       `json:"amount"`
	TaxAmount     float64       `json:"tax_amount"`
	TotalAmount   float64       `json:"total_amount"`
	Status        InvoiceStatus `json:"status"`
	GeneratedAt   time.Time     `json:"generated_at"`
	PDFPath       string        `json:"pdf_path"`
}

// InvoiceNumber formats INV-<YYYYMMDD>-<booking id zero padded>.
func InvoiceNumber(bookingID int64, at time.Time) string {
	return fmt.Sprintf("INV-%s-%06d", at.UTC().Format("20060102"), bookingID)
}
