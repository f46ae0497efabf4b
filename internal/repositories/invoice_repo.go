package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "frenchdriver/internal/config"
	intdb "frenchdriver/internal/db"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
)

type InvoiceRepo struct {
	DB *sql.DB
}

func (r InvoiceRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r InvoiceRepo) GetByBookingID(ctx context.Context, bookingID int64) (models.Invoice, error) {
	db := r.db()
	if db == nil {
		return models.Invoice{}, domain.InternalError{Msg: "database not available"}
	}
	var inv models.Invoice
	var status string
	err := db.QueryRowContext(ctx, `
		SELECT id, booking_id, invoice_number, amount, tax_amount, total_amount, status, generated_at, COALESCE(pdf_path, '')
		FROM invoices WHERE booking_id = ? LIMIT 1
	`, bookingID).Scan(&inv.ID, &inv.BookingID, &inv.InvoiceNumber, &inv.Amount, &inv.TaxAmount,
		&inv.TotalAmount, &status, &inv.GeneratedAt, &inv.PDFPath)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, domain.NotFoundError{Resource: "invoice", Err: err}
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	inv.Status = models.InvoiceStatus(status)
	return inv, nil
}

// Create stores inv. A second invoice for the same booking is a ConflictError.
func (r InvoiceRepo) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	db := r.db()
	if db == nil {
		return models.Invoice{}, domain.InternalError{Msg: "database not available"}
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceIssued
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO invoices (booking_id, invoice_number, amount, tax_amount, total_amount, status, generated_at, pdf_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.BookingID, inv.InvoiceNumber, inv.Amount, inv.TaxAmount, inv.TotalAmount, string(inv.Status),
		inv.GeneratedAt, intdb.NullIfEmpty(inv.PDFPath))
	if err != nil {
		if intdb.IsDuplicate(err) {
			return models.Invoice{}, domain.ConflictError{Resource: "invoice", Msg: "facture déjà générée", Err: err}
		}
		return models.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Invoice{}, fmt.Errorf("invoice id: %w", err)
	}
	inv.ID = id
	return inv, nil
}
