package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/repositories"
	"frenchdriver/internal/utils"

	"github.com/phpdave11/gofpdf"
)

type InvoiceService struct {
	Invoices repositories.InvoiceRepo
	Bookings repositories.BookingRepo
	DB       *sql.DB
	Now      func() time.Time

	// Loader replaces the database lookup in PDF generation (tests).
	Loader func(ctx context.Context, bookingID int64) (models.Invoice, error)
}

func (s InvoiceService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s InvoiceService) invoices() repositories.InvoiceRepo {
	if s.Invoices.DB != nil {
		return s.Invoices
	}
	return repositories.InvoiceRepo{DB: s.db()}
}

func (s InvoiceService) bookings() repositories.BookingRepo {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s InvoiceService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Generate issues the invoice of a completed booking. Calling it twice
// returns the invoice created the first time.
func (s InvoiceService) Generate(ctx context.Context, b models.Booking) (models.Invoice, error) {
	if b.Status != models.StatusCompleted {
		return models.Invoice{}, domain.ValidationError{Field: "status", Msg: "la course n'est pas terminée"}
	}
	existing, err := s.invoices().GetByBookingID(ctx, b.ID)
	if err == nil {
		return existing, nil
	}
	if !domain.IsNotFound(err) {
		return models.Invoice{}, err
	}

	now := s.now()
	amount := utils.Round2(b.BillableAmount())
	inv, err := s.invoices().Create(ctx, models.Invoice{
		BookingID:     b.ID,
		InvoiceNumber: models.InvoiceNumber(b.ID, now),
		Amount:        amount,
		TaxAmount:     0,
		TotalAmount:   amount,
		Status:        models.InvoiceIssued,
		GeneratedAt:   now,
	})
	if domain.IsConflict(err) {
		return s.invoices().GetByBookingID(ctx, b.ID)
	}
	return inv, err
}

// Get returns the invoice of a booking with the booking attached, for its
// owner or an admin.
func (s InvoiceService) Get(ctx context.Context, rc domain.RequestContext, bookingID int64) (models.Invoice, error) {
	b, err := s.bookings().GetByID(ctx, bookingID)
	if err != nil {
		return models.Invoice{}, err
	}
	if !rc.IsAdmin() && b.UserID != rc.UserID {
		return models.Invoice{}, domain.ForbiddenError{Msg: "accès refusé à cette facture"}
	}
	inv, err := s.invoices().GetByBookingID(ctx, bookingID)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Booking = &b
	return inv, nil
}

// PDF renders the invoice of a booking.
func (s InvoiceService) PDF(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]byte, string, error) {
	var inv models.Invoice
	var err error
	if s.Loader != nil {
		inv, err = s.Loader(ctx, bookingID)
	} else {
		inv, err = s.Get(ctx, rc, bookingID)
	}
	if err != nil {
		return nil, "", err
	}
	if inv.Booking == nil {
		return nil, "", domain.InternalError{Msg: "facture sans réservation"}
	}
	return buildInvoicePDF(inv)
}

func buildInvoicePDF(inv models.Invoice) ([]byte, string, error) {
	b := inv.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	// cp1252 covers accents and the euro sign with the core fonts
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Facture "+inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FACTURE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, tr("N° facture   : "+inv.InvoiceNumber))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr("Date         : "+utils.FormatFrench(inv.GeneratedAt)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr("Réservation  : #"+b.ConfirmationNumber))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, tr("Facturé à :"))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	name, email, phone := "-", "-", "-"
	if b.User != nil {
		name = utils.Fallback(b.User.DisplayName(), "-")
		email = utils.Fallback(b.User.Email, "-")
		phone = utils.Fallback(b.User.PhoneNumber, "-")
	}
	for _, line := range []string{
		"Nom        : " + name,
		"Email      : " + email,
		"Téléphone  : " + phone,
	} {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, tr("Détail de la course :"))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("Course VTC %s -> %s, le %s",
		utils.Fallback(b.PickupAddress, "-"), utils.Fallback(b.DestinationAddress, "-"), utils.FormatFrench(b.ScheduledTime))
	pdf.MultiCell(0, 6, tr(desc), "", "", false)
	if b.Driver != nil {
		pdf.MultiCell(0, 6, tr("Chauffeur : "+b.Driver.Name+" ("+models.VehicleSummary(b.Driver.VehicleInfo)+")"), "", "", false)
	}
	pdf.Ln(4)

	pdf.Cell(0, 6, tr("Montant HT : "+utils.FormatEuro(inv.Amount)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("TVA        : "+utils.FormatEuro(inv.TaxAmount)))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr("Total TTC  : "+utils.FormatEuro(inv.TotalAmount)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, tr("Merci d'avoir voyagé avec French Driver."), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("FACTURE_%s.pdf", utils.SafeFilenamePart(inv.InvoiceNumber))
	return buf.Bytes(), filename, nil
}
