package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/tables"
	"frenchdriver/internal/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C518"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	badgeColors = map[models.BookingStatus]string{
		models.StatusPending:        "245",
		models.StatusConfirmed:      "214",
		models.StatusDriverAssigned: "99",
		models.StatusInProgress:     "33",
		models.StatusCompleted:      "42",
		models.StatusCancelled:      "196",
	}
)

// badge renders a status as a colored label.
func badge(s models.BookingStatus) string {
	color, ok := badgeColors[s]
	if !ok {
		color = "245"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(s.Label())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func customer(b models.Booking) string {
	if b.User == nil {
		return "-"
	}
	return utils.Fallback(b.User.DisplayName(), b.User.Email)
}

func driverName(b models.Booking) string {
	if b.Driver == nil || b.Driver.Name == "" {
		return "-"
	}
	return b.Driver.Name
}

func price(b models.Booking) string {
	return utils.FormatEuro(b.BillableAmount())
}

func renderBookings(w io.Writer, list []models.Booking, withCustomer bool) {
	headers := []string{"#", "Confirmation", "Départ", "Destination", "Heure", "Prix", "Statut"}
	if withCustomer {
		headers = append(headers, "Client", "Chauffeur")
	}
	t := newTable(headers...)
	for _, b := range list {
		row := []string{
			strconv.FormatInt(b.ID, 10),
			b.ConfirmationNumber,
			utils.Truncate(b.PickupAddress, 28),
			utils.Truncate(b.DestinationAddress, 28),
			utils.FormatFrench(b.ScheduledTime),
			price(b),
			badge(b.Status),
		}
		if withCustomer {
			row = append(row, customer(b), driverName(b))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
}

func renderDrivers(w io.Writer, list []models.Driver) {
	t := newTable("#", "Nom", "Téléphone", "Email", "Permis", "Véhicule", "Telegram")
	for _, d := range list {
		tg := warnStyle.Render("non lié")
		if d.CanReceiveNotifications() {
			tg = okStyle.Render("actif")
		}
		t.Row(strconv.FormatInt(d.ID, 10), d.Name, d.PhoneNumber, d.Email, d.LicenseNumber, models.VehicleSummary(d.VehicleInfo), tg)
	}
	fmt.Fprintln(w, t.Render())
}

func renderPageInfo(w io.Writer, info tables.PageInfo) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Page %d/%d, %d résultat(s)", info.Page, info.TotalPages, info.Total)))
}

func renderBooking(w io.Writer, b models.Booking) {
	fmt.Fprintln(w, titleStyle.Render("Réservation "+b.ConfirmationNumber))
	lines := [][2]string{
		{"Statut", badge(b.Status)},
		{"Départ", b.PickupAddress},
		{"Destination", b.DestinationAddress},
		{"Heure prévue", utils.FormatFrench(b.ScheduledTime)},
		{"Véhicule", string(b.VehicleType)},
		{"Prix estimé", utils.FormatEuro(b.EstimatedPrice)},
		{"Chauffeur", driverName(b)},
	}
	if b.FinalPrice != nil {
		lines = append(lines, [2]string{"Prix final", utils.FormatEuro(*b.FinalPrice)})
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %-14s %s\n", l[0]+" :", l[1])
	}
}

func renderQuote(w io.Writer, q models.Quote, vehicle models.VehicleType) {
	source := "tarif serveur"
	if q.Source == models.QuoteLocal {
		source = "tarif indicatif"
	}
	fmt.Fprintln(w, titleStyle.Render("Estimation "+strings.ToUpper(string(vehicle))))
	fmt.Fprintf(w, "  Distance : %.1f km\n  Durée    : %d min\n  Prix     : %s € (%s)\n",
		q.DistanceKm, q.DurationMinutes, utils.FormatMoney(q.Price), mutedStyle.Render(source))
}

func renderDashboard(w io.Writer, d models.Dashboard) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Tableau de bord (%s)", d.Period)))
	t := newTable("Total", "En attente", "Confirmées", "Assignées", "En cours", "Terminées", "Annulées", "CA", "Prix moyen")
	t.Row(
		strconv.Itoa(d.Total), strconv.Itoa(d.Pending), strconv.Itoa(d.Confirmed), strconv.Itoa(d.DriverAssigned),
		strconv.Itoa(d.InProgress), strconv.Itoa(d.Completed), strconv.Itoa(d.Cancelled),
		utils.FormatEuro(d.TotalRevenue), utils.FormatEuro(d.AveragePrice),
	)
	fmt.Fprintln(w, t.Render())
	if len(d.RecentBookings) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Dernières réservations"))
		renderBookings(w, d.RecentBookings, true)
	}
}
