package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"frenchdriver/internal/client"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/tables"
	"frenchdriver/internal/utils"

	"github.com/spf13/cobra"
)

// fetchPageSize is the page size used to pull the whole admin list.
const fetchPageSize = 100

func (a *App) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office : tableau de bord, réservations et chauffeurs",
	}
	cmd.AddCommand(
		a.dashboardCmd(), a.adminBookingsCmd(), a.statusCmd(),
		a.assignCmd(), a.broadcastCmd(), a.driversCmd(), a.driverCreateCmd(),
	)
	return cmd
}

func (a *App) dashboardCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Statistiques de la période",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			d, err := a.client(sess.Token).Dashboard(ctx, period)
			if err != nil {
				return a.apiError(st, err)
			}
			renderDashboard(a.Out, d)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", string(models.PeriodToday), "today, week ou month")
	return cmd
}

// allBookings walks the server pages until the list is complete.
func allBookings(ctx context.Context, api *client.Client) ([]models.Booking, error) {
	var out []models.Booking
	for page := 1; ; page++ {
		res, err := api.AdminBookings(ctx, "", "", page, fetchPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Results...)
		if len(res.Results) < fetchPageSize || (res.Pagination.Total > 0 && len(out) >= res.Pagination.Total) {
			return out, nil
		}
	}
}

func (a *App) adminBookingsCmd() *cobra.Command {
	var state tables.State
	var search, status string
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Lister toutes les réservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			list, err := allBookings(ctx, a.client(sess.Token))
			if err != nil {
				return a.apiError(st, err)
			}
			page := state.Page
			state.SetFilter(tables.Filter{Search: search, Status: strings.ToUpper(status)})
			state.SetPage(page)
			rows, info := tables.Bookings(list, state)
			if len(rows) == 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("Aucune réservation ne correspond."))
				return nil
			}
			renderBookings(a.Out, rows, true)
			renderPageInfo(a.Out, info)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "confirmation, email, nom ou téléphone")
	cmd.Flags().StringVar(&status, "status", tables.StatusAll, "statut ou ALL")
	cmd.Flags().IntVar(&state.Page, "page", 1, "page à afficher")
	return cmd
}

func (a *App) statusCmd() *cobra.Command {
	var finalPrice float64
	cmd := &cobra.Command{
		Use:   "status <booking-id> <STATUT>",
		Short: "Changer le statut d'une réservation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			next := models.BookingStatus(strings.ToUpper(args[1]))
			if !next.Valid() {
				return fmt.Errorf("statut inconnu %q", args[1])
			}
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			in := models.BookingUpdateInput{Status: &next}
			if cmd.Flags().Changed("final-price") {
				p := models.Amount(utils.Round2(finalPrice))
				in.FinalPrice = &p
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			res, err := a.client(sess.Token).UpdateBooking(ctx, id, in)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "Réservation %d : %s\n", res.BookingID, badge(res.NewStatus))
			return nil
		},
	}
	cmd.Flags().Float64Var(&finalPrice, "final-price", 0, "prix final facturé")
	return cmd
}

func (a *App) assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <booking-id> <driver-id>",
		Short: "Assigner un chauffeur",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookingID, err := parseID(args[0])
			if err != nil {
				return err
			}
			driverID, err := parseID(args[1])
			if err != nil {
				return err
			}
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			res, err := a.client(sess.Token).AssignDriver(ctx, bookingID, driverID)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "%s chauffeur %d sur la réservation %d\n", okStyle.Render("Assigné :"), res.DriverID, res.BookingID)
			return nil
		},
	}
}

func (a *App) broadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <booking-id>",
		Short: "Proposer la course à tous les chauffeurs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			r, err := a.client(sess.Token).Broadcast(ctx, id)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "%s %d/%d chauffeur(s) contacté(s), %d échec(s)\n",
				titleStyle.Render("Diffusion :"), r.SuccessCount, r.TotalDrivers, r.FailedCount)
			if len(r.DriversContacted) > 0 {
				names := append([]string(nil), r.DriversContacted...)
				sort.Strings(names)
				fmt.Fprintln(a.Out, "  "+strings.Join(names, ", "))
			}
			if len(r.ChannelsUsed) > 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("  canaux : "+strings.Join(r.ChannelsUsed, ", ")))
			}
			return nil
		},
	}
}

func (a *App) driversCmd() *cobra.Command {
	var state tables.State
	var search string
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Lister les chauffeurs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			list, err := a.client(sess.Token).Drivers(ctx)
			if err != nil {
				return a.apiError(st, err)
			}
			page := state.Page
			state.SetFilter(tables.Filter{Search: search})
			state.SetPage(page)
			rows, info := tables.Drivers(list, state)
			if len(rows) == 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("Aucun chauffeur."))
				return nil
			}
			renderDrivers(a.Out, rows)
			renderPageInfo(a.Out, info)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "nom, téléphone, email ou permis")
	cmd.Flags().IntVar(&state.Page, "page", 1, "page à afficher")
	return cmd
}

func (a *App) driverCreateCmd() *cobra.Command {
	var in models.DriverInput
	var notify bool
	cmd := &cobra.Command{
		Use:   "driver-create",
		Short: "Enregistrer un chauffeur",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(true)
			if err != nil {
				return err
			}
			in.NotificationsEnabled = &notify
			ctx, cancel := commandContext(cmd)
			defer cancel()
			d, err := a.client(sess.Token).CreateDriver(ctx, in)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "%s %s (#%d)\n", okStyle.Render("Chauffeur enregistré :"), d.Name, d.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "nom complet")
	f.StringVar(&in.PhoneNumber, "phone", "", "téléphone")
	f.StringVar(&in.Email, "email", "", "email")
	f.StringVar(&in.LicenseNumber, "license", "", "numéro de carte VTC")
	f.StringVar(&in.VehicleInfo, "vehicle", "", "description du véhicule")
	f.StringVar(&in.TelegramChatID, "telegram-chat", "", "identifiant du chat Telegram")
	f.BoolVar(&notify, "notifications", true, "recevoir les courses sur Telegram")
	for _, name := range []string{"name", "phone", "email", "license", "vehicle"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
