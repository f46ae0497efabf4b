package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"frenchdriver/internal/bookingflow"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/session"
	"frenchdriver/internal/utils"

	"github.com/spf13/cobra"
)

// tripFlags are the options shared by route, quote and book.
type tripFlags struct {
	from, to string
	vehicle  string
	at       string
}

func (t *tripFlags) bind(cmd *cobra.Command, withBooking bool) {
	f := cmd.Flags()
	f.StringVar(&t.from, "from", "", "adresse de départ")
	f.StringVar(&t.to, "to", "", "adresse d'arrivée")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	if withBooking {
		f.StringVar(&t.vehicle, "vehicle", string(models.VehicleEco), "eco, berline, van ou goldwing")
		f.StringVar(&t.at, "at", "", "heure de prise en charge: HH:MM ou YYYY-MM-DD HH:MM (maintenant par défaut)")
	}
}

// resolve picks the best suggestion for an address typed on the command line.
// An address the geocoder does not know is kept as plain text.
func resolve(ctx context.Context, fl bookingflow.Flow, text string) (bookingflow.Place, error) {
	text = strings.TrimSpace(text)
	list, err := fl.Suggest(ctx, text)
	if err != nil {
		return bookingflow.Place{}, fmt.Errorf("recherche de %q: %w", text, err)
	}
	if len(list) == 0 {
		return bookingflow.Place{Label: text}, nil
	}
	return bookingflow.PlaceFromSuggestion(list[0]), nil
}

func (t tripFlags) draft(ctx context.Context, a *App, fl bookingflow.Flow) (bookingflow.Draft, error) {
	from, err := resolve(ctx, fl, t.from)
	if err != nil {
		return bookingflow.Draft{}, err
	}
	to, err := resolve(ctx, fl, t.to)
	if err != nil {
		return bookingflow.Draft{}, err
	}
	return bookingflow.Draft{
		Pickup:      from,
		Destination: to,
		Vehicle:     models.VehicleType(strings.ToLower(t.vehicle)),
		Schedule:    bookingflow.ParseSchedule(t.at, a.now()),
	}, nil
}

func (a *App) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <adresse>",
		Short: "Rechercher une adresse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			st, sess, err := a.loadSession()
			if err != nil {
				return err
			}
			list, err := a.flow(st, sess).Suggest(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("Aucune adresse trouvée."))
				return nil
			}
			t := newTable("#", "Adresse", "Latitude", "Longitude")
			for i, s := range list {
				t.Row(strconv.Itoa(i+1), s.Label, strconv.FormatFloat(s.Lat, 'f', 5, 64), strconv.FormatFloat(s.Lon, 'f', 5, 64))
			}
			fmt.Fprintln(a.Out, t.Render())
			return nil
		},
	}
}

func (a *App) routeCmd() *cobra.Command {
	var trip tripFlags
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Afficher l'itinéraire entre deux adresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			st, sess, err := a.loadSession()
			if err != nil {
				return err
			}
			fl := a.flow(st, sess)
			d, err := trip.draft(ctx, a, fl)
			if err != nil {
				return err
			}
			p, err := fl.Preview(ctx, d.Pickup, d.Destination)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, titleStyle.Render(d.Pickup.Label+" → "+d.Destination.Label))
			fmt.Fprintf(a.Out, "  Distance : %.1f km\n  Durée    : %d min\n  Points   : %d\n",
				p.Route.DistanceKm, p.Route.DurationMinutes, len(p.Route.Path))
			fmt.Fprintln(a.Out, mutedStyle.Render(fmt.Sprintf("  Emprise  : %.5f,%.5f / %.5f,%.5f",
				p.SouthWest.Latitude, p.SouthWest.Longitude, p.NorthEast.Latitude, p.NorthEast.Longitude)))
			return nil
		},
	}
	trip.bind(cmd, false)
	return cmd
}

func (a *App) quoteCmd() *cobra.Command {
	var trip tripFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimer le prix d'une course",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			st, sess, err := a.loadSession()
			if err != nil {
				return err
			}
			fl := a.flow(st, sess)
			d, err := trip.draft(ctx, a, fl)
			if err != nil {
				return err
			}
			q, err := fl.Estimate(ctx, d)
			if err != nil {
				return a.apiError(st, err)
			}
			renderQuote(a.Out, q, d.Vehicle)
			return nil
		},
	}
	trip.bind(cmd, true)
	return cmd
}

func (a *App) bookCmd() *cobra.Command {
	var trip tripFlags
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Réserver une course",
		Long: `Estime puis réserve la course. Sans session, la réservation est
conservée et envoyée automatiquement à la prochaine connexion.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			st, sess, err := a.loadSession()
			if err != nil {
				return err
			}
			fl := a.flow(st, sess)
			d, err := trip.draft(ctx, a, fl)
			if err != nil {
				return err
			}
			q, err := fl.Estimate(ctx, d)
			if err != nil {
				return a.apiError(st, err)
			}
			renderQuote(a.Out, q, d.Vehicle)
			created, err := fl.Create(ctx, d, q)
			if errors.Is(err, bookingflow.ErrLoginRequired) {
				fmt.Fprintln(a.Out, warnStyle.Render("Réservation mise de côté."), "Connectez-vous avec `vtcctl login` pour la confirmer.")
				return nil
			}
			if err != nil {
				return a.apiError(st, err)
			}
			printCreated(a, created)
			return nil
		},
	}
	trip.bind(cmd, true)
	return cmd
}

func (a *App) historyCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lister mes réservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(false)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			list, err := a.client(sess.Token).MyBookings(ctx, strings.ToUpper(status), limit)
			if err != nil {
				return a.apiError(st, err)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.Out, mutedStyle.Render("Aucune réservation."))
				return nil
			}
			renderBookings(a.Out, list, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filtrer par statut")
	cmd.Flags().IntVar(&limit, "limit", 20, "nombre maximum de réservations")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("identifiant invalide %q", arg)
	}
	return id, nil
}

func (a *App) bookingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "booking <id>",
		Short: "Afficher une réservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, sess, err := a.authed(false)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			b, err := a.client(sess.Token).Booking(ctx, id)
			if err != nil {
				return a.apiError(st, err)
			}
			renderBooking(a.Out, b)
			return nil
		},
	}
}

func (a *App) invoiceCmd() *cobra.Command {
	var output string
	var pdf bool
	cmd := &cobra.Command{
		Use:   "invoice <booking-id>",
		Short: "Afficher ou télécharger la facture d'une course terminée",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, sess, err := a.authed(false)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			api := a.client(sess.Token)
			inv, err := api.Invoice(ctx, id)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "%s  %s  %s\n", titleStyle.Render(inv.InvoiceNumber),
				utils.FormatFrench(inv.GeneratedAt), utils.FormatEuro(inv.TotalAmount))
			if !pdf && output == "" {
				return nil
			}
			return a.savePDF(ctx, st, sess, id, output)
		},
	}
	cmd.Flags().BoolVar(&pdf, "pdf", false, "télécharger le PDF dans le dossier courant")
	cmd.Flags().StringVarP(&output, "output", "o", "", "chemin du PDF à écrire")
	return cmd
}

func (a *App) savePDF(ctx context.Context, st *session.Store, sess session.Session, id int64, output string) error {
	data, name, err := a.client(sess.Token).InvoicePDF(ctx, id)
	if err != nil {
		return a.apiError(st, err)
	}
	if output == "" {
		output = pdfName(name, id)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, okStyle.Render("Facture enregistrée : "+output))
	return nil
}

// pdfName keeps only the last element of the server suggested filename so a
// download always lands in the working directory.
func pdfName(suggested string, id int64) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(suggested), "\\", "/"))
	switch name {
	case ".", "..", "/":
		return fmt.Sprintf("facture_%d.pdf", id)
	}
	return name
}
