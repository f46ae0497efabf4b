package cli

import (
	"fmt"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/session"

	"github.com/spf13/cobra"
)

func (a *App) registerCmd() *cobra.Command {
	var in models.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Créer un compte client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			in.PasswordConfirm = in.Password
			u, err := a.client("").Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, okStyle.Render("Compte créé pour "+u.Username+"."), "Connectez-vous avec `vtcctl login`.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "nom d'utilisateur")
	f.StringVar(&in.Email, "email", "", "adresse email")
	f.StringVar(&in.Password, "password", "", "mot de passe (8 caractères minimum)")
	f.StringVar(&in.FirstName, "first-name", "", "prénom")
	f.StringVar(&in.LastName, "last-name", "", "nom")
	f.StringVar(&in.PhoneNumber, "phone", "", "téléphone")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var login, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Se connecter et reprendre une réservation en attente",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			st, prev, err := a.loadSession()
			if err != nil {
				return err
			}
			res, err := a.client("").Login(ctx, login, password)
			if err != nil {
				return err
			}
			sess := session.FromLogin(res)
			sess.Pending = prev.Pending
			if err := st.Save(sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintln(a.Out, okStyle.Render("Bienvenue "+sess.User.FullName+"."))

			created, err := a.flow(st, sess).ResumePending(ctx)
			if err != nil {
				fmt.Fprintln(a.Err, warnStyle.Render("La réservation en attente n'a pas pu être envoyée : ")+err.Error())
				return nil
			}
			if created != nil {
				printCreated(a, *created)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "login", "u", "", "nom d'utilisateur ou email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "mot de passe")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Se déconnecter",
		RunE: func(*cobra.Command, []string) error {
			st, sess, err := a.loadSession()
			if err != nil {
				return err
			}
			sess.Logout()
			if sess.Pending == nil {
				err = st.Clear()
			} else {
				err = st.Save(sess)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Déconnecté.")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Afficher le compte connecté",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, sess, err := a.authed(false)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			u, err := a.client(sess.Token).Profile(ctx)
			if err != nil {
				return a.apiError(st, err)
			}
			fmt.Fprintf(a.Out, "%s (%s) %s\n", titleStyle.Render(u.DisplayName()), u.Email, mutedStyle.Render(string(u.UserType)))
			if sess.Pending != nil {
				fmt.Fprintln(a.Out, warnStyle.Render("Une réservation attend d'être envoyée : "+sess.Pending.PickupAddress+" → "+sess.Pending.DestinationAddress))
			}
			return nil
		},
	}
}

func printCreated(a *App, b models.BookingCreated) {
	fmt.Fprintf(a.Out, "%s %s (%s, %.2f €)\n",
		okStyle.Render("Réservation confirmée :"), b.ConfirmationNumber, b.Status.Label(), b.EstimatedPrice)
}
