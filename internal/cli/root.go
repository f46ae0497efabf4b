// Package cli implements vtcctl, the command-line front office of the VTC
// platform: address search, quotes and bookings for customers, and the
// dispatch back office for administrators.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"frenchdriver/internal/bookingflow"
	"frenchdriver/internal/client"
	"frenchdriver/internal/geo"
	"frenchdriver/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultAPIURL  = "http://localhost:8080"
	requestTimeout = 30 * time.Second
)

var errAdminOnly = errors.New("commande réservée aux administrateurs")

// App holds what the commands share. Zero values fall back to the process
// streams, the VTC_* environment and ~/.vtcctl/session.yaml.
type App struct {
	Out io.Writer
	Err io.Writer
	Now func() time.Time

	cfg *viper.Viper
}

func NewApp(out, errOut io.Writer) *App {
	cfg := viper.New()
	cfg.SetEnvPrefix("VTC")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault("api_url", defaultAPIURL)
	cfg.SetDefault("geocoder_url", geo.DefaultGeocoderURL)
	cfg.SetDefault("router_url", geo.DefaultRouterURL)
	return &App{Out: out, Err: errOut, cfg: cfg}
}

// NewRootCommand wires every subcommand under vtcctl.
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vtcctl",
		Short:         "Réservez et gérez vos courses VTC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	pf := root.PersistentFlags()
	pf.String("api-url", "", "URL de l'API (VTC_API_URL)")
	pf.String("session", "", "fichier de session (VTC_SESSION)")
	_ = a.cfg.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = a.cfg.BindPFlag("session", pf.Lookup("session"))

	root.AddCommand(
		a.registerCmd(), a.loginCmd(), a.logoutCmd(), a.whoamiCmd(),
		a.searchCmd(), a.routeCmd(), a.quoteCmd(), a.bookCmd(),
		a.historyCmd(), a.bookingCmd(), a.invoiceCmd(),
		a.adminCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func (a *App) Execute() error {
	return a.NewRootCommand().Execute()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) store() (*session.Store, error) {
	if p := strings.TrimSpace(a.cfg.GetString("session")); p != "" {
		return session.NewStore(p), nil
	}
	p, err := session.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("session path: %w", err)
	}
	return session.NewStore(p), nil
}

func (a *App) loadSession() (*session.Store, session.Session, error) {
	st, err := a.store()
	if err != nil {
		return nil, session.Session{}, err
	}
	sess, err := st.Load()
	return st, sess, err
}

func (a *App) client(token string) *client.Client {
	return client.New(a.cfg.GetString("api_url"), token)
}

func (a *App) flow(st *session.Store, sess session.Session) bookingflow.Flow {
	return bookingflow.Flow{
		API:      a.client(sess.Token),
		Searcher: geo.NewAddressSearcher(a.cfg.GetString("geocoder_url")),
		Router:   geo.NewRouter(a.cfg.GetString("router_url")),
		Sessions: st,
		Now:      a.now,
	}
}

// authed loads a logged in session or fails with a hint to log in.
func (a *App) authed(adminOnly bool) (*session.Store, session.Session, error) {
	st, sess, err := a.loadSession()
	if err != nil {
		return nil, sess, err
	}
	if !sess.LoggedIn() {
		return nil, sess, errors.New("vous n'êtes pas connecté, lancez `vtcctl login`")
	}
	if adminOnly && !sess.IsAdmin() {
		return nil, sess, errAdminOnly
	}
	return st, sess, nil
}

// apiError maps an expired token to a logout so the next command starts clean.
func (a *App) apiError(st *session.Store, err error) error {
	if !client.IsUnauthorized(err) || st == nil {
		return err
	}
	if sess, lerr := st.Load(); lerr == nil {
		sess.Logout()
		_ = st.Save(sess)
	}
	return errors.New("session expirée, reconnectez-vous avec `vtcctl login`")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}

// Main runs vtcctl and returns the process exit code.
func Main() int {
	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Erreur : ")+err.Error())
		return 1
	}
	return 0
}
