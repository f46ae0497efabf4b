package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frenchdriver/internal/auth"
	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/db"
	"frenchdriver/internal/events"
	"frenchdriver/internal/geo"
	router "frenchdriver/internal/http"
	"frenchdriver/internal/http/handlers"
	"frenchdriver/internal/notify"
	"frenchdriver/internal/services"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	log := utils.InitLogger(env.IsProduction(), env.LogLevel)
	defer func() { _ = log.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, env intconfig.Env) error {
	log := utils.L()

	conn, err := intconfig.ConnectDB(env)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = db.Migrate(migrateCtx, conn)
	cancel()
	if err != nil {
		return err
	}

	cache, err := intconfig.ConnectRedis(env)
	if err != nil {
		log.Warn("redis unavailable, geo cache disabled", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
	}

	tokens, err := auth.NewManager(env.JWTSecret, env.AccessTokenTTL)
	if err != nil {
		return err
	}

	var mailer notify.Mailer = notify.LogMailer{}
	if env.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(env.SMTPHost, env.SMTPPort, env.SMTPUsername, env.SMTPPassword, env.MailFrom)
	}
	telegram := notify.NewTelegram(env.TelegramAPIURL, env.TelegramBotToken)
	notifications := services.NotificationService{Mailer: mailer, Telegram: telegram, DB: conn}

	publisher, closeEvents, err := startEvents(ctx, env, notifications.HandleEvent)
	if err != nil {
		return err
	}
	defer closeEvents()

	invoices := services.InvoiceService{DB: conn}
	bookings := services.BookingService{Invoices: invoices, Events: publisher, DB: conn}
	hs := &handlers.Handlers{
		Auth:      services.AuthService{Tokens: tokens, DB: conn},
		Bookings:  bookings,
		Dashboard: services.DashboardService{DB: conn},
		Dispatch:  services.DispatchService{Bookings: bookings, Notifications: notifications},
		Drivers:   services.DriverService{DB: conn},
		Invoices:  invoices,
		Geo: services.GeoService{
			Searcher: geo.NewAddressSearcher(env.GeocoderURL),
			Router:   geo.NewRouter(env.RouterURL),
			Cache:    cache,
		},
		Bot:            services.TelegramBot{DB: conn},
		TelegramSecret: env.TelegramSecret,
	}
	if telegram.Enabled() {
		hs.Bot.API = telegram
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, hs, tokens),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", env.AppAddr), zap.String("env", env.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}

// startEvents connects the booking event bus: RabbitMQ when AMQP_URL is set,
// an in-process queue otherwise. Both feed handle until ctx ends.
func startEvents(ctx context.Context, env intconfig.Env, handle events.Handler) (events.Publisher, func(), error) {
	if env.AMQPURL == "" {
		bus := events.NewLocal(0)
		go bus.Run(ctx, handle)
		utils.L().Info("using in-process event queue")
		return bus, func() {}, nil
	}

	mq, err := events.DialRabbitMQ(env.AMQPURL, env.AMQPExchange, env.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	go mq.ConsumeForever(ctx, "notifications", 10, handle)
	return mq, mq.Close, nil
}
