package api

import (
	stdhttp "net/http"

	"frenchdriver/internal/auth"
	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain/models"
	h "frenchdriver/internal/http/handlers"
	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, hs *h.Handlers, tokens *auth.Manager) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.AllowedOrigins()),
		middleware.RateLimit(middleware.NewIPRateLimiter(env.RateLimitPerMinute)),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":       "route_not_found",
				"message":    "Route introuvable.",
				"details":    gin.H{"path": c.Request.URL.Path, "method": c.Request.Method},
				"request_id": middleware.GetRequestID(c),
			},
		})
	})

	authed := middleware.Auth(tokens)
	admin := middleware.RequireRoles(string(models.UserTypeAdmin))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/health/", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/register/", middleware.OptionalAuth(tokens), hs.Register)
		authGroup.POST("/login/", hs.Login)
		authGroup.GET("/profile/", authed, hs.Profile)

		me := api.Group("/me", authed)
		me.GET("", hs.Profile)
		me.GET("/bookings", hs.MyBookings)

		// Bookings
		bookings := api.Group("/bookings", authed)
		bookings.POST("/estimate/", hs.Estimate)
		bookings.POST("/create/", hs.CreateBooking)
		bookings.GET("/user/:user_id/", hs.UserBookings)
		bookings.GET("/:id/", hs.GetBooking)

		// Geo proxy, public so visitors can quote
		geoGroup := api.Group("/geo")
		geoGroup.GET("/search", hs.GeoSearch)
		geoGroup.GET("/route", hs.GeoRoute)

		// Invoices
		invoices := api.Group("/invoices", authed)
		invoices.GET("/:booking_id/", hs.GetInvoice)
		invoices.GET("/:booking_id/pdf", hs.InvoicePDF)

		// Admin
		adminGroup := api.Group("/admin", authed, admin)
		adminGroup.GET("/dashboard/", hs.AdminDashboard)
		adminGroup.GET("/bookings", hs.AdminBookings)
		adminGroup.PATCH("/bookings/:id/update/", hs.UpdateBooking)
		adminGroup.PUT("/bookings/:id/update/", hs.UpdateBooking)
		adminGroup.POST("/dispatch/", hs.AdminDispatch)

		drivers := api.Group("/drivers", authed, admin)
		drivers.GET("/", hs.ListDrivers)
		drivers.POST("/create/", hs.CreateDriver)

		// Telegram bot
		api.POST("/telegram/webhook", hs.TelegramWebhook)
	}

	h.SetRouter(r)
	return r
}
