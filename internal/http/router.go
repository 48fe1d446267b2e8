// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/docs"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/cache"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/config"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/http/handlers"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/http/middleware"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/realtime"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

// wsRoute is the notification stream, relative to the API base path.
const wsRoute = "/notifications/ws"

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (not for the WebSocket stream or /metrics)
//  7. Metrics
//  8. CORS and Security headers
//
// Authenticated routes additionally run Auth, then Idempotency (before the
// rate limiter so replays bypass it), then the rate limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, counter cache.Counter, hub *realtime.Hub, cfg config.Config) error {
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath
	wsPath := joinPath(apiBase, wsRoute)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath, "/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics(wsPath))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (allow all if none configured) and security headers
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotentReplay}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/cache/hub
	if counter == nil {
		counter = cache.Noop{}
	}
	if hub == nil {
		hub = realtime.NewHub()
	}
	notifSvc := services.NewNotificationService(db, counter, hub)
	authSvc := services.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handlers.New(handlers.Deps{
		Auth:          authSvc,
		Profiles:      services.NewProfileService(db, notifSvc),
		Contacts:      services.NewContactService(db, notifSvc),
		Wishes:        services.NewWishService(db, notifSvc, cfg.MaxWishes),
		Notifications: notifSvc,
		Reputation:    services.NewReputationService(db, notifSvc),
		Stream:        hub,
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	api := groupWithPrefix(r, apiBase)

	// Public
	{
		pub := api.Group("/auth", rl.Handler())
		pub.POST("/register", h.Register)
		pub.POST("/login", h.Login)

		// Authenticates with the token query parameter during the handshake.
		api.GET(wsRoute, h.NotificationStream)
	}

	// Authenticated
	authed := api.Group("",
		middleware.Auth(authSvc),
		middleware.Idempotency(middleware.IdempotencyOptions{MaxLen: 200},
			idempotencyLookup(db), idempotencySave(db, cfg.IdempotencyTTL)),
		rl.Handler(),
	)
	{
		authed.GET("/auth/me", h.Me)

		// Users
		authed.GET("/users/search", h.SearchUsers)
		authed.PUT("/users/me", h.UpdateMe)
		authed.DELETE("/users/me", h.DeleteMe)
		authed.GET("/users/me/privacy", h.GetPrivacy)
		authed.PUT("/users/me/privacy", h.UpdatePrivacy)
		authed.GET("/users/:id", h.GetProfile)
		authed.GET("/users/:id/wishes", h.ListUserWishes)
		authed.GET("/users/:id/reputation", h.GetReputation)
		authed.POST("/users/:id/reputation", h.Vote)

		// Contacts
		authed.GET("/contacts", h.ListContacts)
		authed.GET("/contacts/birthdays", h.UpcomingBirthdays)
		authed.POST("/contacts/request", h.SendContactRequest)
		authed.PUT("/contacts/:id/accept", h.AcceptContact)
		authed.PUT("/contacts/:id/reject", h.RejectContact)
		authed.PUT("/contacts/:id/respond", h.RespondContact)
		authed.DELETE("/contacts/:id", h.RemoveContact)
		authed.DELETE("/contacts/:id/block", h.BlockContact)
		authed.PUT("/contacts/:id/unblock", h.UnblockContact)

		// Wishes
		authed.GET("/wishes", h.ListWishes)
		authed.POST("/wishes", h.CreateWish)
		authed.GET("/wishes/reserved", h.ListReserved)
		authed.PUT("/wishes/:id", h.UpdateWish)
		authed.DELETE("/wishes/:id", h.DeleteWish)
		authed.POST("/wishes/:id/reserve", h.ReserveWish)
		authed.DELETE("/wishes/:id/reserve", h.CancelReservation)

		// Notifications
		authed.GET("/notifications", h.ListNotifications)
		authed.GET("/notifications/unread-count", h.UnreadCount)
		authed.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
		authed.PUT("/notifications/:id/read", h.MarkNotificationRead)
		authed.DELETE("/notifications/:id", h.DeleteNotification)
	}
	return nil
}

// idempotencyLookup reads stored responses from the idempotency table.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID uint, scope, key string, now time.Time) (*middleware.StoredResponse, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &middleware.StoredResponse{Status: rec.Status, Body: []byte(rec.Body)}, nil
	}
}

// idempotencySave stores the first response; a concurrent duplicate is not
// an error.
func idempotencySave(db *gorm.DB, ttl time.Duration) middleware.IdempotencySave {
	return func(ctx context.Context, userID uint, scope, key string, resp middleware.StoredResponse) error {
		_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resp.Status, string(resp.Body), ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
