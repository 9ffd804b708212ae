package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/handlers"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/metrics"
	"github.com/gravadigital/eventhub-api/internal/middleware/auth"
	"github.com/gravadigital/eventhub-api/internal/middleware/events"
	"github.com/gravadigital/eventhub-api/internal/middleware/ratelimit"
	"github.com/gravadigital/eventhub-api/internal/middleware/timeout"
	"github.com/gravadigital/eventhub-api/internal/services"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
	"github.com/gravadigital/eventhub-api/internal/validation"
)

// Dependencies are the collaborators the router is built from
type Dependencies struct {
	Config   *config.Config
	Services *services.Services
	Verifier identity.Verifier
	Storage  repository.Container
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	router     *gin.Engine
	limiter    *ratelimit.Limiter
}

// New creates a new server instance
func New(deps Dependencies) (*Server, error) {
	s := &Server{
		config:  deps.Config,
		limiter: ratelimit.New(deps.Config.RateLimit.JoinPerMinute, deps.Config.RateLimit.Burst),
	}

	router, err := s.setupRouter(deps)
	if err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.router = router
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.router,

		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.Server.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.HTTP().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP().Info("Shutting down HTTP server...")
	s.limiter.Stop()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if deps.Config.Server.GinMode != "" {
		gin.SetMode(deps.Config.Server.GinMode)
	}

	if err := validation.RegisterBindings(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies(deps.Config)); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(events.RequestLogger())
	router.Use(metrics.GinMiddleware())
	router.Use(cors.New(corsConfig(deps.Config)))

	router.GET("/ping", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := deps.Storage.Health(ctx); err != nil {
			logger.HTTP().Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"message": "EventHub API is degraded",
				"status":  "unhealthy",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "EventHub API is running",
			"status":  "healthy",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.setupAPIRoutes(router, deps)
	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	origins := splitList(cfg.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = splitList(cfg.CORS.AllowMethods)
	corsConfig.AllowHeaders = splitList(cfg.CORS.AllowHeaders)
	corsConfig.ExposeHeaders = []string{events.RequestIDHeader}
	return corsConfig
}

// trustedProxies returns nil when none are configured, so X-Forwarded-For is
// never used to derive the client IP
func trustedProxies(cfg *config.Config) []string {
	proxies := splitList(cfg.Server.TrustedProxies)
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}

func splitList(value string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(router *gin.Engine, deps Dependencies) {
	svc := deps.Services
	authHandler := handlers.NewAuthHandler(svc.Users)
	eventHandler := handlers.NewEventHandler(svc.Events)
	circularHandler := handlers.NewCircularHandler(svc.Circulars, deps.Config.Upload.MaxAudioSize)
	chatHandler := handlers.NewChatHandler(svc.Chat, deps.Config.Upload.MaxFileSize)
	feedbackHandler := handlers.NewFeedbackHandler(svc.Feedback)
	mediaHandler := handlers.NewMediaHandler(svc.Media)

	api := router.Group("/api")
	api.Use(timeout.Timeout(deps.Config.Server.RequestTimeout))
	api.Use(auth.Authenticate(deps.Verifier))

	// identity only: these routes provision or inspect the local user
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/profile", authHandler.Profile)
		authRoutes.POST("/role", authHandler.SetRole)
	}

	members := api.Group("")
	members.Use(auth.LoadUser(svc.Users))

	eventRoutes := members.Group("/events")
	{
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.GET("/organizer", eventHandler.ListOrganizerEvents)
		eventRoutes.GET("/attendee", eventHandler.ListAttendeeEvents)
		eventRoutes.GET("/search", s.limiter.Middleware(), eventHandler.SearchByCode)
		eventRoutes.POST("/join", s.limiter.Middleware(), eventHandler.JoinEvent)

		eventRoutes.GET("/:id", eventHandler.GetEvent)
		eventRoutes.PUT("/:id", eventHandler.UpdateEvent)
		eventRoutes.DELETE("/:id", eventHandler.DeleteEvent)

		eventRoutes.GET("/:id/attendees", eventHandler.ListAttendees)
		eventRoutes.DELETE("/:id/attendees/:attendeeId", eventHandler.RemoveAttendee)

		eventRoutes.GET("/:id/circulars", circularHandler.ListCirculars)
		eventRoutes.POST("/:id/circulars", circularHandler.PostCircular)

		eventRoutes.GET("/:id/chat", chatHandler.ListMessages)
		eventRoutes.POST("/:id/chat", chatHandler.SendMessage)
		eventRoutes.POST("/:id/chat/attachments", chatHandler.UploadAttachment)
		eventRoutes.DELETE("/:id/chat/:messageId", chatHandler.DeleteMessage)

		eventRoutes.GET("/:id/feedback", feedbackHandler.ListFeedback)
		eventRoutes.POST("/:id/feedback", feedbackHandler.SubmitFeedback)
	}

	members.GET("/feedback/organizer", feedbackHandler.ListOrganizerFeedback)
	members.GET("/media/*key", mediaHandler.GetMedia)
}
