package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-chat/config"
	"support-chat/internal/handler"
	"support-chat/internal/middleware"
	"support-chat/internal/redis"
	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"
	"support-chat/pkg/database"
	"support-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Widget    *handler.WidgetHandler
	Dashboard *handler.DashboardHandler
	Agent     *handler.AgentHandler
	Upload    *handler.UploadHandler
	Admin     *handler.AdminHandler
	Webhook   *handler.WebhookHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// Customer widget: unauthenticated, the conversation id is the capability.
	widget := s.engine.Group("/v1/widget")
	{
		widget.POST("/conversations", handlers.Widget.Start)
		widget.GET("/availability", handlers.Widget.Availability)
		widget.POST("/conversations/:id/messages", middleware.MessageRateLimitMiddleware(limiter), handlers.Widget.Send)
		widget.GET("/conversations/:id/messages", handlers.Widget.Poll)
		widget.POST("/conversations/:id/typing", handlers.Widget.Typing)
		widget.PUT("/conversations/:id/contact", handlers.Widget.SetContact)
	}

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/login", middleware.AuthRateLimitMiddleware(limiter), handlers.Agent.Login)
	}

	// Agent dashboard: everything behind the bearer token.
	dash := s.engine.Group("/v1/dashboard", middleware.AuthMiddleware(authService))
	{
		dash.GET("/conversations", handlers.Dashboard.List)
		dash.GET("/conversations/:id", handlers.Dashboard.Get)
		dash.POST("/conversations/:id/messages", handlers.Dashboard.Send)
		dash.POST("/conversations/:id/read", handlers.Dashboard.MarkRead)
		dash.PUT("/conversations/:id/archive", handlers.Dashboard.Archive)
		dash.POST("/conversations/:id/move-to-whatsapp", handlers.Dashboard.MoveToWhatsApp)
		dash.POST("/conversations/:id/typing", handlers.Dashboard.Typing)
		dash.GET("/conversations/:id/typing", handlers.Dashboard.CustomerTyping)
		dash.POST("/conversations/:id/attachments", handlers.Upload.Upload)

		dash.POST("/presence/heartbeat", handlers.Agent.Heartbeat)
		dash.POST("/presence/offline", handlers.Agent.Offline)
		dash.GET("/team", handlers.Agent.Team)

		dash.GET("/notifications/prefs", handlers.Agent.GetPrefs)
		dash.PUT("/notifications/prefs", handlers.Agent.UpdatePrefs)
		dash.POST("/notifications/subscriptions", handlers.Agent.Subscribe)
		dash.DELETE("/notifications/subscriptions", handlers.Agent.Unsubscribe)
	}

	admin := s.engine.Group("/v1/admin", middleware.AuthMiddleware(authService), middleware.AdminOnly())
	{
		admin.POST("/conversations/archive-sweep", handlers.Admin.ArchiveSweep)
		admin.POST("/conversations/reconcile", handlers.Admin.Reconcile)
	}

	// Provider-facing webhook, guarded by a shared token instead of JWT.
	s.engine.POST("/v1/webhooks/whatsapp", handlers.Webhook.Receive)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
