package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/eventmaster-api/internal/auth"
	"github.com/gravadigital/eventmaster-api/internal/blob"
	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/handlers"
	"github.com/gravadigital/eventmaster-api/internal/importer"
	"github.com/gravadigital/eventmaster-api/internal/locker"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	authmw "github.com/gravadigital/eventmaster-api/internal/middleware/auth"
	"github.com/gravadigital/eventmaster-api/internal/middleware/events"
	"github.com/gravadigital/eventmaster-api/internal/publisher"
	"github.com/gravadigital/eventmaster-api/internal/services"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/textgen"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// Dependencies are the collaborators the HTTP surface is built over.
type Dependencies struct {
	Repos     postgres.RepositoryContainer
	Blobs     blob.Store
	Generator textgen.Generator
	Locks     locker.Locker
	Publisher publisher.Publisher
	Auth      *auth.Provider
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	deps       Dependencies
	router     *gin.Engine
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies) *Server {
	if deps.Publisher == nil {
		deps.Publisher = publisher.Noop{}
	}
	if deps.Blobs == nil {
		deps.Blobs = blob.NewMemoryStore("")
	}
	if deps.Locks == nil {
		deps.Locks = locker.NewLocal()
	}
	if deps.Auth == nil {
		deps.Auth = auth.NewProvider(deps.Repos, cfg)
	}
	s := &Server{
		config: cfg,
		deps:   deps,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := splitList(s.config.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	if methods := splitList(s.config.CORS.AllowMethods); len(methods) > 0 {
		cfg.AllowMethods = methods
	}
	if headers := splitList(s.config.CORS.AllowHeaders); len(headers) > 0 {
		cfg.AllowHeaders = headers
	}
	cfg.ExposeHeaders = []string{events.RequestIDKey}
	return cfg
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Server.GinMode != "" {
		gin.SetMode(s.config.Server.GinMode)
	}
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(events.RequestLogger())
	router.Use(cors.New(s.corsConfig()))
	router.MaxMultipartMemory = s.config.Upload.MaxFileSize

	repos := s.deps.Repos
	guestService := services.NewGuestService(repos)
	checkinService := services.NewCheckInService(repos.Guests(), s.deps.Publisher)

	eventHandler := handlers.NewEventHandler(services.NewEventService(repos, s.deps.Blobs, s.deps.Generator))
	guestHandler := handlers.NewGuestHandler(guestService, services.NewRegistryService(repos.Registry()))
	checkinHandler := handlers.NewCheckInHandler(checkinService, ticket.NewZXingDecoder())
	ticketHandler := handlers.NewTicketHandler(guestService)
	importHandler := handlers.NewImportHandler(
		services.NewImportService(repos, importer.NewFileReader(), s.deps.Locks),
		s.config.Upload.MaxFileSize,
	)
	mediaHandler := handlers.NewMediaHandler(
		services.NewMediaService(s.deps.Blobs, s.config.Upload.ImageMaxSide, s.config.Upload.JPEGQuality),
		s.config.Upload.MaxFileSize,
	)
	directoryHandler := handlers.NewDirectoryHandler(
		services.NewReminderService(repos.Reminders()),
		services.NewStaffService(repos.Staff()),
	)
	authHandler := handlers.NewAuthHandler(s.deps.Auth)

	router.GET("/ping", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := repos.Health(); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"message": "EventMaster API is running",
			"status":  status,
			"storage": repos.GetInfo()["type"],
		})
	})

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.SignUp)
		authRoutes.POST("/signin", authHandler.SignIn)
		authRoutes.POST("/signout", authHandler.SignOut)
	}

	public := api.Group("/public")
	{
		public.GET("/tickets", ticketHandler.GetTicket)
		public.GET("/tickets/:id", ticketHandler.GetTicket)
		public.GET("/tickets/:id/qr.png", ticketHandler.GetTicketQR)
	}

	protected := api.Group("", authmw.Require(s.deps.Auth))
	protected.GET("/auth/me", authHandler.Me)

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.GET("", eventHandler.GetAllEvents)
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.POST("/describe", eventHandler.DescribeEvent)
		eventRoutes.GET("/:id", eventHandler.GetEvent)
		eventRoutes.PUT("/:id", eventHandler.UpdateEvent)
		eventRoutes.DELETE("/:id", eventHandler.DeleteEvent)

		eventRoutes.GET("/:id/guests", guestHandler.ListEventGuests)
		eventRoutes.POST("/:id/guests", guestHandler.CreateGuest)
		eventRoutes.POST("/:id/checkin/scan", checkinHandler.ScanForEvent)

		eventRoutes.POST("/:id/import/preview", importHandler.PreviewImport)
		eventRoutes.POST("/:id/import", importHandler.ImportGuests)
		eventRoutes.GET("/:id/imports", importHandler.ListImports)
	}

	guestRoutes := protected.Group("/guests")
	{
		guestRoutes.GET("", guestHandler.ListGuests)
		guestRoutes.GET("/overview", guestHandler.Overview)
		guestRoutes.DELETE("/:id", guestHandler.DeleteGuest)
		guestRoutes.POST("/:id/checkin", checkinHandler.ManualCheckIn)
	}

	registryRoutes := protected.Group("/registry")
	{
		registryRoutes.GET("", guestHandler.ListRegistry)
		registryRoutes.PUT("", guestHandler.UpsertRegistry)
		registryRoutes.DELETE("/:id", guestHandler.DeleteRegistry)
	}

	checkinRoutes := protected.Group("/checkin")
	{
		checkinRoutes.POST("/scan", checkinHandler.Scan)
		checkinRoutes.POST("/scan-image", checkinHandler.ScanImage)
	}

	uploads := protected.Group("/uploads")
	{
		uploads.POST("/images", mediaHandler.UploadImage)
		uploads.DELETE("/images", mediaHandler.DeleteImage)
	}

	reminderRoutes := protected.Group("/reminders")
	{
		reminderRoutes.GET("", directoryHandler.ListReminders)
		reminderRoutes.POST("", directoryHandler.CreateReminder)
		reminderRoutes.PUT("/:id", directoryHandler.UpdateReminder)
		reminderRoutes.POST("/:id/toggle", directoryHandler.ToggleReminder)
		reminderRoutes.DELETE("/:id", directoryHandler.DeleteReminder)
	}

	staffRoutes := protected.Group("/staff")
	{
		staffRoutes.GET("", directoryHandler.ListStaff)
		staffRoutes.POST("", directoryHandler.CreateStaff)
		staffRoutes.PUT("/:id", directoryHandler.UpdateStaff)
		staffRoutes.DELETE("/:id", directoryHandler.DeleteStaff)
	}

	return router
}
