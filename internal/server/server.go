// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "chirp/docs" // swagger docs
	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/repository"
	"chirp/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories bundles the storage layer the server is built on. Tests
// substitute mocks for any of them.
type Repositories struct {
	Accounts      repository.AccountRepository
	Posts         repository.PostRepository
	Relationships repository.RelationshipRepository
	Feed          repository.FeedRepository
	ViewerState   repository.ViewerStateRepository
	Notifications repository.NotificationRepository
}

// NewRepositories builds the gorm-backed repositories.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Accounts:      repository.NewAccountRepository(db),
		Posts:         repository.NewPostRepository(db),
		Relationships: repository.NewRelationshipRepository(db),
		Feed:          repository.NewFeedRepository(db),
		ViewerState:   repository.NewViewerStateRepository(db),
		Notifications: repository.NewNotificationRepository(db),
	}
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	repos        Repositories
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	pusher       notifications.Pusher
	featureFlags *featureflags.Manager

	accountService      *service.AccountService
	followService       *service.FollowService
	postService         *service.PostService
	feedService         *service.FeedService
	notificationService *service.NotificationService
	searchService       *service.SearchService
}

// NewServer connects to the database and Redis and creates a server instance
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := newServer(cfg, db, redisClient, NewRepositories(db))
	s.promMiddleware = middleware.InitMetrics("chirp-api")
	return s, nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, repos Repositories) *Server {
	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		repos:        repos,
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
	}
	s.pusher = notifications.NewPusher(context.Background(), cfg.FirebaseCredentialsFile, repos.Accounts)

	notifCfg := service.NotificationServiceConfig{
		Pusher:      s.pusher,
		Flags:       s.featureFlags,
		Redis:       redisClient,
		DedupWindow: cfg.NotificationDedupWindow,
	}
	if s.notifier != nil {
		notifCfg.Publisher = s.notifier
	}
	s.notificationService = service.NewNotificationService(repos.Notifications, repos.Accounts, notifCfg)

	s.accountService = service.NewAccountService(repos.Accounts, repos.Relationships)
	s.followService = service.NewFollowService(repos.Relationships, s.notificationService)
	s.postService = service.NewPostService(repos.Posts, repos.Relationships, repos.ViewerState, s.notificationService)
	s.feedService = service.NewFeedService(repos.Relationships, repos.Feed, repos.ViewerState, s.featureFlags, cfg.FeedDefaultLimit)
	s.searchService = service.NewSearchService(repos.Accounts, repos.Posts, repos.ViewerState)
	return s
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Chirp Backend Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Accounts: specific routes before generic /:id
	accounts := api.Group("/accounts")
	accounts.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	accounts.Get("/handle/:handle", s.GetAccountByHandle)
	accounts.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	accounts.Put("/me/push-token", s.AuthRequired(), s.SetMyPushToken)
	accounts.Get("/:id/followers", s.GetFollowers)
	accounts.Get("/:id/following", s.GetFollowing)
	accounts.Get("/:id/posts", s.GetAccountPosts)
	accounts.Get("/:id/follow", s.AuthRequired(), s.GetFollowStatus)
	accounts.Post("/:id/follow", s.AuthRequired(), middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowAccount)
	accounts.Delete("/:id/follow", s.AuthRequired(), s.UnfollowAccount)
	accounts.Get("/:id", s.GetAccount)

	// Posts: public reads, protected writes
	posts := api.Group("/posts")
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, 30, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/replies", s.GetReplies)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Delete("/:id/like", s.AuthRequired(), s.UnlikePost)
	posts.Post("/:id/repost", s.AuthRequired(), s.RepostPost)
	posts.Delete("/:id/repost", s.AuthRequired(), s.UnrepostPost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	api.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.Search)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/feed", s.GetFeed)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)
	notifs.Delete("/:id", s.DeleteNotification)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.websocketUpgradeRequired, s.NotificationsWebSocket())

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Chirp API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down websocket hub", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
