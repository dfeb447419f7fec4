package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/noteshare/server/cmd/server/docs" // swagger docs
	"github.com/noteshare/server/internal/module/ai"
	"github.com/noteshare/server/internal/module/auth"
	"github.com/noteshare/server/internal/module/comment"
	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/feed"
	"github.com/noteshare/server/internal/module/friend"
	"github.com/noteshare/server/internal/module/interaction"
	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/module/shop"
	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/module/user"
	"github.com/noteshare/server/internal/module/workflow"
	sharedcache "github.com/noteshare/server/internal/shared/cache"
	"github.com/noteshare/server/internal/shared/config"
	"github.com/noteshare/server/internal/shared/database"
	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
	"github.com/noteshare/server/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Event infrastructure
	eventBus *events.Bus

	// Auth infrastructure
	jwtManager  *auth.JWTManager
	rateLimiter *auth.RateLimiter

	// Handlers
	userHandler        *user.Handler
	creditsHandler     *credits.Handler
	postHandler        *post.Handler
	commentHandler     *comment.Handler
	interactionHandler *interaction.Handler
	friendHandler      *friend.Handler
	feedHandler        *feed.Handler
	shopHandler        *shop.Handler
	shopAdminHandler   *shop.AdminHandler
	aiHandler          *ai.Handler

	// Services kept for cross-module wiring
	creditsService *credits.Service
	userService    *user.Service
	friendService  *friend.Service
	postService    *post.Service
	postRepo       post.Repository
	dispatcher     *workflow.Dispatcher
	pageCache      feed.PageCache
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	// Initialize logger
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Initialize zap logger for the event bus
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("noteshare"),
	}

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Initialize Redis. Feed pages and rate limits live here, so a
	// missing Redis is a startup failure rather than a degraded mode.
	redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	app.redis = redisClient

	// Initialize modules
	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	// Initialize router and routes
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// migrate applies the schema for all module models.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&user.RefreshToken{},
		&credits.Wallet{},
		&credits.Transaction{},
		&post.Post{},
		&comment.Comment{},
		&interaction.Like{},
		&interaction.Bookmark{},
		&friend.Request{},
		&shop.Banner{},
		&shop.Purchase{},
		&ai.Generation{},
	)
}

// initModules wires all application modules in dependency order.
func (a *App) initModules() error {
	cfg := a.config

	// Event bus for domain events
	a.eventBus = events.NewBus(a.zapLogger)

	// Auth infrastructure
	a.jwtManager = auth.NewJWTManager(&auth.JWTConfig{
		Secret:             cfg.Auth.JWTSecret,
		AccessTokenExpiry:  cfg.Auth.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.Auth.RefreshTokenExpiry,
		Issuer:             "noteshare",
	})
	a.rateLimiter = auth.NewRateLimiter(a.redis)

	// Object storage
	store, err := storage.NewS3Store(&cfg.Storage, a.metrics)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	// Credits module. The service doubles as the ledger behind the
	// action dispatcher and the shop.
	creditsRepo := credits.NewRepository(a.db)
	a.creditsService = credits.NewService(creditsRepo, &cfg.Credits, a.logger, a.metrics)
	a.creditsHandler = credits.NewHandler(a.creditsService)

	a.dispatcher = workflow.NewDispatcher(a.creditsService, a.logger, a.metrics)

	// User module
	userRepo := user.NewRepository(a.db)
	a.userService = user.NewService(userRepo, a.jwtManager, a.creditsService, store, a.logger, a.metrics)
	a.userHandler = user.NewHandler(a.userService)

	// Friend module
	friendRepo := friend.NewRepository(a.db)
	a.friendService = friend.NewService(friendRepo, a.eventBus, a.logger)
	a.friendHandler = friend.NewHandler(a.friendService, a.logger)

	// Post module
	a.postRepo = post.NewRepository(a.db)
	attachments := post.NewAttachmentCoordinator(store, a.logger)
	a.postService = post.NewService(a.postRepo, a.dispatcher, attachments, a.friendService, a.eventBus, a.logger)
	a.postHandler = post.NewHandler(a.postService, a.logger)

	// Comment module
	commentRepo := comment.NewRepository(a.db)
	commentService := comment.NewService(commentRepo, a.postService, a.dispatcher, a.eventBus, a.logger)
	a.commentHandler = comment.NewHandler(commentService, a.logger)

	// Interaction module
	interactionRepo := interaction.NewRepository(a.db)
	interactionService := interaction.NewService(interactionRepo, a.postService, a.eventBus, a.logger)
	a.interactionHandler = interaction.NewHandler(interactionService, a.logger)

	// Feed module
	a.pageCache = feed.NewRedisPageCache(a.redis, "noteshare")
	feedService := feed.NewService(a.postRepo, a.friendService, a.pageCache, &cfg.Feed, a.logger, a.metrics)
	a.feedHandler = feed.NewHandler(feedService, a.logger)

	// Shop module
	shopRepo := shop.NewRepository(a.db)
	shopService := shop.NewService(shopRepo, a.creditsService, a.userService, store, a.logger)
	a.shopHandler = shop.NewHandler(shopService, a.logger)
	a.shopAdminHandler = shop.NewAdminHandler(shopService, a.logger)

	// AI module
	aiRepo := ai.NewRepository(a.db)
	aiClient := ai.NewClient(&cfg.AI)
	aiService := ai.NewService(aiRepo, aiClient, a.dispatcher, &cfg.AI, a.logger, a.metrics)
	a.aiHandler = ai.NewHandler(aiService, a.logger)

	a.registerEventHandlers()

	return nil
}

// registerEventHandlers registers all domain event handlers.
func (a *App) registerEventHandlers() {
	// Feed pages are invalidated on post and friendship writes.
	a.eventBus.Register(feed.NewInvalidator(a.pageCache, a.logger))

	// Authors earn credits when their posts are liked.
	a.eventBus.Register(credits.NewRewardHandler(a.creditsService, a.config.Credits.LikeReward, a.logger))
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	if a.config.RateLimit.Enabled {
		r.Use(middleware.RateLimitByIP(
			a.rateLimiter,
			a.config.RateLimit.GlobalLimit,
			a.config.RateLimit.GlobalWindow,
		))
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	// Public routes. Auth is optional here so logged-in viewers see
	// private posts addressed to them.
	publicRouter := v1.Group("")
	publicRouter.Use(middleware.OptionalAuth(a.jwtManager))

	// Protected routes
	protectedRouter := v1.Group("")
	protectedRouter.Use(middleware.RequireAuth(a.jwtManager))
	if a.config.RateLimit.Enabled {
		protectedRouter.Use(middleware.RateLimitByUser(
			a.rateLimiter,
			a.config.RateLimit.APILimit,
			a.config.RateLimit.APIWindow,
		))
	}
	protectedRouter.Use(middleware.Idempotency(a.redis, middleware.IdempotencyConfig{
		TTL: a.config.RateLimit.IdempotencyTTL,
	}))

	a.userHandler.RegisterRoutes(publicRouter)
	a.postHandler.RegisterRoutes(publicRouter)
	a.commentHandler.RegisterRoutes(publicRouter)
	a.feedHandler.RegisterRoutes(publicRouter)
	a.shopHandler.RegisterRoutes(publicRouter)

	a.userHandler.RegisterProtectedRoutes(protectedRouter)
	a.creditsHandler.RegisterProtectedRoutes(protectedRouter)
	a.postHandler.RegisterProtectedRoutes(protectedRouter)
	a.commentHandler.RegisterProtectedRoutes(protectedRouter)
	a.interactionHandler.RegisterProtectedRoutes(protectedRouter)
	a.friendHandler.RegisterProtectedRoutes(protectedRouter)
	a.feedHandler.RegisterProtectedRoutes(protectedRouter)
	a.shopHandler.RegisterProtectedRoutes(protectedRouter)
	a.aiHandler.RegisterProtectedRoutes(protectedRouter)

	// Admin routes ride on the protected group; the handlers check the
	// admin claim themselves.
	a.shopAdminHandler.RegisterRoutes(protectedRouter)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}

	if a.redis != nil {
		_ = a.redis.Close()
	}

	if a.db != nil {
		_ = database.Close(a.db)
	}
}
