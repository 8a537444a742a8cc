package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/config"
	infraCache "feature-voting-backend/internal/infrastructure/cache"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/identity"
	"feature-voting-backend/internal/shared/metrics"
	"feature-voting-backend/pkg/cache"
	"feature-voting-backend/pkg/jwt"

	featureHandler "feature-voting-backend/internal/domains/feature/handler"
	featureRepo "feature-voting-backend/internal/domains/feature/repository"
	featureService "feature-voting-backend/internal/domains/feature/service"
	userHandler "feature-voting-backend/internal/domains/user/handler"
	userRepo "feature-voting-backend/internal/domains/user/repository"
	userService "feature-voting-backend/internal/domains/user/service"
	voteHandler "feature-voting-backend/internal/domains/vote/handler"
	voteRepo "feature-voting-backend/internal/domains/vote/repository"
	voteService "feature-voting-backend/internal/domains/vote/service"
)

// HealthChecker is implemented by *database.PostgresDB
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Stores groups the data access implementations the container wires
type Stores struct {
	Users    userRepo.Repository
	Features featureRepo.Repository
	Votes    voteRepo.Ledger
	Health   HealthChecker
}

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config     *config.Config
	DB         *database.PostgresDB // nil when built from non-SQL stores
	Redis      *infraCache.RedisClient
	Cache      cache.Cache
	Metrics    *metrics.Metrics
	JWTManager *jwt.Manager
	Identity   identity.Resolver
	Health     HealthChecker

	// monitorCancel stops the pool health monitor
	monitorCancel context.CancelFunc

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	UserRepo    userRepo.Repository
	FeatureRepo featureRepo.Repository
	VoteLedger  voteRepo.Ledger

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	UserService    userService.ServiceInterface
	FeatureService featureService.ServiceInterface
	VoteService    voteService.ServiceInterface

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	UserHandler    *userHandler.UserHandler
	FeatureHandler *featureHandler.FeatureHandler
	VoteHandler    *voteHandler.VoteHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph.
// Thứ tự: Config -> Database -> Redis -> Repositories -> Services -> Handlers
func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI Container...")

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	db := database.NewPostgresDB(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	// Redis failure không critical - fall back to no cache
	var appCache cache.Cache = cache.Noop{}
	redisClient := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis connection failed (non-critical), caching disabled")
		_ = redisClient.Close()
		redisClient = nil
	} else {
		appCache = infraCache.NewRedisCache(redisClient)
		log.Info().Str("host", cfg.Redis.Host).Msg("Redis connected")
	}

	// ========================================
	// STEP 4: WIRE DOMAINS
	// ========================================
	c, err := New(cfg, Stores{
		Users:    userRepo.NewPostgresRepository(db),
		Features: featureRepo.NewPostgresRepository(db),
		Votes:    voteRepo.NewPostgresLedger(db),
		Health:   db,
	}, appCache)
	if err != nil {
		db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	c.DB = db
	c.Redis = redisClient

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	c.monitorCancel = monitorCancel
	go db.MonitorPoolHealth(monitorCtx, time.Minute)

	log.Info().Msg("DI Container initialized successfully")
	return c, nil
}

// New wires repositories, services and handlers over the given stores
func New(cfg *config.Config, stores Stores, appCache cache.Cache) (*Container, error) {
	if appCache == nil {
		appCache = cache.Noop{}
	}

	c := &Container{
		Config:      cfg,
		Cache:       appCache,
		Metrics:     metrics.New(),
		Health:      stores.Health,
		UserRepo:    stores.Users,
		FeatureRepo: stores.Features,
		VoteLedger:  stores.Votes,
	}

	if err := c.initIdentity(); err != nil {
		return nil, fmt.Errorf("failed to init identity: %w", err)
	}
	c.initServices()
	c.initHandlers()
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initIdentity() error {
	auth := c.Config.Auth

	var tokens identity.TokenValidator
	if auth.Mode == identity.ModeJWT {
		c.JWTManager = jwt.NewManager(auth.JWTSecret, auth.TokenTTL)
		tokens = c.JWTManager
	}

	resolver, err := identity.NewResolver(auth.Mode, auth.Header, tokens)
	if err != nil {
		return err
	}
	c.Identity = resolver
	return nil
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.Cache)
	c.FeatureService = featureService.NewFeatureService(c.FeatureRepo, c.Cache, c.Config.Redis.FeatureTTL)
	c.VoteService = voteService.NewVoteService(c.VoteLedger, c.Cache, c.Metrics)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.FeatureHandler = featureHandler.NewFeatureHandler(c.FeatureService)
	c.VoteHandler = voteHandler.NewVoteHandler(c.VoteService)
}

// UserChecker returns the existence check for the identity middleware,
// or nil when user verification is disabled
func (c *Container) UserChecker() identity.UserChecker {
	if !c.Config.Auth.VerifyUsers {
		return nil
	}
	return c.UserService
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.monitorCancel != nil {
		c.monitorCancel()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
