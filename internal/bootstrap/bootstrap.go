package bootstrap

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/okaracan/coursebook/internal/app/controllers"
	appMigrations "github.com/okaracan/coursebook/internal/app/migrations"
	appRepos "github.com/okaracan/coursebook/internal/app/repositories"
	appRoutes "github.com/okaracan/coursebook/internal/app/routes"
	appServices "github.com/okaracan/coursebook/internal/app/services"
	"github.com/okaracan/coursebook/internal/config"
	"github.com/okaracan/coursebook/internal/db"
	appMiddleware "github.com/okaracan/coursebook/internal/middleware"
	"github.com/okaracan/coursebook/internal/pkg/logger"
	"github.com/okaracan/coursebook/internal/seed"
)

// Dependencies holds all the application dependencies, constructed once and
// passed explicitly, with no ambient container.
type Dependencies struct {
	CourseService    appServices.CourseService
	CourseController *appControllers.CourseController
	CourseRepo       appRepos.CourseRepository
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, applies pending schema
// migrations and optionally seeds sample data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.Catalog(lgr)
	store := appMigrations.NewPostgresStore(dbPool)

	applied, err := migrator.ApplyPending(ctx, store)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Int("applied", len(applied)).Msg("Database migrations up to date")

	if cfg.Seed.Enabled {
		courseRepo := appRepos.NewPostgresCourseRepository(dbPool)
		if err := seed.CreateSampleCourses(ctx, courseRepo, lgr); err != nil {
			lgr.Warn().Err(err).Msg("Seeding sample data failed")
		}
	}

	return dbPool, nil
}

// BuildDependencies wires repositories, services and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	courseRepo := appRepos.NewPostgresCourseRepository(dbPool)
	courseService := appServices.NewCourseService(courseRepo)
	courseController := appControllers.NewCourseController(courseService)

	return &Dependencies{
		CourseService:    courseService,
		CourseController: courseController,
		CourseRepo:       courseRepo,
		Logger:           lgr,
	}, nil
}

// SetupRouter creates the gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestID())
	router.Use(appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router, deps.CourseController)
	return router
}
