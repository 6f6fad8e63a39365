package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/filipesuhett/academic-system/internal/config"
	"github.com/filipesuhett/academic-system/internal/database"
	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/flatfile"
	"github.com/filipesuhett/academic-system/internal/handler"
	"github.com/filipesuhett/academic-system/internal/middleware"
	"github.com/filipesuhett/academic-system/internal/models"
	"github.com/filipesuhett/academic-system/internal/registry"
	"github.com/filipesuhett/academic-system/internal/repository"
	"github.com/filipesuhett/academic-system/internal/router"
	"github.com/filipesuhett/academic-system/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set; grade reports will not be cached")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	reg := registry.New()
	validate := dto.NewValidator()

	reportService := service.NewGradeReportService(reg, redisClient, cfg.ReportCacheTTL, cfg.GradingPolicy, logger)
	registrationService := service.NewRegistrationService(service.RegistrationDependencies{
		Registry:   reg,
		Students:   repository.NewStudentRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Classrooms: repository.NewClassroomRepository(db),
		Files:      flatfile.NewStore(cfg.DataDir),
		Reports:    reportService,
		NATS:       natsConn,
	}, validate, logger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := registrationService.Bootstrap(bootCtx); err != nil {
		cancelBoot()
		logger.Fatal().Err(err).Msg("failed to load registry")
	}
	cancelBoot()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		Registry:         reg,
		StudentHandler:   handler.NewStudentHandler(registrationService, logger),
		TeacherHandler:   handler.NewTeacherHandler(registrationService, logger),
		ClassroomHandler: handler.NewClassroomHandler(registrationService, reportService, logger),
		ReportHandler:    handler.NewReportHandler(reportService, logger),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.UsePostgres() {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.SQLitePath)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
