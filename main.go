package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.OverlaySSM(ctx, config.New())
	if err != nil {
		fmt.Printf("Warning: Error loading SSM parameters: %v\n", err)
	}
	setupLogging(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	currentDB := database.New(db)

	if err := currentDB.Ping(ctx, uint(config.GetInt(cfg, "DB_CONNECT_ATTEMPTS", 5))); err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		fmt.Println("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Model generation failed")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false) {
		fmt.Println("Generating column mismatch report...")
		report, err := models.ColumnMismatches(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Column report failed")
		}
		models.PrintColumnReport(report)
		return
	}

	if config.GetBool(cfg, "MIGRATE_ON_START", false) {
		if err := currentDB.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	}

	images, err := services.NewImageStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring image store")
	}

	sessions, err := auth.NewProviderFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring admin sessions")
	}
	sessions.Start(ctx)
	defer sessions.Teardown()

	adminRepo := portfolio.NewRepository(currentDB.ProjectRepo(), models.ScopeAll)
	publicRepo := portfolio.NewRepository(currentDB.ProjectRepo(), models.ScopePublished)
	controllers := admin.NewRegistry(adminRepo, images, sessions)
	defer controllers.Close()

	errChannel := make(chan error)

	server, err := api.NewServer(api.Dependencies{
		DB:          currentDB,
		Published:   publicRepo,
		Sessions:    sessions,
		Controllers: controllers,
	}, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(config.GetDuration(cfg, "SHUTDOWN_TIMEOUT", 30*time.Second))
}

func setupLogging(cfg map[string]string) {
	level, err := zerolog.ParseLevel(config.GetString(cfg, "LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if config.GetBool(cfg, "LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
