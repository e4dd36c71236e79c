package main

import (
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/saradorri/tournamentledger/internal/app"
	"github.com/saradorri/tournamentledger/internal/config"
	"github.com/saradorri/tournamentledger/internal/infrastructure/database"
	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"github.com/saradorri/tournamentledger/internal/infrastructure/seeder"
)

func main() {
	var (
		configPath  = flag.String("config", "./config", "Path to config directory")
		tournaments = flag.Bool("tournaments", true, "Also seed sample tournaments")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger := logger.NewLogger(config.GetEnvironment(), cfg.Log.Level)
	defer appLogger.Sync()

	db, err := database.NewDatabase(&database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	newSeeder := seeder.NewSeeder(db.GetDB(), appLogger)

	log.Println("Starting database seeding...")
	if _, err := newSeeder.SeedAccounts(seeder.DefaultAccounts); err != nil {
		log.Fatalf("Failed to seed accounts: %v", err)
	}
	if *tournaments {
		if _, err := newSeeder.SeedTournaments(time.Now().UTC()); err != nil {
			log.Fatalf("Failed to seed tournaments: %v", err)
		}
	}
	log.Println("Database seeding completed successfully")
}
