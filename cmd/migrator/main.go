package main

import (
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/database"
	"github.com/vancomm/concentration/internal/logging"
)

var (
	log = logrus.New()

	configPath string
	down       bool
)

func init() {
	const usage = "config file path"
	flag.StringVar(&configPath, "config", "", usage)
	flag.StringVar(&configPath, "c", "", usage+" (shorthand)")
	flag.BoolVar(&down, "down", false, "roll back every migration")
}

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Setup(log, cfg); err != nil {
		log.Fatal(err)
	}

	if down {
		migrator, err := database.NewMigrator(cfg.Postgres)
		if err != nil {
			log.Fatal(err)
		}
		if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("failed to roll back: ", err)
		}
		log.Info("rolled back all migrations")
		return
	}

	migrator, err := database.Migrate(cfg.Postgres)
	if err != nil {
		log.Fatal(err)
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		log.Error("failed to check migration version: ", err)
		return
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
