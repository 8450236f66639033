package main

import (
	"context"
	"errors"
	"flag"
	"hash/maphash"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/logging"
	"github.com/vancomm/concentration/internal/store"
)

const (
	ScreenWidth  = 640
	ScreenHeight = 480
	WindowTitle  = "Concentration"
)

var (
	log = logrus.New()

	configPath string
)

func init() {
	const usage = "config file path"
	flag.StringVar(&configPath, "config", "", usage)
	flag.StringVar(&configPath, "c", "", usage+" (shorthand)")
}

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func openRecords(ctx context.Context, path string) *store.Records {
	db, err := store.Open(path)
	if err != nil {
		log.Warn("best times disabled: ", err)
		return nil
	}
	s, err := store.New(ctx, db, "records")
	if err != nil {
		log.Warn("best times disabled: ", err)
		return nil
	}
	return store.NewRecords(s)
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
	game.Log = log

	log.WithFields(cfg.Fields()).Debug("config")

	records := openRecords(context.Background(), cfg.Game.RecordsPath)

	app, err := newApplication(cfg.Game, records, createRand())
	if err != nil {
		log.Fatal("unable to start game: ", err)
	}

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle(WindowTitle)

	if err := ebiten.RunGame(app); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
