package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/concentration/internal/concentration"
	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/store"
)

type application struct {
	board   concentration.Board
	state   *game.State
	params  config.GameConfig
	rnd     *rand.Rand
	records *store.Records
	face    text.Face

	lastUpdate time.Time
	showing    time.Duration
	best       *store.Record
}

func newApplication(
	params config.GameConfig, records *store.Records, rnd *rand.Rand,
) (*application, error) {
	face, err := newFace(24)
	if err != nil {
		return nil, err
	}
	state, err := game.NewState(params.Pairs, rnd)
	if err != nil {
		return nil, err
	}
	app := &application{
		board:   concentration.NewBoard(),
		state:   state,
		params:  params,
		rnd:     rnd,
		records: records,
		face:    face,
	}
	app.loadBest()
	log.WithField("pairs", params.Pairs).Info("game started")
	return app, nil
}

func (a *application) loadBest() {
	a.best = nil
	if a.records == nil {
		return
	}
	rec, ok, err := a.records.Best(context.Background(), a.params.Pairs)
	if err != nil {
		log.Warn("unable to read best time: ", err)
		return
	}
	if ok {
		a.best = &rec
	}
}

func (a *application) restart() error {
	if err := a.state.Restart(a.params.Pairs, a.rnd); err != nil {
		return err
	}
	a.showing = 0
	a.loadBest()
	log.Info("game restarted")
	return nil
}

func (a *application) submitWin() {
	log.WithFields(logrus.Fields{
		"pairs":   a.state.TotalPairs(),
		"elapsed": a.state.Elapsed,
	}).Info("game won")
	if a.records == nil {
		return
	}
	improved, err := a.records.Submit(
		context.Background(), a.state.TotalPairs(), a.state.Elapsed,
	)
	if err != nil {
		log.Warn("unable to save best time: ", err)
		return
	}
	if improved {
		log.Info("new best time")
		a.loadBest()
	}
}

// Update: Logic (60 TPS)
func (a *application) Update() error {
	now := time.Now()
	if a.lastUpdate.IsZero() {
		a.lastUpdate = now
	}
	dt := now.Sub(a.lastUpdate)
	a.lastUpdate = now

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if a.state.Over() {
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyY):
			return a.restart()
		case inpututil.IsKeyJustPressed(ebiten.KeyN):
			return ebiten.Termination
		}
		return nil
	}

	a.state.Tick(dt)

	if a.state.Phase == game.Showing {
		// mouse input is ignored until the pair is resolved
		a.showing += dt
		if a.showing < a.params.RevealDelay {
			return nil
		}
		a.showing = 0
		if err := a.state.Resolve(); err != nil {
			return fmt.Errorf("unable to resolve pair: %w", err)
		}
		if a.state.Won {
			a.submitWin()
		}
		return nil
	}

	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return nil
	}
	x, y, ok := a.board.CellAt(ebiten.CursorPosition())
	if !ok {
		return nil
	}
	out, err := a.state.Pick(x, y)
	if errors.Is(err, game.ErrBusy) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to pick cell %d:%d: %w", x, y, err)
	}
	log.WithFields(logrus.Fields{"x": x, "y": y, "outcome": out}).Debug("pick")
	return nil
}

// Layout: fixed 640x480 canvas
func (a *application) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}
