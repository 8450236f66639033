package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/vancomm/concentration/internal/handlers"
	"github.com/vancomm/concentration/internal/repository"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes() {
	repo := repository.New(a.db)
	game := handlers.NewGameHandler(a.log, repo, a.cfg.Game.Pairs, createRand())
	auth := handlers.NewAuthHandler(a.log, repo, a.cookies)
	handlers.Mount(a.router, game, auth)
}
