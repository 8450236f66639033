package handlers

import "net/http"

func Mount(router *http.ServeMux, game *GameHandler, auth *AuthHandler) {
	router.HandleFunc("POST /v1/register", auth.Register)
	router.HandleFunc("POST /v1/login", auth.Login)
	router.HandleFunc("POST /v1/logout", auth.Logout)
	router.HandleFunc("GET /v1/status", auth.Status)

	router.HandleFunc("POST /v1/game", game.NewGame)
	router.HandleFunc("GET /v1/game/{id}", game.Fetch)
	router.HandleFunc("POST /v1/game/{id}/pick", game.Pick)
	router.HandleFunc("POST /v1/game/{id}/resolve", game.Resolve)
	router.HandleFunc("POST /v1/game/{id}/batch", game.Batch)
	router.HandleFunc("POST /v1/game/{id}/forfeit", game.Forfeit)
	router.HandleFunc("GET /v1/game/{id}/connect", game.ConnectWS)

	router.HandleFunc("GET /v1/highscores", game.Highscores)
}
