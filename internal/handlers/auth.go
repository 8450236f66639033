package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/middleware"
	"github.com/vancomm/concentration/internal/repository"
)

type AuthHandler struct {
	log     *logrus.Logger
	repo    Repository
	cookies *config.Cookies
}

func NewAuthHandler(log *logrus.Logger, repo Repository, cookies *config.Cookies) *AuthHandler {
	return &AuthHandler{
		log:     log,
		repo:    repo,
		cookies: cookies,
	}
}

type PlayerInfo struct {
	PlayerId int    `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

var (
	ErrBadAuthBody        = fmt.Errorf("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = fmt.Errorf("password too long")
	ErrUsernameTaken      = fmt.Errorf("username taken")
	ErrBadCredentials     = fmt.Errorf("invalid username or password")
)

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		h.log.Debug("no valid claims, clear cookies")
		h.cookies.Clear(w)
		sendJSONOrLog(w, h.log, Status{LoggedIn: false})
		return
	}
	if err := h.cookies.Refresh(w, claims.PlayerId, claims.Username); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to refresh cookies: ", err)
		return
	}
	sendJSONOrLog(w, h.log, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerId, claims.Username},
	})
}

func (h *AuthHandler) credentials(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return "", nil, false
	}
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		sendJSONStatus(w, h.log, http.StatusBadRequest, wrapError(ErrBadAuthBody))
		return "", nil, false
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		sendJSONStatus(w, h.log, http.StatusBadRequest, wrapError(ErrBadPasswordTooLong))
		return "", nil, false
	}
	return username, []byte(password), true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := h.credentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to hash password: ", err)
		return
	}

	player, err := h.repo.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		sendJSONStatus(w, h.log, http.StatusConflict, wrapError(ErrUsernameTaken))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to insert player: ", err)
		return
	}

	h.log.WithField("username", player.Username).Info("player registered")
	h.login(w, player)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := h.credentials(w, r)
	if !ok {
		return
	}

	player, err := h.repo.FetchPlayer(r.Context(), username)
	if errors.Is(err, pgx.ErrNoRows) {
		sendJSONStatus(w, h.log, http.StatusUnauthorized, wrapError(ErrBadCredentials))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to fetch player: ", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, password); err != nil {
		sendJSONStatus(w, h.log, http.StatusUnauthorized, wrapError(ErrBadCredentials))
		return
	}

	h.login(w, player)
}

func (h *AuthHandler) login(w http.ResponseWriter, player *repository.Player) {
	if err := h.cookies.Refresh(w, player.PlayerId, player.Username); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to set auth cookies: ", err)
		return
	}
	sendJSONOrLog(w, h.log, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerId, player.Username},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
