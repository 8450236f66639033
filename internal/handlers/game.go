package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/concentration/internal/concentration"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/middleware"
	"github.com/vancomm/concentration/internal/repository"
)

const maxBatchBytes = 64 << 10

type GameHandler struct {
	log          *logrus.Logger
	repo         Repository
	upgrader     websocket.Upgrader
	defaultPairs int

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

func NewGameHandler(
	log *logrus.Logger, repo Repository, defaultPairs int, rnd *rand.Rand,
) *GameHandler {
	return &GameHandler{
		log:  log,
		repo: repo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				log.Debug("ws origin: ", r.Header.Get("Origin"))
				return true
			},
		},
		defaultPairs: defaultPairs,
		rnd:          rnd,
	}
}

func (g *GameHandler) newState(pairs int) (*game.State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return game.NewState(pairs, g.rnd)
}

// syncClock sets the play clock from the session timestamps. The server
// measures wall time, so Tick is never used here.
func syncClock(state *game.State, session *repository.GameSession, now time.Time) {
	end := now
	if session.EndedAt.Valid {
		end = session.EndedAt.Time
	}
	state.Elapsed = max(end.Sub(session.StartedAt.Time), 0)
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	params, err := ParseGameParams(r.URL.Query())
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	if params.Pairs == 0 {
		params.Pairs = g.defaultPairs
	}

	state, err := g.newState(params.Pairs)
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	b, err := state.Bytes()
	if err != nil {
		sendError(w, g.log, fmt.Errorf("unable to encode game state: %w", err))
		return
	}

	create := repository.CreateGameSessionParams{
		Pairs: params.Pairs,
		State: b,
	}
	if claims, ok := middleware.PlayerClaims(r); ok {
		g.log.WithField("player_id", claims.PlayerId).Debug("creating player session")
		create.PlayerId = &claims.PlayerId
	} else {
		g.log.Debug("creating anonymous session")
	}

	session, err := g.repo.CreateGameSession(r.Context(), create)
	if err != nil {
		sendError(w, g.log, fmt.Errorf("unable to create game session: %w", err))
		return
	}
	syncClock(state, session, time.Now())
	sendJSONOrLog(w, g.log, NewGameSessionDTO(session, state))
}

// load fetches the session named by the {id} path value and decodes its
// state.
func (g *GameHandler) load(ctx context.Context, r *http.Request) (
	*repository.GameSession, *game.State, error,
) {
	sessionId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad game session id", concentration.ErrInvalidArgument)
	}
	session, err := g.repo.FetchGameSession(ctx, sessionId)
	if err != nil {
		return nil, nil, err
	}
	state, err := game.DecodeState(session.State)
	if err != nil {
		return nil, nil, fmt.Errorf("db returned invalid game_session.state: %w", err)
	}
	return session, state, nil
}

// authorize allows anonymous sessions to anyone and player sessions to
// their owner only.
func authorize(r *http.Request, session *repository.GameSession) error {
	if session.PlayerId == nil {
		return nil
	}
	claims, ok := middleware.PlayerClaims(r)
	if !ok || claims.PlayerId != *session.PlayerId {
		return ErrNotOwner
	}
	return nil
}

// save stores state, stamping ended_at the first time the game is over.
func (g *GameHandler) save(
	ctx context.Context, session *repository.GameSession, state *game.State, now time.Time,
) (*repository.GameSession, error) {
	b, err := state.Bytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize game state: %w", err)
	}
	params := repository.UpdateGameSessionParams{
		Version:   session.UpdatedAt.Time,
		Matched:   &state.Matched,
		Won:       &state.Won,
		Forfeited: &state.Forfeited,
		State:     &b,
	}
	if state.Over() && !session.EndedAt.Valid {
		params.EndedAt = &now
	}
	updated, err := g.repo.UpdateGameSession(ctx, session.GameSessionId, params)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaleSession
	}
	if err != nil {
		return nil, fmt.Errorf("unable to update session in db: %w", err)
	}
	if params.EndedAt != nil {
		g.log.WithFields(logrus.Fields{
			"game_session_id": updated.GameSessionId,
			"won":             state.Won,
			"forfeited":       state.Forfeited,
			"elapsed":         state.Elapsed,
		}).Info("game over")
	}
	return updated, nil
}

// mutate runs fn against the session state and persists the result. If fn
// fails nothing is stored.
func (g *GameHandler) mutate(
	w http.ResponseWriter, r *http.Request, fn func(*game.State) error,
) {
	session, state, err := g.load(r.Context(), r)
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	if err := authorize(r, session); err != nil {
		sendError(w, g.log, err)
		return
	}
	now := time.Now().UTC()
	syncClock(state, session, now)
	if err := fn(state); err != nil {
		sendError(w, g.log, err)
		return
	}
	updated, err := g.save(r.Context(), session, state, now)
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	syncClock(state, updated, now)
	sendJSONOrLog(w, g.log, NewGameSessionDTO(updated, state))
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	session, state, err := g.load(r.Context(), r)
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	syncClock(state, session, time.Now().UTC())
	sendJSONOrLog(w, g.log, NewGameSessionDTO(session, state))
}

func (g *GameHandler) Pick(w http.ResponseWriter, r *http.Request) {
	pos, err := ParsePosition(r.URL.Query())
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	g.mutate(w, r, func(s *game.State) error {
		return s.PickResolving(pos.X, pos.Y)
	})
}

func (g *GameHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	g.mutate(w, r, func(s *game.State) error {
		return s.Resolve()
	})
}

func (g *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	g.mutate(w, r, func(s *game.State) error {
		s.Forfeit()
		return nil
	})
}

// batchError reports which line of a command batch failed.
type batchError struct {
	line int
	err  error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.err)
}

func (e *batchError) Unwrap() error {
	return e.err
}

// runBatch executes newline separated commands, skipping blank lines. Line
// numbers in errors start at 1 and count blank lines.
func runBatch(state *game.State, text string) error {
	for i, c := range byPiece(text, "\n") {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if err := state.Execute(c); err != nil {
			return &batchError{i + 1, err}
		}
	}
	return nil
}

// Batch runs the command script in the request body. The batch is applied
// as a whole or not at all.
func (g *GameHandler) Batch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, g.log, fmt.Errorf("%w: limit is %d bytes", ErrBatchTooLarge, tooLarge.Limit))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	g.mutate(w, r, func(s *game.State) error {
		return runBatch(s, string(body))
	})
}

func (g *GameHandler) Highscores(w http.ResponseWriter, r *http.Request) {
	params, err := ParseHighscoreParams(r.URL.Query())
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	scores, err := g.repo.GetHighscores(r.Context(), repository.HighscoreFilter{
		Username: params.Username,
		Pairs:    params.Pairs,
	})
	if err != nil {
		sendError(w, g.log, fmt.Errorf("unable to fetch highscores: %w", err))
		return
	}
	if scores == nil {
		scores = []repository.Highscore{}
	}
	sendJSONOrLog(w, g.log, scores)
}
