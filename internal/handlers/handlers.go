package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/concentration/internal/concentration"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/repository"
)

// Repository is the storage the handlers need. *repository.Queries
// implements it.
type Repository interface {
	CreatePlayer(context.Context, repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
	CreateGameSession(context.Context, repository.CreateGameSessionParams) (*repository.GameSession, error)
	FetchGameSession(ctx context.Context, gameSessionId int) (*repository.GameSession, error)
	UpdateGameSession(
		ctx context.Context, gameSessionId int, params repository.UpdateGameSessionParams,
	) (*repository.GameSession, error)
	GetHighscores(context.Context, repository.HighscoreFilter) ([]repository.Highscore, error)
}

var (
	ErrNotOwner      = errors.New("game session belongs to another player")
	ErrStaleSession  = errors.New("game session was modified concurrently, retry")
	ErrBatchTooLarge = errors.New("batch too large")
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log *logrus.Logger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithField("response", v).Error("unable to send response: ", err)
	}
}

// sendJSONStatus writes v as JSON with the given status. Headers are set
// before WriteHeader so Content-Type reaches the client.
func sendJSONStatus(w http.ResponseWriter, log *logrus.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("response", v).Error("unable to send response: ", err)
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, concentration.ErrInvalidArgument),
		errors.Is(err, game.ErrBadCommand):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrBusy),
		errors.Is(err, ErrStaleSession):
		return http.StatusConflict
	case errors.Is(err, ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// sendError writes the status for err. Internal errors are logged and
// their text is not sent to the client.
func sendError(w http.ResponseWriter, log *logrus.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		w.WriteHeader(status)
		log.Error(err)
		return
	}
	var body any = wrapError(err)
	var be *batchError
	if errors.As(err, &be) {
		body = BatchErrorDTO{Error: be.err.Error(), Line: be.line}
	}
	sendJSONStatus(w, log, status, body)
}

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}
