package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/repository"
)

// ConnectWS upgrades to a websocket that accepts command batches as text
// messages and answers each with the session, or with an error object.
func (g *GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	session, _, err := g.load(r.Context(), r)
	if err != nil {
		sendError(w, g.log, err)
		return
	}
	if err := authorize(r, session); err != nil {
		sendError(w, g.log, err)
		return
	}
	c, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade: ", err)
		return
	}
	defer c.Close()

	log := g.log.WithField("game_session_id", session.GameSessionId)
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read: ", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}
		log.Debug("> ", string(message))

		var reply any
		session, reply, err = g.apply(r, session, string(message))
		if err != nil {
			log.Error("apply: ", err)
			return
		}
		if err := c.WriteJSON(reply); err != nil {
			log.Error("write: ", err)
			return
		}
	}
}

// apply runs one websocket message against session. Client mistakes become
// the reply, only storage failures are returned as errors.
func (g *GameHandler) apply(
	r *http.Request, session *repository.GameSession, text string,
) (*repository.GameSession, any, error) {
	state, err := game.DecodeState(session.State)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	syncClock(state, session, now)

	if err := runBatch(state, text); err != nil {
		var be *batchError
		errors.As(err, &be)
		return session, BatchErrorDTO{Error: be.err.Error(), Line: be.line}, nil
	}

	updated, err := g.save(r.Context(), session, state, now)
	if errors.Is(err, ErrStaleSession) {
		fresh, err := g.repo.FetchGameSession(r.Context(), session.GameSessionId)
		if err != nil {
			return nil, nil, err
		}
		return fresh, wrapError(ErrStaleSession), nil
	}
	if err != nil {
		return nil, nil, err
	}
	syncClock(state, updated, now)
	return updated, NewGameSessionDTO(updated, state), nil
}
