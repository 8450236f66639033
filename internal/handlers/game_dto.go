package handlers

import (
	"fmt"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/vancomm/concentration/internal/concentration"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/repository"
)

var decoder = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}()

type GameParams struct {
	Pairs int `schema:"pairs"`
}

func ParseGameParams(src map[string][]string) (GameParams, error) {
	var p GameParams
	if err := decoder.Decode(&p, src); err != nil {
		return p, fmt.Errorf("%w: %w", concentration.ErrInvalidArgument, err)
	}
	return p, nil
}

type PositionParams struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

func ParsePosition(src map[string][]string) (PositionParams, error) {
	var p PositionParams
	if err := decoder.Decode(&p, src); err != nil {
		return p, fmt.Errorf("%w: %w", concentration.ErrInvalidArgument, err)
	}
	return p, nil
}

type HighscoreParams struct {
	Pairs    *int    `schema:"pairs"`
	Username *string `schema:"username"`
}

func ParseHighscoreParams(src map[string][]string) (HighscoreParams, error) {
	var p HighscoreParams
	if err := decoder.Decode(&p, src); err != nil {
		return p, fmt.Errorf("%w: %w", concentration.ErrInvalidArgument, err)
	}
	if p.Pairs != nil && (*p.Pairs < 1 || *p.Pairs > concentration.MaxPairs) {
		return p, concentration.ErrInvalidPairs
	}
	return p, nil
}

type GameSessionDTO struct {
	GameSessionId string `json:"game_session_id"`
	game.View
	StartedAt int64  `json:"started_at"`
	EndedAt   *int64 `json:"ended_at,omitempty"`
}

func NewGameSessionDTO(session *repository.GameSession, state *game.State) *GameSessionDTO {
	dto := &GameSessionDTO{
		GameSessionId: strconv.Itoa(session.GameSessionId),
		View:          state.View(),
		StartedAt:     session.StartedAt.Time.UnixMilli(),
	}
	if session.EndedAt.Valid {
		e := session.EndedAt.Time.UnixMilli()
		dto.EndedAt = &e
	}
	return dto
}

type BatchErrorDTO struct {
	Error string `json:"error"`
	Line  int    `json:"line"`
}
