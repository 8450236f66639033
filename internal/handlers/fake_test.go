package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vancomm/concentration/internal/repository"
)

// memRepo is an in-memory Repository mirroring the SQL semantics the
// handlers rely on.
type memRepo struct {
	mu       sync.Mutex
	players  map[string]*repository.Player
	sessions map[int]*repository.GameSession
	nextId   int
	updates  int
	clock    time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		players:  make(map[string]*repository.Player),
		sessions: make(map[int]*repository.GameSession),
		clock:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) now() pgtype.Timestamptz {
	m.clock = m.clock.Add(time.Millisecond)
	return pgtype.Timestamptz{Time: m.clock, Valid: true}
}

func (m *memRepo) CreatePlayer(
	_ context.Context, p repository.CreatePlayerParams,
) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.Username]; ok {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	m.nextId++
	player := &repository.Player{
		PlayerId:     m.nextId,
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		CreatedAt:    m.now(),
	}
	m.players[p.Username] = player
	return player, nil
}

func (m *memRepo) FetchPlayer(_ context.Context, username string) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return player, nil
}

func (m *memRepo) CreateGameSession(
	_ context.Context, p repository.CreateGameSessionParams,
) (*repository.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextId++
	now := m.now()
	session := &repository.GameSession{
		GameSessionId: m.nextId,
		PlayerId:      p.PlayerId,
		Pairs:         p.Pairs,
		State:         p.State,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.sessions[session.GameSessionId] = session
	copied := *session
	return &copied, nil
}

func (m *memRepo) FetchGameSession(_ context.Context, id int) (*repository.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (m *memRepo) UpdateGameSession(
	_ context.Context, id int, p repository.UpdateGameSessionParams,
) (*repository.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || !session.UpdatedAt.Time.Equal(p.Version) {
		return nil, pgx.ErrNoRows
	}
	m.updates++
	session.UpdatedAt = m.now()
	if p.Matched != nil {
		session.Matched = *p.Matched
	}
	if p.Won != nil {
		session.Won = *p.Won
	}
	if p.Forfeited != nil {
		session.Forfeited = *p.Forfeited
	}
	if p.EndedAt != nil {
		session.EndedAt = pgtype.Timestamptz{Time: *p.EndedAt, Valid: true}
	}
	if p.State != nil {
		session.State = *p.State
	}
	copied := *session
	return &copied, nil
}

func (m *memRepo) GetHighscores(
	_ context.Context, f repository.HighscoreFilter,
) ([]repository.Highscore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var scores []repository.Highscore
	for _, s := range m.sessions {
		if !s.Won || s.Forfeited || !s.EndedAt.Valid {
			continue
		}
		if f.Pairs != nil && s.Pairs != *f.Pairs {
			continue
		}
		var username *string
		for _, p := range m.players {
			if s.PlayerId != nil && p.PlayerId == *s.PlayerId {
				username = &p.Username
			}
		}
		if f.Username != nil && (username == nil || *username != *f.Username) {
			continue
		}
		scores = append(scores, repository.Highscore{
			GameSessionId: s.GameSessionId,
			Username:      username,
			Pairs:         s.Pairs,
			PlaytimeMs:    float64(s.EndedAt.Time.Sub(s.StartedAt.Time).Milliseconds()),
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].PlaytimeMs < scores[j].PlaytimeMs
	})
	return scores, nil
}
