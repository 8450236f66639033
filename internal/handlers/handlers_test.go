package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/concentration/internal/concentration"
	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/game"
	"github.com/vancomm/concentration/internal/middleware"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

type testServer struct {
	repo    *memRepo
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()
	key := rsaKey(t)
	jwt := config.NewJWTFromKeys(key, &key.PublicKey, time.Hour)
	cookies := config.NewCookies(config.Config{Mode: "development", Domain: "localhost"}, jwt)
	repo := newMemRepo()

	router := http.NewServeMux()
	Mount(router,
		NewGameHandler(log, repo, game.DefaultPairs, mrand.New(mrand.NewPCG(1, 2))),
		NewAuthHandler(log, repo, cookies),
	)
	return &testServer{
		repo:    repo,
		handler: middleware.Wrap(router, middleware.Auth(log, cookies)),
	}
}

func (ts *testServer) do(
	t *testing.T, method, target, body string, cookies ...*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if method == http.MethodPost && strings.Contains(body, "=") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) GameSessionDTO {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dto GameSessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto
}

func (ts *testServer) newGame(t *testing.T, pairs int, cookies ...*http.Cookie) GameSessionDTO {
	t.Helper()
	return decodeSession(t, ts.do(t, http.MethodPost, fmt.Sprintf("/v1/game?pairs=%d", pairs), "", cookies...))
}

// layout reads the hidden pattern of a stored session.
func (ts *testServer) layout(t *testing.T, id string) (pairs map[concentration.Shape][]game.Point, empty []game.Point) {
	t.Helper()
	var sessionId int
	_, err := fmt.Sscan(id, &sessionId)
	require.NoError(t, err)
	session, ok := ts.repo.sessions[sessionId]
	require.True(t, ok)
	state, err := game.DecodeState(session.State)
	require.NoError(t, err)

	pairs = make(map[concentration.Shape][]game.Point)
	for y := range concentration.Size {
		for x := range concentration.Size {
			shape, err := state.Logic.Shape(x, y)
			require.NoError(t, err)
			if shape == concentration.Empty {
				empty = append(empty, game.Point{X: x, Y: y})
			} else {
				pairs[shape] = append(pairs[shape], game.Point{X: x, Y: y})
			}
		}
	}
	return
}

func pickPath(id string, p game.Point) string {
	return fmt.Sprintf("/v1/game/%s/pick?x=%d&y=%d", id, p.X, p.Y)
}

func TestNewGameDefaults(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/game", "")
	dto := decodeSession(t, rec)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, game.DefaultPairs, dto.TotalPairs)
	assert.Equal(t, game.DefaultPairs, dto.Remaining)
	assert.Equal(t, "picking", dto.Phase)
	assert.Nil(t, dto.EndedAt)
	for _, row := range dto.Cells {
		for _, cell := range row {
			assert.Equal(t, game.Hidden, cell.State)
			assert.Equal(t, concentration.Empty, cell.Shape)
		}
	}
}

func TestNewGameBadPairs(t *testing.T) {
	ts := newTestServer(t)
	for _, q := range []string{"pairs=13", "pairs=-1", "pairs=abc"} {
		rec := ts.do(t, http.MethodPost, "/v1/game?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, rec.Body.String(), "invalid argument", q)
	}
}

func TestFetch(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 3)

	fetched := decodeSession(t, ts.do(t, http.MethodGet, "/v1/game/"+created.GameSessionId, ""))
	assert.Equal(t, created.GameSessionId, fetched.GameSessionId)
	assert.Equal(t, 3, fetched.TotalPairs)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/v1/game/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/v1/game/abc", "").Code)
}

func TestPlayToWin(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 1)
	pairs, _ := ts.layout(t, created.GameSessionId)
	require.Len(t, pairs, 1)
	var cells []game.Point
	for _, pts := range pairs {
		cells = pts
	}

	dto := decodeSession(t, ts.do(t, http.MethodPost, pickPath(created.GameSessionId, cells[0]), ""))
	assert.Equal(t, game.FaceUp, dto.Cells[cells[0].Y][cells[0].X].State)

	dto = decodeSession(t, ts.do(t, http.MethodPost, pickPath(created.GameSessionId, cells[1]), ""))
	assert.Equal(t, "showing", dto.Phase)

	dto = decodeSession(t, ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/resolve", ""))
	assert.True(t, dto.Won)
	assert.True(t, dto.Over)
	assert.Equal(t, 1, dto.Score)
	assert.Zero(t, dto.Remaining)
	require.NotNil(t, dto.EndedAt)
	assert.Equal(t, game.Matched, dto.Cells[cells[1].Y][cells[1].X].State)

	rec := ts.do(t, http.MethodPost, pickPath(created.GameSessionId, game.Point{}), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	scores := ts.do(t, http.MethodGet, "/v1/highscores?pairs=1", "")
	require.Equal(t, http.StatusOK, scores.Code)
	assert.Contains(t, scores.Body.String(), `"pairs":1`)
}

func TestPickValidation(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 2)
	base := "/v1/game/" + created.GameSessionId + "/pick"

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, base, "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, base+"?x=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, base+"?x=5&y=0", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/v1/game/42/pick?x=0&y=0", "").Code)
	assert.Zero(t, ts.repo.updates)
}

func TestBatchIsAtomic(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 2)
	pairs, _ := ts.layout(t, created.GameSessionId)
	var p game.Point
	for _, pts := range pairs {
		p = pts[0]
	}

	body := fmt.Sprintf("p %d %d\n\nbogus\n", p.X, p.Y)
	rec := ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/batch", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var batchErr BatchErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batchErr))
	assert.Equal(t, 3, batchErr.Line)
	assert.Contains(t, batchErr.Error, "unknown command")
	assert.Zero(t, ts.repo.updates)

	dto := decodeSession(t, ts.do(t, http.MethodGet, "/v1/game/"+created.GameSessionId, ""))
	assert.Equal(t, game.Hidden, dto.Cells[p.Y][p.X].State)
}

func TestBatchLineNumbersCountLeadingBlanks(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 2)

	rec := ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/batch", "\n\nbogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var batchErr BatchErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batchErr))
	assert.Equal(t, 3, batchErr.Line)
}

func TestBatchTooLarge(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 2)
	pairs, _ := ts.layout(t, created.GameSessionId)
	var p game.Point
	for _, pts := range pairs {
		p = pts[0]
	}

	body := strings.Repeat("g\n", maxBatchBytes/2) + fmt.Sprintf("p %d %d\n", p.X, p.Y)
	rec := ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/batch", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrBatchTooLarge.Error())
	assert.Zero(t, ts.repo.updates)

	dto := decodeSession(t, ts.do(t, http.MethodGet, "/v1/game/"+created.GameSessionId, ""))
	assert.Equal(t, game.Hidden, dto.Cells[p.Y][p.X].State)
}

func TestBatchPlaysWholeGame(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 3)
	pairs, _ := ts.layout(t, created.GameSessionId)

	var script strings.Builder
	for _, pts := range pairs {
		fmt.Fprintf(&script, "p %d %d\np %d %d\n", pts[0].X, pts[0].Y, pts[1].X, pts[1].Y)
	}
	script.WriteString("r\n")

	dto := decodeSession(t, ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/batch", script.String()))
	assert.True(t, dto.Won)
	assert.Equal(t, 3, dto.Score)
	assert.Equal(t, 1, ts.repo.updates)
}

func TestForfeit(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newGame(t, 2)
	path := "/v1/game/" + created.GameSessionId + "/forfeit"

	dto := decodeSession(t, ts.do(t, http.MethodPost, path, ""))
	assert.True(t, dto.Forfeited)
	assert.True(t, dto.Over)
	assert.False(t, dto.Won)
	require.NotNil(t, dto.EndedAt)
	endedAt := *dto.EndedAt

	dto = decodeSession(t, ts.do(t, http.MethodPost, path, ""))
	assert.Equal(t, endedAt, *dto.EndedAt)

	scores := ts.do(t, http.MethodGet, "/v1/highscores", "")
	assert.JSONEq(t, `[]`, scores.Body.String())
}

func TestStaleSessionConflicts(t *testing.T) {
	ts := newTestServer(t)
	log, _ := test.NewNullLogger()
	h := NewGameHandler(log, ts.repo, 2, mrand.New(mrand.NewPCG(3, 4)))
	created := ts.newGame(t, 2)

	var id int
	_, err := fmt.Sscan(created.GameSessionId, &id)
	require.NoError(t, err)
	stale, err := ts.repo.FetchGameSession(t.Context(), id)
	require.NoError(t, err)
	state, err := game.DecodeState(stale.State)
	require.NoError(t, err)

	_, err = h.save(t.Context(), stale, state, time.Now())
	require.NoError(t, err)
	_, err = h.save(t.Context(), stale, state, time.Now())
	assert.ErrorIs(t, err, ErrStaleSession)
	assert.Equal(t, http.StatusConflict, statusFor(err))
}

func register(t *testing.T, ts *testServer, username, password string) []*http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	rec := ts.do(t, http.MethodPost, "/v1/register", form.Encode())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	cookies := register(t, ts, "alice", "hunter2")
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"auth", "sign"}, names)

	rec := ts.do(t, http.MethodGet, "/v1/status", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "alice", status.Player.Username)

	form := url.Values{"username": {"alice"}, "password": {"hunter2"}}
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/v1/login", form.Encode()).Code)

	form.Set("password", "wrong")
	rec = ts.do(t, http.MethodPost, "/v1/login", form.Encode())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), ErrBadCredentials.Error())

	form = url.Values{"username": {"bob"}, "password": {"x"}}
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/v1/login", form.Encode()).Code)
}

func TestRegisterRejects(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "pw")

	form := url.Values{"username": {"alice"}, "password": {"other"}}
	rec := ts.do(t, http.MethodPost, "/v1/register", form.Encode())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), ErrUsernameTaken.Error())

	form = url.Values{"username": {"carol"}}
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/v1/register", form.Encode()).Code)

	form = url.Values{"username": {"carol"}, "password": {strings.Repeat("x", 73)}}
	rec = ts.do(t, http.MethodPost, "/v1/register", form.Encode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrBadPasswordTooLong.Error())
}

func TestStatusAnonymous(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logged_in":false}`, rec.Body.String())
}

func TestPlayerSessionOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice", "pw")
	bob := register(t, ts, "bob", "pw")
	created := ts.newGame(t, 2, alice...)
	path := "/v1/game/" + created.GameSessionId + "/forfeit"

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, path, "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, path, "", bob...).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, path, "", alice...).Code)

	// anyone may look
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/v1/game/"+created.GameSessionId, "").Code)
}

func TestHighscoresFilter(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/v1/highscores?pairs=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/v1/highscores?pairs=x", "").Code)

	alice := register(t, ts, "alice", "pw")
	created := ts.newGame(t, 1, alice...)
	pairs, _ := ts.layout(t, created.GameSessionId)
	var script strings.Builder
	for _, pts := range pairs {
		fmt.Fprintf(&script, "p %d %d\np %d %d\nr", pts[0].X, pts[0].Y, pts[1].X, pts[1].Y)
	}
	decodeSession(t, ts.do(t, http.MethodPost, "/v1/game/"+created.GameSessionId+"/batch", script.String(), alice...))

	rec := ts.do(t, http.MethodGet, "/v1/highscores?username=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = ts.do(t, http.MethodGet, "/v1/highscores?username=bob", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{concentration.ErrOutOfRange, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", game.ErrBadCommand), http.StatusBadRequest},
		{&batchError{3, game.ErrGameOver}, http.StatusConflict},
		{game.ErrBusy, http.StatusConflict},
		{ErrNotOwner, http.StatusForbidden},
		{fmt.Errorf("%w: limit", ErrBatchTooLarge), http.StatusRequestEntityTooLarge},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
