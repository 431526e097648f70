package handlers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/repository"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

func setupJWT(t *testing.T) (*config.JWT, *config.Cookies) {
	t.Helper()
	key := testKey()
	j := config.NewJWTFromKeys(key, &key.PublicKey, time.Hour)

	t.Setenv("COOKIES_DOMAIN", "localhost")
	cookies, err := config.NewCookies(j)
	require.NoError(t, err)
	return j, cookies
}

// fakeRepo is an in-memory stand-in for the postgres queries.
type fakeRepo struct {
	mu      sync.Mutex
	nextId  int64
	players map[int64]*repository.Player
	scores  []repository.ScoreWithPlayer
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextId: 1, players: map[int64]*repository.Player{}}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

func (f *fakeRepo) CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.players {
		if p.Username == params.Username || p.Email == params.Email {
			return nil, uniqueViolation()
		}
	}
	p := &repository.Player{
		PlayerId:     f.nextId,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         repository.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.players[p.PlayerId] = p
	f.nextId++
	return p, nil
}

func (f *fakeRepo) fetchBy(match func(*repository.Player) bool) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.players {
		if match(p) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRepo) FetchPlayer(ctx context.Context, playerId int64) (*repository.Player, error) {
	return f.fetchBy(func(p *repository.Player) bool { return p.PlayerId == playerId })
}

func (f *fakeRepo) FetchPlayerByUsername(ctx context.Context, username string) (*repository.Player, error) {
	return f.fetchBy(func(p *repository.Player) bool { return p.Username == username })
}

func (f *fakeRepo) FetchPlayerByEmail(ctx context.Context, email string) (*repository.Player, error) {
	return f.fetchBy(func(p *repository.Player) bool { return p.Email == email })
}

func (f *fakeRepo) UpdatePlayerProfile(ctx context.Context, playerId int64, params repository.UpdatePlayerParams) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if params.Username != nil {
		p.Username = *params.Username
	}
	if params.Email != nil {
		p.Email = *params.Email
	}
	clone := *p
	return &clone, nil
}

func (f *fakeRepo) UpdatePlayerPassword(ctx context.Context, playerId int64, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerId]
	if !ok {
		return pgx.ErrNoRows
	}
	p.PasswordHash = hash
	return nil
}

func (f *fakeRepo) ListPlayers(ctx context.Context) ([]repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var players []repository.Player
	for id := range f.nextId {
		if p, ok := f.players[id]; ok {
			players = append(players, *p)
		}
	}
	return players, f.err
}

func (f *fakeRepo) UpdatePlayerRole(ctx context.Context, playerId int64, role string) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.Role = role
	clone := *p
	return &clone, nil
}

func (f *fakeRepo) DeletePlayer(ctx context.Context, playerId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[playerId]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.players, playerId)
	return nil
}

func (f *fakeRepo) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]repository.ScoreWithPlayer, error) {
	var scores []repository.ScoreWithPlayer
	for _, s := range f.scores {
		if filter.Difficulty != nil && s.Difficulty != *filter.Difficulty {
			continue
		}
		if filter.Won != nil && s.Won != *filter.Won {
			continue
		}
		scores = append(scores, s)
	}
	return scores, nil
}

func (f *fakeRepo) GetStats(ctx context.Context) (*repository.Stats, error) {
	return &repository.Stats{TotalUsers: int64(len(f.players)), TotalGames: int64(len(f.scores))}, nil
}

func (f *fakeRepo) ListPersonalBests(ctx context.Context, playerId int64) ([]repository.Score, error) {
	var bests []repository.Score
	for _, s := range f.scores {
		if s.PlayerId == playerId {
			bests = append(bests, s.Score)
		}
	}
	return bests, nil
}

func (f *fakeRepo) ListLeaderboard(ctx context.Context, difficulty string) ([]repository.LeaderboardEntry, error) {
	var entries []repository.LeaderboardEntry
	for _, s := range f.scores {
		if s.Difficulty == difficulty {
			entries = append(entries, repository.LeaderboardEntry{
				Username: s.Username, Score: s.Score.Score, TimeSeconds: s.TimeSeconds, Won: s.Won,
			})
		}
	}
	return entries, nil
}

func withPlayer(r *http.Request, playerId int64) *http.Request {
	claims := config.NewPlayerClaims(playerId, "", repository.RoleUser)
	return r.WithContext(context.WithValue(r.Context(), middleware.CtxPlayerClaims, claims))
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
