package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper/internal/database"
)

func ptr[T any](v T) *T {
	return &v
}

func TestScoreFilterWhereClause(t *testing.T) {
	tests := []struct {
		name   string
		filter ScoreFilter
		clause string
		args   pgx.NamedArgs
	}{
		{
			name:   "empty",
			clause: "",
			args:   pgx.NamedArgs{},
		},
		{
			name:   "username",
			filter: ScoreFilter{Username: ptr("alice")},
			clause: "username = @username",
			args:   pgx.NamedArgs{"username": "alice"},
		},
		{
			name: "everything",
			filter: ScoreFilter{
				PlayerId:   ptr[int64](4),
				Username:   ptr("bob"),
				Difficulty: ptr("expert"),
				Won:        ptr(false),
			},
			clause: "player_id = @player_id AND username = @username AND difficulty = @difficulty AND won = @won",
			args: pgx.NamedArgs{
				"player_id": int64(4), "username": "bob", "difficulty": "expert", "won": false,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clause, args := test.filter.WhereClause()
			assert.Equal(t, test.clause, clause)
			assert.Equal(t, test.args, args)
		})
	}
}

func TestUpdatePlayerParamsSetClause(t *testing.T) {
	clause, args := UpdatePlayerParams{}.SetClause()
	assert.Empty(t, clause)
	assert.Empty(t, args)

	clause, args = UpdatePlayerParams{Username: ptr("carol"), Email: ptr("c@x.io")}.SetClause()
	assert.Equal(t, "username = @username, email = @email", clause)
	assert.Equal(t, pgx.NamedArgs{"username": "carol", "email": "c@x.io"}, args)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("root"))
	assert.False(t, ValidRole(""))
}

// setupDB connects to TEST_DATABASE_URL, migrates it and empties the tables.
func setupDB(t *testing.T) *Queries {
	t.Helper()
	url, ok := os.LookupEnv("TEST_DATABASE_URL")
	if !ok {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	_, err := database.Migrate(url)
	require.NoError(t, err)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE score, player RESTART IDENTITY")
	require.NoError(t, err)
	return New(pool)
}

func createPlayer(t *testing.T, q *Queries, name string) *Player {
	t.Helper()
	p, err := q.CreatePlayer(context.Background(), CreatePlayerParams{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	return p
}

func TestPlayers(t *testing.T) {
	q := setupDB(t)
	ctx := context.Background()

	alice := createPlayer(t, q, "alice")
	assert.Equal(t, RoleUser, alice.Role)

	_, err := q.CreatePlayer(ctx, CreatePlayerParams{
		Username: "alice", Email: "other@example.com", PasswordHash: []byte("x"),
	})
	assert.Error(t, err)

	byEmail, err := q.FetchPlayerByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.PlayerId, byEmail.PlayerId)

	updated, err := q.UpdatePlayerProfile(ctx, alice.PlayerId, UpdatePlayerParams{Username: ptr("alicia")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)

	admin, err := q.UpdatePlayerRoleByEmail(ctx, "alice@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, admin.Role)

	_, err = q.UpdatePlayerRole(ctx, alice.PlayerId, "root")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = q.FetchPlayer(ctx, alice.PlayerId+100)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestScoresAndStats(t *testing.T) {
	q := setupDB(t)
	ctx := context.Background()

	alice := createPlayer(t, q, "alice")
	bob := createPlayer(t, q, "bob")

	for i, s := range []CreateScoreParams{
		{PlayerId: alice.PlayerId, Difficulty: "expert", TimeSeconds: 300, Score: 900, Won: true},
		{PlayerId: alice.PlayerId, Difficulty: "beginner", TimeSeconds: 40, Score: 250, Won: true},
		{PlayerId: alice.PlayerId, Difficulty: "beginner", TimeSeconds: 10, Score: 30, Won: false},
		{PlayerId: bob.PlayerId, Difficulty: "beginner", TimeSeconds: 20, Score: 280, Won: true},
	} {
		_, err := q.CreateScore(ctx, s)
		require.NoError(t, err, fmt.Sprint(i))
	}

	bests, err := q.ListPersonalBests(ctx, alice.PlayerId)
	require.NoError(t, err)
	require.Len(t, bests, 3)
	assert.Equal(t, []int{250, 30, 900}, []int{bests[0].Score, bests[1].Score, bests[2].Score})

	board, err := q.ListLeaderboard(ctx, "beginner")
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "bob", board[0].Username)

	scores, err := q.ListScores(ctx, ScoreFilter{Username: ptr("alice"), Won: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, scores, 2)

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.TotalGames)
	require.Len(t, stats.ByDifficulty, 2)
	assert.Equal(t, "beginner", stats.ByDifficulty[0].Difficulty)
	assert.Equal(t, int64(3), stats.ByDifficulty[0].Count)
	assert.InDelta(t, 70.0/3, stats.ByDifficulty[0].AvgTime, 1e-9)
	require.Len(t, stats.DailyActivity, 1)
	assert.Equal(t, int64(4), stats.DailyActivity[0].Games)
	assert.WithinDuration(t, time.Now(), stats.DailyActivity[0].Day, 24*time.Hour)

	require.NoError(t, q.DeletePlayer(ctx, alice.PlayerId))
	scores, err = q.ListScores(ctx, ScoreFilter{})
	require.NoError(t, err)
	assert.Len(t, scores, 1)

	err = q.DeletePlayer(ctx, alice.PlayerId)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}
