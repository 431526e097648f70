package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type Score struct {
	ScoreId     int64     `json:"score_id"`
	PlayerId    int64     `json:"player_id"`
	Difficulty  string    `json:"difficulty"`
	TimeSeconds int       `json:"time"`
	Score       int       `json:"score"`
	Won         bool      `json:"won"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateScoreParams struct {
	PlayerId    int64
	Difficulty  string
	TimeSeconds int
	Score       int
	Won         bool
}

func (q *Queries) CreateScore(ctx context.Context, params CreateScoreParams) (*Score, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO score (player_id, difficulty, time_seconds, score, won)
		VALUES (@player_id, @difficulty, @time_seconds, @score, @won)
		RETURNING *;`,
		pgx.NamedArgs{
			"player_id":    params.PlayerId,
			"difficulty":   params.Difficulty,
			"time_seconds": params.TimeSeconds,
			"score":        params.Score,
			"won":          params.Won,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Score])
}

const personalBestLimit = 15

// ListPersonalBests returns the player's best scores grouped by difficulty
// from easiest to hardest.
func (q *Queries) ListPersonalBests(ctx context.Context, playerId int64) ([]Score, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT * FROM score
		WHERE player_id = $1
		ORDER BY
			array_position(ARRAY['beginner', 'intermediate', 'expert'], difficulty),
			score DESC,
			time_seconds
		LIMIT $2`,
		playerId, personalBestLimit,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[Score])
}

type LeaderboardEntry struct {
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	TimeSeconds int       `json:"time"`
	Won         bool      `json:"won"`
	CreatedAt   time.Time `json:"created_at"`
}

const leaderboardLimit = 10

func (q *Queries) ListLeaderboard(ctx context.Context, difficulty string) ([]LeaderboardEntry, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT username, score, time_seconds, won, score.created_at
		FROM score
			JOIN player USING (player_id)
		WHERE difficulty = $1
		ORDER BY score DESC, time_seconds, score.created_at
		LIMIT $2`,
		difficulty, leaderboardLimit,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[LeaderboardEntry])
}

type ScoreWithPlayer struct {
	Score
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ScoreFilter struct {
	PlayerId   *int64
	Username   *string
	Difficulty *string
	Won        *bool
	Limit      int
}

func (f ScoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.PlayerId != nil {
		clauses = append(clauses, "player_id = @player_id")
		args["player_id"] = *f.PlayerId
	}
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	if f.Difficulty != nil {
		clauses = append(clauses, "difficulty = @difficulty")
		args["difficulty"] = *f.Difficulty
	}
	if f.Won != nil {
		clauses = append(clauses, "won = @won")
		args["won"] = *f.Won
	}
	return strings.Join(clauses, " AND "), args
}

// ListScores returns scores with their owners, newest first.
func (q *Queries) ListScores(ctx context.Context, filter ScoreFilter) ([]ScoreWithPlayer, error) {
	query := `
	SELECT
		score_id,
		player_id,
		difficulty,
		time_seconds,
		score,
		won,
		score.created_at,
		username,
		email
	FROM score
		JOIN player USING (player_id)`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	query += " ORDER BY score.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[ScoreWithPlayer])
}
