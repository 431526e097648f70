package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

type DifficultyStats struct {
	Difficulty string  `json:"difficulty"`
	Count      int64   `json:"count"`
	AvgTime    float64 `json:"avg_time"`
	AvgScore   float64 `json:"avg_score"`
}

type DailyActivity struct {
	Day   time.Time `json:"day"`
	Games int64     `json:"games"`
}

type Stats struct {
	TotalUsers    int64             `json:"total_users"`
	TotalGames    int64             `json:"total_games"`
	ByDifficulty  []DifficultyStats `json:"by_difficulty"`
	DailyActivity []DailyActivity   `json:"daily_activity"`
}

// GetStats runs its queries concurrently, so q must not be bound to a
// transaction.
func (q *Queries) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return q.db.QueryRow(gCtx, "SELECT count(*) FROM player").Scan(&stats.TotalUsers)
	})
	g.Go(func() error {
		return q.db.QueryRow(gCtx, "SELECT count(*) FROM score").Scan(&stats.TotalGames)
	})
	g.Go(func() error {
		rows, _ := q.db.Query(
			gCtx,
			`SELECT
				difficulty,
				count(*) count,
				avg(time_seconds)::float8 avg_time,
				avg(score)::float8 avg_score
			FROM score
			GROUP BY difficulty
			ORDER BY array_position(ARRAY['beginner', 'intermediate', 'expert'], difficulty)`,
		)
		byDifficulty, err := pgx.CollectRows(rows, pgx.RowToStructByName[DifficultyStats])
		stats.ByDifficulty = byDifficulty
		return err
	})
	g.Go(func() error {
		rows, _ := q.db.Query(
			gCtx,
			`SELECT
				date_trunc('day', created_at) AS day,
				count(*) games
			FROM score
			WHERE created_at >= date_trunc('day', now()) - interval '6 days'
			GROUP BY day
			ORDER BY day`,
		)
		daily, err := pgx.CollectRows(rows, pgx.RowToStructByName[DailyActivity])
		stats.DailyActivity = daily
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
