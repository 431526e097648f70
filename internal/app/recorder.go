package app

import (
	"context"

	"github.com/vancomm/minesweeper/internal/repository"
	"github.com/vancomm/minesweeper/internal/session"
)

type ScoreCreator interface {
	CreateScore(ctx context.Context, params repository.CreateScoreParams) (*repository.Score, error)
}

// scoreRecorder stores finished games of registered players as scores.
type scoreRecorder struct {
	scores ScoreCreator
}

func (r scoreRecorder) RecordOutcome(ctx context.Context, o session.Outcome) error {
	_, err := r.scores.CreateScore(ctx, repository.CreateScoreParams{
		PlayerId:    o.PlayerId,
		Difficulty:  string(o.Difficulty),
		TimeSeconds: o.TimeSeconds,
		Score:       o.Score,
		Won:         o.Won,
	})
	return err
}
