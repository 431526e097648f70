// Package session drives boards on behalf of players and keeps them in the
// session store between moves.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/scoring"
)

var (
	ErrNotFound  = errors.New("game session not found")
	ErrForbidden = errors.New("game session belongs to another player")
)

type Stats struct {
	CellsOpened  int `json:"cells_opened"`
	CorrectFlags int `json:"correct_flags"`
	WrongFlags   int `json:"wrong_flags"`
}

// Outcome is a finished game as handed to a [Recorder].
type Outcome struct {
	PlayerId    int64
	Score       int
	Difficulty  mines.Difficulty
	Won         bool
	TimeSeconds int
}

type Recorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}

type Session struct {
	ID string
	// PlayerId is nil for anonymous games.
	PlayerId *int64
	// Difficulty is empty for games with custom parameters, which are not
	// scored.
	Difficulty mines.Difficulty
	Board      *mines.Board
	Stats      Stats
	CreatedAt  time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
	Score      *scoring.Breakdown
	Recorded   bool
}

// TimeSeconds is the whole number of seconds the game has been running.
func (s *Session) TimeSeconds(now time.Time) int {
	if s.StartedAt == nil {
		return 0
	}
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return int(end.Sub(*s.StartedAt) / time.Second)
}

func (s *Session) ownedBy(playerId *int64) bool {
	if s.PlayerId == nil {
		return true
	}
	return playerId != nil && *playerId == *s.PlayerId
}

func (s *Session) pendingRecord() bool {
	return s.Score != nil && s.PlayerId != nil && !s.Recorded
}

func (s *Session) outcome() Outcome {
	return Outcome{
		PlayerId:    *s.PlayerId,
		Score:       s.Score.Final,
		Difficulty:  s.Difficulty,
		Won:         s.Board.Status() == mines.Won,
		TimeSeconds: s.TimeSeconds(*s.EndedAt),
	}
}

// record is the stored form of a [Session].
type record struct {
	ID         string
	PlayerId   *int64
	Difficulty mines.Difficulty
	Board      []byte
	Stats      Stats
	CreatedAt  time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
	Score      *scoring.Breakdown
	Recorded   bool
}

func (s *Session) record() (*record, error) {
	board, err := s.Board.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &record{
		ID:         s.ID,
		PlayerId:   s.PlayerId,
		Difficulty: s.Difficulty,
		Board:      board,
		Stats:      s.Stats,
		CreatedAt:  s.CreatedAt,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Score:      s.Score,
		Recorded:   s.Recorded,
	}, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("unable to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
