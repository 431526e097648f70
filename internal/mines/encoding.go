package mines

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand/v2"
)

type boardState struct {
	Params            GameParams
	Mines             []bool
	Grid              Grid
	Status            Status
	FirstMoveConsumed bool
	FlagCount         int
	Revealed          int
}

func (b *Board) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(boardState{
		Params:            b.params,
		Mines:             b.mines,
		Grid:              b.grid,
		Status:            b.status,
		FirstMoveConsumed: b.firstMoveConsumed,
		FlagCount:         b.flagCount,
		Revealed:          b.revealed,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBoard restores a board written by [Board.MarshalBinary]. Adjacent
// counts are recomputed from the decoded mines.
func UnmarshalBoard(data []byte, r *rand.Rand) (*Board, error) {
	var s boardState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if err := s.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if len(s.Mines) != s.Params.Size() || len(s.Grid) != s.Params.Size() {
		return nil, fmt.Errorf("%w: grid size mismatch", ErrCorruptState)
	}
	mineCount := 0
	for _, mine := range s.Mines {
		if mine {
			mineCount++
		}
	}
	if mineCount != s.Params.MineCount {
		return nil, fmt.Errorf(
			"%w: have %d mines, want %d", ErrCorruptState, mineCount, s.Params.MineCount,
		)
	}

	b := newBoard(s.Params, s.Mines, r)
	b.grid = s.Grid
	b.status = s.Status
	b.firstMoveConsumed = s.FirstMoveConsumed
	b.flagCount = s.FlagCount
	b.revealed = s.Revealed
	return b, nil
}
