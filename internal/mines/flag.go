package mines

import "fmt"

type FlagResult int8

const (
	FlagIgnored FlagResult = iota
	FlagGameOver
	FlagPlaced
	FlagRemoved
)

func (r FlagResult) String() string {
	switch r {
	case FlagIgnored:
		return "ignored"
	case FlagGameOver:
		return "game_over"
	case FlagPlaced:
		return "flagged"
	case FlagRemoved:
		return "unflagged"
	}
	return fmt.Sprintf("FlagResult(%d)", r)
}

// FlagOutcome carries whether the toggled cell is a mine so callers can keep
// flag statistics without peeking at the board.
type FlagOutcome struct {
	Result    FlagResult
	Mine      bool
	FlagCount int
}

func (b *Board) ToggleFlag(x, y int) (FlagOutcome, error) {
	if !b.params.PointInBounds(x, y) {
		return FlagOutcome{}, outOfBounds(x, y)
	}
	if b.status.Terminal() {
		return FlagOutcome{Result: FlagGameOver, FlagCount: b.flagCount}, nil
	}

	i := b.params.index(x, y)
	outcome := FlagOutcome{Mine: b.mines[i]}
	switch b.grid[i] {
	case Unknown:
		b.grid[i] = Flagged
		b.flagCount++
		outcome.Result = FlagPlaced
	case Flagged:
		b.grid[i] = Unknown
		b.flagCount--
		outcome.Result = FlagRemoved
	default:
		outcome = FlagOutcome{Result: FlagIgnored}
	}
	outcome.FlagCount = b.flagCount
	return outcome, nil
}
