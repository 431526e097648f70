package mines

import (
	"math/rand/v2"
	"slices"
)

// Board is a single Minesweeper attempt. It is not safe for concurrent use;
// callers that share a board must serialize access to it.
type Board struct {
	params GameParams
	mines  []bool    /* real mine points */
	counts []int8    /* adjacent mine counts */
	grid   Grid      /* player knowledge */
	rnd    *rand.Rand

	status            Status
	firstMoveConsumed bool
	flagCount         int
	revealed          int
}

// NewBoard places params.MineCount mines uniformly at random. r must not be
// nil; it is kept for the first-move relocation.
func NewBoard(params GameParams, r *rand.Rand) (*Board, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	mines := params.placeMines(r)
	return newBoard(params, mines, r), nil
}

func newBoard(params GameParams, mines []bool, r *rand.Rand) *Board {
	grid := make(Grid, len(mines))
	for i := range grid {
		grid[i] = Unknown
	}
	return &Board{
		params: params,
		mines:  mines,
		counts: params.countAdjacent(mines),
		grid:   grid,
		rnd:    r,
		status: Pending,
	}
}

func (b *Board) Params() GameParams {
	return b.params
}

func (b *Board) Status() Status {
	return b.status
}

func (b *Board) FlagCount() int {
	return b.flagCount
}

// PlayerGrid returns a copy of what the player is allowed to see.
func (b *Board) PlayerGrid() Grid {
	return slices.Clone(b.grid)
}

// Cell is a read-only view of one cell. After a loss every mine is reported
// as revealed, and flags keep reporting Flagged whether they were right or
// wrong.
type Cell struct {
	Mine      bool `json:"mine"`
	Revealed  bool `json:"revealed"`
	Flagged   bool `json:"flagged"`
	Exploded  bool `json:"exploded"`
	WrongFlag bool `json:"wrong_flag"`
	Adjacent  int  `json:"adjacent"`
}

func (b *Board) Cell(x, y int) (Cell, error) {
	if !b.params.PointInBounds(x, y) {
		return Cell{}, outOfBounds(x, y)
	}
	i := b.params.index(x, y)
	s := b.grid[i]
	return Cell{
		Mine: b.mines[i],
		Revealed: s.Open() || s == ExplodedMine ||
			s == UnflaggedMine || s == CorrectlyFlagged,
		Flagged:   s == Flagged || s == FalselyFlagged || s == CorrectlyFlagged,
		Exploded:  s == ExplodedMine,
		WrongFlag: s == FalselyFlagged,
		Adjacent:  int(b.counts[i]),
	}, nil
}

// Forfeit ends a running game as lost without exploding anything. It reports
// false if the game was already over.
func (b *Board) Forfeit() bool {
	if b.status.Terminal() {
		return false
	}
	b.status = Lost
	b.revealMines()
	return true
}

// revealMines lays the end-of-game overlay over the player grid.
func (b *Board) revealMines() {
	for i, mine := range b.mines {
		switch s := b.grid[i]; {
		case s == ExplodedMine:
		case mine && s == Flagged:
			b.grid[i] = CorrectlyFlagged
		case mine:
			b.grid[i] = UnflaggedMine
		case s == Flagged:
			b.grid[i] = FalselyFlagged
		}
	}
}
