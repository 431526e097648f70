package mines

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type RevealResult int8

const (
	RevealIgnored RevealResult = iota
	RevealGameOver
	RevealOpened
	RevealExploded
)

func (r RevealResult) String() string {
	switch r {
	case RevealIgnored:
		return "ignored"
	case RevealGameOver:
		return "game_over"
	case RevealOpened:
		return "opened"
	case RevealExploded:
		return "exploded"
	}
	return fmt.Sprintf("RevealResult(%d)", r)
}

type RevealOutcome struct {
	Result RevealResult
	Opened []Point
	Status Status
}

// relocationDraws bounds the rejection sampling used to move a mine away from
// the first opened cell before falling back to an explicit candidate list.
const relocationDraws = 64

func outOfBounds(x, y int) error {
	return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
}

// Reveal opens the cell at (x, y). The first successful reveal of a board
// never hits a mine. Opening a cell with no adjacent mines also opens its
// neighbourhood, stopping at flags and numbered cells.
func (b *Board) Reveal(x, y int) (RevealOutcome, error) {
	if !b.params.PointInBounds(x, y) {
		return RevealOutcome{}, outOfBounds(x, y)
	}
	if b.status.Terminal() {
		return RevealOutcome{Result: RevealGameOver, Status: b.status}, nil
	}

	i := b.params.index(x, y)
	if b.grid[i] != Unknown {
		return RevealOutcome{Result: RevealIgnored, Status: b.status}, nil
	}

	if !b.firstMoveConsumed {
		b.firstMoveConsumed = true
		if b.mines[i] {
			b.relocateMine(i)
		}
	}

	if b.mines[i] {
		b.grid[i] = ExplodedMine
		b.status = Lost
		b.revealMines()
		return RevealOutcome{
			Result: RevealExploded,
			Opened: []Point{{X: x, Y: y}},
			Status: b.status,
		}, nil
	}

	opened := b.open(i)
	b.revealed += len(opened)
	if b.revealed == b.params.safeCells() {
		b.status = Won
	} else {
		b.status = InProgress
	}

	return RevealOutcome{Result: RevealOpened, Opened: opened, Status: b.status}, nil
}

// open reveals cell i and, while the revealed cells have no adjacent mines,
// their hidden neighbours. The worklist only ever holds cells that were
// hidden and unflagged when pushed, so no cell is visited twice.
func (b *Board) open(start int) []Point {
	var opened []Point
	reveal := func(i int) {
		b.grid[i] = CellState(b.counts[i])
		opened = append(opened, b.params.point(i))
	}

	reveal(start)
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b.counts[i] != 0 {
			continue
		}
		for j := range b.params.neighbours(i) {
			if b.grid[j] != Unknown || b.mines[j] {
				continue
			}
			reveal(j)
			stack = append(stack, j)
		}
	}
	return opened
}

// relocateMine moves the mine at from to a random cell that is neither a
// mine nor from. Flagged cells are only used when nothing else is left.
func (b *Board) relocateMine(from int) {
	free := func(j int, allowFlagged bool) bool {
		return j != from && !b.mines[j] && (allowFlagged || b.grid[j] != Flagged)
	}

	to := -1
	for range relocationDraws {
		if j := b.rnd.IntN(len(b.mines)); free(j, false) {
			to = j
			break
		}
	}

	if to < 0 {
		candidates := make([]int, 0, b.params.safeCells())
		for j := range b.mines {
			if free(j, false) {
				candidates = append(candidates, j)
			}
		}
		if len(candidates) == 0 {
			for j := range b.mines {
				if free(j, true) {
					candidates = append(candidates, j)
				}
			}
		}
		to = candidates[b.rnd.IntN(len(candidates))]
	}

	b.mines[from] = false
	b.mines[to] = true
	b.counts = b.params.countAdjacent(b.mines)

	Log.WithFields(logrus.Fields{
		"from": b.params.point(from),
		"to":   b.params.point(to),
	}).Debug("relocated mine under first move")
}
