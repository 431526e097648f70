package mines

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"
)

type GameParams struct {
	Width, Height, MineCount int
}

// Custom boards are capped so a single request cannot allocate an
// arbitrarily large grid.
const (
	MaxWidth  = 100
	MaxHeight = 100
)

func (p GameParams) Size() int {
	return p.Width * p.Height
}

func (p GameParams) safeCells() int {
	return p.Size() - p.MineCount
}

// Validate reports [ErrInvalidConfiguration] unless the board fits within
// MaxWidth x MaxHeight and has at least one mine and one safe cell.
func (p GameParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf(
			"%w: dimensions must be positive (width = %d, height = %d)",
			ErrInvalidConfiguration, p.Width, p.Height,
		)
	}
	if p.Width > MaxWidth || p.Height > MaxHeight {
		return fmt.Errorf(
			"%w: board may be at most %dx%d (width = %d, height = %d)",
			ErrInvalidConfiguration, MaxWidth, MaxHeight, p.Width, p.Height,
		)
	}
	if p.MineCount <= 0 || p.MineCount >= p.Size() {
		return fmt.Errorf(
			"%w: mine count must be in (0, %d), got %d",
			ErrInvalidConfiguration, p.Size(), p.MineCount,
		)
	}
	return nil
}

func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Width, p.Height, p.MineCount)
}

func ParseSeed(seed string) (*GameParams, error) {
	p := &GameParams{}
	sseed := strings.ReplaceAll(seed, ":", " ")
	n, err := fmt.Sscanf(sseed, "%d %d %d", &p.Width, &p.Height, &p.MineCount)
	if n != 3 || err != nil {
		return nil, fmt.Errorf(
			`invalid game params seed (sseed = "%s", n = %d, err = %w)`,
			sseed, n, err,
		)
	}
	return p, nil
}

func (p GameParams) PointInBounds(x, y int) bool {
	return 0 <= x && x < p.Width && 0 <= y && y < p.Height
}

func (p GameParams) index(x, y int) int {
	return y*p.Width + x
}

func (p GameParams) point(i int) Point {
	return Point{X: i % p.Width, Y: i / p.Width}
}

// neighbours yields the indices of the Moore neighbourhood of cell i that lie
// on the board.
func (p GameParams) neighbours(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		x, y := i%p.Width, i/p.Width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if !p.PointInBounds(x+dx, y+dy) {
					continue
				}
				if !yield(p.index(x+dx, y+dy)) {
					return
				}
			}
		}
	}
}

// placeMines scatters MineCount mines by rejection sampling: draw a cell,
// skip it if it already holds a mine.
func (p GameParams) placeMines(r *rand.Rand) []bool {
	mines := make([]bool, p.Size())
	for placed := 0; placed < p.MineCount; {
		i := r.IntN(len(mines))
		if mines[i] {
			continue
		}
		mines[i] = true
		placed++
	}
	return mines
}

func (p GameParams) countAdjacent(mines []bool) []int8 {
	counts := make([]int8, len(mines))
	for i, mine := range mines {
		if !mine {
			continue
		}
		for j := range p.neighbours(i) {
			counts[j]++
		}
	}
	return counts
}
