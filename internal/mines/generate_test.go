package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

func boardWithMines(t *testing.T, w, h int, mines ...Point) *Board {
	t.Helper()
	params := GameParams{Width: w, Height: h, MineCount: len(mines)}
	require.NoError(t, params.Validate())
	grid := make([]bool, params.Size())
	for _, p := range mines {
		grid[params.index(p.X, p.Y)] = true
	}
	return newBoard(params, grid, rand.New(rand.NewPCG(1, 2)))
}

// assertConsistent checks the mine count and recomputes every adjacent count
// by brute force.
func assertConsistent(t *testing.T, b *Board) {
	t.Helper()
	p := b.Params()
	mineCount := 0
	for y := range p.Height {
		for x := range p.Width {
			c, err := b.Cell(x, y)
			require.NoError(t, err)
			if c.Mine {
				mineCount++
			}
			want := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if (dx != 0 || dy != 0) && p.PointInBounds(x+dx, y+dy) {
						if n, _ := b.Cell(x+dx, y+dy); n.Mine {
							want++
						}
					}
				}
			}
			assert.Equal(t, want, c.Adjacent, "adjacent count at (%d, %d)", x, y)
		}
	}
	assert.Equal(t, p.MineCount, mineCount)
}

func TestNewBoardPlacement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params GameParams
	}{
		{"beginner", GameParams{Width: 9, Height: 9, MineCount: 10}},
		{"intermediate", GameParams{Width: 16, Height: 16, MineCount: 40}},
		{"expert", GameParams{Width: 24, Height: 16, MineCount: 60}},
		{"dense", GameParams{Width: 4, Height: 4, MineCount: 15}},
		{"strip", GameParams{Width: 1, Height: 7, MineCount: 3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			for seed := range uint64(20) {
				b, err := NewBoard(test.params, rand.New(rand.NewPCG(seed, 2)))
				require.NoError(t, err)
				assert.Equal(t, Pending, b.Status())
				assert.Zero(t, b.FlagCount())
				assertConsistent(t, b)
			}
		})
	}
}

func TestNewBoardInvalidConfiguration(t *testing.T) {
	t.Parallel()

	tests := []GameParams{
		{Width: 0, Height: 9, MineCount: 1},
		{Width: 9, Height: -1, MineCount: 1},
		{Width: 3, Height: 3, MineCount: 0},
		{Width: 3, Height: 3, MineCount: 9},
		{Width: 3, Height: 3, MineCount: 12},
		{Width: 1<<62 + 1, Height: 4, MineCount: 1},
		{Width: 4, Height: 1<<62 + 1, MineCount: 1},
		{Width: MaxWidth + 1, Height: 10, MineCount: 10},
		{Width: 10, Height: MaxHeight + 1, MineCount: 10},
		{Width: 100000, Height: 100000, MineCount: 1},
	}

	for _, params := range tests {
		t.Run(params.Seed(), func(t *testing.T) {
			_, err := NewBoard(params, rand.New(rand.NewPCG(1, 2)))
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	_, err := NewBoard(GameParams{Width: MaxWidth, Height: MaxHeight, MineCount: 1}, rand.New(rand.NewPCG(1, 2)))
	assert.NoError(t, err)
}

func TestFirstRevealNeverLoses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params GameParams
	}{
		{"beginner", GameParams{Width: 9, Height: 9, MineCount: 10}},
		{"crowded", GameParams{Width: 5, Height: 5, MineCount: 20}},
		{"all but one", GameParams{Width: 3, Height: 3, MineCount: 8}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			r := rand.New(rand.NewPCG(3, 4))
			for range 200 {
				b, err := NewBoard(test.params, r)
				require.NoError(t, err)
				x, y := r.IntN(test.params.Width), r.IntN(test.params.Height)

				out, err := b.Reveal(x, y)
				require.NoError(t, err)
				assert.Equal(t, RevealOpened, out.Result)
				assert.NotEqual(t, Lost, b.Status())

				c, _ := b.Cell(x, y)
				assert.False(t, c.Mine)
				assert.True(t, c.Revealed)
				assertConsistent(t, b)
			}
		})
	}
}

func TestFirstRevealCanWinOutright(t *testing.T) {
	b, err := NewBoard(GameParams{Width: 3, Height: 3, MineCount: 8}, rand.New(rand.NewPCG(5, 6)))
	require.NoError(t, err)

	out, err := b.Reveal(1, 1)
	require.NoError(t, err)
	assert.Equal(t, Won, out.Status)
	assert.Equal(t, []Point{{1, 1}}, out.Opened)
}

func TestRelocationAvoidsFlags(t *testing.T) {
	// every safe cell but one is flagged, so the mine under (0, 0) must go to
	// the last unflagged safe cell
	b := boardWithMines(t, 2, 2, Point{0, 0})
	for _, p := range []Point{{1, 0}, {0, 1}} {
		_, err := b.ToggleFlag(p.X, p.Y)
		require.NoError(t, err)
	}

	_, err := b.Reveal(0, 0)
	require.NoError(t, err)

	c, _ := b.Cell(1, 1)
	assert.True(t, c.Mine)
	assertConsistent(t, b)
}

func TestFloodFillStopsAtNumbers(t *testing.T) {
	wall := []Point{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}}
	b := boardWithMines(t, 5, 5, wall...)

	out, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.Equal(t, RevealOpened, out.Result)
	assert.Equal(t, InProgress, out.Status)
	assert.Len(t, out.Opened, 10)

	for y := range 5 {
		for x := range 5 {
			c, _ := b.Cell(x, y)
			assert.Equal(t, x < 2, c.Revealed, "cell (%d, %d)", x, y)
		}
	}
}

func TestFloodFillStopsAtFlags(t *testing.T) {
	b := boardWithMines(t, 5, 5, Point{4, 4})
	_, err := b.ToggleFlag(2, 0)
	require.NoError(t, err)

	out, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.Len(t, out.Opened, 23)
	assert.NotContains(t, out.Opened, Point{2, 0})
	assert.NotContains(t, out.Opened, Point{4, 4})

	c, _ := b.Cell(2, 0)
	assert.True(t, c.Flagged)
	assert.False(t, c.Revealed)
	assert.Equal(t, InProgress, b.Status())

	// every opened cell is the start or touches an opened zero
	opened := make(map[Point]bool)
	for _, p := range out.Opened {
		opened[p] = true
	}
	for _, p := range out.Opened {
		if p == (Point{0, 0}) {
			continue
		}
		reached := false
		for j := range b.params.neighbours(b.params.index(p.X, p.Y)) {
			q := b.params.point(j)
			if n, _ := b.Cell(q.X, q.Y); opened[q] && n.Adjacent == 0 {
				reached = true
			}
		}
		assert.True(t, reached, "cell %v opened without a zero neighbour", p)
	}

	_, err = b.ToggleFlag(2, 0)
	require.NoError(t, err)
	out, err = b.Reveal(2, 0)
	require.NoError(t, err)
	assert.Equal(t, Won, out.Status)
}

func TestToggleFlagTwiceIsIdentity(t *testing.T) {
	b := boardWithMines(t, 4, 4, Point{3, 3}, Point{0, 3})
	_, err := b.Reveal(0, 0)
	require.NoError(t, err)

	for y := range 4 {
		for x := range 4 {
			cells := func() []Cell {
		var all []Cell
		for y := range 3 {
			for x := range 3 {
				c, err := b.Cell(x, y)
				require.NoError(t, err)
				all = append(all, c)
			}
		}
		return all
	}
	before := cells()
	grid, flags := b.PlayerGrid(), b.FlagCount()
			first, err := b.ToggleFlag(x, y)
			require.NoError(t, err)
			second, err := b.ToggleFlag(x, y)
			require.NoError(t, err)

			assert.Equal(t, grid, b.PlayerGrid())
			assert.Equal(t, flags, b.FlagCount())
			if first.Result == FlagIgnored {
				assert.Equal(t, FlagIgnored, second.Result)
				continue
			}
			assert.Equal(t, FlagPlaced, first.Result)
			assert.Equal(t, FlagRemoved, second.Result)
			assert.Equal(t, flags+1, first.FlagCount)
		}
	}
}

func TestFlagOutcomeReportsMine(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{1, 1})

	out, err := b.ToggleFlag(1, 1)
	require.NoError(t, err)
	assert.Equal(t, FlagOutcome{Result: FlagPlaced, Mine: true, FlagCount: 1}, out)

	out, err = b.ToggleFlag(0, 0)
	require.NoError(t, err)
	assert.Equal(t, FlagOutcome{Result: FlagPlaced, Mine: false, FlagCount: 2}, out)

	// flagged cells cannot be opened
	rev, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.Equal(t, RevealIgnored, rev.Result)
	assert.Equal(t, Pending, b.Status())
}

func TestWinOnLastSafeCell(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{1, 1})

	safe := []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 1}, {0, 2}, {1, 2}, {2, 2}}
	for i, p := range safe {
		out, err := b.Reveal(p.X, p.Y)
		require.NoError(t, err)
		require.Equal(t, RevealOpened, out.Result)
		assert.Equal(t, []Point{p}, out.Opened)
		if i < len(safe)-1 {
			assert.Equal(t, InProgress, b.Status())
		} else {
			assert.Equal(t, Won, b.Status())
		}
	}

	c, _ := b.Cell(1, 1)
	assert.False(t, c.Revealed)
}

func TestCornerMineFloodWins(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{2, 2})

	out, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.Equal(t, RevealOpened, out.Result)
	assert.Equal(t, Won, out.Status)
	assert.Len(t, out.Opened, 8)
	assert.Equal(t, "0 0 0 \n0 1 1 \n0 1   \n", b.PlayerGrid().ToString(3))
}

func TestRevealMineLoses(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{0, 0}, Point{2, 2})

	_, err := b.Reveal(0, 2)
	require.NoError(t, err)
	require.Equal(t, InProgress, b.Status())

	_, err = b.ToggleFlag(2, 2)
	require.NoError(t, err)
	_, err = b.ToggleFlag(2, 0)
	require.NoError(t, err)

	out, err := b.Reveal(0, 0)
	require.NoError(t, err)
	assert.Equal(t, RevealExploded, out.Result)
	assert.Equal(t, Lost, out.Status)

	hit, _ := b.Cell(0, 0)
	assert.True(t, hit.Exploded)
	assert.True(t, hit.Revealed)

	flaggedMine, _ := b.Cell(2, 2)
	assert.True(t, flaggedMine.Revealed)
	assert.True(t, flaggedMine.Flagged)
	assert.False(t, flaggedMine.WrongFlag)
	assert.Equal(t, CorrectlyFlagged, b.PlayerGrid()[8])

	wrong, _ := b.Cell(2, 0)
	assert.True(t, wrong.WrongFlag)
	assert.True(t, wrong.Flagged)
	assert.False(t, wrong.Revealed)

	missed, _ := b.Cell(0, 0)
	assert.False(t, missed.Flagged)
	assert.Equal(t, FalselyFlagged, b.PlayerGrid()[2])
}

func TestTerminalBoardIsFrozen(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{0, 0}, Point{2, 2})
	_, err := b.Reveal(0, 2)
	require.NoError(t, err)
	_, err = b.Reveal(0, 0)
	require.NoError(t, err)
	require.Equal(t, Lost, b.Status())

	cells := func() []Cell {
		var all []Cell
		for y := range 3 {
			for x := range 3 {
				c, err := b.Cell(x, y)
				require.NoError(t, err)
				all = append(all, c)
			}
		}
		return all
	}
	before := cells()
	grid, flags := b.PlayerGrid(), b.FlagCount()
	for y := range 3 {
		for x := range 3 {
			rev, err := b.Reveal(x, y)
			require.NoError(t, err)
			assert.Equal(t, RevealGameOver, rev.Result)

			fl, err := b.ToggleFlag(x, y)
			require.NoError(t, err)
			assert.Equal(t, FlagGameOver, fl.Result)
		}
	}
	assert.False(t, b.Forfeit())
	assert.Equal(t, grid, b.PlayerGrid())
	assert.Equal(t, before, cells())
	assert.Equal(t, flags, b.FlagCount())
	assert.Equal(t, Lost, b.Status())
}

func TestOutOfBounds(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{1, 1})
	grid := b.PlayerGrid()

	for _, p := range []Point{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {3, 3}} {
		_, err := b.Reveal(p.X, p.Y)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		_, err = b.ToggleFlag(p.X, p.Y)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		_, err = b.Cell(p.X, p.Y)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}

	assert.Equal(t, grid, b.PlayerGrid())
	assert.Equal(t, Pending, b.Status())
}

func TestForfeit(t *testing.T) {
	b := boardWithMines(t, 3, 3, Point{0, 0}, Point{2, 2})
	_, err := b.ToggleFlag(2, 2)
	require.NoError(t, err)

	assert.True(t, b.Forfeit())
	assert.Equal(t, Lost, b.Status())

	for _, p := range []Point{{0, 0}, {2, 2}} {
		c, _ := b.Cell(p.X, p.Y)
		assert.True(t, c.Revealed)
		assert.False(t, c.Exploded)
	}
}

func TestMarshalBinary(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	b, err := NewBoard(GameParams{Width: 9, Height: 9, MineCount: 10}, r)
	require.NoError(t, err)
	_, err = b.Reveal(4, 4)
	require.NoError(t, err)
	_, err = b.ToggleFlag(0, 0)
	require.NoError(t, err)

	data, err := b.MarshalBinary()
	require.NoError(t, err)

	restored, err := UnmarshalBoard(data, r)
	require.NoError(t, err)
	assert.Equal(t, b.Params(), restored.Params())
	assert.Equal(t, b.Status(), restored.Status())
	assert.Equal(t, b.FlagCount(), restored.FlagCount())
	assert.Equal(t, b.PlayerGrid(), restored.PlayerGrid())
	assertConsistent(t, restored)

	_, err = UnmarshalBoard([]byte("garbage"), r)
	assert.ErrorIs(t, err, ErrCorruptState)
}
