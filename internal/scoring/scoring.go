// Package scoring turns a finished game into points.
package scoring

import (
	"fmt"
	"math"

	"github.com/vancomm/minesweeper/internal/mines"
)

type params struct {
	Base           float64
	PerCell        float64
	PerCorrectFlag float64
	PerWrongFlag   float64
	TimeDecay      float64
	WinBonus       float64
}

var (
	winParams = map[mines.Difficulty]params{
		mines.Beginner:     {Base: 100, PerCell: 2, PerCorrectFlag: 5, PerWrongFlag: -10, TimeDecay: 0.3, WinBonus: 50},
		mines.Intermediate: {Base: 250, PerCell: 3, PerCorrectFlag: 8, PerWrongFlag: -15, TimeDecay: 0.2, WinBonus: 100},
		mines.Expert:       {Base: 400, PerCell: 4, PerCorrectFlag: 10, PerWrongFlag: -20, TimeDecay: 0.1, WinBonus: 150},
	}
	lossParams = map[mines.Difficulty]params{
		mines.Beginner:     {Base: 25, PerCell: 1.5, PerCorrectFlag: 3, PerWrongFlag: -5, TimeDecay: 0.15},
		mines.Intermediate: {Base: 60, PerCell: 2, PerCorrectFlag: 5, PerWrongFlag: -8, TimeDecay: 0.1},
		mines.Expert:       {Base: 100, PerCell: 2.5, PerCorrectFlag: 7, PerWrongFlag: -10, TimeDecay: 0.05},
	}
)

const (
	winDecayCap  = 0.4
	lossDecayCap = 0.25
	winMinimum   = 10
	lossMinimum  = 5
)

// Game is what a finished attempt contributes to its score.
type Game struct {
	Difficulty   mines.Difficulty
	Won          bool
	CellsOpened  int
	CorrectFlags int
	WrongFlags   int
	TimeSeconds  int
}

type Breakdown struct {
	Base        float64 `json:"base_score"`
	CellPoints  float64 `json:"cell_opening_points"`
	FlagPoints  float64 `json:"correct_flag_points"`
	FlagPenalty float64 `json:"wrong_flag_penalty"`
	TimeDecay   float64 `json:"time_decay"`
	WinBonus    float64 `json:"win_bonus"`
	Final       int     `json:"final_score"`
}

// Compute scores g. A won game is credited with every safe cell of its
// preset and at most one correct flag per mine; a lost game only with what
// was actually opened.
func Compute(g Game) (Breakdown, error) {
	preset, ok := g.Difficulty.Params()
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", mines.ErrUnknownDifficulty, g.Difficulty)
	}

	p, decayCap, minimum := lossParams[g.Difficulty], lossDecayCap, lossMinimum
	cells, correct := g.CellsOpened, g.CorrectFlags
	if g.Won {
		p, decayCap, minimum = winParams[g.Difficulty], winDecayCap, winMinimum
		cells = preset.Size() - preset.MineCount
		correct = min(correct, preset.MineCount)
	}

	b := Breakdown{
		Base:        p.Base,
		CellPoints:  float64(cells) * p.PerCell,
		FlagPoints:  float64(correct) * p.PerCorrectFlag,
		FlagPenalty: float64(g.WrongFlags) * p.PerWrongFlag,
		TimeDecay:   math.Min(float64(g.TimeSeconds)*p.TimeDecay, p.Base*decayCap),
		WinBonus:    p.WinBonus,
	}
	total := b.Base + b.CellPoints + b.FlagPoints + b.FlagPenalty - b.TimeDecay + b.WinBonus
	b.Final = max(int(math.Floor(total+0.5)), minimum)
	return b, nil
}
