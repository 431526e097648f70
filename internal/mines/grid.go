package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type CellState int8

/*
 * Each item of a player grid is one of the following values:
 *
 *  - 0 to 8 mean the cell is open and has a surrounding mine count.
 *
 *  - -1 means the cell is marked as a mine.
 *
 *  - -2 means the cell is unknown.
 *
 *  - 64 and above are only seen after the game is over: 64 is a mine
 *    the player had flagged, 65 is the mine the player hit, 66 is a flag
 *    placed on a safe cell, 67 is a mine the player never found.
 */
const (
	Unknown          CellState = -2
	Flagged          CellState = -1
	CorrectlyFlagged CellState = 64
	ExplodedMine     CellState = 65
	FalselyFlagged   CellState = 66
	UnflaggedMine    CellState = 67
)

func (s CellState) Open() bool {
	return 0 <= s && s <= 8
}

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return " "
	case s == Flagged:
		return "*"
	case s.Open():
		return strconv.Itoa(int(s))
	case s == CorrectlyFlagged:
		return "+"
	case s == FalselyFlagged:
		return "x"
	default:
		return "!"
	}
}

type Grid []CellState

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			fmt.Fprint(&b, g[y*width+x].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

type Status int8

const (
	Pending Status = iota
	InProgress
	Won
	Lost
)

var statusNames = [...]string{
	Pending:    "pending",
	InProgress: "in_progress",
	Won:        "won",
	Lost:       "lost",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
