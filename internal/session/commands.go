package session

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type Op byte

const (
	OpGet     Op = 'g'
	OpOpen    Op = 'o'
	OpFlag    Op = 'f'
	OpForfeit Op = 'r'
)

type Command struct {
	Op   Op
	X, Y int
}

func (c Command) String() string {
	switch c.Op {
	case OpOpen, OpFlag:
		return fmt.Sprintf("%c %d %d", c.Op, c.X, c.Y)
	}
	return string(c.Op)
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("invalid number of arguments")
)

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"o": 2,
	"f": 2,
	"r": 0,
}

func iterBySep(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parseXY(twoStrings []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = fmt.Errorf("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = fmt.Errorf("second argument must be an int")
		return
	}
	return
}

// ParseCommand parses one line of the play protocol: "g" fetches the game,
// "o x y" opens a cell, "f x y" toggles a flag and "r" forfeits.
func ParseCommand(c string) (Command, error) {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return Command{}, ErrUnknownCommand
	}

	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, parts[0])
	}
	if nargs != len(parts)-1 {
		return Command{}, fmt.Errorf("%w: %q", ErrBadArguments, c)
	}

	cmd := Command{Op: Op(parts[0][0])}
	if nargs == 2 {
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.X, cmd.Y = x, y
	}
	return cmd, nil
}

// ParseCommands parses a newline separated batch, skipping blank lines.
func ParseCommands(text string) ([]Command, error) {
	var cmds []Command
	for i, line := range iterBySep(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
