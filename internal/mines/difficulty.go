package mines

import "fmt"

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Expert       Difficulty = "expert"
)

var presets = map[Difficulty]GameParams{
	Beginner:     {Width: 9, Height: 9, MineCount: 10},
	Intermediate: {Width: 16, Height: 16, MineCount: 40},
	Expert:       {Width: 24, Height: 16, MineCount: 60},
}

// Difficulties lists the presets from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{Beginner, Intermediate, Expert}
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if _, ok := presets[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	_, ok := presets[d]
	return ok
}

func (d Difficulty) Params() (GameParams, bool) {
	p, ok := presets[d]
	return p, ok
}
