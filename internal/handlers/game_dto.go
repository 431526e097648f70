package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/scoring"
	"github.com/vancomm/minesweeper/internal/session"
)

type CreateNewGameDTO struct {
	Difficulty string `schema:"difficulty"`
	// Seed is "width:height:mine_count", as reported by a previous game.
	Seed       string `schema:"seed"`
	Width      int    `schema:"width"`
	Height     int    `schema:"height"`
	MineCount  int    `schema:"mine_count"`
}

var ErrBadNewGame = errors.New("request must contain difficulty, seed, or width, height and mine_count")

func ParseCreateNewGameDTO(src url.Values) (CreateNewGameDTO, error) {
	var dto CreateNewGameDTO
	if err := decoder.Decode(&dto, src); err != nil {
		return dto, err
	}
	if dto.Difficulty == "" && dto.Seed == "" &&
		(dto.Width == 0 || dto.Height == 0 || dto.MineCount == 0) {
		return dto, ErrBadNewGame
	}
	return dto, nil
}

func (dto CreateNewGameDTO) NewGame(playerId *int64) (session.NewGame, error) {
	if dto.Difficulty != "" {
		d, err := mines.ParseDifficulty(dto.Difficulty)
		if err != nil {
			return session.NewGame{}, err
		}
		return session.NewGame{PlayerId: playerId, Difficulty: d}, nil
	}
	if dto.Seed != "" {
		params, err := mines.ParseSeed(dto.Seed)
		if err != nil {
			return session.NewGame{}, err
		}
		return session.NewGame{PlayerId: playerId, Params: *params}, nil
	}
	return session.NewGame{
		PlayerId: playerId,
		Params: mines.GameParams{
			Width:     dto.Width,
			Height:    dto.Height,
			MineCount: dto.MineCount,
		},
	}, nil
}

type GameMove string

const (
	Open GameMove = "open"
	Flag GameMove = "flag"
)

func ParseGameMove(s string) (GameMove, error) {
	switch m := GameMove(s); m {
	case Open, Flag:
		return m, nil
	}
	return "", fmt.Errorf("move must be %q or %q", Open, Flag)
}

func (m GameMove) Op() session.Op {
	if m == Flag {
		return session.OpFlag
	}
	return session.OpOpen
}

type MoveDTO struct {
	Move string `schema:"move,required"`
	X    int    `schema:"x,required"`
	Y    int    `schema:"y,required"`
}

func ParseMoveCommand(src url.Values) (session.Command, error) {
	var dto MoveDTO
	if err := decoder.Decode(&dto, src); err != nil {
		return session.Command{}, err
	}
	move, err := ParseGameMove(dto.Move)
	if err != nil {
		return session.Command{}, err
	}
	return session.Command{Op: move.Op(), X: dto.X, Y: dto.Y}, nil
}

type GameSessionDTO struct {
	GameSessionId string             `json:"game_session_id"`
	Grid          mines.Grid         `json:"grid"`
	Width         int                `json:"width"`
	Height        int                `json:"height"`
	MineCount     int                `json:"mine_count"`
	Seed          string             `json:"seed"`
	FlagCount     int                `json:"flag_count"`
	Status        mines.Status       `json:"status"`
	Difficulty    mines.Difficulty   `json:"difficulty,omitempty"`
	Stats         session.Stats      `json:"stats"`
	CreatedAt     int64              `json:"created_at"`
	StartedAt     *int64             `json:"started_at,omitempty"`
	EndedAt       *int64             `json:"ended_at,omitempty"`
	TimeSeconds   int                `json:"time"`
	Score         *scoring.Breakdown `json:"score,omitempty"`
}

func unixMilli(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func NewGameSessionDTO(s *session.Session, now time.Time) *GameSessionDTO {
	params := s.Board.Params()
	dto := &GameSessionDTO{
		GameSessionId: s.ID,
		Grid:          s.Board.PlayerGrid(),
		Width:         params.Width,
		Height:        params.Height,
		MineCount:     params.MineCount,
		Seed:          params.Seed(),
		FlagCount:     s.Board.FlagCount(),
		Status:        s.Board.Status(),
		Difficulty:    s.Difficulty,
		Stats:         s.Stats,
		CreatedAt:     s.CreatedAt.UnixMilli(),
		StartedAt:     unixMilli(s.StartedAt),
		EndedAt:       unixMilli(s.EndedAt),
		TimeSeconds:   s.TimeSeconds(now),
		Score:         s.Score,
	}
	return dto
}
