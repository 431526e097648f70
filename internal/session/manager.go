package session

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/scoring"
	"github.com/vancomm/minesweeper/internal/store"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

const lockStripes = 64

// Manager runs every load-apply-save cycle of a session under a lock picked
// by hashing the session id, so moves on one board never interleave.
type Manager struct {
	logger   *slog.Logger
	store    *store.Store
	recorder Recorder

	locks [lockStripes]sync.Mutex
	seed  maphash.Seed

	newRand func() *rand.Rand
	now     func() time.Time
}

func NewManager(logger *slog.Logger, s *store.Store, recorder Recorder) *Manager {
	return &Manager{
		logger:   logger,
		store:    s,
		recorder: recorder,
		seed:     maphash.MakeSeed(),
		newRand:  createRand,
		now:      time.Now,
	}
}

func (m *Manager) lock(id string) func() {
	mu := &m.locks[maphash.String(m.seed, id)%lockStripes]
	mu.Lock()
	return mu.Unlock
}

type NewGame struct {
	PlayerId   *int64
	Difficulty mines.Difficulty
	// Params is used when Difficulty is empty.
	Params mines.GameParams
}

func (m *Manager) Create(ctx context.Context, g NewGame) (*Session, error) {
	params := g.Params
	if g.Difficulty != "" {
		p, ok := g.Difficulty.Params()
		if !ok {
			return nil, fmt.Errorf("%w: %q", mines.ErrUnknownDifficulty, g.Difficulty)
		}
		params = p
	}

	board, err := mines.NewBoard(params, m.newRand())
	if err != nil {
		return nil, err
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         id,
		PlayerId:   g.PlayerId,
		Difficulty: g.Difficulty,
		Board:      board,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Debug(
		"created game session",
		slog.String("id", id),
		slog.String("seed", params.Seed()),
		slog.String("difficulty", string(g.Difficulty)),
	)
	return s, nil
}

func (m *Manager) Fetch(ctx context.Context, id string) (*Session, error) {
	unlock := m.lock(id)
	defer unlock()
	return m.load(ctx, id)
}

// Execute applies cmds to the session in order and saves the result once.
// If any command fails nothing is saved. Commands arriving after the game is
// over are no-ops.
func (m *Manager) Execute(
	ctx context.Context, id string, playerId *int64, cmds ...Command,
) (*Session, error) {
	unlock := m.lock(id)
	defer unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.ownedBy(playerId) {
		return nil, ErrForbidden
	}

	wasTerminal := s.Board.Status().Terminal()
	for _, cmd := range cmds {
		if err := m.apply(s, cmd); err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
	}

	if !wasTerminal && s.Board.Status().Terminal() {
		m.finish(s)
	}

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	if s.pendingRecord() {
		m.tryRecord(ctx, s)
	}
	return s, nil
}

func (m *Manager) Reveal(ctx context.Context, id string, playerId *int64, x, y int) (*Session, error) {
	return m.Execute(ctx, id, playerId, Command{Op: OpOpen, X: x, Y: y})
}

func (m *Manager) ToggleFlag(ctx context.Context, id string, playerId *int64, x, y int) (*Session, error) {
	return m.Execute(ctx, id, playerId, Command{Op: OpFlag, X: x, Y: y})
}

func (m *Manager) Forfeit(ctx context.Context, id string, playerId *int64) (*Session, error) {
	return m.Execute(ctx, id, playerId, Command{Op: OpForfeit})
}

func (m *Manager) apply(s *Session, cmd Command) error {
	switch cmd.Op {
	case OpGet:
		return nil
	case OpOpen:
		before := s.Board.Status()
		out, err := s.Board.Reveal(cmd.X, cmd.Y)
		if err != nil {
			return err
		}
		if before == mines.Pending && (out.Result == mines.RevealOpened || out.Result == mines.RevealExploded) {
			startedAt := m.now().UTC()
			s.StartedAt = &startedAt
		}
		if out.Result == mines.RevealOpened {
			s.Stats.CellsOpened += len(out.Opened)
		}
		return nil
	case OpFlag:
		out, err := s.Board.ToggleFlag(cmd.X, cmd.Y)
		if err != nil {
			return err
		}
		delta := 0
		switch out.Result {
		case mines.FlagPlaced:
			delta = 1
		case mines.FlagRemoved:
			delta = -1
		}
		if out.Mine {
			s.Stats.CorrectFlags += delta
		} else {
			s.Stats.WrongFlags += delta
		}
		return nil
	case OpForfeit:
		s.Board.Forfeit()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd.Op))
}

// finish stamps the end of the game and scores it. Games that never started
// and games with custom parameters get no score.
func (m *Manager) finish(s *Session) {
	endedAt := m.now().UTC()
	s.EndedAt = &endedAt

	if s.StartedAt == nil || s.Difficulty == "" {
		return
	}

	b, err := scoring.Compute(scoring.Game{
		Difficulty:   s.Difficulty,
		Won:          s.Board.Status() == mines.Won,
		CellsOpened:  s.Stats.CellsOpened,
		CorrectFlags: s.Stats.CorrectFlags,
		WrongFlags:   s.Stats.WrongFlags,
		TimeSeconds:  s.TimeSeconds(endedAt),
	})
	if err != nil {
		m.logger.Error("unable to score game", slog.String("id", s.ID), slog.Any("error", err))
		return
	}
	s.Score = &b
}

// tryRecord hands the outcome to the recorder and marks the session as
// recorded. Failures are logged and retried by [Manager.Sweep].
func (m *Manager) tryRecord(ctx context.Context, s *Session) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.RecordOutcome(ctx, s.outcome()); err != nil {
		m.logger.Error(
			"unable to record game outcome",
			slog.String("id", s.ID),
			slog.Any("error", err),
		)
		return
	}
	s.Recorded = true
	if err := m.save(ctx, s); err != nil {
		m.logger.Error(
			"unable to mark game outcome as recorded",
			slog.String("id", s.ID),
			slog.Any("error", err),
		)
	}
}

// Active reports how many sessions are currently stored.
func (m *Manager) Active(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// Sweep drops sessions untouched for longer than ttl and returns how many
// were removed. Finished games whose outcome was never recorded get one more
// attempt first.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	keys, err := m.store.StaleKeys(ctx, m.now().Add(-ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("unable to list stale sessions: %w", err)
	}

	removed := 0
	for _, id := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if m.sweepOne(ctx, id) {
			removed++
		}
	}
	return removed, nil
}

func (m *Manager) sweepOne(ctx context.Context, id string) bool {
	unlock := m.lock(id)
	defer unlock()

	s, err := m.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		m.logger.Warn("dropping unreadable session", slog.String("id", id), slog.Any("error", err))
	} else if s.pendingRecord() {
		m.tryRecord(ctx, s)
	}

	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Error("unable to delete session", slog.String("id", id), slog.Any("error", err))
		return false
	}
	return true
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	var r record
	err := m.store.Get(ctx, id, &r)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load session: %w", err)
	}

	board, err := mines.UnmarshalBoard(r.Board, m.newRand())
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:         r.ID,
		PlayerId:   r.PlayerId,
		Difficulty: r.Difficulty,
		Board:      board,
		Stats:      r.Stats,
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		Score:      r.Score,
		Recorded:   r.Recorded,
	}, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	r, err := s.record()
	if err != nil {
		return fmt.Errorf("unable to encode session: %w", err)
	}
	if err := m.store.Set(ctx, s.ID, r); err != nil {
		return fmt.Errorf("unable to save session: %w", err)
	}
	return nil
}
