package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/repository"
)

type Scores interface {
	ListPersonalBests(ctx context.Context, playerId int64) ([]repository.Score, error)
	ListLeaderboard(ctx context.Context, difficulty string) ([]repository.LeaderboardEntry, error)
}

type ScoreHandler struct {
	logger *slog.Logger
	scores Scores
}

func NewScoreHandler(logger *slog.Logger, scores Scores) *ScoreHandler {
	return &ScoreHandler{logger: logger, scores: scores}
}

func (h ScoreHandler) PersonalBests(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		sendError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthenticated)
		return
	}

	bests, err := h.scores.ListPersonalBests(r.Context(), claims.PlayerId)
	if err != nil {
		internalError(w, h.logger, "unable to fetch personal bests", err)
		return
	}
	if bests == nil {
		bests = []repository.Score{}
	}

	sendJSONOrLog(w, h.logger, bests)
}

func (h ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	difficulty, err := mines.ParseDifficulty(mux.Vars(r)["difficulty"])
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	entries, err := h.scores.ListLeaderboard(r.Context(), string(difficulty))
	if err != nil {
		internalError(w, h.logger, "unable to fetch leaderboard", err)
		return
	}
	if entries == nil {
		entries = []repository.LeaderboardEntry{}
	}

	sendJSONOrLog(w, h.logger, entries)
}
