package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/repository"
)

type AdminRepo interface {
	ListPlayers(ctx context.Context) ([]repository.Player, error)
	FetchPlayer(ctx context.Context, playerId int64) (*repository.Player, error)
	UpdatePlayerRole(ctx context.Context, playerId int64, role string) (*repository.Player, error)
	DeletePlayer(ctx context.Context, playerId int64) error
	ListScores(ctx context.Context, filter repository.ScoreFilter) ([]repository.ScoreWithPlayer, error)
	GetStats(ctx context.Context) (*repository.Stats, error)
}

type AdminHandler struct {
	logger *slog.Logger
	repo   AdminRepo
}

func NewAdminHandler(logger *slog.Logger, repo AdminRepo) *AdminHandler {
	return &AdminHandler{logger: logger, repo: repo}
}

var (
	ErrBadPlayerId   = errors.New("invalid player id")
	ErrDeleteSelf    = errors.New("cannot delete your own account")
	ErrDemoteSelf    = errors.New("cannot change your own role")
	ErrBadRoleBody   = errors.New("request must contain role")
	ErrBadScoreLimit = errors.New("limit must be between 1 and 1000")
)

func (h AdminHandler) pathPlayerId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathInt64(r, "id")
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, ErrBadPlayerId)
		return 0, false
	}
	return id, true
}

func (h AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.repo.ListPlayers(r.Context())
	if err != nil {
		internalError(w, h.logger, "unable to list players", err)
		return
	}
	if players == nil {
		players = []repository.Player{}
	}
	sendJSONOrLog(w, h.logger, players)
}

func (h AdminHandler) FetchPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathPlayerId(w, r)
	if !ok {
		return
	}

	player, err := h.repo.FetchPlayer(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, h.logger, http.StatusNotFound, ErrPlayerNotFound)
		return
	}
	if err != nil {
		internalError(w, h.logger, "unable to fetch player", err)
		return
	}
	sendJSONOrLog(w, h.logger, player)
}

type RoleDTO struct {
	Role string `schema:"role" json:"role"`
}

func (h AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathPlayerId(w, r)
	if !ok {
		return
	}

	var dto RoleDTO
	if err := decodeRequest(r, &dto); err != nil || dto.Role == "" {
		sendError(w, h.logger, http.StatusBadRequest, ErrBadRoleBody)
		return
	}
	if !repository.ValidRole(dto.Role) {
		sendError(w, h.logger, http.StatusBadRequest, repository.ErrInvalidRole)
		return
	}
	if claims, ok := middleware.PlayerClaims(r.Context()); ok && claims.PlayerId == id {
		sendError(w, h.logger, http.StatusBadRequest, ErrDemoteSelf)
		return
	}

	player, err := h.repo.UpdatePlayerRole(r.Context(), id, dto.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, h.logger, http.StatusNotFound, ErrPlayerNotFound)
		return
	}
	if err != nil {
		internalError(w, h.logger, "unable to update player role", err)
		return
	}

	h.logger.Info(
		"changed player role",
		slog.Int64("player_id", id),
		slog.String("role", dto.Role),
	)
	sendJSONOrLog(w, h.logger, player)
}

func (h AdminHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathPlayerId(w, r)
	if !ok {
		return
	}
	if claims, ok := middleware.PlayerClaims(r.Context()); ok && claims.PlayerId == id {
		sendError(w, h.logger, http.StatusBadRequest, ErrDeleteSelf)
		return
	}

	err := h.repo.DeletePlayer(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, h.logger, http.StatusNotFound, ErrPlayerNotFound)
		return
	}
	if err != nil {
		internalError(w, h.logger, "unable to delete player", err)
		return
	}

	h.logger.Info("deleted player", slog.Int64("player_id", id))
	w.WriteHeader(http.StatusNoContent)
}

type ScoreFilterDTO struct {
	Username   *string `schema:"username"`
	Difficulty *string `schema:"difficulty"`
	Won        *bool   `schema:"won"`
	Limit      int     `schema:"limit"`
}

func (dto ScoreFilterDTO) Filter() (repository.ScoreFilter, error) {
	if dto.Difficulty != nil {
		if _, err := mines.ParseDifficulty(*dto.Difficulty); err != nil {
			return repository.ScoreFilter{}, err
		}
	}
	if dto.Limit < 0 || dto.Limit > 1000 {
		return repository.ScoreFilter{}, ErrBadScoreLimit
	}
	return repository.ScoreFilter{
		Username:   dto.Username,
		Difficulty: dto.Difficulty,
		Won:        dto.Won,
		Limit:      dto.Limit,
	}, nil
}

func (h AdminHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	var dto ScoreFilterDTO
	if err := decoder.Decode(&dto, r.URL.Query()); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid filter: %w", err))
		return
	}
	filter, err := dto.Filter()
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	scores, err := h.repo.ListScores(r.Context(), filter)
	if err != nil {
		internalError(w, h.logger, "unable to list scores", err)
		return
	}
	if scores == nil {
		scores = []repository.ScoreWithPlayer{}
	}
	sendJSONOrLog(w, h.logger, scores)
}

func (h AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		internalError(w, h.logger, "unable to compute stats", err)
		return
	}
	sendJSONOrLog(w, h.logger, stats)
}
