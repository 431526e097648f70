package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/repository"
)

var (
	ErrEmailInUse          = errors.New("Email already in use")
	ErrUsernameInUse       = errors.New("Username already taken")
	ErrEmptyProfileUpdate  = errors.New("request must contain username or email")
	ErrBadPasswordBody     = errors.New("request must contain currentPassword and newPassword")
	ErrWrongPassword       = errors.New("Current password is incorrect")
	ErrPlayerNotFound      = errors.New("player not found")
	passwordUpdatedMessage = "Password updated successfully"
)

func (a Auth) currentPlayer(w http.ResponseWriter, r *http.Request) (*repository.Player, bool) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		sendError(w, a.logger, http.StatusUnauthorized, middleware.ErrUnauthenticated)
		return nil, false
	}
	player, err := a.players.FetchPlayer(r.Context(), claims.PlayerId)
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, a.logger, http.StatusNotFound, ErrPlayerNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, a.logger, "unable to fetch player", err)
		return nil, false
	}
	return player, true
}

func (a Auth) Profile(w http.ResponseWriter, r *http.Request) {
	player, ok := a.currentPlayer(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, a.logger, player)
}

type ProfileDTO struct {
	Username *string `schema:"username" json:"username"`
	Email    *string `schema:"email" json:"email"`
}

// taken reports the conflict error for a username or email that already
// belongs to someone other than playerId.
func (a Auth) taken(r *http.Request, playerId int64, dto ProfileDTO) (error, error) {
	if dto.Email != nil {
		other, err := a.players.FetchPlayerByEmail(r.Context(), *dto.Email)
		if err == nil && other.PlayerId != playerId {
			return ErrEmailInUse, nil
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	if dto.Username != nil {
		other, err := a.players.FetchPlayerByUsername(r.Context(), *dto.Username)
		if err == nil && other.PlayerId != playerId {
			return ErrUsernameInUse, nil
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	return nil, nil
}

func (a Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var dto ProfileDTO
	if err := decodeRequest(r, &dto); err != nil {
		sendError(w, a.logger, http.StatusBadRequest, ErrEmptyProfileUpdate)
		return
	}
	if dto.Username == nil && dto.Email == nil {
		sendError(w, a.logger, http.StatusBadRequest, ErrEmptyProfileUpdate)
		return
	}
	if dto.Username != nil {
		if err := validateUsername(*dto.Username); err != nil {
			sendError(w, a.logger, http.StatusBadRequest, err)
			return
		}
	}
	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if err := validateEmail(email); err != nil {
			sendError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		dto.Email = &email
	}

	player, ok := a.currentPlayer(w, r)
	if !ok {
		return
	}

	conflict, err := a.taken(r, player.PlayerId, dto)
	if err != nil {
		internalError(w, a.logger, "unable to check profile uniqueness", err)
		return
	}
	if conflict != nil {
		sendError(w, a.logger, http.StatusBadRequest, conflict)
		return
	}

	updated, err := a.players.UpdatePlayerProfile(r.Context(), player.PlayerId, repository.UpdatePlayerParams{
		Username: dto.Username,
		Email:    dto.Email,
	})
	if isUniqueViolation(err) {
		sendError(w, a.logger, http.StatusConflict, ErrUsernameTaken)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to update profile", err)
		return
	}

	sendJSONOrLog(w, a.logger, updated)
}

type PasswordDTO struct {
	CurrentPassword string `schema:"currentPassword" json:"currentPassword"`
	NewPassword     string `schema:"newPassword" json:"newPassword"`
}

func (a Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var dto PasswordDTO
	if err := decodeRequest(r, &dto); err != nil ||
		dto.CurrentPassword == "" || dto.NewPassword == "" {
		sendError(w, a.logger, http.StatusBadRequest, ErrBadPasswordBody)
		return
	}
	if err := validatePassword(dto.NewPassword); err != nil {
		sendError(w, a.logger, http.StatusBadRequest, err)
		return
	}

	player, ok := a.currentPlayer(w, r)
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(dto.CurrentPassword)); err != nil {
		sendError(w, a.logger, http.StatusUnauthorized, ErrWrongPassword)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), a.hashCost)
	if err != nil {
		internalError(w, a.logger, "unable to hash password", err)
		return
	}
	if err := a.players.UpdatePlayerPassword(r.Context(), player.PlayerId, hash); err != nil {
		internalError(w, a.logger, "unable to update password", err)
		return
	}

	sendJSONOrLog(w, a.logger, map[string]string{"message": passwordUpdatedMessage})
}
