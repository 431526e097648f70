package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/repository"
)

type Players interface {
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, playerId int64) (*repository.Player, error)
	FetchPlayerByUsername(ctx context.Context, username string) (*repository.Player, error)
	FetchPlayerByEmail(ctx context.Context, email string) (*repository.Player, error)
	UpdatePlayerProfile(ctx context.Context, playerId int64, params repository.UpdatePlayerParams) (*repository.Player, error)
	UpdatePlayerPassword(ctx context.Context, playerId int64, hash []byte) error
}

type Auth struct {
	logger   *slog.Logger
	players  Players
	cookies  *config.Cookies
	jwt      *config.JWT
	hashCost int
}

func NewAuth(
	logger *slog.Logger,
	players Players,
	cookies *config.Cookies,
	jwt *config.JWT,
) *Auth {
	auth := &Auth{
		logger:   logger,
		players:  players,
		cookies:  cookies,
		jwt:      jwt,
		hashCost: bcrypt.DefaultCost,
	}

	return auth
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

type TokenResponse struct {
	Token  string     `json:"token"`
	Player PlayerInfo `json:"player"`
}

var (
	ErrBadAuthBody         = fmt.Errorf("request must contain username, email and password")
	ErrBadLoginBody        = fmt.Errorf("request must contain username or email, and password")
	ErrBadUsername         = fmt.Errorf("username must be 3 to 30 characters long")
	ErrBadEmail            = fmt.Errorf("email address is invalid")
	ErrBadPasswordTooShort = fmt.Errorf("password must be at least 6 characters long")
	ErrBadPasswordTooLong  = fmt.Errorf("password too long")
	ErrUsernameTaken       = fmt.Errorf("username or email taken")
	ErrBadCredentials      = fmt.Errorf("invalid credentials")
)

func validateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		return ErrBadUsername
	}
	return nil
}

func validateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || !strings.Contains(domain, ".") {
		return ErrBadEmail
	}
	return nil
}

// validatePassword enforces bcrypt's 72 byte input limit.
func validatePassword(password string) error {
	if len(password) < 6 {
		return ErrBadPasswordTooShort
	}
	if len(password) > 72 {
		return ErrBadPasswordTooLong
	}
	return nil
}

func (a Auth) issueToken(w http.ResponseWriter, statusCode int, player *repository.Player) {
	claims := config.NewPlayerClaims(player.PlayerId, player.Username, player.Role)
	token, err := a.jwt.Sign(claims)
	if err != nil {
		internalError(w, a.logger, "unable to create a jwt token", err)
		return
	}
	if err := a.cookies.Refresh(w, token); err != nil {
		internalError(w, a.logger, "unable to set auth cookies", err)
		return
	}
	sendStatusJSON(w, a.logger, statusCode, TokenResponse{
		Token:  token,
		Player: PlayerInfo{player.PlayerId, player.Username, player.Role},
	})
}

func (a Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		a.logger.Debug("could not parse credentials - clear cookies")
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, Status{LoggedIn: false})
		return
	}

	player, err := a.players.FetchPlayer(r.Context(), claims.PlayerId)
	if errors.Is(err, pgx.ErrNoRows) {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, Status{LoggedIn: false})
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to fetch player", err)
		return
	}

	a.logger.Debug("refresh cookies")
	token, err := a.jwt.Sign(
		config.NewPlayerClaims(player.PlayerId, player.Username, player.Role),
	)
	if err != nil {
		internalError(w, a.logger, "unable to tokenize checked claim", err)
		return
	}
	a.cookies.Refresh(w, token)

	sendJSONOrLog(w, a.logger, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerId, player.Username, player.Role},
	})
}

type RegisterDTO struct {
	Username string `schema:"username" json:"username"`
	Email    string `schema:"email" json:"email"`
	Password string `schema:"password" json:"password"`
}

func (dto RegisterDTO) Validate() error {
	if dto.Username == "" || dto.Email == "" || dto.Password == "" {
		return ErrBadAuthBody
	}
	if err := validateUsername(dto.Username); err != nil {
		return err
	}
	if err := validateEmail(dto.Email); err != nil {
		return err
	}
	return validatePassword(dto.Password)
}

func (a Auth) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := decodeRequest(r, &dto); err != nil {
		sendError(w, a.logger, http.StatusBadRequest, ErrBadAuthBody)
		return
	}
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := dto.Validate(); err != nil {
		sendError(w, a.logger, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), a.hashCost)
	if err != nil {
		internalError(w, a.logger, "unable to hash password", err)
		return
	}

	player, err := a.players.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
	})
	if isUniqueViolation(err) {
		sendError(w, a.logger, http.StatusConflict, ErrUsernameTaken)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to insert player", err)
		return
	}

	a.logger.Info("registered player", slog.Int64("player_id", player.PlayerId))
	a.issueToken(w, http.StatusCreated, player)
}

type LoginDTO struct {
	Username string `schema:"username" json:"username"`
	Email    string `schema:"email" json:"email"`
	Password string `schema:"password" json:"password"`
}

func (a Auth) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := decodeRequest(r, &dto); err != nil ||
		dto.Password == "" || (dto.Username == "" && dto.Email == "") {
		sendError(w, a.logger, http.StatusBadRequest, ErrBadLoginBody)
		return
	}

	var (
		player *repository.Player
		err    error
	)
	if dto.Email != "" {
		player, err = a.players.FetchPlayerByEmail(r.Context(), strings.ToLower(strings.TrimSpace(dto.Email)))
	} else {
		player, err = a.players.FetchPlayerByUsername(r.Context(), dto.Username)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to fetch player", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(dto.Password)); err != nil {
		sendError(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}

	a.issueToken(w, http.StatusOK, player)
}

func (a Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
