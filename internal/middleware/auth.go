package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/repository"
)

type CtxKey int

const (
	CtxPlayerClaims CtxKey = iota
)

func PlayerClaims(ctx context.Context) (*config.PlayerClaims, bool) {
	claims, ok := ctx.Value(CtxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	return strings.TrimSpace(token), ok && token != ""
}

// Auth puts the player's claims into the request context when the request
// carries a valid bearer token or auth cookies. Invalid cookies are cleared.
// Requests without credentials pass through untouched.
func Auth(logger *slog.Logger, j *config.JWT, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				claims *config.PlayerClaims
				err    error
			)
			if token, ok := bearerToken(r); ok {
				claims, err = j.ParsePlayerClaims(token)
			} else if _, cookieErr := r.Cookie("auth"); cookieErr == nil {
				claims, err = cookies.ParsePlayerClaims(r)
				if err != nil {
					cookies.Clear(w)
				}
			}
			if err != nil {
				logger.Debug("rejected credentials", slog.Any("error", err))
			}
			if claims == nil {
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sendError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PlayerClaims(r.Context()); !ok {
			sendError(w, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type PlayerFetcher interface {
	FetchPlayer(ctx context.Context, playerId int64) (*repository.Player, error)
}

// RequireRole checks the role stored in the database, not the one in the
// token.
func RequireRole(logger *slog.Logger, players PlayerFetcher, role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := PlayerClaims(r.Context())
			if !ok {
				sendError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			player, err := players.FetchPlayer(r.Context(), claims.PlayerId)
			if errors.Is(err, pgx.ErrNoRows) {
				sendError(w, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				logger.Error("unable to fetch player role", slog.Any("error", err))
				return
			}
			if player.Role != role {
				sendError(w, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
