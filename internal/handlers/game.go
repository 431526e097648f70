package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/session"
)

type Games interface {
	Create(ctx context.Context, g session.NewGame) (*session.Session, error)
	Fetch(ctx context.Context, id string) (*session.Session, error)
	Execute(ctx context.Context, id string, playerId *int64, cmds ...session.Command) (*session.Session, error)
}

type GameHandler struct {
	logger *slog.Logger
	games  Games
	ws     *config.WebSocket
	now    func() time.Time
}

func NewGameHandler(
	logger *slog.Logger,
	games Games,
	ws *config.WebSocket,
) *GameHandler {
	handler := &GameHandler{
		logger: logger,
		games:  games,
		ws:     ws,
		now:    time.Now,
	}

	return handler
}

// sendSessionError maps session and board errors to status codes. It reports
// whether err was handled.
func (g GameHandler) sendSessionError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, session.ErrNotFound):
		sendError(w, g.logger, http.StatusNotFound, session.ErrNotFound)
	case errors.Is(err, session.ErrForbidden):
		sendError(w, g.logger, http.StatusForbidden, session.ErrForbidden)
	case errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, mines.ErrInvalidConfiguration),
		errors.Is(err, mines.ErrUnknownDifficulty),
		errors.Is(err, session.ErrUnknownCommand),
		errors.Is(err, session.ErrBadArguments):
		sendError(w, g.logger, http.StatusBadRequest, err)
	default:
		internalError(w, g.logger, "game session failure", err)
	}
	return true
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	dto, err := ParseCreateNewGameDTO(r.Form)
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	newGame, err := dto.NewGame(playerId(r))
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	s, err := g.games.Create(r.Context(), newGame)
	if g.sendSessionError(w, err) {
		return
	}

	sendStatusJSON(w, g.logger, http.StatusCreated, NewGameSessionDTO(s, g.now()))
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, err := g.games.Fetch(r.Context(), mux.Vars(r)["id"])
	if g.sendSessionError(w, err) {
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, g.now()))
}

func (g GameHandler) MakeAMove(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseMoveCommand(r.URL.Query())
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	s, err := g.games.Execute(r.Context(), mux.Vars(r)["id"], playerId(r), cmd)
	if g.sendSessionError(w, err) {
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, g.now()))
}

func (g GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	s, err := g.games.Execute(
		r.Context(), mux.Vars(r)["id"], playerId(r),
		session.Command{Op: session.OpForfeit},
	)
	if g.sendSessionError(w, err) {
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, g.now()))
}

// ConnectWS plays a session over a websocket. Every text message is a batch
// of newline separated commands; each batch is answered with the resulting
// session or an error object.
func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	owner := playerId(r)

	if _, err := g.games.Fetch(r.Context(), id); g.sendSessionError(w, err) {
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade connection", slog.Any("error", err))
		return
	}
	defer c.Close()
	c.SetReadLimit(g.ws.ReadLimit)

	logger := g.logger.With(slog.String("id", id))
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("unable to read message", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(
				websocket.CloseUnsupportedData, "text messages only",
			))
			if err != nil {
				logger.Warn("unable to write message", slog.Any("error", err))
			}
			return
		}

		cmds, err := session.ParseCommands(string(message))
		if err != nil {
			if err := c.WriteJSON(wrapError(err)); err != nil {
				logger.Warn("unable to write message", slog.Any("error", err))
				return
			}
			continue
		}

		s, err := g.games.Execute(r.Context(), id, owner, cmds...)
		var reply any
		switch {
		case errors.Is(err, session.ErrForbidden), errors.Is(err, session.ErrNotFound):
			if err := c.WriteJSON(wrapError(err)); err != nil {
				logger.Warn("unable to write message", slog.Any("error", err))
			}
			return
		case err != nil && errors.Is(err, mines.ErrOutOfBounds):
			reply = wrapError(err)
		case err != nil:
			logger.Error("unable to execute commands", slog.Any("error", err))
			if err := c.WriteJSON(wrapError(errors.New("internal error"))); err != nil {
				logger.Warn("unable to write message", slog.Any("error", err))
			}
			return
		default:
			reply = NewGameSessionDTO(s, g.now())
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Warn("unable to write message", slog.Any("error", err))
			return
		}
	}
}
