package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/database"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/repository"
	"github.com/vancomm/minesweeper/internal/session"
	"github.com/vancomm/minesweeper/internal/store"
)

type App struct {
	logger   *slog.Logger
	router   *mux.Router
	db       *pgxpool.Pool
	repo     *repository.Queries
	games    *session.Manager
	jwt      *config.JWT
	cookies  *config.Cookies
	ws       *config.WebSocket
	sessions *config.Sessions
}

func New(logger *slog.Logger) *App {
	router := mux.NewRouter()

	app := &App{
		logger: logger,
		router: router,
	}

	return app
}

func (a *App) configure() error {
	jwt, err := config.NewJWT()
	if err != nil {
		return err
	}
	a.jwt = jwt

	cookies, err := config.NewCookies(jwt)
	if err != nil {
		return err
	}
	a.cookies = cookies

	ws, err := config.NewWebSocket()
	if err != nil {
		return err
	}
	a.ws = ws

	sessions, err := config.NewSessions()
	if err != nil {
		return err
	}
	a.sessions = sessions

	return nil
}

func (a *App) openSessions(ctx context.Context) (*sql.DB, error) {
	sqlite, err := store.Open(a.sessions.DBPath)
	if err != nil {
		return nil, err
	}
	kvs, err := store.New(ctx, sqlite, "sessions")
	if err != nil {
		sqlite.Close()
		return nil, fmt.Errorf("unable to create session store: %w", err)
	}
	a.games = session.NewManager(a.logger, kvs, scoreRecorder{a.repo})
	return sqlite, nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.configure(); err != nil {
		return err
	}

	db, migrator, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer db.Close()
	if version, dirty, err := migrator.Version(); err == nil {
		a.logger.Info(
			"database migrated",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}

	a.db = db
	a.repo = repository.New(db)

	sqlite, err := a.openSessions(ctx)
	if err != nil {
		return err
	}
	defer sqlite.Close()

	a.loadRoutes()

	addr := config.Port()
	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(
			a.router,
			middleware.Auth(a.logger, a.jwt, a.cookies),
			middleware.Logging(a.logger),
			middleware.Cors(config.CorsOrigins()),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return server.Shutdown(ctx)
	})

	g.Go(func() error {
		a.sweep(gCtx)
		return nil
	})

	return g.Wait()
}

// sweep periodically drops stale game sessions until ctx is done.
func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(a.sessions.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.games.Sweep(ctx, a.sessions.TTL)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("unable to sweep sessions", slog.Any("error", err))
			}
			if removed == 0 {
				continue
			}
			active, err := a.games.Active(ctx)
			if err != nil {
				a.logger.Warn("unable to count sessions", slog.Any("error", err))
			}
			a.logger.Info(
				"swept stale sessions",
				slog.Int("removed", removed),
				slog.Int("active", active),
			)
		}
	}
}
