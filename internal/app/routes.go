package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vancomm/minesweeper/internal/handlers"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/repository"
)

func (a *App) loadRoutes() {
	auth := handlers.NewAuth(a.logger, a.repo, a.cookies, a.jwt)
	game := handlers.NewGameHandler(a.logger, a.games, a.ws)
	scores := handlers.NewScoreHandler(a.logger, a.repo)
	admin := handlers.NewAdminHandler(a.logger, a.repo)

	a.router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	authRouter := a.router.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", auth.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", auth.Logout).Methods(http.MethodPost)
	authRouter.HandleFunc("/me", auth.Status).Methods(http.MethodGet)

	users := a.router.PathPrefix("/users").Subrouter()
	users.Use(mux.MiddlewareFunc(middleware.RequireAuth))
	users.HandleFunc("/profile", auth.Profile).Methods(http.MethodGet)
	users.HandleFunc("/profile", auth.UpdateProfile).Methods(http.MethodPut)
	users.HandleFunc("/password", auth.ChangePassword).Methods(http.MethodPut)

	games := a.router.PathPrefix("/games").Subrouter()
	games.HandleFunc("", game.NewGame).Methods(http.MethodPost)
	games.HandleFunc("/{id}", game.Fetch).Methods(http.MethodGet)
	games.HandleFunc("/{id}/move", game.MakeAMove).Methods(http.MethodPost)
	games.HandleFunc("/{id}/forfeit", game.Forfeit).Methods(http.MethodPost)
	games.HandleFunc("/{id}/connect", game.ConnectWS).Methods(http.MethodGet)

	scoreRouter := a.router.PathPrefix("/scores").Subrouter()
	scoreRouter.Handle(
		"/personal-best", middleware.RequireAuth(http.HandlerFunc(scores.PersonalBests)),
	).Methods(http.MethodGet)
	scoreRouter.HandleFunc("/leaderboard/{difficulty}", scores.Leaderboard).Methods(http.MethodGet)

	adminRouter := a.router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(
		mux.MiddlewareFunc(middleware.RequireRole(a.logger, a.repo, repository.RoleAdmin)),
	)
	adminRouter.HandleFunc("/users", admin.ListPlayers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users/{id:[0-9]+}", admin.FetchPlayer).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users/{id:[0-9]+}", admin.DeletePlayer).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/users/{id:[0-9]+}/role", admin.UpdateRole).Methods(http.MethodPut)
	adminRouter.HandleFunc("/scores", admin.ListScores).Methods(http.MethodGet)
	adminRouter.HandleFunc("/stats", admin.Stats).Methods(http.MethodGet)
}
