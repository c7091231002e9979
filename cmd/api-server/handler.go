package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (app *App) initHandlers() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(app.requestLogger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   app.Cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	app.R = r

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I am Healthy"))
	})

	r.Post("/auth/login", app.Login)
	r.Post("/auth/signup", app.SignUp)
	r.Post("/auth/logout", app.Middleware(http.HandlerFunc(app.Logout)))

	r.Get("/stocks", app.Middleware(http.HandlerFunc(app.GetStocks)))
	r.Get("/stocks/sectors", app.Middleware(http.HandlerFunc(app.GetSectors)))

	r.Post("/leagues/create", app.Middleware(http.HandlerFunc(app.CreateLeague)))
	r.Get("/leagues", app.Middleware(http.HandlerFunc(app.GetLeagues)))
	r.Get("/leagues/public", app.Middleware(http.HandlerFunc(app.GetPublicLeagues)))
	r.Get("/leagues/code", app.Middleware(http.HandlerFunc(app.GetLeagueByCode)))
	r.Post("/leagues/join", app.Middleware(http.HandlerFunc(app.JoinLeague)))
	r.Post("/leagues/leave", app.Middleware(http.HandlerFunc(app.LeaveLeague)))
	r.Get("/leagues/settings", app.Middleware(http.HandlerFunc(app.GetSettings)))
	r.Put("/leagues/settings", app.Middleware(http.HandlerFunc(app.UpdateSettings)))
	r.Get("/leagues/members", app.Middleware(http.HandlerFunc(app.GetMembers)))
	r.Get("/leagues/delete", app.Middleware(http.HandlerFunc(app.DeleteLeague)))

	r.Get("/draft", app.Middleware(http.HandlerFunc(app.GetDraft)))
	r.Get("/draft/picks", app.Middleware(http.HandlerFunc(app.GetDraftPicks)))
	r.Get("/draft/available", app.Middleware(http.HandlerFunc(app.GetAvailableStocks)))
	r.Post("/draft/start", app.Middleware(app.limitDraftWrites(app.StartDraft)))
	r.Post("/draft/pick", app.Middleware(app.limitDraftWrites(app.PickStock)))
	r.Post("/draft/autopick", app.Middleware(app.limitDraftWrites(app.AutoPick)))
	r.Post("/draft/pause", app.Middleware(app.limitDraftWrites(app.PauseDraft)))
	r.Post("/draft/resume", app.Middleware(app.limitDraftWrites(app.ResumeDraft)))
	r.Post("/draft/end", app.Middleware(app.limitDraftWrites(app.EndDraft)))
	r.Post("/draft/reset", app.Middleware(app.limitDraftWrites(app.ResetDraft)))

	r.Get("/portfolio", app.Middleware(http.HandlerFunc(app.GetPortfolio)))

	r.Post("/trade/transaction", app.Middleware(http.HandlerFunc(app.TransactStocks)))
	r.Get("/trade", app.Middleware(http.HandlerFunc(app.Trade)))
	r.Get("/trade/transactions", app.Middleware(http.HandlerFunc(app.GetTransactions)))

	r.Get("/leaderboard", app.Middleware(http.HandlerFunc(app.GetLeaderboard)))
	r.Get("/standings", app.Middleware(http.HandlerFunc(app.GetStandings)))
	r.Get("/matchups", app.Middleware(http.HandlerFunc(app.GetMatchups)))

	r.Get("/notifications", app.Middleware(http.HandlerFunc(app.HandleGetNotifications)))
	r.Post("/notifications/seen", app.Middleware(http.HandlerFunc(app.HandleUpdateNotificationStatus)))

	r.Get("/profile", app.Middleware(http.HandlerFunc(app.GetProfile)))

	r.Get("/ws/draft", app.Middleware(http.HandlerFunc(app.handleDraftWebSocket)))
}
