package main

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/auth"
	"github.com/portfoligo/api-server/internals/draft"
	"github.com/portfoligo/api-server/internals/leaderboard"
	"github.com/portfoligo/api-server/pkg/conf"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

type App struct {
	Cfg     *conf.Config
	Log     zerolog.Logger
	DB      *gorm.DB
	R       *chi.Mux
	KVStore kvstore.KVStore

	// Draft owns the live sessions, so one instance serves every request.
	Draft *draft.DraftService
	Auth  *auth.AuthService

	limitersM sync.Mutex
	limiters  map[int]*rate.Limiter
}

func NewApp(cfg *conf.Config, log zerolog.Logger, db *gorm.DB, kv kvstore.KVStore) *App {
	app := &App{
		Cfg:      cfg,
		Log:      log,
		DB:       db,
		KVStore:  kv,
		Draft:    draft.New(kv, db, log),
		Auth:     auth.New(kv, db, cfg.Auth.Secret, cfg.Auth.TokenTTL),
		limiters: make(map[int]*rate.Limiter),
	}
	app.Draft.SetTickInterval(cfg.Draft.TickInterval)
	app.Draft.OnComplete(func(ctx context.Context, leagueID string) error {
		_, err := leaderboard.New(kv, db).GenerateSchedule(ctx, leagueID)
		return err
	})
	app.initHandlers()
	return app
}

func (app *App) Close() {
	app.Draft.Close()
}
