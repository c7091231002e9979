package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/portfoligo/api-server/internals/ingest"
	"github.com/portfoligo/api-server/internals/leaderboard"
	"github.com/portfoligo/api-server/internals/scheduler"
	"github.com/portfoligo/api-server/pkg/conf"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

const settleTimeout = 5 * time.Minute

// initKVStore connects to redis, or keeps everything in process when redis is
// disabled (single instance deployments and local runs).
func initKVStore(cfg conf.RedisConfig, log zerolog.Logger) (kvstore.KVStore, error) {
	if !cfg.Enabled {
		log.Warn().Msg("redis disabled, using the in-process kv store")
		return kvstore.NewMemory(), nil
	}
	kv, err := kvstore.NewRedis(cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.Addr).Msg("connected to redis")
	return kv, nil
}

func (app *App) initScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(app.Log, settleTimeout)
	job := scheduler.SettleJob{
		Settler: leaderboard.New(app.KVStore, app.DB),
		Log:     app.Log,
	}
	if err := s.AddJob(app.Cfg.Season.SettleCron, job); err != nil {
		return nil, err
	}
	return s, nil
}

// initBroker starts the score update consumer. The returned func closes the
// broker connection.
func (app *App) initBroker(ctx context.Context) (func(), error) {
	conn, ch, err := ingest.Dial(app.Cfg.AMQP.URL)
	if err != nil {
		return nil, err
	}
	consumer := ingest.New(app.KVStore, app.DB, app.Log)
	go func() {
		if err := consumer.Run(ctx, ch, app.Cfg.AMQP.Exchange); err != nil && ctx.Err() == nil {
			app.Log.Error().Err(err).Msg("score consumer stopped")
		}
	}()
	return func() {
		ch.Close()
		conn.Close()
	}, nil
}
