package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/portfoligo/api-server/internals/auth"
	"github.com/portfoligo/api-server/internals/draft"
	"github.com/portfoligo/api-server/internals/leaderboard"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/notification"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/internals/trade"
)

func Open(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")
	return db, nil
}

// Models lists every table the server owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&auth.Users{},
		&stocks.Stock{},
		&leagues.League{},
		&leagues.LeagueMember{},
		&leagues.LeagueSettings{},
		&draft.SessionRecord{},
		&draft.PickRecord{},
		&roster.UserRoster{},
		&trade.Transaction{},
		&leaderboard.Matchup{},
		&notification.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
