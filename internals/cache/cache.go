package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

const cachedMarker = "is_cached"

type CacheService struct {
	DB *gorm.DB
	KV kvstore.KVStore
}

func New(db *gorm.DB, kv kvstore.KVStore) *CacheService {
	return &CacheService{
		DB: db,
		KV: kv,
	}
}

// RosterKey names the hash holding one user's roster in a league. Fields are
// stock ids with the JSON roster row as value, plus the is_cached marker.
func RosterKey(leagueID string, userID int) string {
	return fmt.Sprintf("roster_%s_%d", leagueID, userID)
}

// LoadUserRoster copies the user's roster rows from the database into the
// cache.
func (c *CacheService) LoadUserRoster(ctx context.Context, leagueID string, userID int) ([]roster.UserRoster, error) {
	rows, err := roster.NewRepository(c.DB).ListByUser(ctx, leagueID, userID)
	if err != nil {
		return nil, err
	}

	key := RosterKey(leagueID, userID)
	if err := c.KV.Delete(key); err != nil {
		return nil, err
	}
	if err := c.KV.HSet(key, cachedMarker, "active"); err != nil {
		return nil, fmt.Errorf("error setting key %s in cache: %w", key, err)
	}
	for _, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		if err := c.KV.HSet(key, row.StockID, string(value)); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// UserRoster reads the user's roster through the cache.
func (c *CacheService) UserRoster(ctx context.Context, leagueID string, userID int) ([]roster.UserRoster, error) {
	key := RosterKey(leagueID, userID)
	_, err := c.KV.HGet(key, cachedMarker)
	if errors.Is(err, kvstore.Nil) {
		return c.LoadUserRoster(ctx, leagueID, userID)
	}
	if err != nil {
		return nil, err
	}

	fields, err := c.KV.HGetAll(key)
	if err != nil {
		return nil, err
	}
	rows := make([]roster.UserRoster, 0, len(fields))
	for field, value := range fields {
		if field == cachedMarker {
			continue
		}
		var row roster.UserRoster
		if err := json.Unmarshal([]byte(value), &row); err != nil {
			// a corrupt entry is rebuilt from the database
			return c.LoadUserRoster(ctx, leagueID, userID)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DraftPosition < rows[j].DraftPosition })
	return rows, nil
}

func (c *CacheService) InvalidateRoster(leagueID string, userID int) error {
	return c.KV.Delete(RosterKey(leagueID, userID))
}

// InvalidateLeague drops every cached roster of the league.
func (c *CacheService) InvalidateLeague(leagueID string) error {
	keys, err := c.KV.Keys("roster_" + leagueID + "_*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.KV.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
