package roster

import (
	"time"

	"github.com/portfoligo/api-server/internals/stocks"
)

// UserRoster is the persisted form of one roster slot. StockData is the
// snapshot taken when the stock was added.
type UserRoster struct {
	ID            string       `json:"id" gorm:"primaryKey"`
	LeagueID      string       `json:"league_id" gorm:"not null;uniqueIndex:idx_roster_league_stock;index:idx_roster_league_team"`
	TeamID        string       `json:"team_id" gorm:"not null;index:idx_roster_league_team"`
	UserID        int          `json:"user_id" gorm:"not null;index"`
	StockID       string       `json:"stock_id" gorm:"not null;uniqueIndex:idx_roster_league_stock"`
	StockData     stocks.Stock `json:"stock_data" gorm:"serializer:json;type:text"`
	DraftPosition int          `json:"draft_position"`
	AddedAt       time.Time    `json:"added_at"`
}

func (u UserRoster) Entry() Entry {
	return Entry{Stock: u.StockData, DraftPosition: u.DraftPosition, AddedAt: u.AddedAt}
}
