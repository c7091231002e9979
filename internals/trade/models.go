package trade

import (
	"time"

	"github.com/portfoligo/api-server/internals/stocks"
)

const (
	TransactionAdd  = "add"
	TransactionDrop = "drop"
)

// Transaction Table structure. One row per free agent move.
type Transaction struct {
	ID              int       `json:"id" gorm:"primaryKey;autoIncrement"`
	LeagueID        string    `json:"league_id" gorm:"not null;index"`
	UserID          int       `json:"user_id" gorm:"not null;index"`
	TeamID          string    `json:"team_id" gorm:"not null"`
	StockID         string    `json:"stock_id" gorm:"not null"`
	Symbol          string    `json:"symbol"`
	TransactionType string    `json:"transaction_type" gorm:"not null"`
	TransactionTime time.Time `json:"transaction_time"`
}

// StockDetails is a stock as seen from one team of a league.
type StockDetails struct {
	stocks.Stock
	OwnerTeamID   string `json:"owner_team_id,omitempty"`
	OwnerTeamName string `json:"owner_team_name,omitempty"`
	OwnedByMe     bool   `json:"owned_by_me"`
	Available     bool   `json:"available"`
}
