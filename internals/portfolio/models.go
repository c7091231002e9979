package portfolio

import (
	"time"

	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/internals/stocks"
)

// Holding is one roster slot. Drafted is the snapshot taken when the stock
// joined the roster; Live carries the current scores and market data.
type Holding struct {
	StockID       string       `json:"stock_id"`
	DraftPosition int          `json:"draft_position"`
	AddedAt       time.Time    `json:"added_at"`
	Drafted       stocks.Stock `json:"drafted"`
	Live          stocks.Stock `json:"live"`
	WeightedScore float64      `json:"weighted_score"`
}

type RosterStats struct {
	RosterSize    int     `json:"roster_size"`
	RosterLimit   int     `json:"roster_limit"`
	TotalScore    float64 `json:"total_score"`
	AverageScore  float64 `json:"average_score"`
	WeightedScore float64 `json:"weighted_score"`
}

type DetailedPortfolio struct {
	LeagueID string          `json:"league_id"`
	TeamID   string          `json:"team_id"`
	TeamName string          `json:"team_name"`
	Weights  scoring.Weights `json:"weights"`
	Holdings []Holding       `json:"holdings"`
	Stats    RosterStats     `json:"stats"`
}
