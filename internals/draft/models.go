package draft

import (
	"time"

	"github.com/portfoligo/api-server/internals/stocks"
)

// SessionRecord is the persisted draft of one league.
type SessionRecord struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	LeagueID         string     `json:"league_id" gorm:"uniqueIndex;not null"`
	Status           string     `json:"status" gorm:"not null"`
	Mode             string     `json:"mode" gorm:"not null"`
	RosterLimit      int        `json:"roster_limit"`
	PickSeconds      int        `json:"pick_seconds"`
	CurrentPick      int        `json:"current_pick"`
	CurrentTeamIndex int        `json:"current_team_index"`
	TimeRemaining    int        `json:"time_remaining"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (SessionRecord) TableName() string { return "draft_sessions" }

func (r SessionRecord) progress() Progress {
	return Progress{
		Status:           Status(r.Status),
		CurrentPick:      r.CurrentPick,
		CurrentTeamIndex: r.CurrentTeamIndex,
		TimeRemaining:    r.TimeRemaining,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
}

// PickRecord is one row of the pick log. The unique indexes reject a second
// commit of the same pick number or the same stock within a draft.
type PickRecord struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	DraftSessionID string       `json:"draft_session_id" gorm:"not null;uniqueIndex:idx_pick_number;uniqueIndex:idx_pick_stock"`
	LeagueID       string       `json:"league_id" gorm:"not null;index"`
	PickNumber     int          `json:"pick_number" gorm:"not null;uniqueIndex:idx_pick_number"`
	TeamID         string       `json:"team_id" gorm:"not null"`
	UserID         int          `json:"user_id"`
	StockID        string       `json:"stock_id" gorm:"not null;uniqueIndex:idx_pick_stock"`
	StockData      stocks.Stock `json:"stock_data" gorm:"serializer:json;type:text"`
	DraftPosition  int          `json:"draft_position"`
	Auto           bool         `json:"auto"`
	PickedAt       time.Time    `json:"picked_at"`
}

func (PickRecord) TableName() string { return "draft_picks" }

func (r PickRecord) pick() Pick {
	return Pick{
		Number:        r.PickNumber,
		TeamID:        r.TeamID,
		OwnerID:       r.UserID,
		StockID:       r.StockID,
		Stock:         r.StockData,
		DraftPosition: r.DraftPosition,
		PickedAt:      r.PickedAt,
		Auto:          r.Auto,
	}
}
