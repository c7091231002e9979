package leagues

import (
	"time"

	"github.com/portfoligo/api-server/internals/scoring"
)

const (
	StatusDraftPending = "draft_pending"
	StatusDrafting     = "drafting"
	StatusActive       = "active"
	StatusCompleted    = "completed"
)

const (
	DraftModeStrict       = "strict-turn-order"
	DraftModeCommissioner = "commissioner-assign"
)

const (
	MinRosterSize      = 5
	MaxRosterSize      = 12
	DefaultRosterSize  = 8
	DefaultMaxPlayers  = 10
	DefaultPickSeconds = 90
	DefaultSeasonWeeks = 10
)

// League Table structure
type League struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Code        string    `json:"code" gorm:"uniqueIndex;size:8;not null"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	MaxPlayers  int       `json:"max_players" gorm:"not null"`
	RosterSize  int       `json:"roster_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"not null;default:'draft_pending'"`
	CreatedBy   int       `json:"created_by" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeagueMember is one team of a league. Its ID is the team id used by the
// draft and the rosters; TurnOrder is the registration order.
type LeagueMember struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	LeagueID       string    `json:"league_id" gorm:"not null;uniqueIndex:idx_member_league_user"`
	UserID         int       `json:"user_id" gorm:"not null;uniqueIndex:idx_member_league_user"`
	TeamName       string    `json:"team_name" gorm:"not null"`
	IsCommissioner bool      `json:"is_commissioner"`
	TurnOrder      int       `json:"turn_order"`
	JoinedAt       time.Time `json:"joined_at"`
}

type LeagueSettings struct {
	LeagueID     string    `json:"league_id" gorm:"primaryKey"`
	RiskWeight   float64   `json:"risk_weight"`
	GrowthWeight float64   `json:"growth_weight"`
	ValueWeight  float64   `json:"value_weight"`
	DraftMode    string    `json:"draft_mode" gorm:"not null"`
	PickSeconds  int       `json:"pick_seconds"`
	SeasonWeeks  int       `json:"season_weeks"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s LeagueSettings) Weights() scoring.Weights {
	return scoring.Weights{Risk: s.RiskWeight, Growth: s.GrowthWeight, Value: s.ValueWeight}
}

// LeagueView is a league as listed to one user.
type LeagueView struct {
	League
	MemberCount    int  `json:"member_count"`
	IsMember       bool `json:"is_member"`
	IsCommissioner bool `json:"is_commissioner"`
}

type CreateLeagueRequestBody struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	IsPublic    bool             `json:"is_public"`
	MaxPlayers  int              `json:"max_players"`
	RosterSize  int              `json:"roster_size"`
	TeamName    string           `json:"team_name"`
	Weights     *scoring.Weights `json:"weights,omitempty"`
	DraftMode   string           `json:"draft_mode"`
	PickSeconds *int             `json:"pick_seconds,omitempty"`
	SeasonWeeks int              `json:"season_weeks"`
}

type JoinLeagueRequestBody struct {
	Code     string `json:"code"`
	TeamName string `json:"team_name"`
}

// UpdateSettingsRequestBody only changes the fields that are set.
type UpdateSettingsRequestBody struct {
	Weights     *scoring.Weights `json:"weights,omitempty"`
	DraftMode   *string          `json:"draft_mode,omitempty"`
	PickSeconds *int             `json:"pick_seconds,omitempty"`
	SeasonWeeks *int             `json:"season_weeks,omitempty"`
	RosterSize  *int             `json:"roster_size,omitempty"`
	MaxPlayers  *int             `json:"max_players,omitempty"`
}
