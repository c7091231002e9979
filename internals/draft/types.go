package draft

import (
	"context"
	"time"

	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/stocks"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Mode decides who may pick for whom.
type Mode string

const (
	// ModeStrict lets only the team on the clock pick and runs the pick clock.
	ModeStrict Mode = "strict-turn-order"
	// ModeCommissioner lets one operator assign stocks to any team.
	ModeCommissioner Mode = "commissioner-assign"
)

type Config struct {
	RosterLimit int  `json:"roster_limit"`
	Mode        Mode `json:"mode"`
	// PickSeconds is the pick clock. Zero disables it.
	PickSeconds  int           `json:"pick_seconds"`
	TickInterval time.Duration `json:"-"`
}

func (c Config) timed() bool {
	return c.Mode == ModeStrict && c.PickSeconds > 0
}

type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID int    `json:"user_id"`
}

// Pick is one entry of the pick log. Stock is the snapshot taken at pick time.
type Pick struct {
	Number        int          `json:"pick_number"`
	TeamID        string       `json:"team_id"`
	OwnerID       int          `json:"user_id"`
	StockID       string       `json:"stock_id"`
	Stock         stocks.Stock `json:"stock_data"`
	DraftPosition int          `json:"draft_position"`
	PickedAt      time.Time    `json:"picked_at"`
	Auto          bool         `json:"auto"`
}

// Progress is the part of a session that changes on every transition.
type Progress struct {
	Status           Status     `json:"status"`
	CurrentPick      int        `json:"current_pick"`
	CurrentTeamIndex int        `json:"current_team_index"`
	TimeRemaining    int        `json:"time_remaining"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

type TeamState struct {
	Team
	Roster []roster.Entry `json:"roster"`
}

// State is a read-only snapshot of a session.
type State struct {
	Progress
	Mode        Mode        `json:"mode"`
	RosterLimit int         `json:"roster_limit"`
	TotalPicks  int         `json:"total_picks"`
	OnTheClock  string      `json:"on_the_clock,omitempty"`
	Available   int         `json:"available"`
	Teams       []TeamState `json:"teams"`
}

type EventType string

const (
	EventStarted   EventType = "started"
	EventPick      EventType = "pick"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
	EventCompleted EventType = "completed"
	EventReset     EventType = "reset"
	EventTick      EventType = "tick"
	// EventState is a snapshot sent to an observer that joins mid-draft.
	EventState EventType = "state"
)

type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
	Pick  *Pick     `json:"pick,omitempty"`
}

// Listener observes committed transitions. It is called with the session
// locked, so it must not call back into the session.
type Listener func(Event)

// Store persists transitions. A session applies a transition only after its
// store accepted it.
type Store interface {
	SavePick(ctx context.Context, p Pick, next Progress) error
	SaveState(ctx context.Context, next Progress) error
	ResetDraft(ctx context.Context, next Progress) error
}

type nopStore struct{}

func (nopStore) SavePick(context.Context, Pick, Progress) error { return nil }
func (nopStore) SaveState(context.Context, Progress) error      { return nil }
func (nopStore) ResetDraft(context.Context, Progress) error     { return nil }
