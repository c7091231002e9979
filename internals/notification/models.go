package notification

import "time"

const (
	StatusUnseen = "unseen"
	StatusSeen   = "seen"
)

const (
	EntityDraft  = "draft"
	EntityTrade  = "trade"
	EntityLeague = "league"
)

// Notification Table structure. Actor is the user whose action caused it, 0
// for the draft clock.
type Notification struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int       `json:"user_id" gorm:"not null;index"`
	LeagueID    string    `json:"league_id" gorm:"index"`
	Entity      string    `json:"entity" gorm:"not null"`
	Actor       int       `json:"actor"`
	Description string    `json:"description"`
	Status      string    `json:"status" gorm:"not null;default:'unseen'"`
	CreatedAt   time.Time `json:"created_at"`
}
