package leaderboard

import "time"

// Matchup is one head-to-head pairing of a season week. A bye has no away
// team and never counts in the standings.
type Matchup struct {
	ID         int        `json:"id" gorm:"primaryKey;autoIncrement"`
	LeagueID   string     `json:"league_id" gorm:"not null;uniqueIndex:idx_matchup_week_home"`
	Week       int        `json:"week" gorm:"not null;uniqueIndex:idx_matchup_week_home"`
	HomeTeamID string     `json:"home_team_id" gorm:"not null;uniqueIndex:idx_matchup_week_home"`
	AwayTeamID string     `json:"away_team_id"`
	HomeScore  float64    `json:"home_score"`
	AwayScore  float64    `json:"away_score"`
	Settled    bool       `json:"settled"`
	SettledAt  *time.Time `json:"settled_at"`
}

func (m Matchup) IsBye() bool {
	return m.AwayTeamID == ""
}

// Pairing is one scheduled game before it is stored.
type Pairing struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

type TeamRef struct {
	ID     string `json:"team_id"`
	Name   string `json:"team_name"`
	UserID int    `json:"user_id"`
}

type Standing struct {
	Rank          int     `json:"rank"`
	TeamID        string  `json:"team_id"`
	TeamName      string  `json:"team_name"`
	UserID        int     `json:"user_id"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// Score is a team's place on the live leaderboard.
type Score struct {
	Rank          int     `json:"rank"`
	TeamID        string  `json:"team_id"`
	TeamName      string  `json:"team_name"`
	UserID        int     `json:"user_id"`
	RosterSize    int     `json:"roster_size"`
	TotalScore    float64 `json:"total_score"`
	WeightedScore float64 `json:"weighted_score"`
}
