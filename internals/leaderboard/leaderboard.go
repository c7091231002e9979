package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

var (
	ErrNoSchedule   = errors.New("league has no matchup schedule")
	ErrWeekNotFound = errors.New("no matchups scheduled for that week")
	ErrWeekSettled  = errors.New("week is already settled")
)

type Leaderboard struct {
	KVStore kvstore.KVStore
	DB      *gorm.DB
	Leagues *leagues.LeagueService
	Stocks  *stocks.StockService
	now     func() time.Time
}

func New(kv kvstore.KVStore, db *gorm.DB) *Leaderboard {
	return &Leaderboard{
		KVStore: kv,
		DB:      db,
		Leagues: leagues.New(kv, db),
		Stocks:  stocks.New(db),
		now:     time.Now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (l *Leaderboard) teams(ctx context.Context, leagueID string) ([]TeamRef, error) {
	members, err := l.Leagues.Members(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	teams := make([]TeamRef, len(members))
	for i, m := range members {
		teams[i] = TeamRef{ID: m.ID, Name: m.TeamName, UserID: m.UserID}
	}
	return teams, nil
}

// GenerateSchedule replaces the league's matchups with a fresh round-robin
// over its teams in turn order.
func (l *Leaderboard) GenerateSchedule(ctx context.Context, leagueID string) ([]Matchup, error) {
	teams, err := l.teams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	settings, err := l.Leagues.GetSettings(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}

	matchups := make([]Matchup, 0)
	for w, week := range Schedule(ids, settings.SeasonWeeks) {
		for _, p := range week {
			matchups = append(matchups, Matchup{
				LeagueID:   leagueID,
				Week:       w + 1,
				HomeTeamID: p.Home,
				AwayTeamID: p.Away,
			})
		}
	}

	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("league_id = ?", leagueID).Delete(&Matchup{}).Error; err != nil {
			return fmt.Errorf("error clearing matchups: %w", err)
		}
		if len(matchups) == 0 {
			return nil
		}
		if err := tx.Create(&matchups).Error; err != nil {
			return fmt.Errorf("error inserting matchups: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matchups, nil
}

func (l *Leaderboard) ClearSchedule(ctx context.Context, leagueID string) error {
	return l.DB.WithContext(ctx).Where("league_id = ?", leagueID).Delete(&Matchup{}).Error
}

// teamScores scores every team by the live data of the stocks it holds.
func (l *Leaderboard) teamScores(ctx context.Context, leagueID string, w scoring.Weights) (map[string][]stocks.Stock, map[string]float64, error) {
	byTeam, err := roster.NewRepository(l.DB).ListLeague(ctx, leagueID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0)
	for _, rows := range byTeam {
		for _, row := range rows {
			ids = append(ids, row.StockID)
		}
	}
	live, err := l.Stocks.ByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	holdings := make(map[string][]stocks.Stock, len(byTeam))
	scores := make(map[string]float64, len(byTeam))
	for teamID, rows := range byTeam {
		list := make([]stocks.Stock, 0, len(rows))
		for _, row := range rows {
			s, ok := live[row.StockID]
			if !ok {
				s = row.StockData
			}
			list = append(list, s)
		}
		holdings[teamID] = list
		scores[teamID] = round2(scoring.WeightedTeamScore(list, w))
	}
	return holdings, scores, nil
}

// SettleWeek scores every matchup of the week with the teams' current
// weighted roster scores and marks them settled.
func (l *Leaderboard) SettleWeek(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	settings, err := l.Leagues.GetSettings(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	_, scores, err := l.teamScores(ctx, leagueID, settings.Weights())
	if err != nil {
		return nil, err
	}

	var matchups []Matchup
	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("league_id = ? AND week = ?", leagueID, week).Order("id").Find(&matchups).Error; err != nil {
			return err
		}
		if len(matchups) == 0 {
			return ErrWeekNotFound
		}
		if matchups[0].Settled {
			return ErrWeekSettled
		}
		now := l.now()
		for i := range matchups {
			m := &matchups[i]
			m.HomeScore = scores[m.HomeTeamID]
			if !m.IsBye() {
				m.AwayScore = scores[m.AwayTeamID]
			}
			m.Settled = true
			m.SettledAt = &now
			if err := tx.Save(m).Error; err != nil {
				return fmt.Errorf("error settling matchup %d: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matchups, nil
}

// SettleDue settles the earliest open week of every active league. A league
// with no open week left is marked completed. It returns the number of weeks
// settled.
func (l *Leaderboard) SettleDue(ctx context.Context) (int, error) {
	active, err := l.Leagues.ActiveLeagues(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	var errs []error
	for _, league := range active {
		var open []int
		err := l.DB.WithContext(ctx).Model(&Matchup{}).
			Where("league_id = ? AND settled = ?", league.ID, false).
			Order("week").Limit(1).Pluck("week", &open).Error
		if err != nil {
			errs = append(errs, fmt.Errorf("league %s: %w", league.ID, err))
			continue
		}
		if len(open) == 0 {
			if err := l.Leagues.SetStatus(ctx, league.ID, leagues.StatusCompleted); err != nil {
				errs = append(errs, fmt.Errorf("league %s: %w", league.ID, err))
			}
			continue
		}
		if _, err := l.SettleWeek(ctx, league.ID, open[0]); err != nil {
			errs = append(errs, fmt.Errorf("league %s week %d: %w", league.ID, open[0], err))
			continue
		}
		settled++
	}
	return settled, errors.Join(errs...)
}

// GetMatchups lists the league's matchups; week 0 means every week.
func (l *Leaderboard) GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	matchups := make([]Matchup, 0)
	q := l.DB.WithContext(ctx).Where("league_id = ?", leagueID)
	if week > 0 {
		q = q.Where("week = ?", week)
	}
	if err := q.Order("week").Order("id").Find(&matchups).Error; err != nil {
		return nil, err
	}
	return matchups, nil
}

func (l *Leaderboard) GetStandings(ctx context.Context, leagueID string) ([]Standing, error) {
	teams, err := l.teams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	matchups, err := l.GetMatchups(ctx, leagueID, 0)
	if err != nil {
		return nil, err
	}
	if len(matchups) == 0 {
		return nil, ErrNoSchedule
	}
	return ComputeStandings(teams, matchups), nil
}

// GetLeaderboard ranks the league's teams by their current weighted score.
func (l *Leaderboard) GetLeaderboard(ctx context.Context, leagueID string) ([]Score, error) {
	if _, err := l.Leagues.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	teams, err := l.teams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	settings, err := l.Leagues.GetSettings(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	holdings, scores, err := l.teamScores(ctx, leagueID, settings.Weights())
	if err != nil {
		return nil, err
	}

	board := make([]Score, len(teams))
	for i, t := range teams {
		board[i] = Score{
			TeamID:        t.ID,
			TeamName:      t.Name,
			UserID:        t.UserID,
			RosterSize:    len(holdings[t.ID]),
			TotalScore:    scoring.TeamTotal(holdings[t.ID]),
			WeightedScore: scores[t.ID],
		}
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].WeightedScore > board[j].WeightedScore
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board, nil
}
