package draft

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/roster"
)

// gormStore writes a session's transitions, the matching roster rows and the
// league status in one transaction each.
type gormStore struct {
	db        *gorm.DB
	sessionID string
	leagueID  string
}

func leagueStatus(s Status) string {
	switch s {
	case StatusActive, StatusPaused:
		return leagues.StatusDrafting
	case StatusCompleted:
		return leagues.StatusActive
	default:
		return leagues.StatusDraftPending
	}
}

func (g *gormStore) saveProgress(tx *gorm.DB, next Progress) error {
	err := tx.Model(&SessionRecord{}).Where("id = ?", g.sessionID).Updates(map[string]interface{}{
		"status":             string(next.Status),
		"current_pick":       next.CurrentPick,
		"current_team_index": next.CurrentTeamIndex,
		"time_remaining":     next.TimeRemaining,
		"started_at":         next.StartedAt,
		"completed_at":       next.CompletedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("error updating draft session: %w", err)
	}
	err = tx.Model(&leagues.League{}).Where("id = ?", g.leagueID).Update("status", leagueStatus(next.Status)).Error
	if err != nil {
		return fmt.Errorf("error updating league status: %w", err)
	}
	return nil
}

func (g *gormStore) SavePick(ctx context.Context, p Pick, next Progress) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := PickRecord{
			ID:             uuid.NewString(),
			DraftSessionID: g.sessionID,
			LeagueID:       g.leagueID,
			PickNumber:     p.Number,
			TeamID:         p.TeamID,
			UserID:         p.OwnerID,
			StockID:        p.StockID,
			StockData:      p.Stock,
			DraftPosition:  p.DraftPosition,
			Auto:           p.Auto,
			PickedAt:       p.PickedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("error inserting pick %d: %w", p.Number, err)
		}
		err := roster.NewRepository(tx).Insert(ctx, roster.UserRoster{
			LeagueID:      g.leagueID,
			TeamID:        p.TeamID,
			UserID:        p.OwnerID,
			StockID:       p.StockID,
			StockData:     p.Stock,
			DraftPosition: p.DraftPosition,
			AddedAt:       p.PickedAt,
		})
		if err != nil {
			return err
		}
		return g.saveProgress(tx, next)
	})
}

func (g *gormStore) SaveState(ctx context.Context, next Progress) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return g.saveProgress(tx, next)
	})
}

// ResetDraft clears the pick log and every roster of the league.
func (g *gormStore) ResetDraft(ctx context.Context, next Progress) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("draft_session_id = ?", g.sessionID).Delete(&PickRecord{}).Error; err != nil {
			return fmt.Errorf("error clearing picks: %w", err)
		}
		if err := roster.NewRepository(tx).DeleteLeague(ctx, g.leagueID); err != nil {
			return fmt.Errorf("error clearing rosters: %w", err)
		}
		return g.saveProgress(tx, next)
	})
}
