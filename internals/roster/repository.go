package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/stocks"
)

// ErrStockTaken is returned when another team of the league holds the stock.
var ErrStockTaken = errors.New("stock is held by another team")

// Repository is the persistent roster store of a league.
type Repository struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db, now: time.Now}
}

// WithTx binds the repository to a running transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{DB: tx, now: r.now}
}

// Slot identifies the team a stock is added for.
type Slot struct {
	LeagueID string
	TeamID   string
	UserID   int
	Limit    int
}

// Add stores s on the slot's roster with the same rules as Roster.Add, plus a
// league-wide ownership check.
func (r *Repository) Add(ctx context.Context, slot Slot, s stocks.Stock) (UserRoster, error) {
	var row UserRoster
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner UserRoster
		err := tx.Where("league_id = ? AND stock_id = ?", slot.LeagueID, s.ID).Take(&owner).Error
		switch {
		case err == nil && owner.TeamID == slot.TeamID:
			return ErrStockAlreadyOwned
		case err == nil:
			return ErrStockTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var held int64
		if err := tx.Model(&UserRoster{}).Where("league_id = ? AND team_id = ?", slot.LeagueID, slot.TeamID).Count(&held).Error; err != nil {
			return err
		}
		if slot.Limit > 0 && int(held) >= slot.Limit {
			return ErrRosterFull
		}

		row = UserRoster{
			ID:            uuid.NewString(),
			LeagueID:      slot.LeagueID,
			TeamID:        slot.TeamID,
			UserID:        slot.UserID,
			StockID:       s.ID,
			StockData:     s,
			DraftPosition: int(held) + 1,
			AddedAt:       r.now(),
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return UserRoster{}, err
	}
	return row, nil
}

// Insert writes a slot decided elsewhere (the draft allocator) without
// re-checking capacity. The unique index still rejects a stock held twice.
func (r *Repository) Insert(ctx context.Context, row UserRoster) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("error inserting roster slot: %w", err)
	}
	return nil
}

// Remove drops the stock from the team's roster and renumbers the rest.
func (r *Repository) Remove(ctx context.Context, leagueID, teamID, stockID string) (stocks.Stock, error) {
	var removed UserRoster
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("league_id = ? AND team_id = ? AND stock_id = ?", leagueID, teamID, stockID).Take(&removed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStockNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&UserRoster{}, "id = ?", removed.ID).Error; err != nil {
			return err
		}
		return tx.Model(&UserRoster{}).
			Where("league_id = ? AND team_id = ? AND draft_position > ?", leagueID, teamID, removed.DraftPosition).
			Update("draft_position", gorm.Expr("draft_position - 1")).Error
	})
	if err != nil {
		return stocks.Stock{}, err
	}
	return removed.StockData, nil
}

func (r *Repository) List(ctx context.Context, leagueID, teamID string) ([]UserRoster, error) {
	rows := make([]UserRoster, 0)
	err := r.DB.WithContext(ctx).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Order("draft_position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByUser(ctx context.Context, leagueID string, userID int) ([]UserRoster, error) {
	rows := make([]UserRoster, 0)
	err := r.DB.WithContext(ctx).
		Where("league_id = ? AND user_id = ?", leagueID, userID).
		Order("draft_position ASC").
		Find(&rows).Error
	return rows, err
}

// ListLeague groups every roster of the league by team.
func (r *Repository) ListLeague(ctx context.Context, leagueID string) (map[string][]UserRoster, error) {
	var rows []UserRoster
	err := r.DB.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("team_id ASC").Order("draft_position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]UserRoster)
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row)
	}
	return out, nil
}

// Owner reports which team holds the stock, if any.
func (r *Repository) Owner(ctx context.Context, leagueID, stockID string) (string, bool, error) {
	var row UserRoster
	err := r.DB.WithContext(ctx).Where("league_id = ? AND stock_id = ?", leagueID, stockID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.TeamID, true, nil
}

func (r *Repository) DeleteLeague(ctx context.Context, leagueID string) error {
	return r.DB.WithContext(ctx).Where("league_id = ?", leagueID).Delete(&UserRoster{}).Error
}
