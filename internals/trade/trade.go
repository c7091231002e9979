package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/cache"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/notification"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

var (
	ErrInvalidTransactionType = errors.New("transaction type must be add or drop")
	ErrLeagueNotActive        = errors.New("free agent moves are only open while the season runs")
	ErrStockUnavailable       = errors.New("stock is held by another team")

	ErrRosterFull        = roster.ErrRosterFull
	ErrStockAlreadyOwned = roster.ErrStockAlreadyOwned
	ErrStockNotFound     = roster.ErrStockNotFound
)

type TradeService struct {
	KV       kvstore.KVStore
	DB       *gorm.DB
	Leagues  *leagues.LeagueService
	Stocks   *stocks.StockService
	Cache    *cache.CacheService
	Notifier *notification.NotificationService
}

func New(kv kvstore.KVStore, db *gorm.DB) *TradeService {
	return &TradeService{
		KV:       kv,
		DB:       db,
		Leagues:  leagues.New(kv, db),
		Stocks:   stocks.New(db),
		Cache:    cache.New(db, kv),
		Notifier: notification.New(kv, db),
	}
}

// Transaction adds a free agent to, or drops a stock from, the user's roster.
// The roster change and the transaction row commit together.
func (ts *TradeService) Transaction(ctx context.Context, transactionType, stockID, leagueID string, userID int) (Transaction, error) {
	if transactionType != TransactionAdd && transactionType != TransactionDrop {
		return Transaction{}, ErrInvalidTransactionType
	}
	league, err := ts.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return Transaction{}, err
	}
	if league.Status != leagues.StatusActive {
		return Transaction{}, ErrLeagueNotActive
	}
	member, err := ts.Leagues.Member(ctx, leagueID, userID)
	if err != nil {
		return Transaction{}, err
	}
	stock, err := ts.Stocks.Get(ctx, stockID)
	if err != nil {
		return Transaction{}, err
	}

	txn := Transaction{
		LeagueID:        leagueID,
		UserID:          userID,
		TeamID:          member.ID,
		StockID:         stock.ID,
		Symbol:          stock.Symbol,
		TransactionType: transactionType,
		TransactionTime: time.Now(),
	}
	err = ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rosters := roster.NewRepository(tx)
		switch transactionType {
		case TransactionAdd:
			slot := roster.Slot{LeagueID: leagueID, TeamID: member.ID, UserID: userID, Limit: league.RosterSize}
			if _, err := rosters.Add(ctx, slot, stock); err != nil {
				if errors.Is(err, roster.ErrStockTaken) {
					return ErrStockUnavailable
				}
				return err
			}
		case TransactionDrop:
			if _, err := rosters.Remove(ctx, leagueID, member.ID, stock.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("error inserting transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	if err := ts.Cache.InvalidateRoster(leagueID, userID); err != nil {
		return txn, err
	}
	verb := "added"
	if transactionType == TransactionDrop {
		verb = "dropped"
	}
	ts.Notifier.Notify(ctx, notification.Notification{
		UserID:      userID,
		LeagueID:    leagueID,
		Entity:      notification.EntityTrade,
		Actor:       userID,
		Description: fmt.Sprintf("You %s %s at a total score of %.1f", verb, stock.Symbol, stock.TotalScore),
	})
	return txn, nil
}

// GetStockDetails lists every stock with the team holding it in the league.
func (ts *TradeService) GetStockDetails(ctx context.Context, leagueID string, userID int) ([]StockDetails, error) {
	members, err := ts.Leagues.Members(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	myTeam := ""
	for _, m := range members {
		names[m.ID] = m.TeamName
		if m.UserID == userID {
			myTeam = m.ID
		}
	}

	byTeam, err := roster.NewRepository(ts.DB).ListLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	owner := make(map[string]string)
	for teamID, rows := range byTeam {
		for _, row := range rows {
			owner[row.StockID] = teamID
		}
	}

	all, err := ts.Stocks.All(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]StockDetails, 0, len(all))
	for _, s := range all {
		d := StockDetails{Stock: s, Available: true}
		if teamID, ok := owner[s.ID]; ok {
			d.Available = false
			d.OwnerTeamID = teamID
			d.OwnerTeamName = names[teamID]
			d.OwnedByMe = teamID == myTeam
		}
		details = append(details, d)
	}
	return details, nil
}

func (ts *TradeService) GetTransactions(ctx context.Context, leagueID string) ([]Transaction, error) {
	txns := make([]Transaction, 0)
	err := ts.DB.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("transaction_time DESC").Order("id DESC").
		Find(&txns).Error
	return txns, err
}

func (ts *TradeService) DeleteTransactions(ctx context.Context, leagueID string) error {
	return ts.DB.WithContext(ctx).Where("league_id = ?", leagueID).Delete(&Transaction{}).Error
}
