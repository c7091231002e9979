package portfolio

import (
	"context"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/cache"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

type PortfolioService struct {
	KV      kvstore.KVStore
	DB      *gorm.DB
	Leagues *leagues.LeagueService
	Stocks  *stocks.StockService
	Cache   *cache.CacheService
}

func New(kv kvstore.KVStore, db *gorm.DB) *PortfolioService {
	return &PortfolioService{
		KV:      kv,
		DB:      db,
		Leagues: leagues.New(kv, db),
		Stocks:  stocks.New(db),
		Cache:   cache.New(db, kv),
	}
}

// Stats summarises a roster under the given league weights.
func Stats(list []stocks.Stock, limit int, w scoring.Weights) RosterStats {
	avg, _ := scoring.TeamAverage(list)
	return RosterStats{
		RosterSize:    len(list),
		RosterLimit:   limit,
		TotalScore:    scoring.TeamTotal(list),
		AverageScore:  avg,
		WeightedScore: scoring.WeightedTeamScore(list, w),
	}
}

// GetDetailedPortfolio returns the user's roster in the league with live stock
// data and the roster stats computed from it.
func (ps *PortfolioService) GetDetailedPortfolio(ctx context.Context, leagueID string, userID int) (DetailedPortfolio, error) {
	var detailed DetailedPortfolio

	league, err := ps.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return detailed, err
	}
	member, err := ps.Leagues.Member(ctx, leagueID, userID)
	if err != nil {
		return detailed, err
	}
	settings, err := ps.Leagues.GetSettings(ctx, leagueID)
	if err != nil {
		return detailed, err
	}
	weights := settings.Weights()

	rows, err := ps.Cache.UserRoster(ctx, leagueID, userID)
	if err != nil {
		return detailed, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.StockID
	}
	live, err := ps.Stocks.ByIDs(ctx, ids)
	if err != nil {
		return detailed, err
	}

	holdings := make([]Holding, 0, len(rows))
	current := make([]stocks.Stock, 0, len(rows))
	for _, row := range rows {
		s, ok := live[row.StockID]
		if !ok {
			// delisted since the pick; score it as drafted
			s = row.StockData
		}
		holdings = append(holdings, Holding{
			StockID:       row.StockID,
			DraftPosition: row.DraftPosition,
			AddedAt:       row.AddedAt,
			Drafted:       row.StockData,
			Live:          s,
			WeightedScore: scoring.WeightedStockScore(s, weights),
		})
		current = append(current, s)
	}

	detailed.LeagueID = leagueID
	detailed.TeamID = member.ID
	detailed.TeamName = member.TeamName
	detailed.Weights = weights
	detailed.Holdings = holdings
	detailed.Stats = Stats(current, league.RosterSize, weights)
	return detailed, nil
}
