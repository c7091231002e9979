package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/internals/cache"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/notification"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

func setup(t *testing.T) (*TradeService, leagues.League) {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t,
		&stocks.Stock{}, &leagues.League{}, &leagues.LeagueMember{}, &leagues.LeagueSettings{},
		&roster.UserRoster{}, &Transaction{}, &notification.Notification{},
	)
	ts := New(kvstore.NewMemory(), db)

	require.NoError(t, ts.Stocks.Upsert(ctx, []stocks.Stock{
		{ID: "s1", Symbol: "AAPL", Company: "Apple", TotalScore: 80},
		{ID: "s2", Symbol: "MSFT", Company: "Microsoft", TotalScore: 75},
		{ID: "s3", Symbol: "NVDA", Company: "Nvidia", TotalScore: 90},
		{ID: "s4", Symbol: "TSLA", Company: "Tesla", TotalScore: 60},
		{ID: "s5", Symbol: "AMZN", Company: "Amazon", TotalScore: 70},
		{ID: "s6", Symbol: "META", Company: "Meta", TotalScore: 65},
	}))
	league, err := ts.Leagues.CreateLeague(ctx, 1, leagues.CreateLeagueRequestBody{Name: "FA", RosterSize: 5})
	require.NoError(t, err)
	_, err = ts.Leagues.JoinLeague(ctx, 2, leagues.JoinLeagueRequestBody{Code: league.Code})
	require.NoError(t, err)
	return ts, league
}

func TestTransaction_ClosedBeforeSeason(t *testing.T) {
	ts, league := setup(t)
	_, err := ts.Transaction(context.Background(), TransactionAdd, "s1", league.ID, 1)
	assert.ErrorIs(t, err, ErrLeagueNotActive)
}

func TestTransaction_AddDrop(t *testing.T) {
	ts, league := setup(t)
	ctx := context.Background()
	require.NoError(t, ts.Leagues.SetStatus(ctx, league.ID, leagues.StatusActive))

	_, err := ts.Transaction(ctx, "swap", "s1", league.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidTransactionType)
	_, err = ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 9)
	assert.ErrorIs(t, err, leagues.ErrNotMember)

	txn, err := ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", txn.Symbol)

	_, err = ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 1)
	assert.ErrorIs(t, err, ErrStockAlreadyOwned)
	_, err = ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 2)
	assert.ErrorIs(t, err, ErrStockUnavailable)
	_, err = ts.Transaction(ctx, TransactionDrop, "s2", league.ID, 1)
	assert.ErrorIs(t, err, ErrStockNotFound)

	for _, id := range []string{"s2", "s3", "s4", "s5"} {
		_, err := ts.Transaction(ctx, TransactionAdd, id, league.ID, 1)
		require.NoError(t, err)
	}
	_, err = ts.Transaction(ctx, TransactionAdd, "s6", league.ID, 1)
	assert.ErrorIs(t, err, ErrRosterFull)

	_, err = ts.Transaction(ctx, TransactionDrop, "s1", league.ID, 1)
	require.NoError(t, err)
	_, err = ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 2)
	require.NoError(t, err)

	txns, err := ts.GetTransactions(ctx, league.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 7)

	notes, err := ts.Notifier.GetNotifications(ctx, 2)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Description, "added AAPL")
}

func TestTransaction_FailedMoveWritesNothing(t *testing.T) {
	ts, league := setup(t)
	ctx := context.Background()
	require.NoError(t, ts.Leagues.SetStatus(ctx, league.ID, leagues.StatusActive))

	_, err := ts.Transaction(ctx, TransactionDrop, "s1", league.ID, 1)
	require.Error(t, err)

	txns, err := ts.GetTransactions(ctx, league.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestTransaction_InvalidatesRosterCache(t *testing.T) {
	ts, league := setup(t)
	ctx := context.Background()
	require.NoError(t, ts.Leagues.SetStatus(ctx, league.ID, leagues.StatusActive))

	rows, err := ts.Cache.UserRoster(ctx, league.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ts.Transaction(ctx, TransactionAdd, "s3", league.ID, 1)
	require.NoError(t, err)
	_, err = ts.KV.HGet(cache.RosterKey(league.ID, 1), "is_cached")
	assert.ErrorIs(t, err, kvstore.Nil)

	rows, err = ts.Cache.UserRoster(ctx, league.ID, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NVDA", rows[0].StockData.Symbol)
}

func TestGetStockDetails(t *testing.T) {
	ts, league := setup(t)
	ctx := context.Background()
	require.NoError(t, ts.Leagues.SetStatus(ctx, league.ID, leagues.StatusActive))
	_, err := ts.Transaction(ctx, TransactionAdd, "s1", league.ID, 1)
	require.NoError(t, err)
	_, err = ts.Transaction(ctx, TransactionAdd, "s2", league.ID, 2)
	require.NoError(t, err)

	details, err := ts.GetStockDetails(ctx, league.ID, 1)
	require.NoError(t, err)
	require.Len(t, details, 6)

	bySymbol := make(map[string]StockDetails)
	for _, d := range details {
		bySymbol[d.Symbol] = d
	}
	assert.True(t, bySymbol["AAPL"].OwnedByMe)
	assert.False(t, bySymbol["AAPL"].Available)
	assert.False(t, bySymbol["MSFT"].OwnedByMe)
	assert.Equal(t, "Team 2", bySymbol["MSFT"].OwnerTeamName)
	assert.True(t, bySymbol["NVDA"].Available)
}
