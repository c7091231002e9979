package stocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
)

func newService(t *testing.T) *StockService {
	t.Helper()
	s := New(dbtest.New(t, &Stock{}))
	require.NoError(t, s.Upsert(context.Background(), sample()))
	return s
}

func TestStockService_List(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "NVDA", all[0].Symbol)
	assert.Equal(t, "TSLA", all[1].Symbol)

	tech, err := s.List(ctx, Filter{Sector: "Technology"})
	require.NoError(t, err)
	assert.Len(t, tech, 2)

	found, err := s.List(ctx, Filter{Query: "apple"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "AAPL", found[0].Symbol)
}

func TestStockService_AllUsesSymbolOrder(t *testing.T) {
	s := newService(t)
	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA", "TSLA"}, []string{all[0].Symbol, all[1].Symbol, all[2].Symbol})
}

func TestStockService_ApplyUpdate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	score := 81.5
	updated, err := s.ApplyUpdate(ctx, ScoreUpdate{Symbol: "aapl", TotalScore: &score})
	require.NoError(t, err)
	assert.Equal(t, 81.5, updated.TotalScore)
	assert.Equal(t, "Apple Inc.", updated.Company)

	got, err := s.BySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 81.5, got.TotalScore)

	_, err = s.ApplyUpdate(ctx, ScoreUpdate{Symbol: "AMD", TotalScore: &score})
	assert.Error(t, err)

	created, err := s.ApplyUpdate(ctx, ScoreUpdate{Symbol: "AMD", Company: "Advanced Micro Devices", TotalScore: &score})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestStockService_GetMissing(t *testing.T) {
	s := newService(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrStockNotFound)
}
