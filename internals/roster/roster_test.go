package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/internals/stocks"
)

func TestRoster_AddAssignsPositions(t *testing.T) {
	r := New(2)

	e, err := r.Add(stocks.Stock{ID: "a", TotalScore: 80})
	require.NoError(t, err)
	assert.Equal(t, 1, e.DraftPosition)

	e, err = r.Add(stocks.Stock{ID: "b", TotalScore: 60})
	require.NoError(t, err)
	assert.Equal(t, 2, e.DraftPosition)
	assert.True(t, r.Full())
}

func TestRoster_AddErrors(t *testing.T) {
	r := New(2)
	_, err := r.Add(stocks.Stock{ID: "a"})
	require.NoError(t, err)

	_, err = r.Add(stocks.Stock{ID: "a"})
	assert.ErrorIs(t, err, ErrStockAlreadyOwned)

	_, err = r.Add(stocks.Stock{ID: "b"})
	require.NoError(t, err)
	_, err = r.Add(stocks.Stock{ID: "c"})
	assert.ErrorIs(t, err, ErrRosterFull)
	assert.Equal(t, 2, r.Len())
}

func TestRoster_Remove(t *testing.T) {
	r := New(3)
	for _, id := range []string{"a", "b", "c"} {
		_, err := r.Add(stocks.Stock{ID: id})
		require.NoError(t, err)
	}

	s, err := r.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, "b", s.ID)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[1].Stock.ID)
	assert.Equal(t, 2, entries[1].DraftPosition)

	_, err = r.Remove("b")
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestRoster_Clear(t *testing.T) {
	r := New(3)
	_, _ = r.Add(stocks.Stock{ID: "a"})
	_, _ = r.Add(stocks.Stock{ID: "b"})

	held := r.Clear()
	assert.Len(t, held, 2)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
}
