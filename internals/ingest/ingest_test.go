package ingest

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

type fakeChannel struct {
	exchange string
	bound    string
	msgs     chan amqp.Delivery
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchange = name + ":" + kind
	return nil
}

func (f *fakeChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: "amq.gen-test"}, nil
}

func (f *fakeChannel) QueueBind(name, _, exchange string, _ bool, _ amqp.Table) error {
	f.bound = name + "->" + exchange
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

func newConsumer(t *testing.T) *Consumer {
	t.Helper()
	c := New(kvstore.NewMemory(), dbtest.New(t, &stocks.Stock{}), zerolog.Nop())
	require.NoError(t, c.Stocks.Upsert(context.Background(), []stocks.Stock{
		{ID: "s1", Symbol: "AAPL", Company: "Apple", TotalScore: 70},
	}))
	return c
}

func TestApply(t *testing.T) {
	c := newConsumer(t)
	ctx := context.Background()

	sub, err := c.KV.Subscribe(ctx, StocksChannel)
	require.NoError(t, err)

	applied, err := c.Apply(ctx, []byte(`[{"symbol":"aapl","total_score":88},{"symbol":"NEW","company":"Newco","total_score":51}]`))
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.InDelta(t, 88, applied[0].TotalScore, 1e-9)

	live, err := c.Stocks.BySymbol(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, "Newco", live.Company)

	select {
	case msg := <-sub:
		assert.Contains(t, msg, `"AAPL"`)
	case <-time.After(time.Second):
		t.Fatal("no stocks message published")
	}
}

func TestApply_PartialFailure(t *testing.T) {
	c := newConsumer(t)
	ctx := context.Background()

	applied, err := c.Apply(ctx, []byte(`[{"symbol":"GHOST","total_score":1},{"symbol":"AAPL","total_score":64}]`))
	assert.Error(t, err, "unknown symbol without a company is rejected")
	require.Len(t, applied, 1)
	assert.Equal(t, "AAPL", applied[0].Symbol)

	_, err = c.Apply(ctx, []byte("  "))
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = c.Apply(ctx, []byte("{not json"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	c := newConsumer(t)
	ch := &fakeChannel{msgs: make(chan amqp.Delivery, 2)}
	ch.msgs <- amqp.Delivery{Body: []byte(`{"symbol":"AAPL","total_score":99}`)}
	ch.msgs <- amqp.Delivery{Body: []byte(`garbage`)}
	close(ch.msgs)

	require.NoError(t, c.Run(context.Background(), ch, "stock_scores"))
	assert.Equal(t, "stock_scores:fanout", ch.exchange)
	assert.Equal(t, "amq.gen-test->stock_scores", ch.bound)

	live, err := c.Stocks.BySymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 99, live.TotalScore, 1e-9)
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := newConsumer(t)
	ch := &fakeChannel{msgs: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx, ch, "stock_scores"), context.Canceled)
}
