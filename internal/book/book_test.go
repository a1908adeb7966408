package book

import (
	"sync"
	"testing"
	"time"

	"github.com/abdoElHodaky/matchfix/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBook(t *testing.T) *Book {
	t.Helper()
	b := Open("AAPL", zap.NewNop(), nil)
	t.Cleanup(b.Close)
	return b
}

// waitForSettled gives the matcher goroutine a chance to drain any
// crossing pairs before assertions run.
func waitForSettled() { time.Sleep(20 * time.Millisecond) }

func TestScenarioS1_CrossingFillAtAsk(t *testing.T) {
	b := newTestBook(t)

	bid := order.New("bid-1", "AAPL", order.Buy, order.Limit, 10.00, 100)
	require.NoError(t, b.ProcessOrder(bid))

	ask := order.New("ask-1", "AAPL", order.Sell, order.Limit, 10.00, 100)
	require.NoError(t, b.ProcessOrder(ask))

	waitForSettled()

	assert.Nil(t, b.TopBid())
	assert.Nil(t, b.TopAsk())
	assert.Equal(t, uint64(100), b.Volume())
	assert.Equal(t, uint64(2), b.OrdersFilled())
}

func TestScenarioS2_PartialFillBidRemains(t *testing.T) {
	b := newTestBook(t)

	bid := order.New("bid-1", "AAPL", order.Buy, order.Limit, 10.00, 100)
	require.NoError(t, b.ProcessOrder(bid))

	ask := order.New("ask-1", "AAPL", order.Sell, order.Limit, 9.50, 40)
	require.NoError(t, b.ProcessOrder(ask))

	waitForSettled()

	assert.Nil(t, b.TopAsk())
	remaining := b.TopBid()
	require.NotNil(t, remaining)
	assert.Equal(t, uint64(60), remaining.Quantity)
	assert.Equal(t, uint64(40), b.Volume())
	assert.Equal(t, uint64(1), b.OrdersFilled())
}

func TestScenarioS3_TimePriorityTiebreak(t *testing.T) {
	b := newTestBook(t)

	a := order.New("a", "AAPL", order.Buy, order.Limit, 10.00, 100)
	a.Timestamp = time.Unix(0, 0)
	require.NoError(t, b.ProcessOrder(a))

	bOrder := order.New("b", "AAPL", order.Buy, order.Limit, 10.00, 100)
	bOrder.Timestamp = time.Unix(1, 0)
	require.NoError(t, b.ProcessOrder(bOrder))

	ask := order.New("ask", "AAPL", order.Sell, order.Limit, 10.00, 100)
	require.NoError(t, b.ProcessOrder(ask))

	waitForSettled()

	assert.Nil(t, b.TopAsk())
	remaining := b.TopBid()
	require.NotNil(t, remaining)
	assert.Equal(t, "b", remaining.ClOrdID)
	assert.Equal(t, uint64(100), remaining.Quantity)
}

func TestScenarioS4_NoCross(t *testing.T) {
	b := newTestBook(t)

	bid := order.New("bid-1", "AAPL", order.Buy, order.Limit, 9.00, 100)
	require.NoError(t, b.ProcessOrder(bid))

	ask := order.New("ask-1", "AAPL", order.Sell, order.Limit, 10.00, 100)
	require.NoError(t, b.ProcessOrder(ask))

	waitForSettled()

	assert.Equal(t, uint64(0), b.Volume())
	require.NotNil(t, b.TopBid())
	require.NotNil(t, b.TopAsk())
	assert.Equal(t, "bid-1", b.TopBid().ClOrdID)
	assert.Equal(t, "ask-1", b.TopAsk().ClOrdID)
}

func TestProcessOrder_SymbolMismatch(t *testing.T) {
	b := newTestBook(t)

	o := order.New("x", "MSFT", order.Buy, order.Limit, 1, 1)
	err := b.ProcessOrder(o)
	assert.ErrorIs(t, err, ErrSymbolMismatch)
}

func TestProcessOrder_UnsupportedOrderType(t *testing.T) {
	b := newTestBook(t)

	o := order.New("x", "AAPL", order.Buy, order.Market, 1, 1)
	err := b.ProcessOrder(o)
	assert.ErrorIs(t, err, ErrUnsupportedOrderType)
}

func TestProcessOrder_AfterCloseFails(t *testing.T) {
	b := Open("AAPL", zap.NewNop(), nil)
	b.Close()

	o := order.New("x", "AAPL", order.Buy, order.Limit, 1, 1)
	err := b.ProcessOrder(o)
	assert.ErrorIs(t, err, ErrBookClosed)
}

func TestConservation_VolumeMatchesFills(t *testing.T) {
	var mu sync.Mutex
	var fills []Fill
	b := Open("AAPL", zap.NewNop(), func(f Fill) {
		mu.Lock()
		fills = append(fills, f)
		mu.Unlock()
	})
	t.Cleanup(b.Close)

	require.NoError(t, b.ProcessOrder(order.New("bid-1", "AAPL", order.Buy, order.Limit, 10, 30)))
	require.NoError(t, b.ProcessOrder(order.New("bid-2", "AAPL", order.Buy, order.Limit, 10, 70)))
	require.NoError(t, b.ProcessOrder(order.New("ask-1", "AAPL", order.Sell, order.Limit, 10, 100)))

	waitForSettled()

	mu.Lock()
	var totalQty uint64
	for _, f := range fills {
		totalQty += f.Quantity
	}
	mu.Unlock()

	assert.Equal(t, b.Volume(), totalQty)
}
