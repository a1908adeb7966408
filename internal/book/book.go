// Package book implements the per-symbol order book: two price-priority
// queues, the matching algorithm, and a dedicated matcher worker
// (spec.md §4.2).
package book

import (
	"errors"
	"runtime"
	"sync"

	"github.com/abdoElHodaky/matchfix/internal/order"
	"go.uber.org/zap"
)

// ErrSymbolMismatch is returned by ProcessOrder when the order's symbol
// does not match the book's symbol.
var ErrSymbolMismatch = errors.New("book: symbol mismatch")

// ErrUnsupportedOrderType is returned by ProcessOrder for any order
// type other than Limit.
var ErrUnsupportedOrderType = errors.New("book: unsupported order type")

// ErrBookClosed is returned by ProcessOrder once the book has closed.
var ErrBookClosed = errors.New("book: closed")

// Fill describes one matched quantity at one price, reported to an
// optional observer for metrics/logging — never transmitted on the
// wire, since execution report generation is out of scope (spec.md §1).
type Fill struct {
	Symbol   string
	Price    float64
	Quantity uint64
	// BidFullyFilled / AskFullyFilled report whether each side of the
	// cross was removed from the book by this fill.
	BidFullyFilled bool
	AskFullyFilled bool
}

// Book is one symbol's pair of priority queues plus its matcher.
type Book struct {
	Symbol string

	mu   sync.Mutex
	cond *sync.Cond

	bids *orderHeap
	asks *orderHeap

	volume       uint64
	ordersFilled uint64

	open bool
	done chan struct{}

	logger   *zap.Logger
	onFill   func(Fill)
}

// Open constructs and opens a book for symbol, starting its matcher
// worker (spec.md §4.2, "Creation"). onFill, if non-nil, is invoked by
// the matcher goroutine after each fill — callers must not block in it.
func Open(symbol string, logger *zap.Logger, onFill func(Fill)) *Book {
	b := &Book{
		Symbol: symbol,
		bids:   newBidHeap(),
		asks:   newAskHeap(),
		open:   true,
		done:   make(chan struct{}),
		logger: logger,
		onFill: onFill,
	}
	b.cond = sync.NewCond(&b.mu)

	go b.runMatcher()

	return b
}

// ProcessOrder admits order o into the book. It holds the book's lock
// for the entire operation (spec.md §4.2, "Admission"). Only Limit
// orders are accepted; any other type is rejected and left owned by the
// caller, as are symbol mismatches.
func (b *Book) ProcessOrder(o *order.Order) error {
	if o.Symbol != b.Symbol {
		return ErrSymbolMismatch
	}
	if o.Type != order.Limit {
		return ErrUnsupportedOrderType
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return ErrBookClosed
	}

	switch o.Side {
	case order.Buy:
		b.bids.push(o)
	case order.Sell:
		b.asks.push(o)
	}
	b.cond.Signal()

	return nil
}

// runMatcher is the matcher worker: while the book is open, it
// repeatedly looks for a crossing pair and executes it, waiting on the
// condition variable whenever no cross is possible (spec.md §4.2,
// "Matching loop"). It holds the book's lock continuously between waits.
func (b *Book) runMatcher() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	raiseMatcherPriority()

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.open {
		bid := b.bids.peek()
		ask := b.asks.peek()

		if bid == nil || ask == nil || !crosses(bid, ask) {
			b.cond.Wait()
			continue
		}

		b.executeCross(bid, ask)
	}

	close(b.done)
}

// crosses reports whether bid.Price >= ask.Price within epsilon
// (Glossary: "Cross"), i.e. NOT (top_bid.price < top_ask.price - ε).
func crosses(bid, ask *order.Order) bool {
	if order.SamePrice(bid.Price, ask.Price) {
		return true
	}
	return bid.Price > ask.Price
}

// executeCross fills the top bid against the top ask at the ask price
// (spec.md §4.2, step 3 — "A fill executes at the ask (top-of-ask)
// price"; this reproduces the source's behavior of always logging the
// ask price even when the bid is the resting order, flagged as a
// non-conventional policy in spec.md §9's Open Questions).
func (b *Book) executeCross(bid, ask *order.Order) {
	q := bid.Quantity
	if ask.Quantity < q {
		q = ask.Quantity
	}

	fill := Fill{Symbol: b.Symbol, Price: ask.Price, Quantity: q}

	switch {
	case bid.Quantity == ask.Quantity:
		b.ordersFilled += 2
		fill.BidFullyFilled = true
		fill.AskFullyFilled = true
		b.bids.pop()
		b.asks.pop()
	case bid.Quantity > ask.Quantity:
		b.ordersFilled++
		fill.AskFullyFilled = true
		b.asks.pop()
		bid.Quantity -= q
	default:
		b.ordersFilled++
		fill.BidFullyFilled = true
		b.bids.pop()
		ask.Quantity -= q
	}

	b.volume += q

	b.logger.Debug("filled",
		zap.String("symbol", b.Symbol),
		zap.Uint64("quantity", q),
		zap.Float64("price", fill.Price))

	if b.onFill != nil {
		b.onFill(fill)
	}
}

// Close stops admissions, signals the matcher, waits for it to exit,
// and releases both heaps (spec.md §4.2, "Close").
func (b *Book) Close() {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return
	}
	b.open = false
	b.cond.Signal()
	b.mu.Unlock()

	<-b.done

	b.mu.Lock()
	b.bids.orders = nil
	b.asks.orders = nil
	b.mu.Unlock()
}

// Volume returns the cumulative matched quantity.
func (b *Book) Volume() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// OrdersFilled returns the cumulative count of orders removed from the
// book by complete fill.
func (b *Book) OrdersFilled() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ordersFilled
}

// TopBid returns the current best bid, or nil if none.
func (b *Book) TopBid() *order.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.peek()
}

// TopAsk returns the current best ask, or nil if none.
func (b *Book) TopAsk() *order.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asks.peek()
}
