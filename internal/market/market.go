// Package market is the process-wide collection of order books: it maps
// symbols to books, assigns order ids from a single monotonic counter,
// and aggregates volume/fill statistics across every book (spec.md
// §4.3).
package market

import (
	"sync"

	"github.com/abdoElHodaky/matchfix/internal/book"
	"github.com/abdoElHodaky/matchfix/internal/metrics"
	"github.com/abdoElHodaky/matchfix/internal/order"
	"go.uber.org/zap"
)

// Market owns every open book. All mutation happens under a single
// lock, matching the source's coarse-grained market lock (spec.md §4.3).
type Market struct {
	mu     sync.Mutex
	books  map[string]*book.Book
	nextID uint64

	logger  *zap.Logger
	metrics *metrics.Registry
}

// Open initializes an empty symbol-to-book mapping. Each call returns a
// fresh, independent Market; there is no shared instance to re-open.
func Open(logger *zap.Logger, reg *metrics.Registry) *Market {
	return &Market{
		books:   make(map[string]*book.Book),
		logger:  logger,
		metrics: reg,
	}
}

// ProcessOrder admits o: it resolves o.Symbol to a book (opening one on
// first use), assigns the next order id by post-increment, and
// delegates to the book (spec.md §4.3, "process_order"). Order ids are
// unique and strictly increasing in the order admissions acquire the
// market lock; o.Timestamp carries no such guarantee.
func (m *Market) ProcessOrder(o *order.Order) error {
	m.mu.Lock()

	b, ok := m.books[o.Symbol]
	if !ok {
		b = book.Open(o.Symbol, m.logger, m.onFill)
		m.books[o.Symbol] = b
		if m.metrics != nil {
			m.metrics.BooksOpen.Inc()
		}
	}

	o.ID = m.nextID
	m.nextID++

	m.mu.Unlock()

	err := b.ProcessOrder(o)
	if err != nil && m.metrics != nil {
		m.metrics.OrdersDropped.WithLabelValues(err.Error()).Inc()
	} else if m.metrics != nil {
		m.metrics.OrdersAdmitted.Inc()
	}
	return err
}

// onFill is wired to every book's fill observer; it feeds the market's
// aggregate fill/volume metrics.
func (m *Market) onFill(f book.Fill) {
	if m.metrics == nil {
		return
	}
	if f.BidFullyFilled {
		m.metrics.FillsTotal.Inc()
	}
	if f.AskFullyFilled {
		m.metrics.FillsTotal.Inc()
	}
	m.metrics.VolumeTotal.Add(float64(f.Quantity))
}

// Close closes every book (each of which joins its matcher) and
// destroys the symbol map (spec.md §4.3, "close").
func (m *Market) Close() {
	m.mu.Lock()
	books := make([]*book.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	m.books = make(map[string]*book.Book)
	m.mu.Unlock()

	for _, b := range books {
		b.Close()
	}
	if m.metrics != nil {
		m.metrics.BooksOpen.Sub(float64(len(books)))
	}
}

// TotalVolume sums Volume() across every open book (spec.md §4.3,
// "total_volume").
func (m *Market) TotalVolume() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint64
	for _, b := range m.books {
		total += b.Volume()
	}
	return total
}

// TotalOrdersFilled sums OrdersFilled() across every open book (spec.md
// §4.3, "total_orders_filled").
func (m *Market) TotalOrdersFilled() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint64
	for _, b := range m.books {
		total += b.OrdersFilled()
	}
	return total
}
