package book

import (
	"container/heap"

	"github.com/abdoElHodaky/matchfix/internal/order"
)

// orderHeap is a container/heap.Interface over resting orders. less
// encodes the side-specific price/time priority comparator (spec.md
// §4.2, "Comparators"): bids want the highest price on top, asks the
// lowest, both breaking ties by earliest timestamp.
type orderHeap struct {
	orders []*order.Order
	less   func(a, b *order.Order) bool
}

func newBidHeap() *orderHeap {
	return &orderHeap{less: func(a, b *order.Order) bool {
		if order.SamePrice(a.Price, b.Price) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Price > b.Price
	}}
}

func newAskHeap() *orderHeap {
	return &orderHeap{less: func(a, b *order.Order) bool {
		if order.SamePrice(a.Price, b.Price) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Price < b.Price
	}}
}

func (h *orderHeap) Len() int            { return len(h.orders) }
func (h *orderHeap) Less(i, j int) bool  { return h.less(h.orders[i], h.orders[j]) }
func (h *orderHeap) Swap(i, j int)       { h.orders[i], h.orders[j] = h.orders[j], h.orders[i] }
func (h *orderHeap) Push(x interface{})  { h.orders = append(h.orders, x.(*order.Order)) }
func (h *orderHeap) Pop() interface{} {
	old := h.orders
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	h.orders = old[:n-1]
	return o
}

func (h *orderHeap) peek() *order.Order {
	if len(h.orders) == 0 {
		return nil
	}
	return h.orders[0]
}

func (h *orderHeap) push(o *order.Order) { heap.Push(h, o) }
func (h *orderHeap) pop() *order.Order   { return heap.Pop(h).(*order.Order) }
