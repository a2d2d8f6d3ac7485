package simgen

import "sort"

// Side is bid or ask.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// Order is a single-unit limit order from one agent.
type Order struct {
	ID       uint64
	Agent    int // 1-based agent id
	Side     Side
	Price    float64
	Priority int // arrival sequence within the period
}

// PriceLevel holds orders at a single price point, oldest first.
type PriceLevel struct {
	Price  float64
	Orders []*Order
}

// Book is a price-time priority book holding at most one standing order
// per agent. It is cleared at the end of each trading period.
type Book struct {
	Bids    []PriceLevel // descending by price
	Asks    []PriceLevel // ascending by price
	byAgent map[int]*Order
	seq     int
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{byAgent: make(map[int]*Order)}
}

// BestBid returns the best bid order, or nil.
func (b *Book) BestBid() *Order {
	if len(b.Bids) == 0 {
		return nil
	}
	return b.Bids[0].Orders[0]
}

// BestAsk returns the best ask order, or nil.
func (b *Book) BestAsk() *Order {
	if len(b.Asks) == 0 {
		return nil
	}
	return b.Asks[0].Orders[0]
}

// Spread returns best ask minus best bid, or ok=false when a side is empty.
func (b *Book) Spread() (spread float64, ok bool) {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Add places o, replacing any standing order from the same agent.
func (b *Book) Add(o *Order) {
	b.Cancel(o.Agent)
	b.seq++
	o.Priority = b.seq
	b.byAgent[o.Agent] = o
	if o.Side == SideBuy {
		b.Bids = addToSide(b.Bids, o, true)
	} else {
		b.Asks = addToSide(b.Asks, o, false)
	}
}

// Cancel removes agent's standing order. It returns the removed order or nil.
func (b *Book) Cancel(agent int) *Order {
	o, ok := b.byAgent[agent]
	if !ok {
		return nil
	}
	delete(b.byAgent, agent)
	if o.Side == SideBuy {
		b.Bids = removeFromSide(b.Bids, o.ID)
	} else {
		b.Asks = removeFromSide(b.Asks, o.ID)
	}
	return o
}

// Order returns agent's standing order, or nil.
func (b *Book) Order(agent int) *Order {
	return b.byAgent[agent]
}

// Len returns the number of standing orders.
func (b *Book) Len() int {
	return len(b.byAgent)
}

// Clear removes every order.
func (b *Book) Clear() {
	b.Bids, b.Asks = nil, nil
	b.byAgent = make(map[int]*Order)
	b.seq = 0
}

func addToSide(levels []PriceLevel, o *Order, descending bool) []PriceLevel {
	for i := range levels {
		if levels[i].Price == o.Price {
			levels[i].Orders = append(levels[i].Orders, o)
			return levels
		}
	}
	levels = append(levels, PriceLevel{Price: o.Price, Orders: []*Order{o}})
	if descending {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	} else {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	}
	return levels
}

func removeFromSide(levels []PriceLevel, orderID uint64) []PriceLevel {
	for i := range levels {
		for j := range levels[i].Orders {
			if levels[i].Orders[j].ID == orderID {
				levels[i].Orders = append(levels[i].Orders[:j], levels[i].Orders[j+1:]...)
				if len(levels[i].Orders) == 0 {
					levels = append(levels[:i], levels[i+1:]...)
				}
				return levels
			}
		}
	}
	return levels
}
