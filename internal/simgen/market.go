// Package simgen generates synthetic double auction market simulations
// with zero-intelligence and sniper agents. The logs it produces have the
// shape the chart builders expect: trade, profit, ohlc and effalloc.
package simgen

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

// Agent roles.
const (
	RoleZI     = "ZIAgent"
	RoleKaplan = "KaplanAgent"
)

// Kaplan agents snipe when the spread is within this fraction of the ask,
// or in the last part of a period.
const (
	kaplanSpread   = 0.10
	kaplanLateness = 0.80
)

var roleColors = map[string]string{
	RoleZI:     "orange",
	RoleKaplan: "blue",
}

// ErrInvalidParams is returned by Run for unusable market parameters.
var ErrInvalidParams = errors.New("invalid market parameters")

// Params describe one market.
type Params struct {
	CaseID          int
	Tag             string
	Periods         int
	Steps           int // agent actions per period
	NumberOfBuyers  int
	NumberOfSellers int
	BuyerValues     []float64
	SellerCosts     []float64
	L, H            float64
	// Roles are cycled over buyers and sellers. Empty means RoleZI.
	BuyerRoles  []string
	SellerRoles []string
}

// DefaultParams returns a 4x4 market with overlapping schedules.
func DefaultParams() Params {
	return Params{
		Periods:         5,
		Steps:           200,
		NumberOfBuyers:  4,
		NumberOfSellers: 4,
		BuyerValues:     []float64{120, 110, 100, 90, 80, 70, 60, 50},
		SellerCosts:     []float64{30, 40, 50, 60, 70, 80, 90, 100},
		L:               1,
		H:               200,
	}
}

func (p Params) validate() error {
	switch {
	case p.NumberOfBuyers <= 0 || p.NumberOfSellers <= 0:
		return fmt.Errorf("%w: need buyers and sellers", ErrInvalidParams)
	case len(p.BuyerValues) == 0 || len(p.SellerCosts) == 0:
		return fmt.Errorf("%w: empty value or cost schedule", ErrInvalidParams)
	case p.Periods <= 0 || p.Steps <= 0:
		return fmt.Errorf("%w: periods and steps must be positive", ErrInvalidParams)
	case p.H <= p.L:
		return fmt.Errorf("%w: H must exceed L", ErrInvalidParams)
	}
	return nil
}

type trader struct {
	id    int
	side  Side
	role  string
	units []float64 // values (buyers, descending) or costs (sellers, ascending)
	used  int
}

func (a *trader) limit() (float64, bool) {
	if a.used >= len(a.units) {
		return 0, false
	}
	return a.units[a.used], true
}

// Market runs one simulation.
type Market struct {
	p       Params
	rng     *random.RNG
	book    *Book
	traders []*trader
	orderID uint64

	trade, profit, ohlc, effalloc *table.Log
}

// NewMarket validates p and prepares the agents.
func NewMarket(p Params, rng *random.RNG) (*Market, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	m := &Market{p: p, rng: rng, book: NewBook()}

	nb, ns := p.NumberOfBuyers, p.NumberOfSellers
	for k := 0; k < nb; k++ {
		m.traders = append(m.traders, &trader{
			id:    k + 1,
			side:  SideBuy,
			role:  roleAt(p.BuyerRoles, k),
			units: deal(p.BuyerValues, k, nb, true),
		})
	}
	for k := 0; k < ns; k++ {
		m.traders = append(m.traders, &trader{
			id:    nb + k + 1,
			side:  SideSell,
			role:  roleAt(p.SellerRoles, k),
			units: deal(p.SellerCosts, k, ns, false),
		})
	}

	m.trade = table.NewLog("period", "t", "tp", "price", "buyerAgentId", "sellerAgentId", "buyerValue", "sellerCost")
	profitHeader := []string{"period"}
	for i := range m.traders {
		profitHeader = append(profitHeader, fmt.Sprintf("y%d", i+1))
	}
	m.profit = table.NewLog(profitHeader...)
	m.ohlc = table.NewLog("period", "openPrice", "highPrice", "lowPrice", "closePrice", "volume")
	m.effalloc = table.NewLog("period", "efficiency")
	return m, nil
}

// Run simulates every period and returns the finished simulation.
func Run(p Params, rng *random.RNG) (*simulation.Simulation, error) {
	m, err := NewMarket(p, rng)
	if err != nil {
		return nil, err
	}
	return m.Run(), nil
}

// Run simulates every period.
func (m *Market) Run() *simulation.Simulation {
	for period := 1; period <= m.p.Periods; period++ {
		m.runPeriod(period)
	}
	return m.simulation()
}

func (m *Market) runPeriod(period int) {
	m.book.Clear()
	for _, a := range m.traders {
		a.used = 0
	}
	profits := make([]float64, len(m.traders))
	var prices []float64

	for step := 1; step <= m.p.Steps; step++ {
		a := m.traders[m.rng.Intn(len(m.traders))]
		tr, ok := m.act(a, step)
		if !ok {
			continue
		}
		buyer, seller := m.traders[tr.buyer-1], m.traders[tr.seller-1]
		value, _ := buyer.limit()
		cost, _ := seller.limit()
		buyer.used++
		seller.used++
		m.book.Cancel(buyer.id)
		m.book.Cancel(seller.id)

		profits[buyer.id-1] += value - tr.price
		profits[seller.id-1] += tr.price - cost
		prices = append(prices, tr.price)
		t := (period-1)*m.p.Steps + step
		m.trade.Append(period, t, step, tr.price, buyer.id, seller.id, value, cost)
	}

	row := []any{period}
	var gains float64
	for _, v := range profits {
		row = append(row, round2(v))
		gains += v
	}
	m.profit.Append(row...)

	if len(prices) > 0 {
		m.ohlc.Append(period, prices[0], floats.Max(prices), floats.Min(prices), prices[len(prices)-1], len(prices))
	} else {
		m.ohlc.Append(period, nil, nil, nil, nil, 0)
	}

	eff := 0.0
	if maxGains := MaxGains(m.p.BuyerValues, m.p.SellerCosts); maxGains > 0 {
		eff = round2(100 * gains / maxGains)
	}
	m.effalloc.Append(period, eff)
}

type match struct {
	buyer, seller int
	price         float64
}

// act lets agent a take one action. A crossing order trades at the price
// of the standing order it meets.
func (m *Market) act(a *trader, step int) (match, bool) {
	limit, ok := a.limit()
	if !ok {
		return match{}, false
	}

	var price float64
	switch a.role {
	case RoleKaplan:
		p, ok := m.snipe(a, limit, step)
		if !ok {
			return match{}, false
		}
		price = p
	default:
		if a.side == SideBuy {
			price = round2(m.rng.Uniform(m.p.L, limit))
		} else {
			price = round2(m.rng.Uniform(limit, m.p.H))
		}
	}

	if a.side == SideBuy {
		if ask := m.book.BestAsk(); ask != nil && price >= ask.Price {
			return match{buyer: a.id, seller: ask.Agent, price: ask.Price}, true
		}
	} else {
		if bid := m.book.BestBid(); bid != nil && price <= bid.Price {
			return match{buyer: bid.Agent, seller: a.id, price: bid.Price}, true
		}
	}
	if a.role == RoleKaplan {
		return match{}, false
	}
	m.orderID++
	m.book.Add(&Order{ID: m.orderID, Agent: a.id, Side: a.side, Price: price})
	return match{}, false
}

// snipe returns the price a Kaplan agent accepts at, if any.
func (m *Market) snipe(a *trader, limit float64, step int) (float64, bool) {
	late := float64(step) > kaplanLateness*float64(m.p.Steps)
	spread, hasSpread := m.book.Spread()
	if a.side == SideBuy {
		ask := m.book.BestAsk()
		if ask == nil || ask.Price > limit {
			return 0, false
		}
		if late || (hasSpread && spread <= kaplanSpread*ask.Price) {
			return ask.Price, true
		}
		return 0, false
	}
	bid := m.book.BestBid()
	if bid == nil || bid.Price < limit {
		return 0, false
	}
	if late || (hasSpread && spread <= kaplanSpread*bid.Price) {
		return bid.Price, true
	}
	return 0, false
}

func (m *Market) simulation() *simulation.Simulation {
	cfg := simulation.Config{
		"caseid":          m.p.CaseID,
		"periods":         m.p.Periods,
		"periodDuration":  m.p.Steps,
		"numberOfBuyers":  m.p.NumberOfBuyers,
		"numberOfSellers": m.p.NumberOfSellers,
		"buyerValues":     append([]float64(nil), m.p.BuyerValues...),
		"sellerCosts":     append([]float64(nil), m.p.SellerCosts...),
		"L":               m.p.L,
		"H":               m.p.H,
	}
	if m.p.Tag != "" {
		cfg["tag"] = m.p.Tag
	}
	agents := make([]simulation.Agent, len(m.traders))
	for i, a := range m.traders {
		agents[i] = simulation.Agent{Color: roleColors[a.role], Role: a.role}
	}
	return &simulation.Simulation{
		ID:     uuid.New().String(),
		Config: cfg,
		Logs: map[string]*table.Log{
			"trade":    m.trade,
			"profit":   m.profit,
			"ohlc":     m.ohlc,
			"effalloc": m.effalloc,
		},
		Agents: agents,
	}
}

// MaxGains is the total surplus when units trade in value and cost order
// while value exceeds cost.
func MaxGains(values, costs []float64) float64 {
	v := append([]float64(nil), values...)
	c := append([]float64(nil), costs...)
	sort.Sort(sort.Reverse(sort.Float64Slice(v)))
	sort.Float64s(c)
	var total float64
	for i := 0; i < len(v) && i < len(c) && v[i] > c[i]; i++ {
		total += v[i] - c[i]
	}
	return total
}

// deal gives agent k of n every n-th unit starting at k, best unit first.
func deal(schedule []float64, k, n int, descending bool) []float64 {
	var out []float64
	for i := k; i < len(schedule); i += n {
		out = append(out, schedule[i])
	}
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	} else {
		sort.Float64s(out)
	}
	return out
}

func roleAt(roles []string, k int) string {
	if len(roles) == 0 || roles[k%len(roles)] == "" {
		return RoleZI
	}
	return roles[k%len(roles)]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
