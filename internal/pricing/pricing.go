// Package pricing computes competitive equilibrium for single-unit demand
// and supply schedules.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptySchedule is returned when demand or supply has no units.
var ErrEmptySchedule = errors.New("empty demand or supply schedule")

// Range is either a single value (Low == High) or an interval.
type Range struct {
	Low  float64
	High float64
}

// Point returns a degenerate range.
func Point(v float64) Range {
	return Range{Low: v, High: v}
}

// IsPoint reports whether the range is a single value.
func (r Range) IsPoint() bool {
	return r.Low == r.High
}

// MarshalJSON encodes a point as a number and an interval as [low,high].
func (r Range) MarshalJSON() ([]byte, error) {
	if r.IsPoint() {
		return json.Marshal(r.Low)
	}
	return json.Marshal([2]float64{r.Low, r.High})
}

// UnmarshalJSON accepts a number or a two-element array.
func (r *Range) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*r = Point(v)
		return nil
	}
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("range: expected 2 values, got %d", len(pair))
	}
	*r = Range{Low: pair[0], High: pair[1]}
	return nil
}

// Equilibrium is the competitive equilibrium price and quantity. P is nil
// when no unit trades.
type Equilibrium struct {
	P *Range `json:"p,omitempty"`
	Q Range  `json:"q"`
}

// Summary renders "CE: {json}" when both price and quantity are set and
// non-zero, and "" otherwise.
func (e Equilibrium) Summary() string {
	if e.P == nil || (e.P.IsPoint() && e.P.Low == 0) || (e.Q.IsPoint() && e.Q.Low == 0) {
		return ""
	}
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return "CE: " + string(b)
}

// CrossSingleUnitDemandAndSupply crosses a descending demand schedule with
// an ascending supply schedule, one unit per entry. The quantity is an
// interval when the marginal unit trades at zero surplus; the price is an
// interval when any price in it clears the market.
func CrossSingleUnitDemandAndSupply(demand, supply []float64) (Equilibrium, error) {
	if len(demand) == 0 || len(supply) == 0 {
		return Equilibrium{}, ErrEmptySchedule
	}
	n := min(len(demand), len(supply))

	qLow, qHigh := 0, 0
	for i := 0; i < n; i++ {
		if demand[i] < supply[i] {
			break
		}
		qHigh++
		if demand[i] > supply[i] {
			qLow++
		}
	}
	if qHigh == 0 {
		return Equilibrium{Q: Point(0)}, nil
	}

	lo := supply[qHigh-1]
	if qHigh < len(demand) {
		lo = max(lo, demand[qHigh])
	}
	hi := demand[qHigh-1]
	if qHigh < len(supply) {
		hi = min(hi, supply[qHigh])
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	p := Range{Low: lo, High: hi}
	return Equilibrium{P: &p, Q: Range{Low: float64(qLow), High: float64(qHigh)}}, nil
}
