// Package maxmin picks a small, well-spread subset of points by greedy
// max-min distance and groups the rest around it.
package maxmin

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Selection is the outcome of BestGuess.
type Selection struct {
	// Indexes are the selected points, in the order they were picked.
	Indexes []int
	// MinDist is the smallest pairwise distance among the selected points.
	MinDist float64
}

// Selector holds a set of equal-length points.
type Selector struct {
	points [][]float64
	dist   [][]float64
}

// New builds a selector over points. Distances are Euclidean.
func New(points [][]float64) *Selector {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j], dist[j][i] = d, d
		}
	}
	return &Selector{points: points, dist: dist}
}

// Len returns the number of points.
func (s *Selector) Len() int {
	return len(s.points)
}

// Distance returns the distance between points i and j.
func (s *Selector) Distance(i, j int) float64 {
	return s.dist[i][j]
}

// BestGuess greedily selects k points, trying every starting point and
// keeping the selection whose minimum pairwise distance is largest. Ties
// go to the lowest index.
func (s *Selector) BestGuess(k int) Selection {
	n := len(s.points)
	if k <= 0 || n == 0 {
		return Selection{Indexes: []int{}}
	}
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return Selection{Indexes: idx, MinDist: s.minPairwise(idx)}
	}

	best := Selection{MinDist: -1}
	for start := 0; start < n; start++ {
		sel := s.greedy(start, k)
		if sel.MinDist > best.MinDist {
			best = sel
		}
	}
	return best
}

func (s *Selector) greedy(start, k int) Selection {
	n := len(s.points)
	picked := make([]bool, n)
	nearest := make([]float64, n)
	for i := range nearest {
		nearest[i] = s.dist[start][i]
	}
	picked[start] = true
	idx := []int{start}
	minDist := math.Inf(1)

	for len(idx) < k {
		next, far := -1, -1.0
		for i := 0; i < n; i++ {
			if !picked[i] && nearest[i] > far {
				next, far = i, nearest[i]
			}
		}
		picked[next] = true
		idx = append(idx, next)
		minDist = math.Min(minDist, far)
		for i := 0; i < n; i++ {
			nearest[i] = math.Min(nearest[i], s.dist[next][i])
		}
	}
	if len(idx) == 1 {
		minDist = 0
	}
	return Selection{Indexes: idx, MinDist: minDist}
}

func (s *Selector) minPairwise(idx []int) float64 {
	if len(idx) < 2 {
		return 0
	}
	m := math.Inf(1)
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			m = math.Min(m, s.dist[idx[a]][idx[b]])
		}
	}
	return m
}

// Group assigns every point to its nearest selected point. Group i starts
// with selected[i] and lists its other members in index order. Ties go to
// the earlier selected point.
func (s *Selector) Group(selected []int) [][]int {
	groups := make([][]int, len(selected))
	isSel := make(map[int]bool, len(selected))
	for i, p := range selected {
		groups[i] = []int{p}
		isSel[p] = true
	}
	if len(selected) == 0 {
		return groups
	}
	for p := range s.points {
		if isSel[p] {
			continue
		}
		g := 0
		for i := 1; i < len(selected); i++ {
			if s.dist[p][selected[i]] < s.dist[p][selected[g]] {
				g = i
			}
		}
		groups[g] = append(groups[g], p)
	}
	return groups
}
