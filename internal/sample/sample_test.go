package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndrandal/simviz/internal/table"
)

func numbered(n int) *table.Log {
	l := table.NewLog("t", "price")
	for i := 1; i <= n; i++ {
		l.Append(i, 100+i)
	}
	return l
}

func TestSampleIdentityWhenSmall(t *testing.T) {
	s := New(1)
	d := numbered(5).Data()
	got := s.Sample(d, Options{Size: 5})
	assert.Equal(t, d, got)
	assert.Same(t, &d[0], &got[0])
}

func TestSampleUnlimited(t *testing.T) {
	d := numbered(50).Data()
	assert.Len(t, New(1).Sample(d, Options{}), 51)
	assert.Len(t, New(1).Sample(d, Options{Size: -1}), 51)
}

func TestSampleSize(t *testing.T) {
	d := numbered(100).Data()
	got := New(7).Sample(d, Options{Size: 10})
	require.Len(t, got, 11)
	assert.Equal(t, d[0], got[0])

	seen := map[float64]bool{}
	for _, row := range got[1:] {
		v := row[0].(float64)
		assert.False(t, seen[v], "row %v drawn twice", v)
		seen[v] = true
	}
}

func TestSampleHeaderIsCopy(t *testing.T) {
	d := numbered(20).Data()
	got := New(3).Sample(d, Options{Size: 2})
	got[0][0] = "changed"
	assert.Equal(t, "t", d[0][0])
}

func TestSampleSeedReproducible(t *testing.T) {
	d := numbered(200).Data()
	a := New(42).Sample(d, Options{Size: 15})
	b := New(42).Sample(d, Options{Size: 15})
	assert.Equal(t, a, b)
}

func TestSamplePreserveOrder(t *testing.T) {
	d := numbered(300).Data()
	got := New(9).Sample(d, Options{Size: 40, PreserveOrder: true})
	for i := 2; i < len(got); i++ {
		assert.Less(t, got[i-1][0].(float64), got[i][0].(float64))
	}
}

func TestExtractFilter(t *testing.T) {
	l := numbered(30)
	got := New(1).Extract(l, Options{Filter: &Filter{Prop: "t", FromValue: 5, ToValue: 9}})
	require.Len(t, got, 6)
	assert.Equal(t, 5.0, got[1][0])
	assert.Equal(t, 9.0, got[5][0])
}

func TestExtractFilterThenSample(t *testing.T) {
	got := New(1).Extract(numbered(30), Options{Size: 2, Filter: &Filter{Prop: "t", FromValue: 1, ToValue: 10}})
	require.Len(t, got, 3)
	for _, row := range got[1:] {
		assert.LessOrEqual(t, row[0].(float64), 10.0)
	}
}

type plainSource struct{ d table.Data }

func (p plainSource) Data() table.Data { return p.d }

func TestExtractFilterIgnoredWithoutSelector(t *testing.T) {
	src := plainSource{d: numbered(8).Data()}
	got := New(1).Extract(src, Options{Filter: &Filter{Prop: "t", FromValue: 1, ToValue: 2}})
	assert.Len(t, got, 9)
}

func TestExtractEmptyPropIgnored(t *testing.T) {
	got := New(1).Extract(numbered(8), Options{Filter: &Filter{FromValue: 1, ToValue: 2}})
	assert.Len(t, got, 9)
	assert.Nil(t, New(1).Extract(nil, Options{}))
}
