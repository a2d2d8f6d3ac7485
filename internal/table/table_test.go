package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func tradeLog() *Log {
	l := NewLog("period", "t", "price", "buyerAgentId")
	l.Append(1, 3, 110, 2)
	l.Append(1, 1, 90, 1)
	l.Append(2, 2, 100, 3)
	l.Append(3, 4, 120, "x")
	return l
}

func TestHeaderAndLen(t *testing.T) {
	l := tradeLog()
	assert.Equal(t, []string{"period", "t", "price", "buyerAgentId"}, l.Header())
	assert.Equal(t, 4, l.Data().Len())
	assert.Equal(t, 2, l.Data().Index("price"))
	assert.Equal(t, -1, l.Data().Index("missing"))
	assert.Equal(t, 0, Data{}.Len())
}

func TestAppendNormalizesNumbers(t *testing.T) {
	l := tradeLog()
	assert.Equal(t, 110.0, l.Data()[1][2])
}

func TestSelectAscending(t *testing.T) {
	l := tradeLog()
	got := l.SelectAscending("t", 1, 3)
	require.Len(t, got, 4)
	assert.Equal(t, "period", got[0][0])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, []any{got[1][1], got[2][1], got[3][1]})
}

func TestSelectAscendingUnknownColumn(t *testing.T) {
	got := tradeLog().SelectAscending("nope", 0, 10)
	require.Len(t, got, 1)
}

func TestSelectAscendingEmpty(t *testing.T) {
	l := &Log{}
	assert.Empty(t, l.SelectAscending("t", 0, 1))
}

func TestPluck(t *testing.T) {
	cols := Pluck(tradeLog().Data(), "price", "t", "missing")
	assert.Equal(t, []any{110.0, 90.0, 100.0, 120.0}, cols["price"])
	assert.Len(t, cols["t"], 4)
	_, ok := cols["missing"]
	assert.False(t, ok)
}

func TestPluckAll(t *testing.T) {
	cols := Pluck(tradeLog().Data())
	assert.Len(t, cols, 4)
}

func TestPluckShortRow(t *testing.T) {
	d := Data{{"a", "b"}, {1.0}, {2.0, 3.0}}
	cols := Pluck(d, "b")
	assert.Equal(t, []any{nil, 3.0}, cols["b"])
}

func TestFloats(t *testing.T) {
	f, err := Floats([]any{1.0, 2, int64(3)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, f)

	_, err = Floats([]any{1.0, "x"})
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = Floats([]any{1.0, nil})
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = Floats([]any{math.Inf(1)})
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestCheckNumeric(t *testing.T) {
	assert.NoError(t, CheckNumeric(nil))
	assert.NoError(t, CheckNumeric([]any{"a", 1.0}))
	assert.Error(t, CheckNumeric([]any{1.0, "a"}))
}

func TestFloatColumn(t *testing.T) {
	cols := Pluck(tradeLog().Data(), "price", "buyerAgentId")
	_, err := cols.FloatColumn("price")
	assert.NoError(t, err)
	_, err = cols.FloatColumn("buyerAgentId")
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = cols.FloatColumn("nope")
	assert.Error(t, err)
}

func TestJSONAndYAMLDecode(t *testing.T) {
	var l Log
	require.NoError(t, json.Unmarshal([]byte(`[["a","b"],[1,"x"],[2.5,"y"]]`), &l))
	assert.Equal(t, 2, l.Data().Len())
	assert.Equal(t, 2.5, l.Data()[2][0])

	var y Log
	require.NoError(t, yaml.Unmarshal([]byte("- [a, b]\n- [1, x]\n"), &y))
	assert.Equal(t, 1.0, y.Data()[1][0])

	out, err := json.Marshal(&l)
	require.NoError(t, err)
	assert.JSONEq(t, `[["a","b"],[1,"x"],[2.5,"y"]]`, string(out))
}
