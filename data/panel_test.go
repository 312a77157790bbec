package data

import (
	"math"
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func wide(entities []int, dates []time.Time, rows ...[]float64) common.SectionSequence {
	seq := common.NewSectionSequence(entities, dates)
	for i, r := range rows {
		copy(seq.Data[i].Values, r)
	}
	return seq
}

func TestLagIsKeyedByDate(t *testing.T) {
	// 输入行顺序打乱
	seq := wide([]int{1, 2}, []time.Time{day(4), day(2), day(3)},
		[]float64{3, -3},
		[]float64{1, -1},
		[]float64{2, -2},
	)

	lag := Lag(seq)
	require.Len(t, lag.Data, 2)
	assert.Equal(t, day(3), lag.Data[0].Time)
	assert.Equal(t, []float64{1, -1}, lag.Data[0].Values)
	assert.Equal(t, day(4), lag.Data[1].Time)
	assert.Equal(t, []float64{2, -2}, lag.Data[1].Values)

	// 输入不被修改
	assert.Equal(t, day(4), seq.Data[0].Time)
}

func TestLagSingleRow(t *testing.T) {
	lag := Lag(wide([]int{1}, []time.Time{day(2)}, []float64{1}))
	assert.Empty(t, lag.Data)
}

func TestPositiveIndicator(t *testing.T) {
	ind := PositiveIndicator(wide([]int{1, 2, 3}, []time.Time{day(2)}, []float64{0.1, 0, -0.2}))
	assert.Equal(t, []float64{1, 0, 0}, ind.Data[0].Values)
}

func TestFillZero(t *testing.T) {
	seq := wide([]int{1, 2}, []time.Time{day(2)}, []float64{math.NaN(), 1})
	filled := FillZero(seq)
	assert.Equal(t, []float64{0, 1}, filled.Data[0].Values)
	assert.True(t, math.IsNaN(seq.Data[0].Values[0]))
}

func TestMeltPivotRoundTrip(t *testing.T) {
	seq := wide([]int{3, 7}, []time.Time{day(2), day(3), day(4)},
		[]float64{0.1, math.NaN()},
		[]float64{-0.2, 0.3},
		[]float64{math.NaN(), 0.5},
	)

	back, err := Pivot(Melt(seq))
	require.NoError(t, err)
	assert.Equal(t, FillZero(seq), back)
}

func TestPivotSparseKeepsGaps(t *testing.T) {
	seq, err := PivotSparse([]Observation{
		{Entity: 1, Date: day(2), Value: 1},
		{Entity: 2, Date: day(3), Value: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seq.Entities)
	assert.True(t, math.IsNaN(seq.Data[0].Values[1]))
	assert.Equal(t, 2.0, seq.Data[1].Values[1])
}

func TestPivotRejectsDuplicates(t *testing.T) {
	_, err := Pivot([]Observation{
		{Entity: 1, Date: day(2), Value: 1},
		{Entity: 1, Date: day(2), Value: 2},
	})
	assert.Error(t, err)
}

func TestJoinIsInner(t *testing.T) {
	p, stats := Join(map[Field][]Observation{
		FieldReturn: {
			{Entity: 1, Date: day(2), Value: 0.1},
			{Entity: 1, Date: day(3), Value: 0.2},
			{Entity: 2, Date: day(2), Value: 0.3},
		},
		FieldVolatility: {
			{Entity: 1, Date: day(3), Value: 0.02},
			{Entity: 2, Date: day(2), Value: 0.03},
			{Entity: 9, Date: day(2), Value: 0.04},
		},
	}, FieldReturn, FieldVolatility)

	require.Len(t, p.Rows, 2)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.Dropped[FieldVolatility])
	assert.Equal(t, 1, stats.Dropped[FieldReturn])

	assert.Equal(t, 1, p.Rows[0].Entity)
	assert.Equal(t, day(3), p.Rows[0].Date)
	rv, ok := p.Value(p.Rows[0], FieldVolatility)
	require.True(t, ok)
	assert.Equal(t, 0.02, rv)
	assert.Equal(t, []int{1, 2}, p.Entities())
}

func TestBuildSignalPanel(t *testing.T) {
	dates := []time.Time{day(2), day(3), day(4)}
	returns := wide([]int{1}, dates, []float64{0.01}, []float64{-0.02}, []float64{math.NaN()})
	vol := wide([]int{1}, dates, []float64{0.1}, []float64{0.2}, []float64{0.3})

	p, _ := BuildSignalPanel(returns, vol)
	require.Len(t, p.Rows, 2)

	r := p.Rows[0]
	assert.Equal(t, day(3), r.Date)
	assertField(t, p, r, FieldReturn, -0.02)
	assertField(t, p, r, FieldLagReturn, 0.01)
	assertField(t, p, r, FieldPositive, 1)
	assertField(t, p, r, FieldVolatility, 0.2)

	r = p.Rows[1]
	assertField(t, p, r, FieldReturn, 0)
	assertField(t, p, r, FieldLagReturn, -0.02)
	assertField(t, p, r, FieldPositive, 0)
}

func assertField(t *testing.T, p Panel, r Row, f Field, want float64) {
	t.Helper()
	v, ok := p.Value(r, f)
	require.True(t, ok, "field %s", f)
	assert.InDelta(t, want, v, 1e-12, "field %s", f)
}
