package data

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyCalendar(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	cal := NewMonthlyCalendar(dates)
	require.Equal(t, 2, cal.Len())
	assert.Equal(t, "2024-01", cal.Buckets[0].Label)
	assert.Equal(t, dates[2], cal.Buckets[0].End)
	assert.Len(t, cal.Buckets[1].Dates, 1)

	b, ok := cal.BucketOf(dates[0])
	require.True(t, ok)
	assert.Equal(t, 1, b)
}

func TestPeriodCalendar(t *testing.T) {
	dates := []time.Time{}
	for d := 1; d <= 12; d++ {
		dates = append(dates, day(d))
	}

	cal, err := NewPeriodCalendar(dates, 5)
	require.NoError(t, err)
	require.Equal(t, 3, cal.Len())
	assert.Equal(t, day(5), cal.Buckets[0].End)
	assert.Equal(t, day(6), cal.Buckets[1].Start)
	assert.Len(t, cal.Buckets[2].Dates, 2)
	assert.Equal(t, []time.Time{day(5), day(10), day(12)}, cal.Ends())

	_, err = NewPeriodCalendar(dates, 0)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestDataFrameRoundTrip(t *testing.T) {
	seq := wide([]int{5, 11}, []time.Time{day(2), day(3)},
		[]float64{0.5, math.NaN()},
		[]float64{-1, 2},
	)

	df := ToDataFrame(seq, "date")
	assert.Equal(t, []string{"date", "5", "11"}, df.Names())

	back, err := FromDataFrame(df, "date")
	require.NoError(t, err)
	assert.Equal(t, seq.Entities, back.Entities)
	assert.Equal(t, day(3), back.Data[1].Time)
	assert.Equal(t, []float64{-1, 2}, back.Data[1].Values)
	assert.True(t, math.IsNaN(back.Data[0].Values[1]))
}

func TestCompoundValues(t *testing.T) {
	assert.InDelta(t, 0.21, CompoundValues([]float64{0.1, math.NaN(), 0.1}), 1e-12)
	assert.True(t, math.IsNaN(CompoundValues([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(CompoundValues(nil)))
}

func TestCompoundByPeriod(t *testing.T) {
	dates := []time.Time{day(2), day(3), day(4), day(5)}
	daily := wide([]int{1, 2}, dates,
		[]float64{0.1, math.NaN()},
		[]float64{0.1, math.NaN()},
		[]float64{-0.5, 0.2},
		[]float64{math.NaN(), 0.1},
	)
	cal, err := NewPeriodCalendar(dates, 2)
	require.NoError(t, err)

	periods := Compound(daily, cal)
	require.Len(t, periods.Data, 2)
	assert.Equal(t, day(3), periods.Data[0].Time)
	assert.InDelta(t, 0.21, periods.Data[0].Values[0], 1e-12)
	assert.True(t, math.IsNaN(periods.Data[0].Values[1]))
	assert.InDelta(t, -0.5, periods.Data[1].Values[0], 1e-12)
	assert.InDelta(t, 0.32, periods.Data[1].Values[1], 1e-12)
}
