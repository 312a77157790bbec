package factor

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAFTFormulaNames(t *testing.T) {
	names := AFTFormula().Names()
	assert.Equal(t, []string{"const", "rv", "ret_lag", "ret_lag:rv", "ret_lag:d_pos", "ret_lag:d_pos:rv"}, names)
	assert.Equal(t, "ret_lag:d_pos:rv", AFTTerm.Name())
}

func TestEstimateAFTMonthly(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{}
	for d := start; d.Before(time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	returns := common.NewSectionSequence([]int{7}, dates)
	vol := common.NewSectionSequence([]int{7}, dates)
	r := 0.0
	for i := range dates {
		rv := 1 + 0.2*math.Sin(float64(i))
		if i > 0 {
			// 正反馈只在上涨后出现
			d := 0.0
			if r > 0 {
				d = 1
			}
			r = 0.001 + 0.3*r*d*rv - 0.2*r + 0.01*math.Cos(float64(3*i))
		}
		vol.Data[i].Values[0] = rv
		returns.Data[i].Values[0] = r
	}

	panel, _ := data.BuildSignalPanel(returns, vol)
	sig, err := EstimateAFT(context.Background(), panel, SimpleAFTFormula(), SignalConfigDefault())
	require.NoError(t, err)
	require.Len(t, sig.Points, 3)
	assert.Equal(t, "2023-01", sig.Points[0].Month)
	assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), sig.Points[2].End)

	seq := sig.Sequence()
	assert.Equal(t, []int{7}, seq.Entities)
	require.Len(t, seq.Data, 3)
	assert.Equal(t, sig.Points[1].Value, seq.Data[1].Values[0])
}

func TestSignalSequenceMissingIsNaN(t *testing.T) {
	jan := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	sig := Signal{Points: []SignalPoint{
		{Entity: 2, End: feb, Value: 0.4},
		{Entity: 1, End: jan, Value: 0.1},
	}}

	seq := sig.Sequence()
	assert.Equal(t, []int{1, 2}, seq.Entities)
	assert.Equal(t, jan, seq.Data[0].Time)
	assert.True(t, math.IsNaN(seq.Data[0].Values[1]))
	assert.Equal(t, 0.4, seq.Data[1].Values[1])
}

func TestCharacteristicDirection(t *testing.T) {
	for _, name := range []string{NameSize, NameLiquidity, NameValue, NameAFT} {
		c := NewCharacteristic(name, common.SectionSequence{})
		assert.Equal(t, LowMinusHigh, c.Direction(), name)
	}
}
