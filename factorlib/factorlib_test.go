package factorlib

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/influxdata/influxdb/client/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 10个标的，2023年上半年的日频数据
func syntheticInputs() Inputs {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{}
	for d := start; d.Before(time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	entities := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	in := Inputs{
		Returns:     common.NewSectionSequence(entities, dates),
		Volatility:  common.NewSectionSequence(entities, dates),
		MarketValue: common.NewSectionSequence(entities, dates),
		Valuation:   common.NewSectionSequence(entities, dates),
		Illiquidity: common.NewSectionSequence(entities, dates),
	}
	for j, e := range entities {
		r := 0.0
		for i, d := range dates {
			fe := float64(e)
			rv := 1 + 0.2*math.Sin(float64(i)+fe)
			if i > 0 {
				pos := 0.0
				if r > 0 {
					pos = 1
				}
				r = 0.0002*fe + 0.05*fe*r*pos*rv - 0.2*r + 0.01*math.Cos(float64(3*i)+fe)
			}
			in.Returns.Data[i].Values[j] = r
			in.Volatility.Data[i].Values[j] = rv
			in.MarketValue.Data[i].Values[j] = 100 * fe
			in.Valuation.Data[i].Values[j] = 1 / fe
			in.Illiquidity.Data[i].Values[j] = fe * (1 + 0.1*math.Sin(float64(i)))

			if j == 0 {
				in.Benchmark = append(in.Benchmark, data.Observation{Date: d, Value: 0.001 * math.Sin(float64(i))})
			}
		}
	}
	return in
}

func TestBuild(t *testing.T) {
	lc := LaunchConfigDefault()
	fl, err := NewFactorLib(&lc, nil)
	require.NoError(t, err)
	defer fl.Close()

	set, err := fl.Build(context.Background(), syntheticInputs())
	require.NoError(t, err)
	require.Len(t, set.Portfolios, 4)
	assert.NotEmpty(t, set.Signal.Points)

	names := []string{}
	for _, ps := range set.Portfolios {
		names = append(names, ps.Name)
		assert.Equal(t, []string{"L", "2", "3", "4", "H", "L-H"}, ps.Labels)
	}
	assert.Equal(t, []string{factor.NameSize, factor.NameLiquidity, factor.NameValue, factor.NameAFT}, names)

	// 第一个组合月为2月
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), set.Start)
	assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), set.End)

	tested := map[string]bool{}
	for _, row := range set.Tests {
		tested[row.Factor+"/"+row.Bucket] = true
	}
	assert.True(t, tested["size/L-H"])
	assert.True(t, tested["value/L"])
	assert.True(t, tested[BenchmarkName+"/bench"])

	// 组合从2月开始，基准覆盖全部日期
	size := set.Portfolios[0]
	assert.Len(t, size.Dates, len(set.Benchmark.Dates)-31)
	assert.Len(t, set.IC[factor.NameSize].Data, 5)

	spreads := set.Spreads()
	require.Contains(t, spreads, factor.NameSize)
	assert.Equal(t, size.Dates, spreads[factor.NameSize].Dates)
	assert.Equal(t, size.Returns["L-H"], spreads[factor.NameSize].Values)
}

func TestBuildExplicitRange(t *testing.T) {
	lc := LaunchConfigDefault()
	lc.Start = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	lc.End = time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC)
	fl, err := NewFactorLib(&lc, nil)
	require.NoError(t, err)

	set, err := fl.Build(context.Background(), syntheticInputs())
	require.NoError(t, err)
	for _, row := range set.Tests {
		if row.Factor == factor.NameSize {
			assert.Equal(t, 61, row.N)
		}
	}

	// 区间早于组合起点，size组合在该区间无数据
	lc.Start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	lc.End = time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC)
	_, err = fl.Build(context.Background(), syntheticInputs())
	assert.ErrorIs(t, err, common.ErrSampleMismatch)
}

func TestBuildInvalid(t *testing.T) {
	lc := LaunchConfigDefault()
	lc.Sort.Buckets = 1
	fl, err := NewFactorLib(&lc, nil)
	require.NoError(t, err)
	_, err = fl.Build(context.Background(), syntheticInputs())
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = fl.Build(context.Background(), Inputs{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = fl.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

type fakeWriter struct {
	batches []client.BatchPoints
}

func (w *fakeWriter) Write(bp client.BatchPoints) error {
	w.batches = append(w.batches, bp)
	return nil
}

func TestPublish(t *testing.T) {
	d1 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	ps := evaluate.PortfolioSeries{
		Name:   factor.NameAFT,
		Labels: []string{"L", "H"},
		Dates:  []time.Time{d1, d2},
		Returns: map[string][]float64{
			"L": {0.01, math.NaN()},
			"H": {math.NaN(), math.NaN()},
		},
	}

	w := &fakeWriter{}
	require.NoError(t, Publish(w, "factors", ps))
	require.Len(t, w.batches, 1)
	bp := w.batches[0]
	assert.Equal(t, "factors", bp.Database())

	pts := bp.Points()
	require.Len(t, pts, 1)
	assert.Equal(t, Measurement, pts[0].Name())
	assert.Equal(t, map[string]string{"factor": factor.NameAFT}, pts[0].Tags())
	assert.True(t, d1.Equal(pts[0].Time()))
	fields, err := pts[0].Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"L": 0.01}, fields)

	// 没有有效点时不写
	ps.Returns["L"][0] = math.NaN()
	w2 := &fakeWriter{}
	require.NoError(t, Publish(w2, "factors", ps))
	assert.Empty(t, w2.batches)
}

func TestICTable(t *testing.T) {
	ic := map[string]evaluate.AnalysisResultSeq{
		"b": {Data: []evaluate.AnalysisResult{{IC: 0.1}, {IC: 0.3}, {IC: 0.2}}},
		"a": {},
	}
	out := ICTable(ic).Render()
	assert.Contains(t, out, "0.2000")
	assert.Less(t, strings.Index(out, " a "), strings.Index(out, " b "))
}
