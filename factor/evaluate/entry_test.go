package evaluate

import (
	"math"
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC)

func section(entities []int, values []float64) common.SectionData {
	return common.SectionData{Time: day, Entities: entities, Values: values}
}

func TestSortIntoBucketsQuintiles(t *testing.T) {
	sec := section([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assign, err := SortIntoBuckets(sec, 5)
	require.NoError(t, err)

	sizes := map[int]int{}
	for e, b := range assign {
		assert.Equal(t, (e+1)/2, b, "entity %d", e)
		sizes[b]++
	}
	for b := 1; b <= 5; b++ {
		assert.Equal(t, 2, sizes[b])
	}

	again, err := SortIntoBuckets(sec, 5)
	require.NoError(t, err)
	assert.Equal(t, assign, again)
}

func TestSortIntoBucketsExtremesAndNaN(t *testing.T) {
	sec := section([]int{1, 2, 3, 4, 5, 6, 7}, []float64{0.3, math.NaN(), -2, 9, 0.1, 0.2, 0.5})
	assign, err := SortIntoBuckets(sec, 3)
	require.NoError(t, err)

	assert.Len(t, assign, 6)
	assert.NotContains(t, assign, 2)
	assert.Equal(t, 1, assign[3])
	assert.Equal(t, 3, assign[4])
}

func TestSortIntoBucketsTiesGoLow(t *testing.T) {
	sec := section([]int{1, 2, 3, 4, 5}, []float64{1, 1, 1, 1, 2})
	assign, err := SortIntoBuckets(sec, 2)
	require.NoError(t, err)

	for e := 1; e <= 4; e++ {
		assert.Equal(t, 1, assign[e])
	}
	assert.Equal(t, 2, assign[5])
}

func TestSortIntoBucketsInvalid(t *testing.T) {
	_, err := SortIntoBuckets(section([]int{1}, []float64{1}), 0)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	assign, err := SortIntoBuckets(section(nil, nil), 5)
	require.NoError(t, err)
	assert.Empty(t, assign)
}

func TestBucketLabel(t *testing.T) {
	assert.Equal(t, "L", BucketLabel(1, 5))
	assert.Equal(t, "3", BucketLabel(3, 5))
	assert.Equal(t, "H", BucketLabel(5, 5))
	assert.Equal(t, "10", BucketLabel(10, 10))
}

func TestAggregateValueWeighted(t *testing.T) {
	returns := section([]int{1, 2, 3, 4}, []float64{0.1, 0.2, 0.3, 0.4})
	weights := section([]int{1, 2, 3, 4}, []float64{1, 3, 0, 0})
	assign := map[int]int{1: 1, 2: 1, 3: 2, 4: 2}

	groups, err := AggregateValueWeighted(returns, weights, assign)
	assert.ErrorIs(t, err, common.ErrZeroWeightGroup)
	assert.InDelta(t, 0.175, groups[1], 1e-12)
	assert.NotContains(t, groups, 2)
}

func TestAggregateValueWeightedMatchesDirectSum(t *testing.T) {
	returns := section([]int{1, 2, 3}, []float64{0.02, -0.01, 0.05})
	weights := section([]int{1, 2, 3}, []float64{10, 20, 30})

	groups, err := AggregateValueWeighted(returns, weights, map[int]int{1: 1, 2: 1, 3: 1})
	require.NoError(t, err)

	direct, err := ValueWeighted(returns.Values, weights.Values)
	require.NoError(t, err)
	assert.InDelta(t, direct, groups[1], 1e-12)
	assert.InDelta(t, (0.2-0.2+1.5)/60, groups[1], 1e-12)
}

func TestRankIC(t *testing.T) {
	f := section([]int{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	r := section([]int{4, 3, 2, 1}, []float64{0.4, 0.1, 0.05, 0.01})
	assert.InDelta(t, 1, RankIC(f, r), 1e-12)

	r = section([]int{1, 2, 3, 4}, []float64{0.4, 0.1, 0.05, 0.01})
	assert.InDelta(t, -1, RankIC(f, r), 1e-12)

	assert.True(t, math.IsNaN(RankIC(f, section([]int{9}, []float64{1}))))
}

func TestAnalysisUsesNextSection(t *testing.T) {
	d1 := day
	d2 := day.AddDate(0, 0, 1)
	factor := common.SectionSequence{Entities: []int{1, 2, 3}, Data: []common.SectionData{
		{Time: d1, Entities: []int{1, 2, 3}, Values: []float64{1, 2, 3}},
	}}
	returns := common.SectionSequence{Entities: []int{1, 2, 3}, Data: []common.SectionData{
		{Time: d1, Entities: []int{1, 2, 3}, Values: []float64{3, 2, 1}},
		{Time: d2, Entities: []int{1, 2, 3}, Values: []float64{1, 2, 3}},
	}}

	seq := Analysis(factor, returns)
	require.Len(t, seq.Data, 1)
	assert.InDelta(t, 1, seq.Data[0].IC, 1e-12)
	assert.Len(t, seq.Values(), 1)
}

// 每组大小与n/k相差不超过1
func TestSortIntoBucketsSizes(t *testing.T) {
	for _, k := range []int{5, 10} {
		for n := 1; n <= 200; n++ {
			entities := make([]int, n)
			values := make([]float64, n)
			for i := range entities {
				entities[i] = i + 1
				values[i] = float64(n - i)
			}
			assign, err := SortIntoBuckets(section(entities, values), k)
			require.NoError(t, err)

			sizes := make([]int, k+1)
			for _, b := range assign {
				sizes[b]++
			}
			for b := 1; b <= k; b++ {
				assert.InDelta(t, float64(n)/float64(k), float64(sizes[b]), 1, "k=%d n=%d bucket %d", k, n, b)
			}
		}
	}
}

func TestSortIntoBucketsCutPointRounding(t *testing.T) {
	const n, k = 171, 10
	entities := make([]int, n)
	values := make([]float64, n)
	for i := range entities {
		entities[i] = i + 1
		values[i] = float64(i + 1)
	}
	assign, err := SortIntoBuckets(section(entities, values), k)
	require.NoError(t, err)

	// 分界点位于17j，第j个分界点为17j+1
	sizes := make([]int, k+1)
	for _, b := range assign {
		sizes[b]++
	}
	assert.Equal(t, 18, sizes[1])
	for b := 2; b <= k; b++ {
		assert.Equal(t, 17, sizes[b], "bucket %d", b)
	}
	assert.Equal(t, 7, assign[120])
	assert.Equal(t, 8, assign[121])
}

// 全体的加权收益等于各组加权收益再按组总权重加权
func TestAggregateValueWeightedRecombines(t *testing.T) {
	const n = 23
	entities := make([]int, n)
	ranks := make([]float64, n)
	rets := make([]float64, n)
	ws := make([]float64, n)
	for i := range entities {
		entities[i] = i + 1
		ranks[i] = math.Cos(float64(3 * i))
		rets[i] = 0.01 * math.Sin(float64(i)+0.3)
		ws[i] = 1 + float64((i*7)%11)
	}
	assign, err := SortIntoBuckets(section(entities, ranks), 5)
	require.NoError(t, err)

	groups, err := AggregateValueWeighted(section(entities, rets), section(entities, ws), assign)
	require.NoError(t, err)
	require.Len(t, groups, 5)

	groupWeight := map[int]float64{}
	for i, e := range entities {
		groupWeight[assign[e]] += ws[i]
	}
	recombined, total := 0.0, 0.0
	for b, r := range groups {
		recombined += r * groupWeight[b]
		total += groupWeight[b]
	}

	full, err := ValueWeighted(rets, ws)
	require.NoError(t, err)
	assert.InDelta(t, full, recombined/total, 1e-12)
}
