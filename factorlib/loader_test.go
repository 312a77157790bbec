package factorlib

import (
	"testing"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/data/local"
	"github.com/aztecqt/aftbench/factorlib/basicinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInputs(t *testing.T) {
	in := syntheticInputs()
	store := local.NewPanelStore(t.TempDir())
	require.NoError(t, store.WriteSequence(data.FieldReturn, in.Returns))
	require.NoError(t, store.WriteSequence(data.FieldVolatility, in.Volatility))
	require.NoError(t, store.WriteSequence(data.FieldMarketValue, in.MarketValue))
	require.NoError(t, store.WriteObservations(data.FieldBenchmark, in.Benchmark))

	since := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	loaded, err := LoadInputs(basicinfo.NewLocalSource(store), since)
	require.NoError(t, err)

	assert.Len(t, loaded.Returns.Data, 30)
	assert.Equal(t, since, loaded.Returns.Data[0].Time)
	assert.Equal(t, in.Returns.Entities, loaded.Returns.Entities)
	assert.Equal(t, in.MarketValue.Data[151].Values, loaded.MarketValue.Data[0].Values)
	assert.Empty(t, loaded.Valuation.Data)
	assert.Empty(t, loaded.Illiquidity.Data)
	require.Len(t, loaded.Benchmark, 30)
	assert.Equal(t, in.Benchmark[151].Value, loaded.Benchmark[0].Value)
}

func TestLoadInputsMissingRequired(t *testing.T) {
	store := local.NewPanelStore(t.TempDir())
	seq := common.NewSectionSequence([]int{1}, []time.Time{time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)})
	seq.Data[0].Values[0] = 0.01
	require.NoError(t, store.WriteSequence(data.FieldReturn, seq))

	_, err := LoadInputs(basicinfo.NewLocalSource(store), time.Time{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
