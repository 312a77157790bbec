/*
- @Author: aztec
- @Date: 2024-01-18 17:05:51
- @Description: 从基础信息源加载构建因子所需的数据
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factorlib

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factorlib/basicinfo"
)

// ret/rv/mv为必需字段，其余字段缺失时留空
func LoadInputs(src basicinfo.Source, since time.Time) (Inputs, error) {
	in := Inputs{}
	names := src.FactorNames()

	load := func(field data.Field, required bool) (common.SectionSequence, error) {
		if !slices.Contains(names, string(field)) {
			if required {
				return common.SectionSequence{}, fmt.Errorf("field %s not found: %w", field, common.ErrInvalidConfig)
			}
			common.LogError(logPrefix, "field %s not found, skipped", field)
			return common.SectionSequence{}, nil
		}

		df, ok := src.GetDataSince(string(field), since)
		if !ok {
			return common.SectionSequence{}, fmt.Errorf("load field %s failed", field)
		}
		seq, err := data.FromDataFrame(*df, basicinfo.DateColumn)
		if err != nil {
			return common.SectionSequence{}, fmt.Errorf("field %s: %w", field, err)
		}
		common.LogNormal(logPrefix, "field %s: %d days, %d entities", field, len(seq.Data), len(seq.Entities))
		return seq, nil
	}

	var err error
	if in.Returns, err = load(data.FieldReturn, true); err != nil {
		return in, err
	}
	if in.Volatility, err = load(data.FieldVolatility, true); err != nil {
		return in, err
	}
	if in.MarketValue, err = load(data.FieldMarketValue, true); err != nil {
		return in, err
	}
	if in.Valuation, err = load(data.FieldValuation, false); err != nil {
		return in, err
	}
	if in.Illiquidity, err = load(data.FieldIlliquidity, false); err != nil {
		return in, err
	}

	bench, err := load(data.FieldBenchmark, false)
	if err != nil {
		return in, err
	}
	if len(bench.Entities) > 0 {
		col, _ := bench.Column(bench.Entities[0])
		for i, sd := range bench.Data {
			if !math.IsNaN(col[i]) {
				in.Benchmark = append(in.Benchmark, data.Observation{Entity: bench.Entities[0], Date: sd.Time, Value: col[i]})
			}
		}
	}
	return in, nil
}
