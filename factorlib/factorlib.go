/*
- @Author: aztec
- @Date: 2024-01-18 16:30:45
- @Description:
- @因子库。从基础信息源加载数据，估计AFT信号，构建size/liquidity/value/aft四个因子的分组组合，
- @并对各组、多空组合及基准做HAC检验。结果可写入influx
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factorlib

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/aztecqt/aftbench/factorlib/basicinfo"
	"github.com/influxdata/influxdb/client/v2"
	"golang.org/x/sync/errgroup"
)

type FactorLib struct {
	// 配置
	lc *LaunchConfig

	// 数据库连接，未配置时为nil
	ic client.Client

	// 基础信息
	basicSrc basicinfo.Source
}

// src可以为nil，此时只能调用Build
func NewFactorLib(lc *LaunchConfig, src basicinfo.Source) (*FactorLib, error) {
	f := &FactorLib{lc: lc, basicSrc: src}

	// 创建数据库连接
	if len(lc.InfluxCfg.Addr) > 0 {
		c, err := client.NewHTTPClient(client.HTTPConfig{
			Addr:     lc.InfluxCfg.Addr,
			Username: lc.InfluxCfg.Username,
			Password: lc.InfluxCfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create influx client: %w", err)
		}
		f.ic = c
	}

	return f, nil
}

func (f *FactorLib) Close() error {
	if f.ic != nil {
		return f.ic.Close()
	}
	return nil
}

// 加载、构建，并在配置了influx时写入全部组合收益
func (f *FactorLib) Run(ctx context.Context) (FactorSet, error) {
	if f.basicSrc == nil {
		return FactorSet{}, fmt.Errorf("no basic info source: %w", common.ErrInvalidConfig)
	}

	in, err := LoadInputs(f.basicSrc, f.lc.Since)
	if err != nil {
		return FactorSet{}, err
	}

	set, err := f.Build(ctx, in)
	if err != nil {
		return FactorSet{}, err
	}

	if err := f.PublishSet(set); err != nil {
		common.LogError(logPrefix, "publish to influx failed: %s", err.Error())
	}
	return set, nil
}

// 写入全部组合及基准收益。未配置influx时什么都不做
func (f *FactorLib) PublishSet(set FactorSet) error {
	if f.ic == nil {
		return nil
	}
	all := append([]evaluate.PortfolioSeries{}, set.Portfolios...)
	if len(set.Benchmark.Dates) > 0 {
		all = append(all, set.Benchmark)
	}
	return Publish(f.ic, f.lc.InfluxCfg.Database, all...)
}

// 构建因子并检验
func (f *FactorLib) Build(ctx context.Context, in Inputs) (FactorSet, error) {
	set := FactorSet{buckets: f.lc.Sort.Buckets}
	if !in.Returns.Valid() || len(in.Returns.Data) == 0 {
		return set, fmt.Errorf("empty returns: %w", common.ErrInvalidConfig)
	}

	// AFT信号
	panel, stats := data.BuildSignalPanel(in.Returns, in.Volatility)
	common.LogNormal(logPrefix, "%s: signal panel %d rows", f.lc.Name, stats.Kept)
	sig, err := factor.EstimateAFT(ctx, panel, factor.AFTFormula(), f.lc.Signal)
	if err != nil {
		return set, err
	}
	set.Signal = sig
	common.LogNormal(logPrefix, "%s: %d signal points, %d failures", f.lc.Name, len(sig.Points), len(sig.Failures))

	// 四个因子。没有数据的跳过
	factors := []factor.Factor{}
	for _, c := range []*factor.Characteristic{
		factor.NewCharacteristic(factor.NameSize, in.MarketValue),
		factor.NewCharacteristic(factor.NameLiquidity, in.Illiquidity),
		factor.NewCharacteristic(factor.NameValue, in.Valuation),
		factor.NewCharacteristic(factor.NameAFT, sig.Sequence()),
	} {
		if len(c.Ranking().Data) == 0 {
			common.LogError(logPrefix, "factor %s has no ranking data, skipped", c.Name())
			continue
		}
		factors = append(factors, c)
	}
	if len(factors) == 0 {
		return set, fmt.Errorf("no factor to build: %w", common.ErrInvalidConfig)
	}

	// 分组组合
	returns := in.Returns.SortByDate()
	cal := data.NewMonthlyCalendar(returns.Dates())
	set.Portfolios = make([]evaluate.PortfolioSeries, len(factors))
	g, gctx := errgroup.WithContext(ctx)
	for i, fac := range factors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps, err := evaluate.BuildPortfolios(fac, returns, in.MarketValue, cal, f.lc.Sort)
			if err != nil {
				return fmt.Errorf("factor %s: %w", fac.Name(), err)
			}
			set.Portfolios[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return set, err
	}

	// 基准与收益率同日期，缺失处为NaN
	all := append([]evaluate.PortfolioSeries{}, set.Portfolios...)
	if len(in.Benchmark) > 0 {
		set.Benchmark = alignBenchmark(in.Benchmark, returns.Dates())
		all = append(all, set.Benchmark)
	}

	// 检验区间
	set.Start, set.End = f.lc.Start, f.lc.End
	if set.Start.IsZero() || set.End.IsZero() {
		start, end, ok := evaluate.CommonRange(all...)
		if !ok {
			return set, fmt.Errorf("no common sample range: %w", common.ErrSampleMismatch)
		}
		if set.Start.IsZero() {
			set.Start = start
		}
		if set.End.IsZero() {
			set.End = end
		}
	}
	set.Tests, err = evaluate.TestFactors(set.Start, set.End, all...)
	if err != nil {
		return set, err
	}

	// 月末排序变量对下月收益的Rank IC
	monthly := data.Compound(returns, cal)
	set.IC = map[string]evaluate.AnalysisResultSeq{}
	for _, fac := range factors {
		set.IC[fac.Name()] = evaluate.Analysis(monthEnds(fac.Ranking(), cal), monthly)
	}

	common.LogNormal(logPrefix, "%s: %d factors built, %d tests over %s ~ %s",
		f.lc.Name, len(factors), len(set.Tests), common.FormatDate(set.Start), common.FormatDate(set.End))
	return set, nil
}

func alignBenchmark(obs []data.Observation, dates []time.Time) evaluate.PortfolioSeries {
	byDate := make(map[int64]float64, len(obs))
	for _, o := range obs {
		byDate[o.Date.Unix()] = o.Value
	}
	values := make([]float64, len(dates))
	for i, d := range dates {
		if v, ok := byDate[d.Unix()]; ok {
			values[i] = v
		} else {
			values[i] = math.NaN()
		}
	}
	return evaluate.NewSingleSeries(BenchmarkName, string(data.FieldBenchmark), dates, values)
}

// 取每个月末（或之前最近）的截面，日期对齐到月末
func monthEnds(seq common.SectionSequence, cal *data.Calendar) common.SectionSequence {
	out := common.SectionSequence{Entities: seq.Entities}
	for _, b := range cal.Buckets {
		if sd, ok := seq.RowAsOf(b.End); ok {
			sd.Time = b.End
			out.Data = append(out.Data, sd)
		}
	}
	return out
}
