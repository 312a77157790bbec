/*
- @Author: aztec
- @Date: 2024-01-18 10:20:19
- @Description: 因子库的数据定义
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factorlib

import (
	"time"

	"github.com/aztecqt/aftbench/backtest"
	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor"
	"github.com/aztecqt/aftbench/factor/evaluate"
)

var logPrefix = "factorlib"

// 基准组合在检验结果中的名字
const BenchmarkName = "market"

type InfluxConfig struct {
	Addr     string `json:"addr"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LaunchConfig struct {
	// 因子库名称
	Name string `json:"name"`

	// 信号估计参数
	Signal factor.SignalConfig `json:"signal"`

	// 分组参数
	Sort evaluate.SortConfig `json:"sort"`

	// 从数据源加载数据的起始日期，零值表示全部
	Since time.Time `json:"since"`

	// 检验区间。任一端为零值时，取所有序列的公共区间
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`

	// influx中以日期、因子名为key，存储所有分组收益。Addr为空时不写入
	InfluxCfg InfluxConfig `json:"influx"`
}

func LaunchConfigDefault() LaunchConfig {
	return LaunchConfig{
		Name:   "aft",
		Signal: factor.SignalConfigDefault(),
		Sort:   evaluate.SortConfigDefault(),
	}
}

// 构建因子所需的全部基础数据，均为日频
type Inputs struct {
	Returns     common.SectionSequence // 收益率
	Volatility  common.SectionSequence // 已实现波动率
	MarketValue common.SectionSequence // 市值，同时作为权重
	Valuation   common.SectionSequence // 账面市值比
	Illiquidity common.SectionSequence // 非流动性
	Benchmark   []data.Observation     // 基准收益，Entity无意义
}

// 一次构建的全部产出
type FactorSet struct {
	Signal     factor.Signal
	Portfolios []evaluate.PortfolioSeries
	Benchmark  evaluate.PortfolioSeries
	Tests      []evaluate.TestRow

	// 各因子的月度Rank IC
	IC map[string]evaluate.AnalysisResultSeq

	// 实际检验区间
	Start time.Time
	End   time.Time

	buckets int
}

// 各因子的多空组合，作为回测的因子收益
func (s FactorSet) Spreads() map[string]backtest.FactorSeries {
	out := map[string]backtest.FactorSeries{}
	for _, ps := range s.Portfolios {
		label := evaluate.SpreadLabel(s.buckets, factor.Directions[ps.Name])
		if fs, ok := backtest.FactorSeriesOf(ps, label); ok {
			out[ps.Name] = fs
		}
	}
	return out
}
