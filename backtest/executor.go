/*
- @Author: aztec
- @Date: 2024-01-31 10:19:32
- @Description: 滚动前推回测执行器
- @每个调仓周期：估计因子载荷 -> 用载荷预测下一期收益 -> 选股 -> 市值加权计算实现收益
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/aztecqt/aftbench/regress"
	"github.com/shopspring/decimal"
)

const logPrefix = "backtest"

type ExecutorConfig struct {
	// 调仓周期长度（交易日）
	PeriodDays int `json:"period_days"`

	// 两个阶段回归的滚动窗口（周期数）和最少观测数
	Window int `json:"window"`
	MinObs int `json:"min_obs"`

	// 按预测收益分多少组，只持有最高组
	SelectBuckets int `json:"select_buckets"`

	// 每次调仓的交易成本
	TransactionCost decimal.Decimal `json:"transaction_cost"`

	// 回归并发数
	Workers int `json:"workers"`
}

func ExecutorConfigDefault() ExecutorConfig {
	return ExecutorConfig{
		PeriodDays:      5,
		Window:          50,
		MinObs:          5,
		SelectBuckets:   10,
		TransactionCost: decimal.NewFromFloat(0.001)}
}

func (c ExecutorConfig) Validate() error {
	if c.PeriodDays <= 0 {
		return fmt.Errorf("period days %d: %w", c.PeriodDays, common.ErrInvalidConfig)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window %d: %w", c.Window, common.ErrInvalidConfig)
	}
	if c.MinObs <= 0 {
		return fmt.Errorf("min observations %d: %w", c.MinObs, common.ErrInvalidConfig)
	}
	if c.SelectBuckets < 2 {
		return fmt.Errorf("select buckets %d: %w", c.SelectBuckets, common.ErrInvalidConfig)
	}
	if c.TransactionCost.IsNegative() {
		return fmt.Errorf("transaction cost %s: %w", c.TransactionCost, common.ErrInvalidConfig)
	}
	return nil
}

// 回测输入
type Inputs struct {
	Returns     common.SectionSequence  // 日收益率
	MarketValue common.SectionSequence  // 市值，作为权重
	Factors     map[string]FactorSeries // 日度因子收益
}

type Result struct {
	Periods         []PeriodResult
	Holdings        []Holding
	Summary         Summary
	LoadingFailures []regress.Failure
	ModelFailures   []regress.Failure
}

type Executor struct {
	cfg      ExecutorConfig
	selector Selector

	// 调仓周期，以及每个周期单独一个桶的日历（用于滚动回归）
	cal       *data.Calendar
	periodCal *data.Calendar

	// 周期数据
	factorNames   []string
	periodReturns common.SectionSequence
	factorReturns map[string][]float64

	// 因子载荷（不含截距）entity->period->loadings
	loadings map[int]map[int][]float64

	// 二阶段系数，每个标的按周期升序
	models map[int][]regress.Estimate

	// 当前形成期及其市值
	formation int
	weights   map[int]float64
}

// selector为nil时按配置持有预测收益最高的一组
func NewExecutor(cfg ExecutorConfig, selector Selector) *Executor {
	if selector == nil {
		selector = NewTopBucket(cfg.SelectBuckets)
	}
	return &Executor{cfg: cfg, selector: selector}
}

// 执行回测
// 只有配置错误会返回error，单个标的、窗口、周期的失败记录在结果中
func (e *Executor) Run(ctx context.Context, in Inputs) (Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(in.Factors) == 0 {
		return Result{}, fmt.Errorf("no factor series: %w", common.ErrInvalidConfig)
	}

	// 周期数据
	returns := in.Returns.SortByDate()
	mv := in.MarketValue.SortByDate()
	cal, err := data.NewPeriodCalendar(returns.Dates(), e.cfg.PeriodDays)
	if err != nil {
		return Result{}, err
	}
	e.cal = cal
	e.periodCal, _ = data.NewPeriodCalendar(cal.Ends(), 1)
	e.factorNames = slices.Sorted(maps.Keys(in.Factors))
	e.periodReturns = data.Compound(returns, cal)
	e.factorReturns = map[string][]float64{}
	for _, name := range e.factorNames {
		e.factorReturns[name] = compoundFactor(in.Factors[name], cal)
	}
	common.LogNormal(logPrefix, "%d periods of %d days, %d entities, factors %v", cal.Len(), e.cfg.PeriodDays, len(returns.Entities), e.factorNames)

	res := Result{}

	// 第一阶段：因子载荷
	fields := make([]data.Field, 0, len(e.factorNames))
	for _, name := range e.factorNames {
		fields = append(fields, data.Field(name))
	}
	loadRes, err := regress.FitRolling(ctx, e.loadingPanel(), e.spec(linearFormula(fields)), e.periodCal)
	if err != nil {
		return Result{}, err
	}
	res.LoadingFailures = loadRes.Failures
	e.loadings = map[int]map[int][]float64{}
	for _, est := range loadRes.Estimates {
		if e.loadings[est.Entity] == nil {
			e.loadings[est.Entity] = map[int][]float64{}
		}
		e.loadings[est.Entity][est.Bucket] = est.Coef[1:]
	}

	// 第二阶段：下期收益对本期载荷
	for i, name := range e.factorNames {
		fields[i] = loadingField(name)
	}
	modelRes, err := regress.FitRolling(ctx, e.modelPanel(), e.spec(linearFormula(fields)), e.periodCal)
	if err != nil {
		return Result{}, err
	}
	res.ModelFailures = modelRes.Failures
	e.models = modelRes.ByEntity()

	// 逐期预测、选股、计分
	cost := e.cfg.TransactionCost.InexactFloat64()
	wealth := decimal.NewFromInt(1)
	started := false
	for p := 0; p+1 < cal.Len(); p++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		t := p + 1
		predicted, trained := e.predict(p)
		if !started && len(predicted.Entities) == 0 {
			// 第一个有预测的周期之前为预热期
			continue
		}
		started = true

		e.formation = p
		e.weights = map[int]float64{}
		if sd, ok := mv.RowAsOf(cal.Buckets[p].End); ok {
			e.weights = sd.Map()
		}

		pr := PeriodResult{Period: t, Start: cal.Buckets[t].Start, End: cal.Buckets[t].End}
		held, err := e.selector.Select(predicted, e)
		if err != nil {
			// 只有单期的错误记录下来继续，其它错误终止回测
			if !common.IsLocal(err) {
				return Result{}, fmt.Errorf("%s: %w", e.selector.Class(), err)
			}
			pr.Err = err
		} else {
			realized := e.periodReturns.Data[t].Map()
			pred := predicted.Map()
			rs, ws := []float64{}, []float64{}
			holdings := []Holding{}
			for _, entity := range held {
				r, w := realized[entity], e.weights[entity]
				if math.IsNaN(r) || math.IsNaN(w) {
					continue
				}
				rs = append(rs, r)
				ws = append(ws, w)
				holdings = append(holdings, Holding{
					Period:         t,
					End:            cal.Buckets[t].End,
					Entity:         entity,
					Predicted:      pred[entity],
					Realized:       r,
					Weight:         w,
					TrainedThrough: trained[entity],
				})
			}

			if vw, err := evaluate.ValueWeighted(rs, ws); err != nil {
				pr.Err = fmt.Errorf("period %d: %w", t, err)
			} else {
				pr.Return = vw - cost
				pr.Holdings = len(holdings)
				res.Holdings = append(res.Holdings, holdings...)
			}
		}
		if pr.Err != nil {
			common.LogError(logPrefix, "no holding: %v", pr.Err)
		}

		wealth = wealth.Mul(decimal.NewFromFloat(1 + pr.Return))
		pr.Cumulative = wealth.Sub(decimal.NewFromInt(1)).InexactFloat64()
		res.Periods = append(res.Periods, pr)
	}

	res.Summary = Summarize(res.Periods)
	common.LogNormal(logPrefix, "%s: %d periods, %d active, cumulative %.4f", e.selector.Class(), res.Summary.Periods, res.Summary.ActivePeriods, res.Summary.CumulativeReturn)
	return res, nil
}

func (e *Executor) spec(f regress.Formula) regress.Spec {
	return regress.Spec{Formula: f, Window: e.cfg.Window, MinObs: e.cfg.MinObs, Workers: e.cfg.Workers}
}

// 用p期载荷和训练截止不晚于p的系数预测p+1期收益
func (e *Executor) predict(p int) (common.SectionData, map[int]int) {
	predicted := common.SectionData{Time: e.cal.Buckets[p].End}
	trained := map[int]int{}
	for _, entity := range e.periodReturns.Entities {
		load, ok := e.loadings[entity][p]
		if !ok {
			continue
		}
		est, ok := latestModel(e.models[entity], p)
		if !ok {
			continue
		}

		v := est.Coef[0]
		for i, l := range load {
			v += est.Coef[i+1] * l
		}
		predicted.Entities = append(predicted.Entities, entity)
		predicted.Values = append(predicted.Values, v)
		trained[entity] = est.Bucket
	}
	return predicted, trained
}
