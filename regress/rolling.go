/*
- @Author: aztec
- @Date: 2024-03-06 14:48:09
- @Description: 滚动窗口分组回归。每个标的独立回归，窗口由最近Window个时间桶组成，逐桶向前滚动
- @同一个引擎既用于AFT信号估计（自然月），也用于因子载荷估计（调仓周期）
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package regress

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"golang.org/x/sync/errgroup"
)

const logPrefix = "regress"

type Spec struct {
	Formula Formula
	Window  int // 每次拟合包含的时间桶数量
	MinObs  int // 窗口内最少观测数
	Workers int // 并发数，<=0时取GOMAXPROCS
}

func (s Spec) Validate() error {
	if s.Window <= 0 {
		return fmt.Errorf("window %d: %w", s.Window, common.ErrInvalidConfig)
	}
	if s.MinObs <= 0 {
		return fmt.Errorf("min observations %d: %w", s.MinObs, common.ErrInvalidConfig)
	}
	return nil
}

// 某个标的在某个桶边界上的一次拟合
type Estimate struct {
	Entity int
	Bucket int       // 窗口最后一个桶的索引
	End    time.Time // 窗口最后一个桶的结束日期
	NObs   int
	Coef   []float64
	R2     float64
}

// 没有得到估计的窗口
type Failure struct {
	Entity int
	Bucket int
	Err    error
}

type Result struct {
	Names     []string
	Estimates []Estimate // 按(标的,桶)升序
	Failures  []Failure
}

// 系数名对应的索引
func (r Result) Index(name string) (int, bool) {
	i := slices.Index(r.Names, name)
	return i, i >= 0
}

// 单个系数的时间序列
type Scalar struct {
	Entity int
	Bucket int
	End    time.Time
	Value  float64
}

// 提取某一项（如目标交互项）的系数
func (r Result) Coefficient(name string) ([]Scalar, bool) {
	i, ok := r.Index(name)
	if !ok {
		return nil, false
	}
	out := make([]Scalar, 0, len(r.Estimates))
	for _, e := range r.Estimates {
		out = append(out, Scalar{Entity: e.Entity, Bucket: e.Bucket, End: e.End, Value: e.Coef[i]})
	}
	return out, true
}

func (r Result) ByEntity() map[int][]Estimate {
	out := map[int][]Estimate{}
	for _, e := range r.Estimates {
		out[e.Entity] = append(out[e.Entity], e)
	}
	return out
}

type entityResult struct {
	estimates []Estimate
	failures  []Failure
}

// 对面板中每个标的做滚动回归
// 窗口观测数不足、设计矩阵秩亏只会让该窗口没有估计，不影响其它窗口和标的
func FitRolling(ctx context.Context, panel data.Panel, spec Spec, cal *data.Calendar) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	c, err := spec.Formula.compile(panel)
	if err != nil {
		return Result{}, err
	}

	byEntity := panel.ByEntity()
	entities := panel.Entities()
	results := make([]entityResult, len(entities))

	workers := spec.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entity := range entities {
		i, entity := i, entity
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fitEntity(entity, byEntity[entity], c, spec, cal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Names: spec.Formula.Names()}
	for _, er := range results {
		res.Estimates = append(res.Estimates, er.estimates...)
		res.Failures = append(res.Failures, er.failures...)
	}

	common.LogNormal(logPrefix, "%s: %d entities, %d estimates, %d windows skipped", spec.Formula, len(entities), len(res.Estimates), len(res.Failures))
	return res, nil
}

func fitEntity(entity int, rows []data.Row, c compiled, spec Spec, cal *data.Calendar) entityResult {
	// 只保留日历中存在的行，行已按日期升序，因此桶索引单调不减
	bucketed := make([]data.Row, 0, len(rows))
	buckets := make([]int, 0, len(rows))
	for _, r := range rows {
		if b, ok := cal.BucketOf(r.Date); ok {
			bucketed = append(bucketed, r)
			buckets = append(buckets, b)
		}
	}

	er := entityResult{}
	start := 0
	for end := 0; end < len(bucketed); {
		// 本桶的最后一行
		b := buckets[end]
		for end < len(bucketed) && buckets[end] == b {
			end++
		}

		// 窗口起点：桶索引>=b-Window+1
		for buckets[start] < b-spec.Window+1 {
			start++
		}

		window := bucketed[start:end]
		if len(window) < spec.MinObs {
			er.failures = append(er.failures, Failure{
				Entity: entity,
				Bucket: b,
				Err:    fmt.Errorf("entity %d bucket %s: %d < %d: %w", entity, cal.Buckets[b].Label, len(window), spec.MinObs, common.ErrInsufficientHistory),
			})
			continue
		}

		x, y := c.design(window)
		fit, err := OLS(x, y)
		if err != nil {
			er.failures = append(er.failures, Failure{
				Entity: entity,
				Bucket: b,
				Err:    fmt.Errorf("entity %d bucket %s: %w", entity, cal.Buckets[b].Label, err),
			})
			continue
		}

		er.estimates = append(er.estimates, Estimate{
			Entity: entity,
			Bucket: b,
			End:    cal.Buckets[b].End,
			NObs:   fit.NObs,
			Coef:   fit.Coef,
			R2:     fit.R2,
		})
	}
	return er
}
