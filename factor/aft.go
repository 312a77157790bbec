/*
- @Author: aztec
- @Date: 2024-03-07 10:26:50
- @Description: AFT（非对称反馈交易强度）信号估计
- @ret = c + b1*rv + b2*ret_lag + b3*ret_lag*rv + b4*ret_lag*d_pos + b5*ret_lag*d_pos*rv
- @信号取b5，按自然月滚动估计
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/regress"
)

const logPrefix = "factor"

type SignalConfig struct {
	Window  int `json:"window"`  // 滚动窗口（月）
	MinObs  int `json:"min_obs"` // 窗口内最少日观测数
	Workers int `json:"workers"`
}

func SignalConfigDefault() SignalConfig {
	return SignalConfig{Window: 12, MinObs: 13}
}

// 目标交互项
var AFTTerm = regress.Interact(data.FieldLagReturn, data.FieldPositive, data.FieldVolatility)

func AFTFormula() regress.Formula {
	return regress.Formula{
		Response:  data.FieldReturn,
		Intercept: true,
		Terms: []regress.Term{
			regress.Raw(data.FieldVolatility),
			regress.Raw(data.FieldLagReturn),
			regress.Interact(data.FieldLagReturn, data.FieldVolatility),
			regress.Interact(data.FieldLagReturn, data.FieldPositive),
			AFTTerm,
		},
	}
}

// 只保留目标交互项的简化式
func SimpleAFTFormula() regress.Formula {
	return regress.Formula{
		Response:  data.FieldReturn,
		Intercept: true,
		Terms:     []regress.Term{AFTTerm},
	}
}

type SignalPoint struct {
	Entity int
	Month  string    // 2006-01
	End    time.Time // 该月最后一个交易日
	Value  float64
}

type Signal struct {
	Points   []SignalPoint
	Failures []regress.Failure
}

// 估计AFT信号。面板需包含ret, ret_lag, d_pos, rv
func EstimateAFT(ctx context.Context, panel data.Panel, formula regress.Formula, cfg SignalConfig) (Signal, error) {
	cal := data.NewMonthlyCalendar(panel.Dates())
	res, err := regress.FitRolling(ctx, panel, regress.Spec{
		Formula: formula,
		Window:  cfg.Window,
		MinObs:  cfg.MinObs,
		Workers: cfg.Workers,
	}, cal)
	if err != nil {
		return Signal{}, err
	}

	coef, ok := res.Coefficient(AFTTerm.Name())
	if !ok {
		return Signal{}, fmt.Errorf("formula %s lacks %s: %w", formula, AFTTerm.Name(), common.ErrInvalidConfig)
	}

	sig := Signal{Failures: res.Failures}
	for _, c := range coef {
		sig.Points = append(sig.Points, SignalPoint{
			Entity: c.Entity,
			Month:  cal.Buckets[c.Bucket].Label,
			End:    c.End,
			Value:  c.Value,
		})
	}

	common.LogNormal(logPrefix, "aft signal: %d points, %d months skipped", len(sig.Points), len(sig.Failures))
	return sig, nil
}

// 转为宽表，日期为月末交易日，没有估计的格子为NaN
func (s Signal) Sequence() common.SectionSequence {
	entities := []int{}
	dates := []time.Time{}
	seenDate := map[int64]bool{}
	for _, p := range s.Points {
		if !slices.Contains(entities, p.Entity) {
			entities = append(entities, p.Entity)
		}
		if !seenDate[p.End.Unix()] {
			seenDate[p.End.Unix()] = true
			dates = append(dates, p.End)
		}
	}
	slices.Sort(entities)
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	seq := common.NewSectionSequence(entities, dates)
	row := map[int64]int{}
	for i, d := range dates {
		row[d.Unix()] = i
	}
	for _, p := range s.Points {
		j := slices.Index(entities, p.Entity)
		seq.Data[row[p.End.Unix()]].Values[j] = p.Value
	}
	return seq
}
