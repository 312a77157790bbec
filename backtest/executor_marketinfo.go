/*
- @Author: aztec
- @Date: 2024-01-31 10:53:36
- @Description: executor的数据准备部分：日频数据复利为周期数据，构造两个阶段的回归面板
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import (
	"math"
	"slices"
	"time"

	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/aztecqt/aftbench/regress"
)

// 一条日度因子收益序列（一般为因子的多空组合）
type FactorSeries struct {
	Dates  []time.Time
	Values []float64
}

// 从分组收益序列中取出某一组
func FactorSeriesOf(ps evaluate.PortfolioSeries, label string) (FactorSeries, bool) {
	v, ok := ps.Returns[label]
	if !ok {
		return FactorSeries{}, false
	}
	return FactorSeries{Dates: ps.Dates, Values: v}, true
}

// 因子的周期收益率，与cal.Buckets一一对应
func compoundFactor(fs FactorSeries, cal *data.Calendar) []float64 {
	byDate := make(map[int64]float64, len(fs.Dates))
	for i, d := range fs.Dates {
		byDate[d.Unix()] = fs.Values[i]
	}

	out := make([]float64, cal.Len())
	buf := []float64{}
	for b, bucket := range cal.Buckets {
		buf = buf[:0]
		for _, d := range bucket.Dates {
			if v, ok := byDate[d.Unix()]; ok {
				buf = append(buf, v)
			}
		}
		out[b] = data.CompoundValues(buf)
	}
	return out
}

func loadingField(name string) data.Field {
	return data.Field("beta_" + name)
}

// 对fields逐项回归（带截距）
func linearFormula(fields []data.Field) regress.Formula {
	f := regress.Formula{Response: data.FieldReturn, Intercept: true}
	for _, field := range fields {
		f.Terms = append(f.Terms, regress.Raw(field))
	}
	return f
}

// 第一阶段面板：周期收益 ~ 各因子周期收益
// 行日期为周期末，标的收益或任一因子收益缺失的周期不进入面板
func (e *Executor) loadingPanel() data.Panel {
	fields := []data.Field{data.FieldReturn}
	for _, name := range e.factorNames {
		fields = append(fields, data.Field(name))
	}

	rows := []data.Row{}
	for b, bucket := range e.cal.Buckets {
		fv := make([]float64, 0, len(e.factorNames))
		for _, name := range e.factorNames {
			fv = append(fv, e.factorReturns[name][b])
		}
		if slices.ContainsFunc(fv, math.IsNaN) {
			continue
		}

		for j, entity := range e.periodReturns.Entities {
			r := e.periodReturns.Data[b].Values[j]
			if math.IsNaN(r) {
				continue
			}
			rows = append(rows, data.Row{Entity: entity, Date: bucket.End, Values: append([]float64{r}, fv...)})
		}
	}
	return data.NewPanel(fields, rows)
}

// 第二阶段面板：p+1期收益 ~ p期因子载荷
// 行日期为p+1期末，因此窗口截止到q时，只用到了q期及以前的收益
func (e *Executor) modelPanel() data.Panel {
	fields := []data.Field{data.FieldReturn}
	for _, name := range e.factorNames {
		fields = append(fields, loadingField(name))
	}

	col := map[int]int{}
	for j, entity := range e.periodReturns.Entities {
		col[entity] = j
	}

	rows := []data.Row{}
	for entity, byPeriod := range e.loadings {
		for p, load := range byPeriod {
			if p+1 >= e.cal.Len() {
				continue
			}
			r := e.periodReturns.Data[p+1].Values[col[entity]]
			if math.IsNaN(r) {
				continue
			}
			rows = append(rows, data.Row{Entity: entity, Date: e.cal.Buckets[p+1].End, Values: append([]float64{r}, load...)})
		}
	}
	return data.NewPanel(fields, rows)
}

// 最后一个训练截止不晚于p的二阶段系数
func latestModel(ests []regress.Estimate, p int) (regress.Estimate, bool) {
	i, _ := slices.BinarySearchFunc(ests, p+1, func(est regress.Estimate, target int) int {
		return est.Bucket - target
	})
	if i == 0 {
		return regress.Estimate{}, false
	}
	return ests[i-1], true
}
