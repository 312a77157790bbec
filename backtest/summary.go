/*
- @Author: aztec
- @Date: 2024-03-14 16:21:07
- @Description: 回测绩效：累计收益、夏普比率、最大回撤
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import (
	"fmt"

	"github.com/jedib0t/go-pretty/table"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	CumulativeReturn        float64
	SharpeRatio             float64 // 周期收益均值/标准差，不年化
	MaxDrawdown             float64 // 比值口径，百分数
	ConventionalMaxDrawdown float64 // 净值口径，百分数
	Periods                 int
	ActivePeriods           int
}

func Summarize(periods []PeriodResult) Summary {
	s := Summary{Periods: len(periods)}
	if len(periods) == 0 {
		return s
	}

	returns := make([]float64, len(periods))
	cum := make([]float64, len(periods))
	wealth := make([]float64, len(periods))
	for i, p := range periods {
		returns[i] = p.Return
		cum[i] = p.Cumulative
		wealth[i] = 1 + p.Cumulative
		if p.Holdings > 0 {
			s.ActivePeriods++
		}
	}

	s.CumulativeReturn = cum[len(cum)-1]
	s.SharpeRatio = SharpeRatio(returns)
	s.MaxDrawdown = MaxDrawdownRatio(cum)
	s.ConventionalMaxDrawdown = ConventionalDrawdown(wealth)
	return s
}

func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0
	}
	return mean / std
}

// max(峰值/当前值 - 1) * 100，在累计收益序列上计算
// 当前值<=0时比值无意义，跳过
func MaxDrawdownRatio(cum []float64) float64 {
	mdd := 0.0
	top := 0.0
	for i, v := range cum {
		if i == 0 || v > top {
			top = v
		}
		if v <= 0 {
			continue
		}
		if dd := top/v - 1; dd > mdd {
			mdd = dd
		}
	}
	return mdd * 100
}

// 常规口径：max((峰值-当前净值)/峰值) * 100
func ConventionalDrawdown(wealth []float64) float64 {
	mdd := 0.0
	top := 0.0
	for i, w := range wealth {
		if i == 0 || w > top {
			top = w
		}
		if top <= 0 {
			continue
		}
		if dd := (top - w) / top; dd > mdd {
			mdd = dd
		}
	}
	return mdd * 100
}

func (s Summary) ToTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"cumulative_return", fmt.Sprintf("%.4f", s.CumulativeReturn)})
	t.AppendRow(table.Row{"sharpe_ratio", fmt.Sprintf("%.4f", s.SharpeRatio)})
	t.AppendRow(table.Row{"max_drawdown(%)", fmt.Sprintf("%.2f", s.MaxDrawdown)})
	t.AppendRow(table.Row{"conventional_max_drawdown(%)", fmt.Sprintf("%.2f", s.ConventionalMaxDrawdown)})
	t.AppendRow(table.Row{"periods", s.Periods})
	t.AppendRow(table.Row{"active_periods", s.ActivePeriods})
	return t
}
