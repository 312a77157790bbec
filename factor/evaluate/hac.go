/*
- @Author: aztec
- @Date: 2024-03-11 10:40:03
- @Description: Newey-West显著性检验。对常数回归，截断阶数floor(4*(n/100)^(2/9))，不做预白化
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package evaluate

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/jedib0t/go-pretty/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func NeweyWestLag(n int) int {
	return int(math.Floor(4 * math.Pow(float64(n)/100, 2.0/9.0)))
}

// 序列对常数回归，返回均值及其HAC标准误、t值、p值（正态近似，双侧）
// NaN值先剔除。方差为0的序列t值为0，p值为1
func HACTest(series []float64) (HACResult, error) {
	x := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}

	n := len(x)
	if n < 2 {
		return HACResult{N: n}, fmt.Errorf("%d observations: %w", n, common.ErrInsufficientHistory)
	}

	res := HACResult{N: n, Lag: NeweyWestLag(n), Mean: stat.Mean(x, nil)}
	if floats.Max(x) == floats.Min(x) {
		res.Mean = x[0]
		res.PValue = 1
		return res, nil
	}

	u := make([]float64, n)
	for i, v := range x {
		u[i] = v - res.Mean
	}

	s := floats.Dot(u, u)
	for l := 1; l <= res.Lag; l++ {
		w := 1 - float64(l)/float64(res.Lag+1)
		s += 2 * w * floats.Dot(u[l:], u[:n-l])
	}

	// (X'X)^-1 S (X'X)^-1，再乘小样本修正n/(n-1)
	variance := s / float64(n*n) * float64(n) / float64(n-1)
	res.StdErr = math.Sqrt(variance)
	if !(res.StdErr > 0) {
		res.StdErr = 0
		res.PValue = 1
		return res, nil
	}

	res.TValue = res.Mean / res.StdErr
	res.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(res.TValue))
	return res, nil
}

// 所有序列的公共区间
func CommonRange(series ...PortfolioSeries) (start, end time.Time, ok bool) {
	for i, s := range series {
		if len(s.Dates) == 0 {
			return time.Time{}, time.Time{}, false
		}
		first, last := s.Dates[0], s.Dates[len(s.Dates)-1]
		if i == 0 || first.After(start) {
			start = first
		}
		if i == 0 || last.Before(end) {
			end = last
		}
	}
	return start, end, len(series) > 0 && !start.After(end)
}

// 对各因子每个分组、多空组合以及基准做HAC检验
// 所有序列截取到同一个[start, end]后，日期必须完全一致，否则拒绝比较
func TestFactors(start, end time.Time, series ...PortfolioSeries) ([]TestRow, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("sample %s..%s: %w", common.FormatDate(start), common.FormatDate(end), common.ErrInvalidConfig)
	}

	clipped := make([]PortfolioSeries, len(series))
	for i, s := range series {
		clipped[i] = s.Clip(start, end)
		if len(clipped[i].Dates) == 0 {
			return nil, fmt.Errorf("%s has no data in %s..%s: %w", s.Name, common.FormatDate(start), common.FormatDate(end), common.ErrSampleMismatch)
		}
		if i > 0 && !slices.EqualFunc(clipped[i].Dates, clipped[0].Dates, time.Time.Equal) {
			return nil, fmt.Errorf("%s (%d dates) vs %s (%d dates): %w",
				s.Name, len(clipped[i].Dates), clipped[0].Name, len(clipped[0].Dates), common.ErrSampleMismatch)
		}
	}

	rows := []TestRow{}
	for _, s := range clipped {
		for _, label := range s.Labels {
			res, err := HACTest(s.Returns[label])
			if err != nil {
				common.LogError(logPrefix, "%s/%s: %v", s.Name, label, err)
				continue
			}
			rows = append(rows, TestRow{Factor: s.Name, Bucket: label, HACResult: res})
		}
	}
	return rows, nil
}

func TestTable(rows []TestRow) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"factor", "bucket", "mean", "std_error", "t_value", "p_value", "n", "lag"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Factor,
			r.Bucket,
			fmt.Sprintf("%.6f", r.Mean),
			fmt.Sprintf("%.6f", r.StdErr),
			fmt.Sprintf("%.3f", r.TValue),
			fmt.Sprintf("%.4f", r.PValue),
			r.N,
			r.Lag,
		})
	}
	return t
}
