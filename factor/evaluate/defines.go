/*
- @Author: aztec
- @Date: 2024-01-15 11:44:19
- @Description:
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package evaluate

import (
	"math"
	"time"
)

const logPrefix = "evaluate"

// 分组配置
type SortConfig struct {
	Buckets int `json:"buckets"` // 分多少组（分位数法）
}

// 默认参数
func SortConfigDefault() SortConfig {
	return SortConfig{Buckets: 5}
}

// 一个因子的分组收益序列（含多空组合）
// Returns[label]与Dates一一对应，某组当天无定义时为NaN
type PortfolioSeries struct {
	Name    string
	Labels  []string
	Dates   []time.Time
	Returns map[string][]float64
}

// 单条序列（如基准）
func NewSingleSeries(name, label string, dates []time.Time, values []float64) PortfolioSeries {
	return PortfolioSeries{
		Name:    name,
		Labels:  []string{label},
		Dates:   dates,
		Returns: map[string][]float64{label: values},
	}
}

// 截取[start, end]区间（闭区间）
func (p PortfolioSeries) Clip(start, end time.Time) PortfolioSeries {
	out := PortfolioSeries{Name: p.Name, Labels: p.Labels, Returns: map[string][]float64{}}
	lo, hi := -1, -1
	for i, d := range p.Dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	if lo < 0 {
		for _, l := range p.Labels {
			out.Returns[l] = []float64{}
		}
		return out
	}
	out.Dates = p.Dates[lo : hi+1]
	for _, l := range p.Labels {
		out.Returns[l] = p.Returns[l][lo : hi+1]
	}
	return out
}

// HAC检验结果
type HACResult struct {
	N      int
	Lag    int
	Mean   float64
	StdErr float64
	TValue float64
	PValue float64
}

// 显著性检验结果表中的一行
type TestRow struct {
	Factor string
	Bucket string
	HACResult
}

// 一个横截面上的IC
type AnalysisResult struct {
	Time time.Time
	IC   float64
}

// IC序列
type AnalysisResultSeq struct {
	Data []AnalysisResult
}

func (s AnalysisResultSeq) Values() []float64 {
	out := make([]float64, 0, len(s.Data))
	for _, ar := range s.Data {
		if !math.IsNaN(ar.IC) {
			out = append(out, ar.IC)
		}
	}
	return out
}
