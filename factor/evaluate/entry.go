/*
- @Author: aztec
- @Date: 2024-01-15 09:51:41
- @Description: 横截面分组、市值加权聚合、IC分析
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package evaluate

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/aztecqt/aftbench/common"
	"gonum.org/v1/gonum/stat"
)

// 五分组时的标签
var quintileLabels = []string{"L", "2", "3", "4", "H"}

// 组号(1..k)对应的标签
func BucketLabel(b, k int) string {
	if k == len(quintileLabels) && b >= 1 && b <= k {
		return quintileLabels[b-1]
	}
	return strconv.Itoa(b)
}

// 分位数（线性插值，与pandas默认一致）。sorted需升序
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	// 位置取整到1e-9，避免如0.7*170=118.999...使分界点落到前一个样本
	pos := math.Round(p*float64(n-1)*1e9) / 1e9
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// 对一个截面分组，返回标的->组号(1..k)
// 分界点由本截面的分位数决定，每期独立计算。最小值、最大值一定落在两端的组内
// 值恰好等于分界点时归入较低的组，因此并列值会挤进编号最小的可选组
func SortIntoBuckets(section common.SectionData, k int) (map[int]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("bucket count %d: %w", k, common.ErrInvalidConfig)
	}

	sec := section.DropNaN()
	assign := make(map[int]int, len(sec.Entities))
	if len(sec.Values) == 0 {
		return assign, nil
	}

	sorted := slices.Clone(sec.Values)
	slices.Sort(sorted)
	cuts := make([]float64, k+1)
	for j := 0; j <= k; j++ {
		cuts[j] = quantile(sorted, float64(j)/float64(k))
	}

	for i, e := range sec.Entities {
		v := sec.Values[i]
		b := k
		for j := 1; j <= k; j++ {
			if v <= cuts[j] {
				b = j
				break
			}
		}
		assign[e] = b
	}
	return assign, nil
}

// 加权平均。总权重为0时失败
func ValueWeighted(returns, weights []float64) (float64, error) {
	sum, wsum := 0.0, 0.0
	for i, r := range returns {
		sum += r * weights[i]
		wsum += weights[i]
	}
	if wsum == 0 {
		return math.NaN(), common.ErrZeroWeightGroup
	}
	return sum / wsum, nil
}

// 按分组做市值加权：sum(r*w)/sum(w)，只统计该组内有收益率和权重的成员
// 总权重为0的组不出现在结果中，其错误合并后返回，其它组不受影响
func AggregateValueWeighted(returns, weights common.SectionData, assign map[int]int) (map[int]float64, error) {
	r := returns.Map()
	w := weights.Map()

	type acc struct{ rs, ws []float64 }
	groups := map[int]*acc{}
	for e, g := range assign {
		if groups[g] == nil {
			groups[g] = &acc{}
		}
		rv, ok1 := r[e]
		wv, ok2 := w[e]
		if !ok1 || !ok2 || math.IsNaN(rv) || math.IsNaN(wv) {
			continue
		}
		groups[g].rs = append(groups[g].rs, rv)
		groups[g].ws = append(groups[g].ws, wv)
	}

	keys := make([]int, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	slices.Sort(keys)

	out := make(map[int]float64, len(groups))
	var errs []error
	for _, g := range keys {
		v, err := ValueWeighted(groups[g].rs, groups[g].ws)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %d on %s: %w", g, common.FormatDate(returns.Time), err))
			continue
		}
		out[g] = v
	}
	return out, errors.Join(errs...)
}

// 平均秩（并列取平均）
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if values[a] < values[b] {
			return -1
		} else if values[a] > values[b] {
			return 1
		}
		return 0
	})

	out := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = r
		}
		i = j + 1
	}
	return out
}

// 截面上因子值与未来收益的Spearman相关系数（IC）
func RankIC(factor, forward common.SectionData) float64 {
	fwd := forward.Map()
	xs, ys := []float64{}, []float64{}
	for i, e := range factor.Entities {
		x := factor.Values[i]
		y, ok := fwd[e]
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(ranks(xs), ranks(ys), nil)
}

// 对应alphalens的create_information_tear_sheet
// 每个因子截面与其后第一个收益截面计算IC
func Analysis(factor, returns common.SectionSequence) AnalysisResultSeq {
	seq := AnalysisResultSeq{}
	fs := factor.SortByDate()
	rs := returns.SortByDate()
	j := 0
	for _, sd := range fs.Data {
		for j < len(rs.Data) && !rs.Data[j].Time.After(sd.Time) {
			j++
		}
		if j >= len(rs.Data) {
			break
		}
		seq.Data = append(seq.Data, AnalysisResult{Time: sd.Time, IC: RankIC(sd, rs.Data[j])})
	}
	return seq
}
