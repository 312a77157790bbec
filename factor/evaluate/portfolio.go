/*
- @Author: aztec
- @Date: 2024-03-08 15:12:36
- @Description: 分组组合收益序列。每个桶开始前用上一个桶末的排序变量分组、市值作权重，桶内逐日计算各组收益
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package evaluate

import (
	"fmt"
	"math"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor"
)

// 多空组合的标签
func SpreadLabel(k int, dir factor.Direction) string {
	low, high := BucketLabel(1, k), BucketLabel(k, k)
	if dir == factor.HighMinusLow {
		return high + "-" + low
	}
	return low + "-" + high
}

func spread(groups map[int]float64, k int, dir factor.Direction) float64 {
	low, ok1 := groups[1]
	high, ok2 := groups[k]
	if !ok1 || !ok2 {
		return math.NaN()
	}
	if dir == factor.HighMinusLow {
		return high - low
	}
	return low - high
}

// 构建某个因子的分组收益序列
// returns为日收益率宽表，weights为市值宽表，cal决定调仓的时间桶
func BuildPortfolios(f factor.Factor, returns, weights common.SectionSequence, cal *data.Calendar, cfg SortConfig) (PortfolioSeries, error) {
	k := cfg.Buckets
	if k < 2 {
		return PortfolioSeries{}, fmt.Errorf("bucket count %d: %w", k, common.ErrInvalidConfig)
	}

	dir := f.Direction()
	ps := PortfolioSeries{Name: f.Name(), Returns: map[string][]float64{}}
	for b := 1; b <= k; b++ {
		ps.Labels = append(ps.Labels, BucketLabel(b, k))
	}
	spreadLabel := SpreadLabel(k, dir)
	ps.Labels = append(ps.Labels, spreadLabel)

	ranking := f.Ranking().SortByDate()
	ws := weights.SortByDate()
	rs := returns.SortByDate()
	rowOf := make(map[int64]int, len(rs.Data))
	for i, sd := range rs.Data {
		rowOf[sd.Time.Unix()] = i
	}

	skipped := 0
	for b := 1; b < cal.Len(); b++ {
		formation := cal.Buckets[b-1].End
		rankSec, ok1 := ranking.RowAsOf(formation)
		wSec, ok2 := ws.RowAsOf(formation)
		if !ok1 || !ok2 {
			continue
		}

		// 排序变量和权重都有效的标的才参与分组
		w := wSec.Map()
		universe := common.SectionData{Time: rankSec.Time}
		for i, e := range rankSec.Entities {
			v := rankSec.Values[i]
			if wv, ok := w[e]; ok && !math.IsNaN(v) && !math.IsNaN(wv) {
				universe.Entities = append(universe.Entities, e)
				universe.Values = append(universe.Values, v)
			}
		}
		if len(universe.Entities) == 0 {
			continue
		}
		assign, err := SortIntoBuckets(universe, k)
		if err != nil {
			return PortfolioSeries{}, err
		}

		for _, d := range cal.Buckets[b].Dates {
			i, ok := rowOf[d.Unix()]
			if !ok {
				continue
			}
			groups, err := AggregateValueWeighted(rs.Data[i], wSec, assign)
			if err != nil {
				// 单组失败只影响该组当天的值
				skipped++
				common.LogError(logPrefix, "%s: %v", f.Name(), err)
			}

			ps.Dates = append(ps.Dates, d)
			for g := 1; g <= k; g++ {
				v, ok := groups[g]
				if !ok {
					v = math.NaN()
				}
				ps.Returns[BucketLabel(g, k)] = append(ps.Returns[BucketLabel(g, k)], v)
			}
			ps.Returns[spreadLabel] = append(ps.Returns[spreadLabel], spread(groups, k, dir))
		}
	}

	common.LogNormal(logPrefix, "%s portfolios: %d days, %d days with undefined groups", f.Name(), len(ps.Dates), skipped)
	return ps, nil
}
