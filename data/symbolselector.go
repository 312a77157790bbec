/*
- @Author: aztec
- @Date: 2024-01-15 17:58:57
- @Description: 标的选取器。根据某个特征的样本均值，从全体标的中选取一组作为后续处理的目标
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package data

import (
	"math"
	"slices"

	"github.com/aztecqt/aftbench/common"
	"gonum.org/v1/gonum/stat"
)

// 根据特征均值（如平均市值）选取标的。limit<=0表示不限制
func SelectEntitiesByAverage(seq common.SectionSequence, desc bool, limit int) []int {
	logPrefix := "SelectEntitiesByAverage"
	common.LogNormal(logPrefix, "selecting entities, desc=%v, limit=%d", desc, limit)

	type item struct {
		entity int
		avg    float64
	}
	items := []item{}
	for _, e := range seq.Entities {
		col, _ := seq.Column(e)
		valid := []float64{}
		for _, v := range col {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			continue
		}
		items = append(items, item{entity: e, avg: stat.Mean(valid, nil)})
	}

	slices.SortStableFunc(items, func(a, b item) int {
		if a.avg < b.avg {
			return valueIf(desc, 1, -1)
		} else if a.avg > b.avg {
			return valueIf(desc, -1, 1)
		} else {
			return 0
		}
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	entities := make([]int, 0, len(items))
	for _, i := range items {
		entities = append(entities, i.entity)
	}

	common.LogNormal(logPrefix, "%d selected", len(entities))
	return entities
}

func valueIf[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
