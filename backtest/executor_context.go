/*
- @Author: aztec
- @Date: 2024-02-01 15:43:48
- @Description: 实现context接口
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import (
	"slices"

	"github.com/aztecqt/aftbench/data"
)

func (e *Executor) GetPeriod() data.Bucket {
	return e.cal.Buckets[e.formation]
}

func (e *Executor) GetMarketValue(entity int) (float64, bool) {
	if v, ok := e.weights[entity]; ok {
		return v, true
	} else {
		return 0, false
	}
}

func (e *Executor) GetLoadings(entity int) ([]float64, bool) {
	if v, ok := e.loadings[entity][e.formation]; ok {
		return slices.Clone(v), true
	} else {
		return nil, false
	}
}
