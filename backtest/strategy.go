/*
- @Author: aztec
- @Date: 2024-02-01 11:08:06
- @Description: 选股策略接口
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import (
	"fmt"
	"math"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor/evaluate"
)

// 策略
// 策略运行在一个上下文（context）环境中，context提供形成期的市值、因子载荷等数据
// 每个调仓周期，执行器给出各标的的预测收益，策略据此给出持仓标的
type Selector interface {
	// 基本信息
	Class() string

	// 返回持仓标的。没有可选标的时返回ErrEmptySelection
	Select(predicted common.SectionData, c Context) ([]int, error)
}

// 策略上下文
type Context interface {
	// 形成期，即预测所用信息的截止周期
	GetPeriod() data.Bucket
	GetMarketValue(entity int) (float64, bool)
	GetLoadings(entity int) ([]float64, bool)
}

// 按预测收益分组，只持有最高的一组
type TopBucket struct {
	Buckets int
}

func NewTopBucket(buckets int) *TopBucket {
	return &TopBucket{Buckets: buckets}
}

func (s *TopBucket) Class() string {
	return fmt.Sprintf("top-bucket-%d", s.Buckets)
}

func (s *TopBucket) Select(predicted common.SectionData, c Context) ([]int, error) {
	// 没有市值的标的无法加权，不参与分组
	universe := common.SectionData{Time: predicted.Time}
	for i, e := range predicted.Entities {
		if w, ok := c.GetMarketValue(e); ok && !math.IsNaN(w) && !math.IsNaN(predicted.Values[i]) {
			universe.Entities = append(universe.Entities, e)
			universe.Values = append(universe.Values, predicted.Values[i])
		}
	}

	assign, err := evaluate.SortIntoBuckets(universe, s.Buckets)
	if err != nil {
		return nil, err
	}

	held := []int{}
	for _, e := range universe.Entities {
		if assign[e] == s.Buckets {
			held = append(held, e)
		}
	}
	if len(held) == 0 {
		return nil, fmt.Errorf("period %s, %d candidates: %w", c.GetPeriod().Label, len(universe.Entities), common.ErrEmptySelection)
	}
	return held, nil
}
