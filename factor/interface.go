/*
- @Author: aztec
- @Date: 2024-01-17 11:53:54
- @Description: 因子的定义
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factor

import "github.com/aztecqt/aftbench/common"

// 多空组合方向
type Direction int

const (
	LowMinusHigh Direction = iota // 做多低分组，做空高分组
	HighMinusLow
)

func (d Direction) String() string {
	if d == HighMinusLow {
		return "high-minus-low"
	}
	return "low-minus-high"
}

const (
	NameSize      = "size"
	NameLiquidity = "liquidity"
	NameValue     = "value"
	NameAFT       = "aft"
)

// 各因子的多空方向，在这里统一定义，调用方不逐次指定
// 规模、流动性（非流动性指标）、价值、AFT均为低减高
var Directions = map[string]Direction{
	NameSize:      LowMinusHigh,
	NameLiquidity: LowMinusHigh,
	NameValue:     LowMinusHigh,
	NameAFT:       LowMinusHigh,
}

// 因子：提供一个按日期排列的排序变量，以及多空方向
type Factor interface {
	Name() string
	Ranking() common.SectionSequence
	Direction() Direction
}

// 由某个特征（市值、估值、非流动性、AFT信号）直接排序的因子
type Characteristic struct {
	name      string
	ranking   common.SectionSequence
	direction Direction
}

// 方向取自Directions，未登记的名字按低减高处理
func NewCharacteristic(name string, ranking common.SectionSequence) *Characteristic {
	return &Characteristic{name: name, ranking: ranking.SortByDate(), direction: Directions[name]}
}

func (c *Characteristic) Name() string {
	return c.name
}

func (c *Characteristic) Ranking() common.SectionSequence {
	return c.ranking
}

func (c *Characteristic) Direction() Direction {
	return c.direction
}
