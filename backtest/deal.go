/*
- @Author: aztec
- @Date: 2024-01-31 17:54:50
- @Description: 持仓记录与周期结果
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package backtest

import "time"

// 某周期持有的一个标的
type Holding struct {
	Period         int       // 持有周期
	End            time.Time // 持有周期的结束日期
	Entity         int
	Predicted      float64 // 预测收益
	Realized       float64 // 实现收益
	Weight         float64 // 形成期市值
	TrainedThrough int     // 预测系数训练数据的最后一个周期，一定小于Period
}

// 一个调仓周期的结果
type PeriodResult struct {
	Period     int
	Start      time.Time
	End        time.Time
	Return     float64 // 扣除交易成本后的收益，空仓时为0
	Cumulative float64 // 复利累计收益
	Holdings   int
	Err        error // 空仓原因
}
