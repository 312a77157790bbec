/*
- @Author: aztec
- @Date: 2024-03-04 10:12:40
- @Description: 错误分类。逐单元（窗口、周期、分组）的错误只影响该单元，配置类错误才终止整个运行
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package common

import "errors"

var (
	// 窗口内观测数不足
	ErrInsufficientHistory = errors.New("insufficient history")

	// 设计矩阵秩亏（如窗口内指示变量为常数）
	ErrDegenerateDesign = errors.New("degenerate design")

	// 某个(标的,日期)在另一个输入中不存在
	ErrMissingJoinKey = errors.New("missing join key")

	// 市值加权时分组总权重为0
	ErrZeroWeightGroup = errors.New("zero weight group")

	// 某期没有可选标的
	ErrEmptySelection = errors.New("empty selection universe")

	// 配置错误，整个运行失败
	ErrInvalidConfig = errors.New("invalid config")

	// 参与比较的序列样本区间不一致
	ErrSampleMismatch = errors.New("sample range mismatch")
)

// 是否为只影响单个单元的错误
func IsLocal(err error) bool {
	return errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrDegenerateDesign) ||
		errors.Is(err, ErrMissingJoinKey) ||
		errors.Is(err, ErrZeroWeightGroup) ||
		errors.Is(err, ErrEmptySelection)
}
