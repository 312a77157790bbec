/*
- @Author: aztec
- @Date: 2024-01-18 10:39:03
- @Description: 基础信息源。能提供收益率、波动率、市值、估值、非流动性、基准收益等基础字段
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package basicinfo

import (
	"time"

	"github.com/aztecqt/aftbench/data/local"
	"github.com/go-gota/gota/dataframe"
)

// 日期列的列名，其余列名为标的代码
const DateColumn = "date"

type Source interface {
	// 支持的字段名。一般为ret/rv/mv/bm/illiq/bench
	FactorNames() []string

	// 支持的标的列表
	Entities() []int

	// 返回某字段自某日期以来的所有数据
	// dataFrame中的行为日期，列为标的
	GetDataSince(field string, since time.Time) (*dataframe.DataFrame, bool)
}

type SourceName string

const (
	SourceName_Local SourceName = "local"
)

// 不支持的数据源返回nil
func NewSource(name SourceName, dir string) Source {
	switch name {
	case SourceName_Local:
		return NewLocalSource(local.NewPanelStore(dir))
	default:
		return nil
	}
}
