/*
- @Author: aztec
- @Date: 2024-03-19 10:54:29
- @Description: 基础数据源（本地parquet）
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package basicinfo

import (
	"slices"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/data/local"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

type LocalSource struct {
	logPrefix string
	store     *local.PanelStore

	// 标的列表，首次查询时加载
	entities []int
}

func NewLocalSource(store *local.PanelStore) *LocalSource {
	s := &LocalSource{store: store}
	s.logPrefix = "BasicInfoSrc-Local"
	return s
}

func (s *LocalSource) FactorNames() []string {
	names := []string{}
	for _, f := range s.store.Fields() {
		names = append(names, string(f))
	}
	return names
}

// 以收益率字段中出现过的标的为全体标的
func (s *LocalSource) Entities() []int {
	if s.entities == nil {
		obs, err := s.store.ReadObservations(data.FieldReturn)
		if err != nil {
			common.LogError(s.logPrefix, "load entities failed: %s", err.Error())
			return nil
		}
		entities := []int{}
		for _, o := range obs {
			entities = append(entities, o.Entity)
		}
		slices.Sort(entities)
		s.entities = slices.Compact(entities)
	}
	return s.entities
}

func (s *LocalSource) GetDataSince(field string, since time.Time) (*dataframe.DataFrame, bool) {
	seq, err := s.store.ReadSequence(data.Field(field))
	if err != nil {
		common.LogError(s.logPrefix, "read %s failed: %s", field, err.Error())
		return nil, false
	}

	df := data.ToDataFrame(seq, DateColumn)
	if !since.IsZero() {
		// ISO日期的字符串顺序与时间顺序一致
		df = df.Filter(dataframe.F{
			Colname:    DateColumn,
			Comparator: series.GreaterEq,
			Comparando: common.FormatDate(since),
		})
	}
	if df.Err != nil {
		common.LogError(s.logPrefix, "filter %s failed: %s", field, df.Err.Error())
		return nil, false
	}
	return &df, true
}
