/*
- @Author: aztec
- @Date: 2024-03-18 11:26:40
- @Description: 长表观测的parquet存储。每个字段一个文件：<dir>/<field>.parquet
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/factor"
	"github.com/parquet-go/parquet-go"
)

// AFT信号的存储字段
const FieldSignal data.Field = "aft_signal"

// 磁盘上的行格式
type ObservationRecord struct {
	Entity int64   `parquet:"entity"`
	Date   string  `parquet:"date"` // ISO日期
	Field  string  `parquet:"field"`
	Value  float64 `parquet:"value"`
}

type PanelStore struct {
	Dir string
}

// dir为空时使用LocalDataPath
func NewPanelStore(dir string) *PanelStore {
	if len(dir) == 0 {
		dir = LocalDataPath
	}
	return &PanelStore{Dir: dir}
}

func (s *PanelStore) path(field data.Field) string {
	return filepath.Join(s.Dir, string(field)+".parquet")
}

func (s *PanelStore) Fields() []data.Field {
	return GetFieldsOfDir(s.Dir)
}

// 写入某个字段的全部观测（覆盖）
func (s *PanelStore) WriteObservations(field data.Field, obs []data.Observation) error {
	records := make([]ObservationRecord, 0, len(obs))
	for _, o := range obs {
		records = append(records, ObservationRecord{
			Entity: int64(o.Entity),
			Date:   common.FormatDate(o.Date),
			Field:  string(field),
			Value:  o.Value,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Entity != records[j].Entity {
			return records[i].Entity < records[j].Entity
		}
		return records[i].Date < records[j].Date
	})

	if err := writeParquetFile(s.path(field), records); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	common.LogNormal(logPrefix, "%s: %d observations written", field, len(records))
	return nil
}

func (s *PanelStore) ReadObservations(field data.Field) ([]data.Observation, error) {
	records, err := readParquetFile[ObservationRecord](s.path(field))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}

	obs := make([]data.Observation, 0, len(records))
	for _, r := range records {
		d, err := common.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s entity %d: %w", field, r.Entity, err)
		}
		obs = append(obs, data.Observation{Entity: int(r.Entity), Date: d, Value: r.Value})
	}
	return obs, nil
}

func (s *PanelStore) WriteSequence(field data.Field, seq common.SectionSequence) error {
	return s.WriteObservations(field, data.Melt(seq))
}

func (s *PanelStore) ReadSequence(field data.Field) (common.SectionSequence, error) {
	obs, err := s.ReadObservations(field)
	if err != nil {
		return common.SectionSequence{}, err
	}
	if t0, t1, ok := GetTimeRangeOfObservations(obs); ok {
		common.LogNormal(logPrefix, "%s: %s ~ %s", field, common.FormatDate(t0), common.FormatDate(t1))
	}
	return data.PivotSparse(obs)
}

// 保存AFT信号，日期为月末交易日
func (s *PanelStore) WriteSignal(sig factor.Signal) error {
	obs := make([]data.Observation, 0, len(sig.Points))
	for _, p := range sig.Points {
		obs = append(obs, data.Observation{Entity: p.Entity, Date: p.End, Value: p.Value})
	}
	return s.WriteObservations(FieldSignal, obs)
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}
