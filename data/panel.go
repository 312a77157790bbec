/*
- @Author: aztec
- @Date: 2024-03-04 14:20:31
- @Description: 面板对齐。宽表(日期x标的) -> 滞后、指示变量、长表，按(标的,日期)内连接
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package data

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/aztecqt/aftbench/common"
)

const logPrefix = "data"

// 面板字段
type Field string

const (
	FieldReturn      Field = "ret"     // 日收益率
	FieldLagReturn   Field = "ret_lag" // 滞后一期收益率
	FieldPositive    Field = "d_pos"   // 滞后收益率>0的指示变量
	FieldVolatility  Field = "rv"      // 已实现波动率
	FieldMarketValue Field = "mv"      // 市值
	FieldValuation   Field = "bm"      // 估值比率
	FieldIlliquidity Field = "illiq"   // 非流动性
	FieldBenchmark   Field = "bench"   // 基准收益率（entity固定为0）
)

// 长表中的一个观测
type Observation struct {
	Entity int
	Date   time.Time
	Value  float64
}

type obsKey struct {
	entity int
	date   int64
}

func keyOf(entity int, date time.Time) obsKey {
	return obsKey{entity: entity, date: date.Unix()}
}

// 面板中的一行，Values与Panel.Fields一一对应
type Row struct {
	Entity int
	Date   time.Time
	Values []float64
}

// 面板：内连接之后的长表，行按(标的,日期)升序
type Panel struct {
	Fields []Field
	Rows   []Row
	index  map[Field]int
}

func NewPanel(fields []Field, rows []Row) Panel {
	p := Panel{Fields: slices.Clone(fields), Rows: rows, index: map[Field]int{}}
	for i, f := range p.Fields {
		p.index[f] = i
	}
	sort.SliceStable(p.Rows, func(i, j int) bool {
		if p.Rows[i].Entity != p.Rows[j].Entity {
			return p.Rows[i].Entity < p.Rows[j].Entity
		}
		return p.Rows[i].Date.Before(p.Rows[j].Date)
	})
	return p
}

func (p Panel) FieldIndex(f Field) (int, bool) {
	i, ok := p.index[f]
	return i, ok
}

func (p Panel) Value(r Row, f Field) (float64, bool) {
	if i, ok := p.index[f]; ok {
		return r.Values[i], true
	}
	return 0, false
}

func (p Panel) Entities() []int {
	entities := []int{}
	for _, r := range p.Rows {
		if n := len(entities); n == 0 || entities[n-1] != r.Entity {
			entities = append(entities, r.Entity)
		}
	}
	return entities
}

// 按标的切分。每个标的的行仍按日期升序
func (p Panel) ByEntity() map[int][]Row {
	out := map[int][]Row{}
	for _, r := range p.Rows {
		out[r.Entity] = append(out[r.Entity], r)
	}
	return out
}

// 所有出现过的日期（升序、去重）
func (p Panel) Dates() []time.Time {
	dates := make([]time.Time, 0, len(p.Rows))
	for _, r := range p.Rows {
		dates = append(dates, r.Date)
	}
	return uniqueDates(dates)
}

// 缺失值按0处理（显式简化，而不是让NaN向后传播）
func FillZero(seq common.SectionSequence) common.SectionSequence {
	out := seq.Clone()
	for _, sd := range out.Data {
		for j, v := range sd.Values {
			if math.IsNaN(v) {
				sd.Values[j] = 0
			}
		}
	}
	return out
}

// 滞后一期。先按日期排序，第i个日期的滞后值取自第i-1个日期，与输入的行顺序无关
// 第一个日期没有前值，直接丢弃
func Lag(seq common.SectionSequence) common.SectionSequence {
	sorted := seq.SortByDate()
	out := common.SectionSequence{Entities: sorted.Entities}
	for i := 1; i < len(sorted.Data); i++ {
		out.Data = append(out.Data, common.SectionData{
			Time:     sorted.Data[i].Time,
			Entities: out.Entities,
			Values:   slices.Clone(sorted.Data[i-1].Values),
		})
	}
	return out
}

// 值>0为1，否则为0
func PositiveIndicator(seq common.SectionSequence) common.SectionSequence {
	out := seq.Clone()
	for _, sd := range out.Data {
		for j, v := range sd.Values {
			if v > 0 {
				sd.Values[j] = 1
			} else {
				sd.Values[j] = 0
			}
		}
	}
	return out
}

// 宽表转长表。NaN视为缺失，不输出
func Melt(seq common.SectionSequence) []Observation {
	obs := make([]Observation, 0, len(seq.Data)*len(seq.Entities))
	for _, sd := range seq.Data {
		for j, e := range seq.Entities {
			if v := sd.Values[j]; !math.IsNaN(v) {
				obs = append(obs, Observation{Entity: e, Date: sd.Time, Value: v})
			}
		}
	}
	return obs
}

// 长表转宽表。没有观测的格子补0；同一(标的,日期)出现两次视为错误
func Pivot(obs []Observation) (common.SectionSequence, error) {
	seq, err := PivotSparse(obs)
	if err != nil {
		return seq, err
	}
	return FillZero(seq), nil
}

// 同Pivot，但没有观测的格子保持NaN（市值、估值等不能补0的字段）
func PivotSparse(obs []Observation) (common.SectionSequence, error) {
	entitySet := map[int]bool{}
	dates := make([]time.Time, 0, len(obs))
	seen := make(map[obsKey]bool, len(obs))
	for _, o := range obs {
		k := keyOf(o.Entity, o.Date)
		if seen[k] {
			return common.SectionSequence{}, fmt.Errorf("duplicate observation entity=%d date=%s", o.Entity, common.FormatDate(o.Date))
		}
		seen[k] = true
		entitySet[o.Entity] = true
		dates = append(dates, o.Date)
	}

	entities := make([]int, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	slices.Sort(entities)
	dates = uniqueDates(dates)

	seq := common.NewSectionSequence(entities, dates)
	col := make(map[int]int, len(entities))
	for j, e := range entities {
		col[e] = j
	}
	row := make(map[int64]int, len(dates))
	for i, d := range dates {
		row[d.Unix()] = i
	}

	for _, o := range obs {
		seq.Data[row[o.Date.Unix()]].Values[col[o.Entity]] = o.Value
	}
	return seq, nil
}

// 连接统计
type JoinStats struct {
	Kept    int           // 保留的行
	Dropped map[Field]int // 因缺少该字段而被剔除的键数量
}

// 按(标的,日期)内连接。只有在所有字段中都存在的键才会形成一行
func Join(series map[Field][]Observation, fields ...Field) (Panel, JoinStats) {
	stats := JoinStats{Dropped: map[Field]int{}}
	if len(fields) == 0 {
		return NewPanel(nil, nil), stats
	}

	lookup := make([]map[obsKey]float64, len(fields))
	all := map[obsKey]Observation{}
	for i, f := range fields {
		lookup[i] = make(map[obsKey]float64, len(series[f]))
		for _, o := range series[f] {
			k := keyOf(o.Entity, o.Date)
			lookup[i][k] = o.Value
			all[k] = o
		}
	}

	rows := make([]Row, 0, len(all))
	for k, o := range all {
		values := make([]float64, len(fields))
		complete := true
		for i, f := range fields {
			v, ok := lookup[i][k]
			if !ok {
				stats.Dropped[f]++
				complete = false
				continue
			}
			values[i] = v
		}
		if complete {
			rows = append(rows, Row{Entity: o.Entity, Date: o.Date, Values: values})
		}
	}

	stats.Kept = len(rows)
	for f, n := range stats.Dropped {
		common.LogNormal(logPrefix, "join: %d keys dropped, field %s: %v", n, f, common.ErrMissingJoinKey)
	}
	return NewPanel(fields, rows), stats
}

// 构建信号估计用的面板：ret, ret_lag, d_pos, rv
func BuildSignalPanel(returns, volatility common.SectionSequence) (Panel, JoinStats) {
	ret := FillZero(returns)
	lag := Lag(ret)
	pos := PositiveIndicator(lag)
	rv := FillZero(volatility)

	return Join(map[Field][]Observation{
		FieldReturn:     Melt(ret),
		FieldLagReturn:  Melt(lag),
		FieldPositive:   Melt(pos),
		FieldVolatility: Melt(rv),
	}, FieldReturn, FieldLagReturn, FieldPositive, FieldVolatility)
}

func uniqueDates(dates []time.Time) []time.Time {
	seen := make(map[int64]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !seen[d.Unix()] {
			seen[d.Unix()] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
