/*
- @Author: aztec
- @Date: 2024-01-18 16:00:09
- @Description: 通用数据定义：日志钩子、截面与截面序列
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package common

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/table"
)

type FnLog func(format string, args ...interface{})

var logNormal FnLog
var logError FnLog

func Init(fnLogNormal, fnLogError FnLog) {
	logNormal = fnLogNormal
	logError = fnLogError
}

func LogNormal(prefix, format string, args ...interface{}) {
	if logNormal != nil {
		logNormal(fmt.Sprintf("[%s] %s", prefix, format), args...)
	}
}

func LogError(prefix, format string, args ...interface{}) {
	if logError != nil {
		logError(fmt.Sprintf("[%s] %s", prefix, format), args...)
	}
}

// 日期格式（ISO）
const DateLayout = time.DateOnly

// 解析ISO日期，统一为UTC零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// 截面数据
// 某一日期各个标的的某一数据
type SectionData struct {
	Time     time.Time // 日期
	Entities []int     // 标的代码
	Values   []float64 // 值。长度与Entities相同。可以代表收益率、市值、因子值等数据
}

func (s SectionData) Valid() bool {
	return len(s.Entities) == len(s.Values)
}

// 返回某个标的的值
func (s SectionData) Value(entity int) (float64, bool) {
	for i, e := range s.Entities {
		if e == entity {
			return s.Values[i], true
		}
	}
	return 0, false
}

// 标的->值
func (s SectionData) Map() map[int]float64 {
	m := make(map[int]float64, len(s.Entities))
	for i, e := range s.Entities {
		m[e] = s.Values[i]
	}
	return m
}

// 剔除NaN值
func (s SectionData) DropNaN() SectionData {
	out := SectionData{Time: s.Time}
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			out.Entities = append(out.Entities, s.Entities[i])
			out.Values = append(out.Values, v)
		}
	}
	return out
}

func (s SectionData) ToTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetAutoIndex(true)
	t.SetTitle(FormatDate(s.Time))
	t.AppendHeader(table.Row{"Entity", "Value"})
	l := len(s.Entities)
	for i := 0; i < l; i++ {
		t.AppendRow(table.Row{s.Entities[i], s.Values[i]})
	}
	return t
}

// 截面序列（宽表：行=日期，列=标的）
// 截面序列中的data，共享相同的Entities，数量和顺序都需要一致。缺失值用NaN表示
type SectionSequence struct {
	Entities []int
	Data     []SectionData
}

// 创建一个全NaN的截面序列
func NewSectionSequence(entities []int, dates []time.Time) SectionSequence {
	seq := SectionSequence{Entities: slices.Clone(entities), Data: make([]SectionData, len(dates))}
	for i, d := range dates {
		values := make([]float64, len(entities))
		for j := range values {
			values[j] = math.NaN()
		}
		seq.Data[i] = SectionData{Time: d, Entities: seq.Entities, Values: values}
	}
	return seq
}

func (s SectionSequence) Valid() bool {
	for _, sd := range s.Data {
		if !sd.Valid() {
			return false
		}

		if slices.Compare(sd.Entities, s.Entities) != 0 {
			return false
		}
	}

	return true
}

func (s SectionSequence) Dates() []time.Time {
	dates := make([]time.Time, len(s.Data))
	for i, sd := range s.Data {
		dates[i] = sd.Time
	}
	return dates
}

// 深拷贝
func (s SectionSequence) Clone() SectionSequence {
	out := SectionSequence{Entities: slices.Clone(s.Entities), Data: make([]SectionData, len(s.Data))}
	for i, sd := range s.Data {
		out.Data[i] = SectionData{Time: sd.Time, Entities: out.Entities, Values: slices.Clone(sd.Values)}
	}
	return out
}

// 按日期升序排列（返回新序列）
func (s SectionSequence) SortByDate() SectionSequence {
	out := s.Clone()
	sort.SliceStable(out.Data, func(i, j int) bool {
		return out.Data[i].Time.Before(out.Data[j].Time)
	})
	return out
}

// 某个日期的截面
func (s SectionSequence) Row(date time.Time) (SectionData, bool) {
	for _, sd := range s.Data {
		if sd.Time.Equal(date) {
			return sd, true
		}
	}
	return SectionData{}, false
}

// 不晚于date的最近一个截面（要求Data按日期升序）
func (s SectionSequence) RowAsOf(date time.Time) (SectionData, bool) {
	i := sort.Search(len(s.Data), func(i int) bool {
		return s.Data[i].Time.After(date)
	})
	if i == 0 {
		return SectionData{}, false
	}
	return s.Data[i-1], true
}

// 某个标的的时间序列
func (s SectionSequence) Column(entity int) ([]float64, bool) {
	j := slices.Index(s.Entities, entity)
	if j < 0 {
		return nil, false
	}
	col := make([]float64, len(s.Data))
	for i, sd := range s.Data {
		col[i] = sd.Values[j]
	}
	return col, true
}

// 仅保留指定的标的
func (s SectionSequence) Select(entities []int) SectionSequence {
	idx := []int{}
	kept := []int{}
	for _, e := range entities {
		if j := slices.Index(s.Entities, e); j >= 0 {
			idx = append(idx, j)
			kept = append(kept, e)
		}
	}

	out := SectionSequence{Entities: kept, Data: make([]SectionData, len(s.Data))}
	for i, sd := range s.Data {
		values := make([]float64, len(idx))
		for k, j := range idx {
			values[k] = sd.Values[j]
		}
		out.Data[i] = SectionData{Time: sd.Time, Entities: out.Entities, Values: values}
	}
	return out
}

// 单行数据太多时，最多显示n列
func (s SectionSequence) ToTable(n int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetAutoIndex(true)

	l := len(s.Entities)
	overlen := l > n
	header := table.Row{"date"}
	for i := 0; i < l && i < n; i++ {
		header = append(header, s.Entities[i])
	}
	if overlen {
		header = append(header, fmt.Sprintf("%d more...", l-n))
	}
	t.AppendHeader(header)

	for _, sd := range s.Data {
		row := table.Row{FormatDate(sd.Time)}
		for i := 0; i < l && i < n; i++ {
			row = append(row, sd.Values[i])
		}
		t.AppendRow(row)
	}

	return t
}
