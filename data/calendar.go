/*
- @Author: aztec
- @Date: 2024-03-05 09:41:02
- @Description: 时间分桶。自然月，或者固定N个交易日的调仓周期
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package data

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aztecqt/aftbench/common"
)

// 一个时间桶。桶与桶之间连续、不重叠，按日期升序
type Bucket struct {
	Index int
	Label string
	Start time.Time
	End   time.Time
	Dates []time.Time
}

type Calendar struct {
	Buckets []Bucket
	byDate  map[int64]int
}

func newCalendar(buckets []Bucket) *Calendar {
	c := &Calendar{Buckets: buckets, byDate: map[int64]int{}}
	for i := range c.Buckets {
		c.Buckets[i].Index = i
		for _, d := range c.Buckets[i].Dates {
			c.byDate[d.Unix()] = i
		}
	}
	return c
}

// 按自然月分桶
func NewMonthlyCalendar(dates []time.Time) *Calendar {
	buckets := []Bucket{}
	for _, d := range uniqueDates(dates) {
		label := d.Format("2006-01")
		if n := len(buckets); n > 0 && buckets[n-1].Label == label {
			buckets[n-1].End = d
			buckets[n-1].Dates = append(buckets[n-1].Dates, d)
			continue
		}
		buckets = append(buckets, Bucket{Label: label, Start: d, End: d, Dates: []time.Time{d}})
	}
	return newCalendar(buckets)
}

// 每n个连续交易日为一个调仓周期，最后一个周期可以不足n天
func NewPeriodCalendar(dates []time.Time, n int) (*Calendar, error) {
	if n <= 0 {
		return nil, fmt.Errorf("period length %d: %w", n, common.ErrInvalidConfig)
	}

	buckets := []Bucket{}
	for i, d := range uniqueDates(dates) {
		if i%n == 0 {
			buckets = append(buckets, Bucket{Label: strconv.Itoa(len(buckets)), Start: d})
		}
		b := &buckets[len(buckets)-1]
		b.End = d
		b.Dates = append(b.Dates, d)
	}
	return newCalendar(buckets), nil
}

func (c *Calendar) Len() int {
	return len(c.Buckets)
}

// 日期所在的桶
func (c *Calendar) BucketOf(d time.Time) (int, bool) {
	i, ok := c.byDate[d.Unix()]
	return i, ok
}

// 各桶的结束日期
func (c *Calendar) Ends() []time.Time {
	ends := make([]time.Time, len(c.Buckets))
	for i, b := range c.Buckets {
		ends[i] = b.End
	}
	return ends
}

// 复利累计，NaN跳过。全部缺失时为NaN
func CompoundValues(values []float64) float64 {
	acc, n := 1.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			acc *= 1 + v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return acc - 1
}

// 日收益率按桶复利，行=桶，日期为桶的结束日期
func Compound(daily common.SectionSequence, cal *Calendar) common.SectionSequence {
	rows := make(map[int64]int, len(daily.Data))
	for i, sd := range daily.Data {
		rows[sd.Time.Unix()] = i
	}

	out := common.NewSectionSequence(daily.Entities, cal.Ends())
	buf := []float64{}
	for b, bucket := range cal.Buckets {
		for j := range daily.Entities {
			buf = buf[:0]
			for _, d := range bucket.Dates {
				if i, ok := rows[d.Unix()]; ok {
					buf = append(buf, daily.Data[i].Values[j])
				}
			}
			out.Data[b].Values[j] = CompoundValues(buf)
		}
	}
	return out
}
