/*
- @Author: aztec
- @Date: 2024-03-05 11:02:17
- @Description: 截面序列与gota DataFrame互转。列名为标的代码，另有一列日期
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package data

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func ToDataFrame(seq common.SectionSequence, dateCol string) dataframe.DataFrame {
	dates := make([]string, len(seq.Data))
	for i, sd := range seq.Data {
		dates[i] = common.FormatDate(sd.Time)
	}

	cols := []series.Series{series.New(dates, series.String, dateCol)}
	for _, e := range seq.Entities {
		col, _ := seq.Column(e)
		cols = append(cols, series.New(col, series.Float, strconv.Itoa(e)))
	}
	return dataframe.New(cols...)
}

func FromDataFrame(df dataframe.DataFrame, dateCol string) (common.SectionSequence, error) {
	if df.Err != nil {
		return common.SectionSequence{}, df.Err
	}

	dateSeries := df.Col(dateCol)
	if dateSeries.Err != nil {
		return common.SectionSequence{}, fmt.Errorf("date column %q: %w", dateCol, dateSeries.Err)
	}

	dates := make([]time.Time, 0, df.Nrow())
	for _, s := range dateSeries.Records() {
		d, err := common.ParseDate(s)
		if err != nil {
			return common.SectionSequence{}, err
		}
		dates = append(dates, d)
	}

	entities := []int{}
	cols := [][]float64{}
	for _, name := range df.Names() {
		if name == dateCol {
			continue
		}
		e, err := strconv.Atoi(name)
		if err != nil {
			return common.SectionSequence{}, fmt.Errorf("column %q is not an entity id: %w", name, err)
		}
		entities = append(entities, e)
		cols = append(cols, df.Col(name).Float())
	}

	seq := common.NewSectionSequence(entities, dates)
	for i := range seq.Data {
		for j := range entities {
			seq.Data[i].Values[j] = cols[j][i]
		}
	}
	return seq.SortByDate(), nil
}
