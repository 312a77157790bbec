/*
- @Author: aztec
- @Date: 2024-01-19 09:12:40
- @Description: 把组合收益写入influx，以及结果的表格输出
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package factorlib

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/influxdata/influxdb/client/v2"
	"github.com/jedib0t/go-pretty/table"
)

const Measurement = "portfolio_returns"

// client.Client满足此接口
type PointWriter interface {
	Write(bp client.BatchPoints) error
}

// 每个序列每天一个点，tag为因子名，field为各分组收益（NaN不写）
func Publish(w PointWriter, db string, series ...evaluate.PortfolioSeries) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: db, Precision: "s"})
	if err != nil {
		return err
	}

	for _, ps := range series {
		for i, d := range ps.Dates {
			fields := map[string]interface{}{}
			for _, label := range ps.Labels {
				if v := ps.Returns[label][i]; !math.IsNaN(v) {
					fields[label] = v
				}
			}
			if len(fields) == 0 {
				continue
			}

			pt, err := client.NewPoint(Measurement, map[string]string{"factor": ps.Name}, fields, d)
			if err != nil {
				return fmt.Errorf("%s@%s: %w", ps.Name, common.FormatDate(d), err)
			}
			bp.AddPoint(pt)
		}
	}

	if len(bp.Points()) == 0 {
		return nil
	}
	if err := w.Write(bp); err != nil {
		return err
	}
	common.LogNormal(logPrefix, "%d points written to %s", len(bp.Points()), db)
	return nil
}

// 各因子Rank IC的均值及其HAC检验
func ICTable(ic map[string]evaluate.AnalysisResultSeq) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"factor", "months", "mean IC", "t", "p"})
	for _, name := range slices.Sorted(maps.Keys(ic)) {
		values := []float64{}
		for _, v := range ic[name].Values() {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		res, err := evaluate.HACTest(values)
		if err != nil {
			t.AppendRow(table.Row{name, len(values), "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{name, res.N, fmt.Sprintf("%.4f", res.Mean), fmt.Sprintf("%.2f", res.TValue), fmt.Sprintf("%.4f", res.PValue)})
	}
	return t
}
