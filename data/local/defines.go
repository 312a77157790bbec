/*
- @Author: aztec
- @Date: 2024-01-16 15:02:27
- @Description: 本地数据目录
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package local

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
)

const logPrefix = "local"

var LocalDataPath = ""

func Init(localDataPath string) {
	LocalDataPath = localDataPath
}

// 获取一个目录下所有以字段名命名的parquet文件
func GetFieldsOfDir(dir string) []data.Field {
	fields := []data.Field{}
	if des, err := os.ReadDir(dir); err == nil {
		for _, de := range des {
			if !de.IsDir() && filepath.Ext(de.Name()) == ".parquet" {
				fields = append(fields, data.Field(strings.TrimSuffix(de.Name(), ".parquet")))
			}
		}
	}
	slices.Sort(fields)
	return fields
}

// 观测的日期范围
func GetTimeRangeOfObservations(obs []data.Observation) (t0, t1 time.Time, ok bool) {
	for i, o := range obs {
		if i == 0 || o.Date.Before(t0) {
			t0 = o.Date
		}
		if i == 0 || o.Date.After(t1) {
			t1 = o.Date
		}
	}
	ok = len(obs) > 0
	if ok {
		common.LogNormal(logPrefix, "%d observations, %s ~ %s", len(obs), common.FormatDate(t0), common.FormatDate(t1))
	}
	return
}
