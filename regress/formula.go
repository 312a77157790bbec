/*
- @Author: aztec
- @Date: 2024-03-06 10:05:44
- @Description: 回归式定义。响应字段 + 回归项列表，回归项是一个或多个字段的乘积（交互项），计算时现乘
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package regress

import (
	"fmt"
	"strings"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/data"
	"gonum.org/v1/gonum/mat"
)

// 截距项的名字
const InterceptName = "const"

// 回归项。只有一个字段时为原始变量，多个字段时为交互项
type Term struct {
	Fields []data.Field
}

func Raw(f data.Field) Term {
	return Term{Fields: []data.Field{f}}
}

func Interact(fs ...data.Field) Term {
	return Term{Fields: fs}
}

func (t Term) Name() string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ":")
}

type Formula struct {
	Response  data.Field
	Intercept bool
	Terms     []Term
}

// 系数名称，与Estimate.Coef一一对应
func (f Formula) Names() []string {
	names := []string{}
	if f.Intercept {
		names = append(names, InterceptName)
	}
	for _, t := range f.Terms {
		names = append(names, t.Name())
	}
	return names
}

func (f Formula) String() string {
	return fmt.Sprintf("%s ~ %s", f.Response, strings.Join(f.Names(), " + "))
}

// 字段解析为面板列索引之后的回归式
type compiled struct {
	response  int
	intercept bool
	terms     [][]int
}

func (f Formula) compile(p data.Panel) (compiled, error) {
	c := compiled{intercept: f.Intercept}
	if len(f.Terms) == 0 && !f.Intercept {
		return c, fmt.Errorf("formula without regressors: %w", common.ErrInvalidConfig)
	}

	i, ok := p.FieldIndex(f.Response)
	if !ok {
		return c, fmt.Errorf("response field %s not in panel: %w", f.Response, common.ErrInvalidConfig)
	}
	c.response = i

	for _, t := range f.Terms {
		if len(t.Fields) == 0 {
			return c, fmt.Errorf("empty term: %w", common.ErrInvalidConfig)
		}
		cols := make([]int, len(t.Fields))
		for k, fd := range t.Fields {
			j, ok := p.FieldIndex(fd)
			if !ok {
				return c, fmt.Errorf("field %s not in panel: %w", fd, common.ErrInvalidConfig)
			}
			cols[k] = j
		}
		c.terms = append(c.terms, cols)
	}
	return c, nil
}

func (c compiled) width() int {
	if c.intercept {
		return len(c.terms) + 1
	}
	return len(c.terms)
}

// 由若干行构建设计矩阵和响应向量
func (c compiled) design(rows []data.Row) (*mat.Dense, []float64) {
	n, p := len(rows), c.width()
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i, r := range rows {
		y[i] = r.Values[c.response]
		j := 0
		if c.intercept {
			x.Set(i, j, 1)
			j++
		}
		for _, cols := range c.terms {
			v := 1.0
			for _, col := range cols {
				v *= r.Values[col]
			}
			x.Set(i, j, v)
			j++
		}
	}
	return x, y
}
