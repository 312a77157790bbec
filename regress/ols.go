/*
- @Author: aztec
- @Date: 2024-03-06 11:30:12
- @Description: 普通最小二乘
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package regress

import (
	"fmt"

	"github.com/aztecqt/aftbench/common"
	"gonum.org/v1/gonum/mat"
)

// 奇异值相对最大奇异值低于此阈值即视为秩亏
const rankTolerance = 1e-10

type Fit struct {
	Coef []float64
	NObs int
	R2   float64
}

// X为n*p设计矩阵。样本数少于参数个数、或者X秩亏时返回ErrDegenerateDesign
func OLS(x *mat.Dense, y []float64) (Fit, error) {
	n, p := x.Dims()
	if n != len(y) {
		return Fit{}, fmt.Errorf("design rows %d, response %d: %w", n, len(y), common.ErrInvalidConfig)
	}
	if n < p {
		return Fit{}, fmt.Errorf("%d observations for %d parameters: %w", n, p, common.ErrDegenerateDesign)
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return Fit{}, fmt.Errorf("svd failed: %w", common.ErrDegenerateDesign)
	}
	sv := svd.Values(nil)
	if len(sv) < p || sv[0] == 0 {
		return Fit{}, fmt.Errorf("zero design: %w", common.ErrDegenerateDesign)
	}
	for _, s := range sv {
		if s/sv[0] < rankTolerance {
			return Fit{}, fmt.Errorf("rank deficient design: %w", common.ErrDegenerateDesign)
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	yv := mat.NewVecDense(n, y)
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return Fit{}, fmt.Errorf("%v: %w", err, common.ErrDegenerateDesign)
	}

	fit := Fit{Coef: make([]float64, p), NObs: n}
	for i := 0; i < p; i++ {
		fit.Coef[i] = beta.AtVec(i)
	}

	// R2
	var yhat mat.VecDense
	yhat.MulVec(x, &beta)
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	ssr, sst := 0.0, 0.0
	for i, v := range y {
		e := v - yhat.AtVec(i)
		ssr += e * e
		sst += (v - mean) * (v - mean)
	}
	if sst > 0 {
		fit.R2 = 1 - ssr/sst
	}
	return fit, nil
}
