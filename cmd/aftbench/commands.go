/*
- @Author: aztec
- @Date: 2024-03-20 16:40:22
- @Description: 子命令实现
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package main

import (
	"fmt"

	"github.com/aztecqt/aftbench/backtest"
	"github.com/aztecqt/aftbench/data"
	"github.com/aztecqt/aftbench/data/local"
	"github.com/aztecqt/aftbench/factor"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/aztecqt/aftbench/factorlib"
	"github.com/aztecqt/aftbench/factorlib/basicinfo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) loadInputs() (factorlib.Inputs, error) {
	since, _ := a.cfg.SinceDate()
	in, err := factorlib.LoadInputs(basicinfo.NewLocalSource(a.store), since)
	if err != nil {
		return in, err
	}

	if a.opt.top > 0 {
		ids := data.SelectEntitiesByAverage(in.MarketValue, true, a.opt.top)
		in.Returns = in.Returns.Select(ids)
		in.Volatility = in.Volatility.Select(ids)
		in.MarketValue = in.MarketValue.Select(ids)
		in.Valuation = in.Valuation.Select(ids)
		in.Illiquidity = in.Illiquidity.Select(ids)
		log.Info().Int("entities", len(ids)).Msg("universe restricted by market value")
	}
	return in, nil
}

func (a *app) openResults() (*local.ResultStore, error) {
	return local.OpenResultStore(a.cfg.Data.ResultDB)
}

func (a *app) runSignal(cmd *cobra.Command, args []string) error {
	in, err := a.loadInputs()
	if err != nil {
		return err
	}

	panel, _ := data.BuildSignalPanel(in.Returns, in.Volatility)
	sig, err := factor.EstimateAFT(cmd.Context(), panel, factor.AFTFormula(), a.cfg.SignalConfig())
	if err != nil {
		return err
	}
	return a.saveSignal(sig)
}

func (a *app) saveSignal(sig factor.Signal) error {
	if err := a.store.WriteSignal(sig); err != nil {
		return err
	}
	fmt.Println(sig.Sequence().ToTable(a.opt.rows).Render())
	log.Info().Int("points", len(sig.Points)).Int("failures", len(sig.Failures)).Msg("signal saved")
	return nil
}

// 构建因子、打印并保存检验结果，配置了influx时写入组合收益
func (a *app) buildFactors(cmd *cobra.Command, in factorlib.Inputs) (factorlib.FactorSet, error) {
	lc := a.cfg.LaunchConfig(a.opt.runID)
	fl, err := factorlib.NewFactorLib(&lc, nil)
	if err != nil {
		return factorlib.FactorSet{}, err
	}
	defer fl.Close()

	set, err := fl.Build(cmd.Context(), in)
	if err != nil {
		return set, err
	}
	if err := fl.PublishSet(set); err != nil {
		log.Error().Err(err).Msg("publish to influx failed")
	}

	fmt.Println(evaluate.TestTable(set.Tests).Render())
	fmt.Println(factorlib.ICTable(set.IC).Render())

	rs, err := a.openResults()
	if err != nil {
		return set, err
	}
	defer rs.Close()
	return set, rs.SaveTests(cmd.Context(), a.opt.runID, set.Tests)
}

func (a *app) runFactors(cmd *cobra.Command, args []string) error {
	in, err := a.loadInputs()
	if err != nil {
		return err
	}
	_, err = a.buildFactors(cmd, in)
	return err
}

func (a *app) walkForward(cmd *cobra.Command, in factorlib.Inputs, set factorlib.FactorSet) error {
	spreads := set.Spreads()
	res, err := backtest.NewExecutor(a.cfg.ExecutorConfig(), nil).Run(cmd.Context(), backtest.Inputs{
		Returns:     in.Returns,
		MarketValue: in.MarketValue,
		Factors:     spreads,
	})
	if err != nil {
		return err
	}
	fmt.Println(res.Summary.ToTable().Render())

	rs, err := a.openResults()
	if err != nil {
		return err
	}
	defer rs.Close()
	return rs.SaveBacktest(cmd.Context(), a.opt.runID, res)
}

func (a *app) runBacktest(cmd *cobra.Command, args []string) error {
	in, err := a.loadInputs()
	if err != nil {
		return err
	}
	set, err := a.buildFactors(cmd, in)
	if err != nil {
		return err
	}
	return a.walkForward(cmd, in, set)
}

func (a *app) runAll(cmd *cobra.Command, args []string) error {
	in, err := a.loadInputs()
	if err != nil {
		return err
	}
	set, err := a.buildFactors(cmd, in)
	if err != nil {
		return err
	}
	if err := a.saveSignal(set.Signal); err != nil {
		return err
	}
	return a.walkForward(cmd, in, set)
}
