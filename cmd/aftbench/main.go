/*
- @Author: aztec
- @Date: 2024-03-20 16:18:05
- @Description: 命令行入口
- @signal: 估计AFT信号并写入本地  factors: 构建因子并检验  backtest: 滚动前推回测  run: 全部
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/config"
	"github.com/aztecqt/aftbench/data/local"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dataDir    string
	top        int
	runID      string
	rows       int
}

// 所有子命令共享
type app struct {
	opt   options
	cfg   config.Config
	store *local.PanelStore
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "aftbench",
		Short:         "AFT signal estimation, factor testing and walk-forward backtest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Name())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opt.configPath, "config", "", "yaml config file")
	pf.StringVar(&a.opt.dataDir, "data", "", "parquet data directory (overrides config)")
	pf.IntVar(&a.opt.top, "top", 0, "keep only the N entities with the largest average market value (0 = all)")
	pf.StringVar(&a.opt.runID, "run-id", "", "id under which results are saved (default: command name and time)")
	pf.IntVar(&a.opt.rows, "rows", 12, "rows to print for wide tables")

	root.AddCommand(
		&cobra.Command{Use: "signal", Short: "estimate the monthly AFT signal and store it", RunE: a.runSignal},
		&cobra.Command{Use: "factors", Short: "build factor portfolios and run HAC tests", RunE: a.runFactors},
		&cobra.Command{Use: "backtest", Short: "walk-forward backtest on factor spreads", RunE: a.runBacktest},
		&cobra.Command{Use: "run", Short: "signal, factors and backtest in one pass", RunE: a.runAll},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("aftbench failed")
		os.Exit(1)
	}
}

func (a *app) init(cmdName string) error {
	cfg, err := config.Load(a.opt.configPath)
	if err != nil {
		return err
	}
	if len(a.opt.dataDir) > 0 {
		cfg.Data.Dir = a.opt.dataDir
	}
	a.cfg = cfg

	initLogger(cfg.Logging)
	local.Init(cfg.Data.Dir)
	a.store = local.NewPanelStore("")

	if len(a.opt.runID) == 0 {
		a.opt.runID = fmt.Sprintf("%s-%s", cmdName, time.Now().Format("20060102-150405"))
	}
	log.Info().Str("data", cfg.Data.Dir).Str("run", a.opt.runID).Int("top", a.opt.top).Msg("aftbench started")
	return nil
}

// 把各包的日志钩子接到zerolog上
func initLogger(lc config.LoggingConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lc.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	}
	if lvl, err := zerolog.ParseLevel(lc.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	common.Init(
		func(format string, args ...interface{}) { log.Info().Msgf(format, args...) },
		func(format string, args ...interface{}) { log.Error().Msgf(format, args...) })
}
