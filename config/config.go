/*
- @Author: aztec
- @Date: 2024-03-20 14:02:37
- @Description: 运行配置。yaml文件打底，AFT_开头的环境变量覆盖
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/aztecqt/aftbench/backtest"
	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/factor"
	"github.com/aztecqt/aftbench/factor/evaluate"
	"github.com/aztecqt/aftbench/factorlib"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "AFT"

type Config struct {
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Signal   SignalConfig   `yaml:"signal" envconfig:"SIGNAL"`
	Factors  FactorsConfig  `yaml:"factors" envconfig:"FACTORS"`
	Backtest BacktestConfig `yaml:"backtest" envconfig:"BACKTEST"`
	Influx   InfluxConfig   `yaml:"influx" envconfig:"INFLUX"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

type DataConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR"`             // parquet目录
	ResultDB string `yaml:"result_db" envconfig:"RESULT_DB"` // sqlite文件
	Since    string `yaml:"since" envconfig:"SINCE"`         // 加载起始日期，空为全部
}

type SignalConfig struct {
	Window  int `yaml:"window" envconfig:"WINDOW"` // 月
	MinObs  int `yaml:"min_obs" envconfig:"MIN_OBS"`
	Workers int `yaml:"workers" envconfig:"WORKERS"`
}

type FactorsConfig struct {
	Buckets int    `yaml:"buckets" envconfig:"BUCKETS"`
	Start   string `yaml:"start" envconfig:"START"` // 检验区间，空为公共区间
	End     string `yaml:"end" envconfig:"END"`
}

type BacktestConfig struct {
	PeriodDays      int     `yaml:"period_days" envconfig:"PERIOD_DAYS"`
	Window          int     `yaml:"window" envconfig:"WINDOW"`
	MinObs          int     `yaml:"min_obs" envconfig:"MIN_OBS"`
	SelectBuckets   int     `yaml:"select_buckets" envconfig:"SELECT_BUCKETS"`
	TransactionCost float64 `yaml:"transaction_cost" envconfig:"TRANSACTION_COST"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS"`
}

type InfluxConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"` // 为空则不写入
	Database string `yaml:"database" envconfig:"DATABASE"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"PRETTY"`
}

func Default() Config {
	sc := factor.SignalConfigDefault()
	ec := backtest.ExecutorConfigDefault()
	return Config{
		Data:    DataConfig{Dir: "data", ResultDB: "aftbench.db"},
		Signal:  SignalConfig{Window: sc.Window, MinObs: sc.MinObs},
		Factors: FactorsConfig{Buckets: evaluate.SortConfigDefault().Buckets},
		Backtest: BacktestConfig{
			PeriodDays:      ec.PeriodDays,
			Window:          ec.Window,
			MinObs:          ec.MinObs,
			SelectBuckets:   ec.SelectBuckets,
			TransactionCost: ec.TransactionCost.InexactFloat64(),
		},
		Influx:  InfluxConfig{Database: "factors"},
		Logging: LoggingConfig{Level: "info", Pretty: true},
	}
}

// path为空时只用默认值和环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if len(path) > 0 {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Signal.Window <= 0 || c.Signal.MinObs <= 0 {
		return fmt.Errorf("signal window %d, min obs %d: %w", c.Signal.Window, c.Signal.MinObs, common.ErrInvalidConfig)
	}
	if c.Factors.Buckets < 2 {
		return fmt.Errorf("factor buckets %d: %w", c.Factors.Buckets, common.ErrInvalidConfig)
	}
	if _, _, err := c.FactorRange(); err != nil {
		return err
	}
	if _, err := c.SinceDate(); err != nil {
		return err
	}
	return c.ExecutorConfig().Validate()
}

func (c Config) SinceDate() (time.Time, error) {
	return parseOptionalDate(c.Data.Since)
}

// 检验区间，未配置的一端为零值
func (c Config) FactorRange() (start, end time.Time, err error) {
	if start, err = parseOptionalDate(c.Factors.Start); err != nil {
		return
	}
	if end, err = parseOptionalDate(c.Factors.End); err != nil {
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err = fmt.Errorf("factor range %s..%s: %w", c.Factors.Start, c.Factors.End, common.ErrInvalidConfig)
	}
	return
}

func (c Config) SignalConfig() factor.SignalConfig {
	return factor.SignalConfig{Window: c.Signal.Window, MinObs: c.Signal.MinObs, Workers: c.Signal.Workers}
}

func (c Config) SortConfig() evaluate.SortConfig {
	return evaluate.SortConfig{Buckets: c.Factors.Buckets}
}

func (c Config) ExecutorConfig() backtest.ExecutorConfig {
	return backtest.ExecutorConfig{
		PeriodDays:      c.Backtest.PeriodDays,
		Window:          c.Backtest.Window,
		MinObs:          c.Backtest.MinObs,
		SelectBuckets:   c.Backtest.SelectBuckets,
		TransactionCost: decimal.NewFromFloat(c.Backtest.TransactionCost),
		Workers:         c.Backtest.Workers,
	}
}

// 调用前需已通过Validate
func (c Config) LaunchConfig(name string) factorlib.LaunchConfig {
	lc := factorlib.LaunchConfig{
		Name:   name,
		Signal: c.SignalConfig(),
		Sort:   c.SortConfig(),
		InfluxCfg: factorlib.InfluxConfig{
			Addr:     c.Influx.Addr,
			Database: c.Influx.Database,
			Username: c.Influx.Username,
			Password: c.Influx.Password,
		},
	}
	lc.Since, _ = c.SinceDate()
	lc.Start, lc.End, _ = c.FactorRange()
	return lc
}

func parseOptionalDate(s string) (time.Time, error) {
	if len(s) == 0 {
		return time.Time{}, nil
	}
	t, err := common.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, common.ErrInvalidConfig)
	}
	return t, nil
}
