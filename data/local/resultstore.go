/*
- @Author: aztec
- @Date: 2024-03-18 15:47:12
- @Description: 检验结果和回测结果的sqlite存储
- @
- @Copyright (c) 2024 by aztec, All Rights Reserved.
*/
package local

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aztecqt/aftbench/backtest"
	"github.com/aztecqt/aftbench/common"
	"github.com/aztecqt/aftbench/factor/evaluate"

	_ "modernc.org/sqlite"
)

var schema = []string{`CREATE TABLE IF NOT EXISTS hac_tests (
	run_id    TEXT NOT NULL,
	factor    TEXT NOT NULL,
	bucket    TEXT NOT NULL,
	n         INTEGER NOT NULL,
	lag       INTEGER NOT NULL,
	mean      REAL NOT NULL,
	std_error REAL NOT NULL,
	t_value   REAL NOT NULL,
	p_value   REAL NOT NULL,
	PRIMARY KEY (run_id, factor, bucket)
)`,
	`CREATE TABLE IF NOT EXISTS backtest_summary (
	run_id                    TEXT PRIMARY KEY,
	cumulative_return         REAL NOT NULL,
	sharpe_ratio              REAL NOT NULL,
	max_drawdown              REAL NOT NULL,
	conventional_max_drawdown REAL NOT NULL,
	periods                   INTEGER NOT NULL,
	active_periods            INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS holdings (
	run_id          TEXT NOT NULL,
	period          INTEGER NOT NULL,
	end_date        TEXT NOT NULL,
	entity          INTEGER NOT NULL,
	predicted       REAL NOT NULL,
	realized        REAL NOT NULL,
	weight          REAL NOT NULL,
	trained_through INTEGER NOT NULL,
	PRIMARY KEY (run_id, period, entity)
)`,
}

type ResultStore struct {
	db *sql.DB
}

// 打开（或创建）数据库并建表
func OpenResultStore(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}
	return &ResultStore{db: db}, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) SaveTests(ctx context.Context, runID string, rows []evaluate.TestRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO hac_tests
		(run_id, factor, bucket, n, lag, mean, std_error, t_value, p_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, r.Factor, r.Bucket, r.N, r.Lag, r.Mean, r.StdErr, r.TValue, r.PValue); err != nil {
			return fmt.Errorf("saving test %s/%s: %w", r.Factor, r.Bucket, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	common.LogNormal(logPrefix, "run %s: %d test rows saved", runID, len(rows))
	return nil
}

func (s *ResultStore) ListTests(ctx context.Context, runID string) ([]evaluate.TestRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT factor, bucket, n, lag, mean, std_error, t_value, p_value
		FROM hac_tests WHERE run_id = ? ORDER BY factor, bucket`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []evaluate.TestRow{}
	for rows.Next() {
		r := evaluate.TestRow{}
		if err := rows.Scan(&r.Factor, &r.Bucket, &r.N, &r.Lag, &r.Mean, &r.StdErr, &r.TValue, &r.PValue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// 保存回测汇总和全部持仓
func (s *ResultStore) SaveBacktest(ctx context.Context, runID string, res backtest.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sm := res.Summary
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO backtest_summary
		(run_id, cumulative_return, sharpe_ratio, max_drawdown, conventional_max_drawdown, periods, active_periods)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, sm.CumulativeReturn, sm.SharpeRatio, sm.MaxDrawdown, sm.ConventionalMaxDrawdown, sm.Periods, sm.ActivePeriods); err != nil {
		return fmt.Errorf("saving summary: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO holdings
		(run_id, period, end_date, entity, predicted, realized, weight, trained_through)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range res.Holdings {
		if _, err := stmt.ExecContext(ctx, runID, h.Period, common.FormatDate(h.End), h.Entity, h.Predicted, h.Realized, h.Weight, h.TrainedThrough); err != nil {
			return fmt.Errorf("saving holding %d@%d: %w", h.Entity, h.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	common.LogNormal(logPrefix, "run %s: backtest summary and %d holdings saved", runID, len(res.Holdings))
	return nil
}

func (s *ResultStore) LoadSummary(ctx context.Context, runID string) (backtest.Summary, error) {
	sm := backtest.Summary{}
	err := s.db.QueryRowContext(ctx, `SELECT cumulative_return, sharpe_ratio, max_drawdown, conventional_max_drawdown, periods, active_periods
		FROM backtest_summary WHERE run_id = ?`, runID).
		Scan(&sm.CumulativeReturn, &sm.SharpeRatio, &sm.MaxDrawdown, &sm.ConventionalMaxDrawdown, &sm.Periods, &sm.ActivePeriods)
	return sm, err
}

func (s *ResultStore) ListHoldings(ctx context.Context, runID string) ([]backtest.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT period, end_date, entity, predicted, realized, weight, trained_through
		FROM holdings WHERE run_id = ? ORDER BY period, entity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []backtest.Holding{}
	for rows.Next() {
		h := backtest.Holding{}
		var end string
		if err := rows.Scan(&h.Period, &end, &h.Entity, &h.Predicted, &h.Realized, &h.Weight, &h.TrainedThrough); err != nil {
			return nil, err
		}
		if h.End, err = common.ParseDate(end); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
