/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ledger.go
Description: Writing and reading suite runs and case verdicts.
*/

package results

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-oracle/pkg/core"
)

// CaseRecord is one stored case verdict
type CaseRecord struct {
	RunID         string
	Name          string
	Target        string
	Status        string
	Comment       string
	Warnings      []string
	GoodnessOfFit float64
	SampleCount   int
	UsableCount   int
	Distinct      int
	Expected      uint64
	Duration      time.Duration
	StartedAt     time.Time
}

// RecordSummary stores a run and all of its case results in one transaction.
// Recording the same run twice is a no-op.
func (s *Store) RecordSummary(ctx context.Context, summary *core.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	defer tx.Rollback()

	if err := recordRun(ctx, tx, summary); err != nil {
		return err
	}
	for _, result := range summary.Results {
		if err := recordCase(ctx, tx, summary.RunID, result); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func recordRun(ctx context.Context, db execer, summary *core.Summary) error {
	stats := summary.Stats
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(id, mode, sampler, max_size, started_at, duration_ms, passed, warned, failed, skipped, fatal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		summary.RunID,
		string(summary.Mode),
		summary.Sampler,
		int64(summary.MaxSize),
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.Duration.Milliseconds(),
		stats.Passed,
		stats.Warned,
		stats.Failed,
		stats.Skipped,
		stats.Fatal,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func recordCase(ctx context.Context, db execer, runID string, result *core.CaseResult) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO case_results
		(id, run_id, name, target, status, comment, warnings, goodness_of_fit,
		 sample_count, usable_count, distinct_latents, expected_latents, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, name) DO NOTHING
	`,
		uuid.NewString(),
		runID,
		result.Name,
		result.Target,
		result.Status.String(),
		result.Comment,
		strings.Join(result.Warnings, "\n"),
		result.GoodnessOfFit,
		result.SampleCount,
		result.UsableCount,
		result.Distinct,
		int64(result.Expected),
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record case %s: %w", result.Name, err)
	}
	return nil
}

// CaseHistory returns every stored verdict of a case, newest run first.
func (s *Store) CaseHistory(ctx context.Context, name string) ([]CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.run_id, c.name, c.target, c.status, c.comment, c.warnings, c.goodness_of_fit,
		       c.sample_count, c.usable_count, c.distinct_latents, c.expected_latents,
		       c.duration_ms, r.started_at
		FROM case_results c
		JOIN runs r ON r.id = c.run_id
		WHERE c.name = ?
		ORDER BY r.started_at DESC, c.run_id COLLATE BINARY ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query case history: %w", err)
	}
	defer rows.Close()

	records := []CaseRecord{}
	for rows.Next() {
		var (
			record     CaseRecord
			warnings   string
			expected   int64
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(
			&record.RunID, &record.Name, &record.Target, &record.Status, &record.Comment,
			&warnings, &record.GoodnessOfFit, &record.SampleCount, &record.UsableCount,
			&record.Distinct, &expected, &durationMS, &startedAt,
		); err != nil {
			return nil, fmt.Errorf("scan case history: %w", err)
		}
		if warnings != "" {
			record.Warnings = strings.Split(warnings, "\n")
		}
		record.Expected = uint64(expected)
		record.Duration = time.Duration(durationMS) * time.Millisecond
		if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case history: %w", err)
	}
	return records, nil
}

// FailureRate returns the number of failed verdicts and the number of verdicts of a case.
func (s *Store) FailureRate(ctx context.Context, name string) (failed, total int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN status = 'Fail' THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM case_results
		WHERE name = ?
	`, name).Scan(&failed, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("query failure rate: %w", err)
	}
	return failed, total, nil
}
