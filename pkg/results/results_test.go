package results

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func summary(runID string, startedAt time.Time, status core.Status) *core.Summary {
	result := &core.CaseResult{
		Name:          "2-1-bb-1.0-C",
		Case:          core.Case{ObjectCount: 2, FeatureCount: 1, FeatureType: features.BetaBernoulli, Density: 1},
		Status:        status,
		Comment:       "goodness of fit = 0.42",
		Warnings:      []string{"found only 1 / 2 latents"},
		GoodnessOfFit: 0.42,
		SampleCount:   20,
		UsableCount:   20,
		Distinct:      1,
		Expected:      2,
		Duration:      1500 * time.Millisecond,
	}
	s := &core.Summary{
		RunID:     runID,
		Mode:      core.ModeCats,
		Sampler:   "builtin",
		MaxSize:   100,
		StartedAt: startedAt,
		Duration:  3 * time.Second,
		Results:   []*core.CaseResult{result},
	}
	s.Stats.Record(status)
	return s
}

func TestOpenAppliesPragmasAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	// Reopening an existing ledger is idempotent.
	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestRecordSummaryAndHistory(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	older := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	require.NoError(t, s.RecordSummary(ctx, summary("run-old", older, core.StatusPass)))
	require.NoError(t, s.RecordSummary(ctx, summary("run-new", newer, core.StatusFail)))
	// Recording a run twice changes nothing.
	require.NoError(t, s.RecordSummary(ctx, summary("run-new", newer, core.StatusFail)))

	history, err := s.CaseHistory(ctx, "2-1-bb-1.0-C")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "run-new", history[0].RunID)
	assert.Equal(t, "Fail", history[0].Status)
	assert.True(t, newer.Equal(history[0].StartedAt))
	assert.Equal(t, "run-old", history[1].RunID)
	assert.Equal(t, "Pass", history[1].Status)

	record := history[1]
	assert.Equal(t, []string{"found only 1 / 2 latents"}, record.Warnings)
	assert.Equal(t, 0.42, record.GoodnessOfFit)
	assert.Equal(t, 20, record.SampleCount)
	assert.Equal(t, uint64(2), record.Expected)
	assert.Equal(t, 1500*time.Millisecond, record.Duration)

	failed, total, err := s.FailureRate(ctx, "2-1-bb-1.0-C")
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, total)
}

func TestCaseHistoryUnknownCase(t *testing.T) {
	s := openStore(t)
	history, err := s.CaseHistory(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)
}

func TestRecordCaseRequiresRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	result := summary("run-x", time.Now(), core.StatusPass).Results[0]
	assert.Error(t, recordCase(ctx, s.db, "run-x", result))

	require.NoError(t, recordRun(ctx, s.db, summary("run-x", time.Now(), core.StatusPass)))
	require.NoError(t, recordCase(ctx, s.db, "run-x", result))
}
