package reporting

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/gof"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleSummary() *core.Summary {
	pass := &core.CaseResult{
		Name:          "2-1-bb-1.0-C",
		Case:          core.Case{ObjectCount: 2, FeatureCount: 1, FeatureType: features.BetaBernoulli, Density: 1},
		Status:        core.StatusPass,
		Comment:       "goodness of fit = 0.42",
		GoodnessOfFit: 0.42,
		SampleCount:   20,
		UsableCount:   20,
		Distinct:      2,
		Expected:      2,
		Duration:      1234 * time.Millisecond,
	}
	fail := &core.CaseResult{
		Name:          "3-1-bb-1.0-C",
		Case:          core.Case{ObjectCount: 3, FeatureCount: 1, FeatureType: features.BetaBernoulli, Density: 1},
		Status:        core.StatusFail,
		Comment:       "goodness of fit = 1e-09",
		Warnings:      []string{"found only 4 / 5 latents"},
		GoodnessOfFit: 1e-9,
		SampleCount:   50,
		UsableCount:   50,
		Distinct:      4,
		Expected:      5,
		ScratchDir:    "/tmp/oracle-x",
		Table: []gof.Row{
			{Prob: 0.5, Expect: 25, Actual: 40, Chi: 3, Latent: "[[0, 1, 2]]"},
			{Prob: 0.5, Expect: 25, Actual: 10, Chi: -3, Latent: "[[0], [1, 2]]"},
		},
	}
	s := &core.Summary{
		RunID:     "run-1",
		Mode:      core.ModeCats,
		Sampler:   "builtin",
		MaxSize:   100,
		StartedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Duration:  2500 * time.Millisecond,
		Results:   []*core.CaseResult{pass, fail},
	}
	s.Stats.Record(core.StatusPass)
	s.Stats.Record(core.StatusFail)
	return s
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(sampleSummary(), nil)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "cats", report.Mode)
	assert.Equal(t, "2.5s", report.Duration)
	assert.Equal(t, Totals{Cases: 2, Passed: 1, Failed: 1}, report.Totals)
	assert.Equal(t, []string{"3-1-bb-1.0-C"}, report.Failures)
	assert.Empty(t, report.Fatal)

	require.Len(t, report.Cases, 2)
	assert.Equal(t, "Pass", report.Cases[0].Status)
	assert.Equal(t, "1.234s", report.Cases[0].Duration)
	assert.Empty(t, report.Cases[0].Table)
	require.Len(t, report.Cases[1].Table, 2)
	assert.Equal(t, TableRow{Expect: 25, Actual: 40, Chi: 3, Latent: "[[0, 1, 2]]"}, report.Cases[1].Table[0])
}

func TestBuildReportRecordsFatalError(t *testing.T) {
	summary := sampleSummary()
	summary.Results = nil
	report := BuildReport(summary, errors.New("inconsistent score"))
	assert.Equal(t, "inconsistent score", report.Fatal)
	assert.NotNil(t, report.Failures)
	assert.NotNil(t, report.Cases)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "cats.yaml")
	generator := NewGenerator(quietLogger())
	report := BuildReport(sampleSummary(), nil)

	require.NoError(t, generator.Write(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "run_id: run-1")
	assert.Contains(t, text, "mode: cats")
	assert.Contains(t, text, "- 3-1-bb-1.0-C")
	assert.NotContains(t, text, "fatal: ")

	loaded, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestWriteHTMLDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	generator := NewGenerator(quietLogger())
	report := BuildReport(sampleSummary(), errors.New("oracle <defect>"))

	require.NoError(t, generator.Write(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<title>cats run-1")
	assert.Contains(t, html, `<tr class="pass">`)
	assert.Contains(t, html, `<tr class="fail">`)
	assert.Contains(t, html, "2-1-bb-1.0-C")
	assert.Contains(t, html, "found only 4 / 5 latents")
	assert.Contains(t, html, "<summary>2 latents</summary>")
	assert.Contains(t, html, "oracle &lt;defect&gt;")
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	generator := NewGenerator(quietLogger())
	report := BuildReport(sampleSummary(), nil)

	path, err := generator.Archive(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cats", "2026-03-04_05-06-07_cats_run-1.yaml"), path)

	loaded, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
}
