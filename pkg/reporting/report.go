/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Run summary export. Flattens a suite summary into a report document and
writes it as YAML or as a static HTML dashboard, chosen by the file extension.
*/

package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/core"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Report is the exported form of a suite run
type Report struct {
	RunID     string       `yaml:"run_id"`
	Mode      string       `yaml:"mode"`
	Sampler   string       `yaml:"sampler"`
	MaxSize   uint64       `yaml:"max_size"`
	StartedAt time.Time    `yaml:"started_at"`
	Duration  string       `yaml:"duration"`
	Totals    Totals       `yaml:"totals"`
	Fatal     string       `yaml:"fatal,omitempty"`
	Failures  []string     `yaml:"failures"`
	Cases     []CaseReport `yaml:"cases"`
}

// Totals counts case outcomes
type Totals struct {
	Cases   int   `yaml:"cases"`
	Passed  int64 `yaml:"passed"`
	Warned  int64 `yaml:"warned"`
	Failed  int64 `yaml:"failed"`
	Skipped int64 `yaml:"skipped"`
	Fatal   int64 `yaml:"fatal"`
}

// CaseReport is one case of the run
type CaseReport struct {
	Name          string     `yaml:"name"`
	Target        string     `yaml:"target,omitempty"`
	Status        string     `yaml:"status"`
	Comment       string     `yaml:"comment"`
	Warnings      []string   `yaml:"warnings,omitempty"`
	GoodnessOfFit float64    `yaml:"goodness_of_fit"`
	SampleCount   int        `yaml:"sample_count"`
	UsableCount   int        `yaml:"usable_count"`
	Distinct      int        `yaml:"distinct_latents"`
	Expected      uint64     `yaml:"expected_latents"`
	Duration      string     `yaml:"duration"`
	ScratchDir    string     `yaml:"scratch_dir,omitempty"`
	Table         []TableRow `yaml:"table,omitempty"`
}

// TableRow is one line of a failure diagnostic
type TableRow struct {
	Expect float64 `yaml:"expect"`
	Actual int     `yaml:"actual"`
	Chi    float64 `yaml:"chi"`
	Latent string  `yaml:"latent"`
}

// BuildReport flattens a summary; runErr is the fatal error returned by the suite, if any.
func BuildReport(summary *core.Summary, runErr error) *Report {
	report := &Report{
		RunID:     summary.RunID,
		Mode:      string(summary.Mode),
		Sampler:   summary.Sampler,
		MaxSize:   summary.MaxSize,
		StartedAt: summary.StartedAt.UTC(),
		Duration:  summary.Duration.Round(time.Millisecond).String(),
		Totals: Totals{
			Cases:   len(summary.Results),
			Passed:  summary.Stats.Passed,
			Warned:  summary.Stats.Warned,
			Failed:  summary.Stats.Failed,
			Skipped: summary.Stats.Skipped,
			Fatal:   summary.Stats.Fatal,
		},
		Failures: summary.Failures(),
		Cases:    make([]CaseReport, 0, len(summary.Results)),
	}
	if runErr != nil {
		report.Fatal = runErr.Error()
	}
	if report.Failures == nil {
		report.Failures = []string{}
	}
	for _, r := range summary.Results {
		entry := CaseReport{
			Name:          r.Name,
			Target:        r.Target,
			Status:        r.Status.String(),
			Comment:       r.Comment,
			Warnings:      r.Warnings,
			GoodnessOfFit: r.GoodnessOfFit,
			SampleCount:   r.SampleCount,
			UsableCount:   r.UsableCount,
			Distinct:      r.Distinct,
			Expected:      r.Expected,
			Duration:      r.Duration.Round(time.Millisecond).String(),
			ScratchDir:    r.ScratchDir,
		}
		for _, row := range r.Table {
			entry.Table = append(entry.Table, TableRow{Expect: row.Expect, Actual: row.Actual, Chi: row.Chi, Latent: row.Latent})
		}
		report.Cases = append(report.Cases, entry)
	}
	return report
}

// YAML renders the report with two-space indentation.
func (r *Report) YAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadReport loads a YAML report written by Generator.Write.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &report, nil
}

// Generator writes run reports
type Generator struct {
	logger    *logrus.Logger
	templates *template.Template
}

// NewGenerator creates a report generator
func NewGenerator(logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{
		logger:    logger,
		templates: template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(dashboardTemplate)),
	}
}

// Write exports the report to path: .html and .htm get the dashboard, anything else YAML.
func (g *Generator) Write(path string, report *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		var buf bytes.Buffer
		if err = g.templates.Execute(&buf, report); err != nil {
			return fmt.Errorf("failed to execute template: %w", err)
		}
		data = buf.Bytes()
	default:
		if data, err = report.YAML(); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	g.logger.WithFields(logrus.Fields{"path": path, "run_id": report.RunID}).Info("Suite report written")
	return nil
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"gof":   func(v float64) string { return fmt.Sprintf("%.3g", v) },
}
