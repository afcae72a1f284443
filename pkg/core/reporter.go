/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for suite progress. The line reporter
prints one verdict line per case, colorized when writing to a terminal; the logger
reporter records structured case events.
*/

package core

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kleascm/akaylee-oracle/pkg/gof"
	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Reporter receives suite events. Calls may come from several workers at once.
type Reporter interface {
	// OnCaseFinished is called once per case that produced a result.
	OnCaseFinished(result *CaseResult)
	// OnCaseAborted is called when a case hit an oracle defect.
	OnCaseAborted(name string, err error)
	// OnSuiteFinished is called after every worker stopped.
	OnSuiteFinished(summary *Summary)
}

// LineReporter writes '{prefix:<4} {case:<18} {comment}' lines
type LineReporter struct {
	out      io.Writer
	colorize bool
	mu       sync.Mutex
}

var verdictColors = map[string]string{
	"Pass": "\x1b[32m",
	"Warn": "\x1b[33m",
	"Fail": "\x1b[31m",
	"Skip": "\x1b[36m",
}

// NewLineReporter creates a reporter writing to out; colors are used only on a terminal
func NewLineReporter(out io.Writer) *LineReporter {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = term.IsTerminal(int(f.Fd()))
	}
	return &LineReporter{out: out, colorize: colorize}
}

// OnCaseFinished prints the warnings, the failure table if any, then the verdict.
func (r *LineReporter) OnCaseFinished(result *CaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, warning := range result.Warnings {
		r.line("Warn", result.Name, warning)
	}
	if result.Status == StatusFail && len(result.Table) > 0 {
		gof.WriteTable(r.out, result.Table)
	}
	r.line(result.Status.String(), result.Name, result.Comment)
}

// OnCaseAborted prints the defect under an Error prefix.
func (r *LineReporter) OnCaseAborted(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line("Error", name, err.Error())
}

// OnSuiteFinished prints the failing cases.
func (r *LineReporter) OnSuiteFinished(summary *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(r.out, "Failed %d Cases:\n", len(failures))
	for _, name := range failures {
		fmt.Fprintln(r.out, name)
	}
}

func (r *LineReporter) line(prefix, name, comment string) {
	padded := fmt.Sprintf("%-4s", prefix)
	if color, ok := verdictColors[prefix]; ok && r.colorize {
		padded = color + prefix + "\x1b[0m"
	}
	fmt.Fprintf(r.out, "%s %-18s %s\n", padded, name, comment)
}

// LoggerReporter records case events through the oracle logger
type LoggerReporter struct {
	logger *logging.Logger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger *logging.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// OnCaseFinished logs the case outcome.
func (r *LoggerReporter) OnCaseFinished(result *CaseResult) {
	fields := logrus.Fields{"comment": result.Comment}
	if result.ScratchDir != "" {
		fields["dir"] = result.ScratchDir
	}
	if len(result.Warnings) > 0 {
		fields["warnings"] = len(result.Warnings)
	}
	r.logger.LogCase(result.Name, result.Status.String(), result.Duration, fields)
}

// OnCaseAborted logs the defect.
func (r *LoggerReporter) OnCaseAborted(name string, err error) {
	r.logger.GetLogger().WithError(err).WithField("case", name).Error("Case aborted")
}

// OnSuiteFinished logs the suite totals.
func (r *LoggerReporter) OnSuiteFinished(summary *Summary) {
	s := summary.Stats
	r.logger.LogSuite(summary.RunID, int(s.Passed), int(s.Warned), int(s.Failed), int(s.Skipped))
}
