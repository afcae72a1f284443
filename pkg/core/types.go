/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Result types of the oracle suite. Case results carry the statistical verdict
as a value; only oracle defects travel as errors and are collected into a FatalError.
*/

package core

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/gof"
)

// ErrCasesFailed marks a suite with at least one failing case.
var ErrCasesFailed = errors.New("cases failed")

// Status classifies a finished case
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
	StatusSkip
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "Pass"
	case StatusWarn:
		return "Warn"
	case StatusFail:
		return "Fail"
	case StatusSkip:
		return "Skip"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status by name in YAML and JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CaseResult is the immutable outcome of one case
type CaseResult struct {
	Name    string `json:"name" yaml:"name"`
	Case    Case   `json:"case" yaml:"case"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Status  Status `json:"status" yaml:"status"`
	Comment string `json:"comment" yaml:"comment"`
	// Warnings are statistical warnings raised before the verdict.
	Warnings      []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GoodnessOfFit float64       `json:"goodness_of_fit" yaml:"goodness_of_fit"`
	SampleCount   int           `json:"sample_count" yaml:"sample_count"`
	UsableCount   int           `json:"usable_count" yaml:"usable_count"`
	Distinct      int           `json:"distinct" yaml:"distinct"`
	Expected      uint64        `json:"expected" yaml:"expected"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	// ScratchDir is set when the case directory was preserved for inspection.
	ScratchDir string    `json:"scratch_dir,omitempty" yaml:"scratch_dir,omitempty"`
	Table      []gof.Row `json:"-" yaml:"-"`
}

// SuiteStats counts case outcomes; safe for concurrent updates
type SuiteStats struct {
	Passed  int64 `json:"passed" yaml:"passed"`
	Warned  int64 `json:"warned" yaml:"warned"`
	Failed  int64 `json:"failed" yaml:"failed"`
	Skipped int64 `json:"skipped" yaml:"skipped"`
	Fatal   int64 `json:"fatal" yaml:"fatal"`
}

// Record atomically counts a result
func (s *SuiteStats) Record(status Status) {
	switch status {
	case StatusPass:
		atomic.AddInt64(&s.Passed, 1)
	case StatusWarn:
		atomic.AddInt64(&s.Warned, 1)
	case StatusFail:
		atomic.AddInt64(&s.Failed, 1)
	case StatusSkip:
		atomic.AddInt64(&s.Skipped, 1)
	}
}

// IncrementFatal atomically counts a case aborted by an oracle defect
func (s *SuiteStats) IncrementFatal() {
	atomic.AddInt64(&s.Fatal, 1)
}

// Snapshot returns a consistent copy of the counters
func (s *SuiteStats) Snapshot() SuiteStats {
	return SuiteStats{
		Passed:  atomic.LoadInt64(&s.Passed),
		Warned:  atomic.LoadInt64(&s.Warned),
		Failed:  atomic.LoadInt64(&s.Failed),
		Skipped: atomic.LoadInt64(&s.Skipped),
		Fatal:   atomic.LoadInt64(&s.Fatal),
	}
}

// Summary is the outcome of a suite run. Results are sorted by case name.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Mode      Mode          `json:"mode" yaml:"mode"`
	Sampler   string        `json:"sampler" yaml:"sampler"`
	MaxSize   uint64        `json:"max_size" yaml:"max_size"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Stats     SuiteStats    `json:"stats" yaml:"stats"`
	Results   []*CaseResult `json:"results" yaml:"results"`
}

// Failures returns the names of the failing cases
func (s *Summary) Failures() []string {
	var names []string
	for _, r := range s.Results {
		if r.Status == StatusFail {
			names = append(names, r.Name)
		}
	}
	return names
}

// Err reports every failing case, or nil when the suite passed
func (s *Summary) Err() error {
	failures := s.Failures()
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: Failed %d Cases:\n%s", ErrCasesFailed, len(failures), strings.Join(failures, "\n"))
}

// FatalError collects the oracle defects that stopped a suite
type FatalError struct {
	Cases []string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("oracle cannot be trusted, %d case(s) aborted: %v", len(e.Cases), e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// caseError ties a fatal error to its case.
type caseError struct {
	name string
	err  error
}

func (e *caseError) Error() string { return e.name + ": " + e.err.Error() }

func (e *caseError) Unwrap() error { return e.err }
