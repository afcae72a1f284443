/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: suite.go
Description: Suite orchestration. Dispatches independent cases to a fixed pool of workers,
collects their results into a summary, and stops dispatching as soon as any case reports
an oracle defect.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Suite runs cases against one sampler
type Suite struct {
	config    *SuiteConfig
	sampler   interfaces.Sampler
	runner    *CaseRunner
	logger    *logging.Logger
	reporters []Reporter
	runID     string
	stats     *SuiteStats
}

// NewSuite validates the configuration and initializes the sampler
func NewSuite(config *SuiteConfig, sampler interfaces.Sampler, logger *logging.Logger) (*Suite, error) {
	if config == nil {
		config = DefaultSuiteConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite config: %w", err)
	}
	if logger == nil {
		var err error
		if logger, err = logging.NewLogger(nil, nil); err != nil {
			return nil, err
		}
	}
	if err := sampler.Initialize(config.SamplerConfig()); err != nil {
		return nil, fmt.Errorf("failed to initialize %s sampler: %w", sampler.Name(), err)
	}
	return &Suite{
		config:  config,
		sampler: sampler,
		runner:  NewCaseRunner(config, sampler, logger),
		logger:  logger,
		runID:   uuid.NewString(),
		stats:   &SuiteStats{},
	}, nil
}

// AddReporter registers a reporter for suite events
func (s *Suite) AddReporter(r Reporter) {
	s.reporters = append(s.reporters, r)
}

// RunID identifies this suite run in logs and the results ledger
func (s *Suite) RunID() string {
	return s.runID
}

// workerCount is the pool size; debug runs are strictly sequential.
func (s *Suite) workerCount(cases int) int {
	if s.config.Debug {
		return 1
	}
	return max(1, min(s.config.Workers, cases))
}

// Run executes every case and returns the summary. A *FatalError is returned when any
// case hit an oracle defect; the summary then holds the cases that did finish.
func (s *Suite) Run(ctx context.Context, mode Mode, maxSize uint64, cases []Case) (*Summary, error) {
	startTime := time.Now()
	s.stats = &SuiteStats{}
	workers := s.workerCount(len(cases))
	logger := s.logger.GetLogger().WithFields(logrus.Fields{
		"run_id":  s.runID,
		"mode":    mode,
		"cases":   len(cases),
		"workers": workers,
		"sampler": s.sampler.Name(),
	})
	logger.Info("Suite started")

	dispatch, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu      sync.Mutex
		results []*CaseResult
		fatal   []error
		names   []string
	)
	done := func(c Case, result *CaseResult, err error) {
		if err != nil {
			if ctx.Err() == nil {
				s.stats.IncrementFatal()
				for _, r := range s.reporters {
					r.OnCaseAborted(c.Name(), err)
				}
				mu.Lock()
				fatal = append(fatal, &caseError{name: c.Name(), err: err})
				names = append(names, c.Name())
				mu.Unlock()
			}
			stop()
			return
		}
		s.stats.Record(result.Status)
		for _, r := range s.reporters {
			r.OnCaseFinished(result)
		}
		mu.Lock()
		results = append(results, result)
		mu.Unlock()
	}

	jobs := make(chan Case)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		worker := NewWorker(i, s.runner, s.logger.GetLogger())
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx, jobs, done)
		}()
	}

dispatchLoop:
	for _, c := range cases {
		select {
		case <-dispatch.Done():
			break dispatchLoop
		case jobs <- c:
		}
	}
	close(jobs)
	wg.Wait()

	if err := s.sampler.Cleanup(); err != nil {
		logger.WithError(err).Warn("Sampler cleanup failed")
	}

	slices.SortFunc(results, func(a, b *CaseResult) int { return strings.Compare(a.Name, b.Name) })
	slices.Sort(names)
	summary := &Summary{
		RunID:     s.runID,
		Mode:      mode,
		Sampler:   s.sampler.Name(),
		MaxSize:   maxSize,
		StartedAt: startTime,
		Duration:  time.Since(startTime),
		Stats:     s.stats.Snapshot(),
		Results:   results,
	}
	for _, r := range s.reporters {
		r.OnSuiteFinished(summary)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if len(fatal) > 0 {
		return summary, &FatalError{Cases: names, Err: errors.Join(fatal...)}
	}
	logger.WithField("duration", summary.Duration).Debug("Suite drained")
	return summary, nil
}
