/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worker.go
Description: Worker for parallel case execution. Each worker pulls cases from the suite
queue and runs them to completion one at a time; cases share no state.
*/

package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Worker runs cases pulled from the suite queue
type Worker struct {
	ID     int
	runner *CaseRunner
	logger *logrus.Entry

	// Performance tracking
	executed  int64
	aborted   int64
	startTime time.Time
}

// NewWorker creates a new worker instance
func NewWorker(id int, runner *CaseRunner, logger *logrus.Logger) *Worker {
	return &Worker{
		ID:        id,
		runner:    runner,
		logger:    logger.WithField("worker", id),
		startTime: time.Now(),
	}
}

// Run executes cases until jobs is closed. ctx is handed to every case; closing jobs,
// not cancelling ctx, is how the suite stops dispatch while letting cases finish.
func (w *Worker) Run(ctx context.Context, jobs <-chan Case, done func(c Case, result *CaseResult, err error)) {
	w.logger.Debug("Worker started")
	for c := range jobs {
		result, err := w.runner.RunCase(ctx, c)
		atomic.AddInt64(&w.executed, 1)
		if err != nil {
			atomic.AddInt64(&w.aborted, 1)
		}
		done(c, result, err)
	}
	w.logger.WithFields(logrus.Fields{
		"executed": atomic.LoadInt64(&w.executed),
		"aborted":  atomic.LoadInt64(&w.aborted),
		"uptime":   time.Since(w.startTime),
	}).Debug("Worker stopped")
}
