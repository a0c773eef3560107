// Package saga runs the secondary writes of a composite operation. Steps run
// in order; a failed step is logged and counted, later steps still run and
// nothing is rolled back.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
)

// Recorder persists step failures, typically into the logs collection.
// Its own errors are only logged.
type Recorder interface {
	RecordFailure(ctx context.Context, saga, step string, err error) error
}

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// Saga is an ordered list of named steps.
type Saga struct {
	name     string
	steps    []step
	recorder Recorder
	log      *logger.Logger
}

func New(name string, recorder Recorder) *Saga {
	return &Saga{name: name, recorder: recorder, log: logger.With("saga/" + name)}
}

// Step appends a step and returns the saga for chaining.
func (s *Saga) Step(name string, fn func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, step{name: name, fn: fn})
	return s
}

// StepError is one failed step.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return e.Step + ": " + e.Err.Error() }

// Report lists the steps that failed.
type Report struct {
	Saga   string
	Failed []StepError
}

// OK reports whether every step succeeded.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Err joins the failures, or returns nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return fmt.Errorf("%s: %w", r.Saga, errors.Join(errs...))
}

// Run executes every step once, in order.
func (s *Saga) Run(ctx context.Context) Report {
	rep := Report{Saga: s.name}
	for _, st := range s.steps {
		err := st.fn(ctx)
		if err == nil {
			continue
		}
		rep.Failed = append(rep.Failed, StepError{Step: st.name, Err: err})
		metrics.SagaStepFailures.WithLabelValues(s.name, st.name).Inc()
		s.log.Errorf("step %s failed: %v", st.name, err)
		if s.recorder == nil {
			continue
		}
		if rerr := s.recorder.RecordFailure(ctx, s.name, st.name, err); rerr != nil {
			s.log.Warnf("record failure of %s: %v", st.name, rerr)
		}
	}
	return rep
}
