// Package pipeline runs named steps strictly in sequence, stopping at the
// first failure.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Step is one unit of a pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError reports the step that stopped a pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %q: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Run executes steps in order. Steps after a failing one are not run.
// Cancellation of ctx is honoured between steps.
func Run(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
		l := log.With().Str("step", step.Name).Int("n", i+1).Int("of", len(steps)).Logger()
		l.Info().Msg("step started")
		start := time.Now()
		if err := step.Run(ctx); err != nil {
			l.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("step failed")
			return &StepError{Step: step.Name, Err: err}
		}
		l.Info().Dur("elapsed", time.Since(start)).Msg("step finished")
	}
	return nil
}
