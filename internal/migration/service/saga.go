package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const compensationTimeout = 30 * time.Second

// Step is one forward action of a saga. Compensate may be nil.
type Step struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// SagaError reports the failing step and any compensation errors.
type SagaError struct {
	Step            string
	Cause           error
	CompensationErr error
}

func (e *SagaError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("step %s failed: %v (compensation: %v)", e.Step, e.Cause, e.CompensationErr)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Cause)
}

func (e *SagaError) Unwrap() error { return e.Cause }

// Saga runs steps in order. When a step fails, the steps that already
// completed are compensated in reverse order.
type Saga struct {
	steps []Step
}

func NewSaga(steps ...Step) *Saga {
	return &Saga{steps: steps}
}

func (s *Saga) Add(step Step) {
	s.steps = append(s.steps, step)
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Forward(ctx); err != nil {
			return &SagaError{
				Step:            step.Name,
				Cause:           err,
				CompensationErr: s.compensate(ctx, s.steps[:i]),
			}
		}
	}
	return nil
}

// compensate runs detached from ctx so a cancelled request still rolls back.
func (s *Saga) compensate(ctx context.Context, done []Step) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(cctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
