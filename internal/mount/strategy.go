package mount

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// strategy is one way of performing a mount operation.
type strategy struct {
	name string
	run  func() error
}

// Attempt records a strategy that was tried and how it failed.
type Attempt struct {
	Strategy string
	Err      error
}

// StrategyError is returned when every strategy for an operation failed.
// Err is the failure of the final attempt.
type StrategyError struct {
	Op       string
	Target   string
	Attempts []Attempt
	Err      error
}

func (e *StrategyError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("failed to %s on %s (%s)", e.Op, e.Target, strings.Join(parts, "; "))
}

// Unwrap exposes both ErrMountFailed and the final cause.
func (e *StrategyError) Unwrap() []error {
	return []error{ErrMountFailed, e.Err}
}

// tryStrategies runs strategies in order until one succeeds.
func tryStrategies(log logrus.FieldLogger, op, target string, strategies ...strategy) error {
	attempts := make([]Attempt, 0, len(strategies))
	for i, s := range strategies {
		err := s.run()
		if err == nil {
			return nil
		}
		attempts = append(attempts, Attempt{Strategy: s.name, Err: err})
		if i < len(strategies)-1 {
			log.WithFields(logrus.Fields{
				"target":   target,
				"strategy": s.name,
			}).WithError(err).Warnf("%s failed, falling back to %s", s.name, strategies[i+1].name)
		}
	}
	if len(attempts) == 0 {
		return fmt.Errorf("%w: no strategy for %s on %s", ErrMountFailed, op, target)
	}
	return &StrategyError{
		Op:       op,
		Target:   target,
		Attempts: attempts,
		Err:      attempts[len(attempts)-1].Err,
	}
}
