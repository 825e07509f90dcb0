package ratelimit

import (
	"math/rand"
	"time"

	"flickrvault/pkg/logger"
)

// Outcome of one outbound request, as reported by the caller
type Outcome int

const (
	// OutcomeSuccess is a completed request, any non-error response
	OutcomeSuccess Outcome = iota
	// OutcomeRateLimited is a 429 from the server
	OutcomeRateLimited
	// OutcomeFailure is any other failed request
	OutcomeFailure
)

// State holds the controller's mutable rate state for one run
type State struct {
	// Delay is the current steady-state pause before each request
	Delay time.Duration
	// ConsecutiveFailures counts failures since the last success
	ConsecutiveFailures int
	// ConsecutiveSuccesses counts successes since the last adjustment
	ConsecutiveSuccesses int
}

// Config tunes the controller
type Config struct {
	// BaseDelay is the starting steady-state delay
	BaseDelay time.Duration
	// BackoffBase is the first backoff sleep after a 429
	BackoffBase time.Duration
	// MaxAttempts caps backoff retries per caller attempt sequence
	MaxAttempts int
	// Adaptive enables steady-delay convergence
	Adaptive bool
	// MinDelay floors the adaptive steady delay
	MinDelay time.Duration
	// MaxDelay caps the adaptive steady delay
	MaxDelay time.Duration
	// AdjustStep is the adaptive increment/decrement
	AdjustStep time.Duration
	// SuccessThreshold is how many consecutive successes shrink the delay
	SuccessThreshold int
	// JitterFraction adds up to this fraction of BaseDelay of random
	// extra pre-request delay (adaptive mode), 0 disables jitter
	JitterFraction float64
	// Sleep is injectable for deterministic tests; nil means time.Sleep
	Sleep func(time.Duration)
}

// DefaultConfig returns controller settings matching a polite sequential
// export against a shared remote quota
func DefaultConfig() Config {
	return Config{
		BaseDelay:        800 * time.Millisecond,
		BackoffBase:      60 * time.Second,
		MaxAttempts:      5,
		Adaptive:         true,
		MinDelay:         500 * time.Millisecond,
		MaxDelay:         10 * time.Second,
		AdjustStep:       200 * time.Millisecond,
		SuccessThreshold: 10,
		JitterFraction:   0.5,
	}
}

// Controller owns the adaptive delay and backoff state machine for one
// outbound request stream. Not safe for concurrent use; the exporter is
// strictly sequential.
type Controller struct {
	cfg    Config
	state  State
	sleep  func(time.Duration)
	logger logger.Logger
}

// New creates a Controller with fresh state
func New(cfg Config, log logger.Logger) *Controller {
	if log == nil {
		log = logger.GetLogger()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Controller{
		cfg:    cfg,
		state:  State{Delay: cfg.BaseDelay},
		sleep:  sleep,
		logger: log,
	}
}

// MaxAttempts returns the backoff retry budget per attempt sequence
func (c *Controller) MaxAttempts() int {
	return c.cfg.MaxAttempts
}

// State returns a copy of the current rate state
func (c *Controller) State() State {
	return c.state
}

// BeforeRequest pauses for the current steady-state delay before an
// outbound request
func (c *Controller) BeforeRequest() {
	delay := c.state.Delay
	if c.cfg.Adaptive && c.cfg.JitterFraction > 0 {
		jitter := time.Duration(rand.Float64() * c.cfg.JitterFraction * float64(c.cfg.BaseDelay))
		delay += jitter
	}
	if delay > 0 {
		c.sleep(delay)
	}
}

// OnResult updates the rate state after a request completes
func (c *Controller) OnResult(outcome Outcome) {
	switch outcome {
	case OutcomeSuccess:
		c.state.ConsecutiveFailures = 0
		if !c.cfg.Adaptive {
			return
		}
		c.state.ConsecutiveSuccesses++
		if c.state.ConsecutiveSuccesses >= c.cfg.SuccessThreshold {
			c.state.ConsecutiveSuccesses = 0
			next := c.state.Delay - c.cfg.AdjustStep
			if next < c.cfg.MinDelay {
				next = c.cfg.MinDelay
			}
			if next != c.state.Delay {
				c.logger.DebugWithFields("steady delay decreased", map[string]interface{}{
					"delay": next,
				})
			}
			c.state.Delay = next
		}
	case OutcomeRateLimited, OutcomeFailure:
		c.state.ConsecutiveSuccesses = 0
		c.state.ConsecutiveFailures++
		if !c.cfg.Adaptive {
			return
		}
		next := c.state.Delay + c.cfg.AdjustStep
		if next > c.cfg.MaxDelay {
			next = c.cfg.MaxDelay
		}
		if next != c.state.Delay {
			c.logger.DebugWithFields("steady delay increased", map[string]interface{}{
				"delay":    next,
				"failures": c.state.ConsecutiveFailures,
			})
		}
		c.state.Delay = next
	}
}

// Backoff sleeps the exponential backoff duration for the given attempt
// number (1-based) and reports whether the caller may retry. A false
// return means the retry budget is exhausted; no sleep is performed and
// the caller should abandon the attempt.
func (c *Controller) Backoff(attempt int) bool {
	if attempt > c.cfg.MaxAttempts {
		c.logger.WarnWithFields("backoff budget exhausted", map[string]interface{}{
			"attempts": attempt - 1,
		})
		return false
	}

	wait := c.cfg.BackoffBase << uint(attempt-1)
	c.logger.WarnWithFields("rate limited, backing off", map[string]interface{}{
		"attempt": attempt,
		"wait":    wait,
	})
	c.sleep(wait)
	return true
}
