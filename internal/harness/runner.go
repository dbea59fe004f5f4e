package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Status is the outcome class of a scenario.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario string        `json:"scenario"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarizes a run.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Fixtures []Fulfillment `json:"fixtures"`
	Outcomes []Outcome     `json:"outcomes"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Errored  int           `json:"errored"`
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	default:
		r.Errored++
	}
}

// Recorder persists run progress. All methods are called from the
// runner's goroutine.
type Recorder interface {
	BeginRun(ctx context.Context, runID string, started time.Time) error
	RecordFixture(ctx context.Context, runID string, f Fulfillment) error
	RecordOutcome(ctx context.Context, runID string, o Outcome) error
	FinishRun(ctx context.Context, report *Report) error
}

// FixtureProvider makes required tables available. *Fulfiller implements it.
type FixtureProvider interface {
	Fulfill(ctx context.Context, reqs ...Requirement) ([]Fulfillment, error)
}

// Runner executes scenarios one after another.
type Runner struct {
	Engine    QueryExecutor
	OpenStore StoreOpener
	Fixtures  FixtureProvider
	Settings  Settings
	Polling   Polling

	// Optional.
	Recorder Recorder
	Clock    Clock
	IDs      IDGenerator
	Logger   *zap.Logger
}

func (r *Runner) defaults() {
	if r.Clock == nil {
		r.Clock = systemClock{}
	}
	if r.IDs == nil {
		r.IDs = UUIDv7Generator{}
	}
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
}

// Run fulfills the requirements of all scenarios once, then runs each
// scenario. Scenario failures are reported in the Report; the returned
// error is for problems that stop the whole run, such as a fixture that
// cannot be loaded.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) (*Report, error) {
	r.defaults()
	if err := Validate(scenarios); err != nil {
		return nil, err
	}

	report := &Report{RunID: r.IDs.Generate(), Started: r.Clock.Now()}
	log := r.Logger.With(zap.String("run", report.RunID))
	log.Info("starting run", zap.Int("scenarios", len(scenarios)))

	if r.Recorder != nil {
		if err := r.Recorder.BeginRun(ctx, report.RunID, report.Started); err != nil {
			return nil, fmt.Errorf("failed to record run start: %w", err)
		}
	}

	var reqs []Requirement
	for _, s := range scenarios {
		reqs = append(reqs, s.Requires...)
	}
	if len(Tables(reqs...)) > 0 {
		if r.Fixtures == nil {
			return nil, fmt.Errorf("scenarios require fixtures but no fixture provider is configured")
		}
		fixtures, err := r.Fixtures.Fulfill(ctx, reqs...)
		if err != nil {
			r.finish(ctx, report, log)
			return report, err
		}
		report.Fixtures = fixtures
		if r.Recorder != nil {
			for _, f := range fixtures {
				if err := r.Recorder.RecordFixture(ctx, report.RunID, f); err != nil {
					log.Warn("failed to record fixture", zap.Error(err))
				}
			}
		}
	}

	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			r.finish(ctx, report, log)
			return report, err
		}
		o := r.runScenario(ctx, s)
		report.add(o)

		fields := []zap.Field{
			zap.String("scenario", o.Scenario),
			zap.String("status", string(o.Status)),
			zap.Duration("duration", o.Duration),
		}
		if o.Status == StatusPassed {
			log.Info("scenario finished", fields...)
		} else {
			log.Error("scenario finished", append(fields, zap.String("message", o.Message))...)
		}
		if r.Recorder != nil {
			if err := r.Recorder.RecordOutcome(ctx, report.RunID, o); err != nil {
				log.Warn("failed to record outcome", zap.Error(err))
			}
		}
	}

	r.finish(ctx, report, log)
	return report, nil
}

func (r *Runner) finish(ctx context.Context, report *Report, log *zap.Logger) {
	report.Finished = r.Clock.Now()
	log.Info("run finished",
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("errored", report.Errored))
	if r.Recorder != nil {
		if err := r.Recorder.FinishRun(context.WithoutCancel(ctx), report); err != nil {
			log.Warn("failed to record run end", zap.Error(err))
		}
	}
}

func (r *Runner) runScenario(ctx context.Context, s *Scenario) Outcome {
	start := r.Clock.Now()
	hctx := newContext(ctx, s.Name, r.Engine, r.OpenStore, r.Settings, r.Polling, r.Logger)
	hctx.Logger().Debug("running scenario")

	runErr := invoke(hctx, s)
	closeErr := hctx.close()

	o := Outcome{Scenario: s.Name, Duration: r.Clock.Now().Sub(start)}
	switch {
	case runErr == nil && closeErr == nil:
		o.Status = StatusPassed
	case runErr == nil:
		o.Status = StatusError
		o.Message = closeErr.Error()
	default:
		o.Status = Classify(runErr)
		o.Message = errors.Join(runErr, closeErr).Error()
	}
	return o
}

// invoke runs the scenario body, turning a panic into an error.
func invoke(c *Context, s *Scenario) (err error) {
	defer func() {
		if p := recover(); p != nil {
			c.Logger().Error("scenario panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Run(c)
}

// Classify maps a scenario error to its status.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusPassed
	case IsTimeoutError(err):
		return StatusError
	case IsAssertionError(err):
		return StatusFailed
	default:
		return StatusError
	}
}
