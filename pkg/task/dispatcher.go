package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sameehj/dataworks/pkg/sandbox"
)

// Dispatcher turns free-text task requests into handler runs. It holds no
// locks: concurrent runs may touch the same sandbox files, and the last
// writer wins.
type Dispatcher struct {
	box      *sandbox.IO
	matcher  *Matcher
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(box *sandbox.IO, matcher *Matcher, registry *Registry) *Dispatcher {
	if matcher == nil {
		matcher = NewMatcher(DefaultRules())
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{box: box, matcher: matcher, registry: registry}
}

func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *Dispatcher) Matcher() *Matcher {
	return d.matcher
}

// RunTask classifies raw and runs the selected handler.
func (d *Dispatcher) RunTask(ctx context.Context, raw string) Envelope {
	return d.Run(ctx, raw).Envelope()
}

// Run is RunTask without the envelope mapping.
func (d *Dispatcher) Run(ctx context.Context, raw string) Result {
	runID := uuid.NewString()

	if err := d.box.Ensure(); err != nil {
		d.logError("sandbox_unavailable", "run", runID, "error", err)
		return Failed(err)
	}

	text := Normalize(raw)
	id, ok := d.matcher.Match(text)
	if !ok {
		d.logInfo("task_not_recognized", "run", runID)
		return NotRecognized()
	}
	handler, ok := d.registry.Get(id)
	if !ok {
		d.logWarn("task_not_implemented", "run", runID, "handler", id)
		return NotRecognized()
	}

	d.logInfo("task_matched", "run", runID, "handler", id)
	start := time.Now()
	res, err := d.execute(ctx, handler)
	if err != nil {
		d.logError("task_failed", "run", runID, "handler", id, "kind", KindOf(err), "error", err, "duration", time.Since(start))
		return Failed(err)
	}
	d.logInfo("task_completed", "run", runID, "handler", id, "duration", time.Since(start))
	return res
}

// execute runs h and converts a panic into an internal error.
func (d *Dispatcher) execute(ctx context.Context, h Handler) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logError("task_panic", "handler", h.ID(), "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			res = Result{}
			err = &Error{Kind: KindInternal, Msg: "Task failed", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	return h.Execute(ctx, d.box)
}

func (d *Dispatcher) logInfo(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func (d *Dispatcher) logError(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Error(msg, args...)
	}
}
