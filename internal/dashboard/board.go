package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnavailable is returned by a loader that has no data to offer, which
// sends the widget to its fallback.
var ErrUnavailable = errors.New("dashboard: widget unavailable")

// Status describes how a widget was filled.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFallback Status = "fallback"
	StatusDegraded Status = "degraded"
)

// Loader fetches one widget value.
type Loader[T any] func(ctx context.Context) (T, error)

// Widget is one independently loaded part of a board.
type Widget struct {
	Name string
	run  func(ctx context.Context) outcome
	zero any
}

type outcome struct {
	value       any
	fellBack    bool
	primaryErr  error
	fallbackErr error
}

// NewWidget builds a widget from a primary loader and an optional fallback.
// When both fail the widget renders zero.
func NewWidget[T any](name string, primary, fallback Loader[T], zero T) Widget {
	return Widget{
		Name: name,
		zero: zero,
		run: func(ctx context.Context) outcome {
			v, err := primary(ctx)
			if err == nil {
				return outcome{value: v}
			}
			if fallback == nil {
				return outcome{primaryErr: err}
			}
			v, ferr := fallback(ctx)
			if ferr != nil {
				return outcome{primaryErr: err, fallbackErr: ferr}
			}
			return outcome{value: v, fellBack: true, primaryErr: err}
		},
	}
}

// Panel is the outcome of one widget.
type Panel struct {
	Status Status `json:"status"`
	Data   any    `json:"data"`
}

// Panels maps widget names to their outcome.
type Panels map[string]Panel

// Value extracts the typed value of a panel, or the zero value of T.
func Value[T any](p Panels, name string) T {
	v, _ := p[name].Data.(T)
	return v
}

// WidgetObserver receives one observation per widget load.
type WidgetObserver interface {
	ObserveWidget(widget, status string)
}

// Board runs widgets concurrently. A failing widget never affects the
// others and raw errors stay in the log.
type Board struct {
	logger   *slog.Logger
	observer WidgetObserver
	timeout  time.Duration
}

// NewBoard builds a Board. timeout bounds each widget; zero means no bound.
func NewBoard(logger *slog.Logger, observer WidgetObserver, timeout time.Duration) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{logger: logger, observer: observer, timeout: timeout}
}

// Run loads every widget and waits for all of them.
func (b *Board) Run(ctx context.Context, widgets ...Widget) Panels {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		panels = make(Panels, len(widgets))
	)
	for _, w := range widgets {
		g.Go(func() error {
			panel := b.load(ctx, w)
			mu.Lock()
			panels[w.Name] = panel
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return panels
}

func (b *Board) load(ctx context.Context, w Widget) Panel {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	out := w.run(ctx)

	panel := Panel{Status: StatusOK, Data: out.value}
	switch {
	case out.primaryErr == nil:
	case out.fellBack:
		panel.Status = StatusFallback
		b.logFailure(w.Name, "primary", out.primaryErr)
	default:
		panel = Panel{Status: StatusDegraded, Data: w.zero}
		b.logFailure(w.Name, "primary", out.primaryErr)
		if out.fallbackErr != nil {
			b.logFailure(w.Name, "fallback", out.fallbackErr)
		}
	}
	if b.observer != nil {
		b.observer.ObserveWidget(w.Name, string(panel.Status))
	}
	return panel
}

func (b *Board) logFailure(widget, stage string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, ErrUnavailable) {
		level = slog.LevelDebug
	}
	b.logger.Log(context.Background(), level, "dashboard widget failed",
		slog.String("widget", widget), slog.String("stage", stage), slog.Any("error", err))
}
