// Package collector fans signal sources out and assembles the signal bag of
// one collection round.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"anchorprint/internal/host"
	"anchorprint/internal/metrics"
	"anchorprint/internal/pkg/async"
	"anchorprint/internal/signals"
	"anchorprint/internal/sources"
)

// DefaultTimeouts covers the sources known to be slow or to hang.
var DefaultTimeouts = map[string]time.Duration{
	signals.NameDRM:            time.Second,
	signals.NameComputeAdapter: time.Second,
	signals.NameAudio:          time.Second,
}

// Sources holds one source per signal. A nil source leaves its signal unknown.
type Sources struct {
	GraphicsBasics     signals.Source[signals.GraphicsBasics]
	GraphicsExtensions signals.Source[signals.GraphicsExtensions]
	ComputeAdapter     signals.Source[signals.ComputeAdapter]
	Audio              signals.Source[float64]
	Math               signals.Source[signals.MathFingerprint]
	DRM                signals.Source[signals.DRMCapability]
	Timing             signals.Source[signals.TimingPrecision]
	Hardware           signals.Source[signals.HardwareHints]
}

// DefaultSources wires every source to p.
func DefaultSources(p host.Provider) Sources {
	return Sources{
		GraphicsBasics:     &sources.GraphicsBasics{Host: p},
		GraphicsExtensions: &sources.GraphicsExtensions{Host: p},
		ComputeAdapter:     &sources.ComputeAdapter{Host: p},
		Audio:              &sources.Audio{Host: p},
		Math:               &sources.Math{Host: p},
		DRM:                &sources.DRM{Host: p},
		Timing:             &sources.Timing{Host: p},
		Hardware:           &sources.Hardware{Host: p},
	}
}

// Options tunes a Collector.
type Options struct {
	// Timeouts are soft per-source limits keyed by signal name. Nil means
	// DefaultTimeouts; sources without an entry are waited for indefinitely.
	Timeouts map[string]time.Duration
	Logger   *slog.Logger
	// Workers bounds parallelism; zero runs every source at once.
	Workers int
}

// Collector runs one collection round per Collect call.
type Collector struct {
	sources  Sources
	timeouts map[string]time.Duration
	pool     *async.Pool
	logger   *slog.Logger
}

// New creates a collector for the given sources.
func New(srcs Sources, opts Options) *Collector {
	timeouts := opts.Timeouts
	if timeouts == nil {
		timeouts = DefaultTimeouts
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		sources:  srcs,
		timeouts: timeouts,
		pool:     async.NewPool(opts.Workers),
		logger:   logger,
	}
}

// Collect measures every source concurrently and returns the bag once all of
// them finished or timed out. It never fails: failed sources are unknown.
// Audio is deferred and only measured when the bag's audio value is resolved.
func (c *Collector) Collect(ctx context.Context) *signals.Bag {
	start := time.Now()

	var tasks []async.Task
	tasks = appendTask(tasks, signals.NameGraphicsBasics, c.sources.GraphicsBasics, c.timeouts)
	tasks = appendTask(tasks, signals.NameGraphicsExtensions, c.sources.GraphicsExtensions, c.timeouts)
	tasks = appendTask(tasks, signals.NameComputeAdapter, c.sources.ComputeAdapter, c.timeouts)
	tasks = appendTask(tasks, signals.NameMath, c.sources.Math, c.timeouts)
	tasks = appendTask(tasks, signals.NameDRM, c.sources.DRM, c.timeouts)
	tasks = appendTask(tasks, signals.NameTiming, c.sources.Timing, c.timeouts)
	tasks = appendTask(tasks, signals.NameHardware, c.sources.Hardware, c.timeouts)

	results := c.pool.Execute(ctx, tasks)

	bag := &signals.Bag{
		GraphicsBasics:     optional[signals.GraphicsBasics](c, results, signals.NameGraphicsBasics),
		GraphicsExtensions: optional[signals.GraphicsExtensions](c, results, signals.NameGraphicsExtensions),
		ComputeAdapter:     optional[signals.ComputeAdapter](c, results, signals.NameComputeAdapter),
		Audio:              c.deferAudio(),
		Math:               optional[signals.MathFingerprint](c, results, signals.NameMath),
		DRM:                optional[signals.DRMCapability](c, results, signals.NameDRM),
		Timing:             optional[signals.TimingPrecision](c, results, signals.NameTiming),
		Hardware:           optional[signals.HardwareHints](c, results, signals.NameHardware),
	}

	metrics.CollectionRounds.Inc()
	c.logger.Debug("Collection round finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Any("known", bag.Known()))
	return bag
}

func (c *Collector) deferAudio() signals.Lazy[float64] {
	if c.sources.Audio == nil {
		return signals.Unknown[float64]()
	}
	task := newTask(signals.NameAudio, c.sources.Audio, c.timeouts)
	return signals.Defer(func(ctx context.Context) (float64, error) {
		// The value is memoized for the round, so only the source's own
		// timeout may bound it, never the caller that happens to resolve it.
		res := async.Run(context.WithoutCancel(ctx), task)
		c.observe(res)
		if res.Err != nil {
			return 0, res.Err
		}
		v, ok := res.Data.(float64)
		if !ok {
			return 0, signals.ErrUnavailable
		}
		return v, nil
	})
}

func (c *Collector) observe(res async.Result) {
	outcome := metrics.OutcomeOK
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, async.ErrTimeout):
		outcome = metrics.OutcomeTimeout
	case errors.Is(res.Err, async.ErrPanic):
		outcome = metrics.OutcomePanic
	default:
		outcome = metrics.OutcomeUnknown
	}
	metrics.ObserveSource(res.Name, outcome, res.Elapsed.Seconds())

	if res.Err != nil {
		c.logger.Debug("Signal source unavailable",
			slog.String("source", res.Name),
			slog.String("outcome", outcome),
			slog.Any("error", res.Err))
	}
}

func newTask[T any](name string, src signals.Source[T], timeouts map[string]time.Duration) async.Task {
	return async.Task{
		Name:    name,
		Timeout: timeouts[name],
		Execute: func(ctx context.Context) (interface{}, error) {
			return src.Measure(ctx)
		},
	}
}

func appendTask[T any](tasks []async.Task, name string, src signals.Source[T], timeouts map[string]time.Duration) []async.Task {
	if src == nil {
		return tasks
	}
	return append(tasks, newTask(name, src, timeouts))
}

// optional converts a pool result into a typed signal value.
func optional[T any](c *Collector, results map[string]async.Result, name string) signals.Optional[T] {
	res, ok := results[name]
	if !ok {
		return signals.None[T]()
	}
	c.observe(res)
	if res.Err != nil {
		return signals.None[T]()
	}
	v, ok := res.Data.(T)
	if !ok {
		return signals.None[T]()
	}
	return signals.Some(v)
}
