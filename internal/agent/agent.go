// Package agent runs one collection round per Agent and turns it into a
// visitor identifier on demand.
package agent

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"anchorprint/internal/anchor"
	"anchorprint/internal/hasher"
	"anchorprint/internal/metrics"
	"anchorprint/internal/signals"
	"anchorprint/internal/visitors"
)

// Version is reported with every result.
const Version = "1.0.0"

// Collector produces the signal bag of one collection round.
type Collector interface {
	Collect(ctx context.Context) *signals.Bag
}

// Options configures Load.
type Options struct {
	// Debug logs a dump of every Get result.
	Debug  bool
	Logger *slog.Logger
	Policy anchor.Policy
}

// GetOptions configures a single Get call.
type GetOptions struct {
	// Debug overrides Options.Debug when set.
	Debug *bool
}

// Result is what Get returns.
type Result struct {
	VisitorID string         `json:"visitorId"`
	Anchor    anchor.Payload `json:"anchor"`
	Signals   *signals.Bag   `json:"signals"`
	Version   string         `json:"version"`
}

// Agent owns a single collection round. It is safe for concurrent use.
type Agent struct {
	builder  *anchor.Builder
	logger   *slog.Logger
	debug    bool
	loadedAt time.Time

	done  chan struct{}
	bag   *signals.Bag
	ready atomic.Bool
}

// Load starts a collection round in the background and returns immediately.
// The round runs with ctx; cancelling it turns pending sources unknown.
func Load(ctx context.Context, c Collector, opts Options) *Agent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		builder:  anchor.NewBuilder(opts.Policy),
		logger:   logger,
		debug:    opts.Debug,
		loadedAt: time.Now(),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		a.bag = c.Collect(ctx)
		if a.bag == nil {
			a.bag = &signals.Bag{}
		}
	}()

	return a
}

// Ready reports whether at least one Get call completed.
func (a *Agent) Ready() bool {
	return a.ready.Load()
}

// Get waits for the collection round, builds the anchor and hashes it.
// Every call reuses the round's bag, so the identifier is stable for the
// lifetime of the Agent. It fails only when ctx is done before the round
// and its deferred audio are available, or when the anchor cannot be
// canonicalized. Once both are available Get succeeds even with a done ctx.
func (a *Agent) Get(ctx context.Context, opts GetOptions) (*Result, error) {
	if err := await(ctx, a.done); err != nil {
		return nil, err
	}

	// The audio value is memoized for the round, so its resolution must not
	// inherit the caller's deadline. A caller that gives up leaves it running
	// for the next Get.
	if !a.bag.Audio.Resolved() {
		resolved := make(chan struct{})
		go func() {
			defer close(resolved)
			a.bag.Audio.Resolve(context.WithoutCancel(ctx))
		}()
		if err := await(ctx, resolved); err != nil {
			return nil, err
		}
	}

	payload := a.builder.Build(ctx, a.bag)
	id, err := visitors.ID(payload)
	if err != nil {
		return nil, err
	}
	metrics.Identifications.WithLabelValues(metrics.OriginHost).Inc()

	res := &Result{
		VisitorID: id,
		Anchor:    payload,
		Signals:   a.bag,
		Version:   Version,
	}

	debug := a.debug
	if opts.Debug != nil {
		debug = *opts.Debug
	}
	if debug {
		a.dump(res)
	}

	a.ready.Store(true)
	return res, nil
}

// await waits for ready or ctx, preferring ready when both are done.
func await(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	default:
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) dump(res *Result) {
	canonical, err := hasher.Canonicalize(res.Anchor)
	if err != nil {
		canonical = err.Error()
	}
	a.logger.Info("Visitor identified",
		slog.String("version", res.Version),
		slog.Duration("elapsed", time.Since(a.loadedAt)),
		slog.String("visitor_id", res.VisitorID),
		slog.String("anchor", canonical))
}
