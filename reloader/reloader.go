// Package reloader periodically rebuilds the topology snapshot
// out-of-place. Readers holding an old snapshot observe no disruption;
// a failed reload keeps the last good snapshot in place.
package reloader

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/topology-engine/internal/logging"
	"github.com/signalsfoundry/topology-engine/topology"
)

// LoadFunc produces a freshly committed snapshot from the fact feed.
type LoadFunc func(ctx context.Context) (*topology.Snapshot, error)

// Reloader drives periodic reloads and notifies registered listeners
// whenever a new snapshot commits.
type Reloader struct {
	mu       sync.RWMutex
	interval time.Duration
	load     LoadFunc
	log      logging.Logger

	current   *topology.Snapshot
	listeners []func(*topology.Snapshot)
}

// New constructs a Reloader serving the given initial snapshot.
func New(initial *topology.Snapshot, interval time.Duration, load LoadFunc, log logging.Logger) *Reloader {
	if log == nil {
		log = logging.Noop()
	}
	return &Reloader{
		interval: interval,
		load:     load,
		log:      log,
		current:  initial,
	}
}

// Snapshot returns the current snapshot. The result stays valid for the
// caller even across later reloads.
func (r *Reloader) Snapshot() *topology.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// AddListener registers a callback invoked after every committed
// reload. Listeners must not be added once Start has been called.
func (r *Reloader) AddListener(fn func(*topology.Snapshot)) {
	r.listeners = append(r.listeners, fn)
}

// Start runs the reload loop until ctx is cancelled. It returns a
// channel that is closed when the loop finishes.
func (r *Reloader) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reloadOnce(ctx)
			}
		}
	}()
	return done
}

// reloadOnce attempts one reload. The new snapshot replaces the current
// one only after it commits; rejection leaves the published snapshot
// untouched.
func (r *Reloader) reloadOnce(ctx context.Context) {
	snap, err := r.load(ctx)
	if err != nil {
		r.log.Warn(ctx, "reload failed; keeping current snapshot", logging.Err(err))
		return
	}

	r.mu.Lock()
	r.current = snap
	listeners := append([]func(*topology.Snapshot){}, r.listeners...)
	r.mu.Unlock()

	// Notify outside the lock so listeners can query the reloader.
	for _, fn := range listeners {
		fn(snap)
	}

	store := snap.Store()
	r.log.Info(ctx, "topology reloaded",
		logging.Int("nodes", len(store.Nodes())),
		logging.Int("links", len(store.Links())),
		logging.Int("warnings", len(snap.Warnings())),
	)
}
