package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/varmesh-go/internal/core/domain"
	"github.com/yndnr/varmesh-go/internal/store/snapshot"
	"github.com/yndnr/varmesh-go/internal/telemetry/logger"
	"github.com/yndnr/varmesh-go/internal/telemetry/metric"
)

// State is the persister lifecycle state.
type State int32

const (
	// StateRunning means the persister flushes on its interval.
	StateRunning State = iota
	// StateStopping means a stop was requested; one final flush is due.
	StateStopping
	// StateStopped is terminal: the final flush completed.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultFlushInterval is the default persister interval.
const DefaultFlushInterval = time.Minute

// Config configures a Root.
type Config struct {
	// Sink persists snapshots. Required.
	Sink snapshot.Sink

	// FlushInterval is the persister interval. Defaults to
	// DefaultFlushInterval.
	FlushInterval time.Duration

	// Logger is the structured logger.
	Logger logger.Logger

	// Metrics is the optional metrics registry.
	Metrics *metric.Registry
}

// Root owns the store tree and its persister goroutine.
//
// One lock serializes all transactions; the persister only ever reads.
// Lifecycle: Open starts the persister Running; Close requests
// Stopping, waits until the final flush reports Stopped, then returns.
type Root struct {
	mu    sync.Mutex
	store *Store

	sink     snapshot.Sink
	interval time.Duration
	log      logger.Logger
	metrics  *metric.Registry

	state     atomic.Int32
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once

	flushMu      sync.Mutex
	lastFlushErr error
}

// Open loads the snapshot through the sink (if one exists) and starts
// the persister. A payload that does not decode as a JSON object is a
// fatal FileLoadError: the process must not proceed on top of a
// partially understood on-disk state.
func Open(cfg Config) (*Root, error) {
	if cfg.Sink == nil {
		return nil, fmt.Errorf("store: sink is required")
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	st := newStore()
	data, ok, err := cfg.Sink.Load()
	if err != nil {
		return nil, domain.ErrFileLoad.WithCause(err)
	}
	if ok {
		loaded, err := newStoreFromObject(data)
		if err != nil {
			return nil, domain.ErrFileLoad.WithDetails("snapshot is not a JSON object").WithCause(err)
		}
		st = loaded
		cfg.Logger.Info("snapshot loaded", "entries", len(st.items), "bytes", len(data))
	} else {
		cfg.Logger.Info("no snapshot found, starting with empty store")
	}

	r := &Root{
		store:    st,
		sink:     cfg.Sink,
		interval: cfg.FlushInterval,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	r.state.Store(int32(StateRunning))

	go r.persistLoop()

	return r, nil
}

// State returns the current persister state.
func (r *Root) State() State {
	return State(r.state.Load())
}

// Store returns the root namespace for registration and access inside
// transactions.
func (r *Root) Store() *Store {
	return r.store
}

// Update runs fn as one atomic transaction. An error or panic from fn
// rewinds every staged mutation; nothing partial is ever observable.
func (r *Root) Update(fn func(tx *Tx) error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &Tx{root: r}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		} else {
			tx.commit()
		}
	}()

	err = fn(tx)
	return err
}

// View runs fn as a transaction. It shares Update's machinery: misuse
// that mutates under View still rolls back on error.
func (r *Root) View(fn func(tx *Tx) error) error {
	return r.Update(fn)
}

// Materialize renders the whole tree as one consistent JSON object.
func (r *Root) Materialize() (json.RawMessage, error) {
	var data json.RawMessage
	err := r.View(func(tx *Tx) error {
		var err error
		data, err = r.store.Materialize(tx)
		return err
	})
	return data, err
}

// persistLoop runs the flush cycle: a single blocking wait on timer or
// stop, never a busy poll. On stop it performs exactly one final flush
// before reporting Stopped.
func (r *Root) persistLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-r.stopCh:
			r.flush()
			r.state.Store(int32(StateStopped))
			r.log.Debug("persister stopped")
			return
		}
	}
}

// flush materializes the store in one transaction and hands the bytes
// to the sink.
func (r *Root) flush() {
	start := time.Now()

	data, err := r.Materialize()
	if err == nil {
		err = r.sink.Store(data)
	}

	r.flushMu.Lock()
	r.lastFlushErr = err
	r.flushMu.Unlock()

	if err != nil {
		if r.metrics != nil {
			r.metrics.SnapshotFlushFailures.Inc()
		}
		r.log.Error("snapshot flush failed", "error", err)
		return
	}

	if r.metrics != nil {
		r.metrics.SnapshotFlushes.Inc()
		r.metrics.SnapshotFlushDuration.Observe(time.Since(start).Seconds())
		r.metrics.SnapshotSizeBytes.Set(float64(len(data)))
		r.metrics.StoreEntries.Set(float64(r.entryCount()))
	}
	r.log.Debug("snapshot flushed", "bytes", len(data), "elapsed", time.Since(start))
}

func (r *Root) entryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.store.items)
}

// Close signals the persister to stop, blocks until the final flush
// completed and the state reached Stopped, then closes the sink. It
// returns the final flush error, if any.
func (r *Root) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.state.Store(int32(StateStopping))
		close(r.stopCh)
		<-r.doneCh

		r.flushMu.Lock()
		err = r.lastFlushErr
		r.flushMu.Unlock()

		if cerr := r.sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

// With opens a store for the duration of fn and guarantees the final
// flush on every exit path: normal return, error, or panic. The
// causing error or panic propagates to the caller after the store has
// durably stopped.
func With(cfg Config, fn func(root *Root) error) (err error) {
	root, err := Open(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := root.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = fn(root)
	return err
}
