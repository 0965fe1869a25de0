package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"resmon/internal/logging"
	"resmon/internal/metrics"
	"resmon/internal/sysinfo"
)

const subscriberBuffer = 16

// Config holds the parameters for one sampling session
type Config struct {
	Duration time.Duration
	Interval time.Duration
}

func (c Config) validate() error {
	if c.Duration <= 0 {
		return &ConfigError{Field: "duration", Reason: "must be positive"}
	}
	if c.Interval <= 0 {
		return &ConfigError{Field: "interval", Reason: "must be positive"}
	}
	return nil
}

// Engine owns the lifecycle of one monitoring run at a time: it
// schedules periodic samples, converts raw snapshots into normalized
// measurements, accumulates them, and finalizes the session on a
// wall-clock deadline or an external stop.
//
// Exactly one session may be running per engine instance. Ticks are
// serialized by a single run goroutine, which also performs the
// terminal transition, so a measurement can never be appended after
// the session is frozen.
type Engine struct {
	source metrics.Source
	store  Store // may be nil; completion then skips persistence
	logger *logging.Logger

	mu        sync.Mutex
	state     State
	sess      *Session
	rates     *rateTracker
	duration  time.Duration
	interval  time.Duration
	elapsed   time.Duration
	stopping  bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	finalErr  error
	subs      map[int]chan Event
	nextSubID int
}

// NewEngine creates an idle engine. The same engine can run any number
// of sessions sequentially; concurrent sessions require separate
// engine instances.
func NewEngine(source metrics.Source, store Store, logger *logging.Logger) *Engine {
	return &Engine{
		source: source,
		store:  store,
		logger: logger,
		state:  StateIdle,
		subs:   make(map[int]chan Event),
	}
}

// Start begins a new sampling session and returns its identifier.
// The static system snapshot is captured synchronously before the
// engine enters the running state; Start returns immediately after
// scheduling and completion is observed through the event stream.
//
// Returns ErrSessionRunning while another session is running and a
// ConfigError for non-positive duration or interval, in both cases
// without side effects.
func (e *Engine) Start(cfg Config) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return "", ErrSessionRunning
	}

	sess := &Session{
		ID:              uuid.NewString(),
		DurationSeconds: cfg.Duration.Seconds(),
		IntervalSeconds: cfg.Interval.Seconds(),
		StartTime:       time.Now(),
		State:           StateRunning,
		System:          sysinfo.Collect(),
		Measurements:    []Measurement{},
	}

	e.sess = sess
	e.state = StateRunning
	e.rates = newRateTracker(cfg.Interval)
	e.duration = cfg.Duration
	e.interval = cfg.Interval
	e.elapsed = 0
	e.stopping = false
	e.finalErr = nil
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	e.logger.Info("session.started", "Sampling session started", map[string]interface{}{
		"session_id": sess.ID,
		"duration":   cfg.Duration.String(),
		"interval":   cfg.Interval.String(),
	})

	go e.run(cfg.Interval, cfg.Duration, e.stopCh)

	return sess.ID, nil
}

// run drives the periodic tick and the one-shot completion deadline.
// Duration is a hard wall-clock bound, not a sample-count bound: the
// session terminates on time even when ticks were skipped.
func (e *Engine) run(interval, duration time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	for {
		select {
		case now := <-ticker.C:
			e.tick(now)
		case <-deadline.C:
			e.finalize("deadline")
			return
		case <-stopCh:
			e.finalize("stop")
			return
		}
	}
}

// tick performs one scheduled sample. A failed snapshot skips the
// measurement and emits an error event, but elapsed time still
// advances on the external timeline: failures shrink effective
// sampling density, they do not stall or stop the session.
func (e *Engine) tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), e.interval)
	snap, err := e.source.Snapshot(ctx)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning || e.sess == nil {
		// Should never happen: ticks and the terminal transition run on
		// the same goroutine. Surface the fault instead of absorbing it.
		e.failLocked(fmt.Errorf("%w: tick fired in state %q", ErrEngineFault, e.state))
		return
	}

	// Drop a raced tick that would push elapsed past the deadline; the
	// completion timer is about to finalize the session.
	if e.elapsed+e.interval > e.duration {
		return
	}
	e.elapsed += e.interval
	elapsedSec := e.elapsed.Seconds()

	if err != nil {
		e.logger.Warn("session.tick.failed", "Sample skipped", map[string]interface{}{
			"session_id": e.sess.ID,
			"elapsed":    elapsedSec,
			"error":      err.Error(),
		})
		e.publishLocked(Event{
			Type:            EventError,
			Err:             fmt.Errorf("sample failed: %w", err),
			ElapsedSeconds:  elapsedSec,
			DurationSeconds: e.duration.Seconds(),
		})
		return
	}

	m := e.buildMeasurement(now, elapsedSec, snap)
	e.sess.Measurements = append(e.sess.Measurements, m)

	progress := elapsedSec / e.duration.Seconds() * 100
	if progress > 100 {
		progress = 100
	}

	e.publishLocked(Event{
		Type:            EventSample,
		Measurement:     &m,
		ProgressPercent: round2(progress),
		ElapsedSeconds:  elapsedSec,
		DurationSeconds: e.duration.Seconds(),
	})
}

// buildMeasurement normalizes a raw snapshot into a measurement,
// deriving IO and network rates from the counter deltas. Caller must
// hold e.mu (the rate tracker baseline is not otherwise guarded).
func (e *Engine) buildMeasurement(now time.Time, elapsedSec float64, snap metrics.Snapshot) Measurement {
	rx, tx := e.rates.networkRates(snap.Network.BytesRecv, snap.Network.BytesSent)
	rd, wr := e.rates.diskRates(snap.Disk.ReadBytes, snap.Disk.WriteBytes)

	m := Measurement{
		Timestamp: now,
		Elapsed:   elapsedSec,
		CPU: CPUMetrics{
			UsagePercent: round2(snap.CPU.UsagePercent),
			PerCore:      roundAll(snap.CPU.PerCore),
		},
		Memory: MemoryMetrics{
			TotalBytes:  snap.Memory.TotalBytes,
			UsedBytes:   snap.Memory.UsedBytes,
			FreeBytes:   snap.Memory.FreeBytes,
			UsedPercent: round2(snap.Memory.UsedPercent),
		},
		Disk: DiskMetrics{
			TotalBytes:       snap.Disk.TotalBytes,
			UsedBytes:        snap.Disk.UsedBytes,
			UsedPercent:      round2(snap.Disk.UsedPercent),
			ReadBytesPerSec:  round2(rd),
			WriteBytesPerSec: round2(wr),
		},
		Network: NetworkMetrics{
			RecvBytesPerSec: round2(rx),
			SentBytesPerSec: round2(tx),
		},
	}

	if snap.CPU.TemperatureC != nil {
		t := round2(*snap.CPU.TemperatureC)
		m.CPU.TemperatureC = &t
	}

	if snap.GPU != nil {
		m.GPU = &GPUMetrics{
			Name:               snap.GPU.Name,
			UtilizationPercent: round2(snap.GPU.UtilizationPercent),
			TemperatureC:       round2(snap.GPU.TemperatureC),
			MemoryUsedBytes:    snap.GPU.MemoryUsedBytes,
			MemoryTotalBytes:   snap.GPU.MemoryTotalBytes,
		}
	}

	return m
}

// Stop ends the running session. It is idempotent: calls while idle or
// terminal are no-ops. The first call while running blocks until the
// session is finalized and returns the persistence error, if any; the
// completed transition itself is never rolled back by a storage
// failure.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return nil
	}
	if !e.stopping {
		e.stopping = true
		close(e.stopCh)
	}
	done := e.doneCh
	e.mu.Unlock()

	<-done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalErr
}

// Wait blocks until the current session reaches a terminal state and
// returns the persistence error, if any. Returns immediately when no
// session is active.
func (e *Engine) Wait() error {
	e.mu.Lock()
	done := e.doneCh
	e.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalErr
}

// finalize freezes the session, persists the snapshot, and emits the
// completed event. Runs on the run goroutine, after any in-flight tick
// has fully finished, so the measurement sequence is frozen exactly at
// the terminal transition.
func (e *Engine) finalize(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning || e.sess == nil {
		e.failLocked(fmt.Errorf("%w: finalize in state %q", ErrEngineFault, e.state))
		return
	}

	now := time.Now()
	e.sess.EndTime = &now
	e.sess.State = StateCompleted
	e.state = StateCompleted

	if e.store != nil {
		if err := e.store.Save(e.sess); err != nil {
			e.finalErr = &PersistenceError{Err: err}
			e.logger.Error("session.persist.failed", "Failed to persist session snapshot", map[string]interface{}{
				"session_id": e.sess.ID,
				"error":      err.Error(),
			})
		}
	}

	e.logger.Info("session.completed", "Sampling session completed", map[string]interface{}{
		"session_id":   e.sess.ID,
		"reason":       reason,
		"measurements": len(e.sess.Measurements),
	})

	e.publishLocked(Event{
		Type:            EventCompleted,
		Session:         e.sess,
		ProgressPercent: 100,
		ElapsedSeconds:  e.elapsed.Seconds(),
		DurationSeconds: e.duration.Seconds(),
	})
	if e.finalErr != nil {
		// Storage failure is a separate failure domain from monitoring:
		// the completed event above still fired.
		e.publishLocked(Event{Type: EventError, Err: e.finalErr, Session: e.sess})
	}

	e.closeSubscribersLocked()
	close(e.doneCh)
}

// failLocked force-transitions the session to failed on an engine
// fault. Caller must hold e.mu.
func (e *Engine) failLocked(cause error) {
	e.logger.Error("session.fault", "Engine fault, session failed", map[string]interface{}{
		"error": cause.Error(),
	})

	if e.sess == nil || e.state.Terminal() {
		return
	}

	now := time.Now()
	e.sess.EndTime = &now
	e.sess.State = StateFailed
	e.state = StateFailed
	e.finalErr = cause

	e.publishLocked(Event{Type: EventError, Err: cause, Session: e.sess})
	e.closeSubscribersLocked()
	close(e.doneCh)
}

// State returns the engine's current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns a copy of the active or most recent session, or nil
// when the engine has not run yet.
func (e *Engine) Current() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.Clone()
}

// Measurements returns a copy of the current measurement sequence.
// Callable while running or after completion.
func (e *Engine) Measurements() []Measurement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	out := make([]Measurement, len(e.sess.Measurements))
	copy(out, e.sess.Measurements)
	return out
}

// roundAll rounds a slice of percentages to two decimals
func roundAll(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = round2(v)
	}
	return out
}
