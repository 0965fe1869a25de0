package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"resmon/internal/logging"
	"resmon/internal/metrics"
)

// fakeSource serves deterministic snapshots with advancing network and
// disk counters. Calls listed in failOn return an error instead.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
}

func (f *fakeSource) Snapshot(ctx context.Context) (metrics.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[f.calls] {
		return metrics.Snapshot{}, errors.New("probe unavailable")
	}
	n := uint64(f.calls)
	return metrics.Snapshot{
		Timestamp: time.Now(),
		CPU:       metrics.CPUReading{UsagePercent: 25.5, PerCore: []float64{20, 31}},
		Memory:    metrics.MemoryReading{TotalBytes: 8 << 30, UsedBytes: 4 << 30, FreeBytes: 4 << 30, UsedPercent: 50},
		Disk: metrics.DiskReading{
			TotalBytes: 100 << 30, UsedBytes: 40 << 30, UsedPercent: 40,
			ReadBytes: n * 1000, WriteBytes: n * 500,
		},
		Network: metrics.NetworkReading{BytesRecv: n * 2000, BytesSent: n * 100},
	}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*Session
	err   error
}

func (f *fakeStore) Save(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s.Clone())
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero duration", Config{Duration: 0, Interval: time.Second}},
		{"negative duration", Config{Duration: -time.Second, Interval: time.Second}},
		{"zero interval", Config{Duration: time.Second, Interval: 0}},
		{"negative interval", Config{Duration: time.Second, Interval: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Start(tt.cfg)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Start() error = %v, want ConfigError", err)
			}
			if e.State() != StateIdle {
				t.Errorf("state after rejected Start = %q, want idle", e.State())
			}
		})
	}
}

func TestSessionRunsToCompletion(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(&fakeSource{}, store, testLogger())

	// Duration sits between the third and fourth tick so the sample
	// count is stable under scheduler jitter.
	id, err := e.Start(Config{Duration: 175 * time.Millisecond, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if id == "" {
		t.Fatal("Start() returned empty session ID")
	}
	if e.State() != StateRunning {
		t.Fatalf("state after Start = %q, want running", e.State())
	}

	if err := e.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	sess := e.Current()
	if sess == nil {
		t.Fatal("Current() returned nil after completion")
	}
	if sess.State != StateCompleted {
		t.Errorf("session state = %q, want completed", sess.State)
	}
	if sess.EndTime == nil {
		t.Error("completed session has no end time")
	}
	if got := len(sess.Measurements); got != 3 {
		t.Fatalf("got %d measurements, want 3", got)
	}

	// Elapsed advances by exactly one interval per sample regardless of
	// wall-clock jitter.
	for i, m := range sess.Measurements {
		want := 0.05 * float64(i+1)
		if diff := m.Elapsed - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("measurement %d elapsed = %v, want %v", i, m.Elapsed, want)
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 1 {
		t.Fatalf("store holds %d sessions, want 1", len(store.saved))
	}
	if store.saved[0].ID != id {
		t.Errorf("persisted session ID = %q, want %q", store.saved[0].ID, id)
	}
}

func TestStartConflictLeavesRunningSessionUntouched(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	id, err := e.Start(Config{Duration: time.Minute, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer e.Stop()

	time.Sleep(120 * time.Millisecond)
	before := len(e.Measurements())

	if _, err := e.Start(Config{Duration: time.Minute, Interval: time.Second}); !errors.Is(err, ErrSessionRunning) {
		t.Fatalf("second Start() error = %v, want ErrSessionRunning", err)
	}

	sess := e.Current()
	if sess.ID != id {
		t.Errorf("session ID changed to %q after rejected Start", sess.ID)
	}
	if got := len(e.Measurements()); got < before {
		t.Errorf("measurement count shrank from %d to %d", before, got)
	}
}

func TestFailedTickSkipsMeasurementAndEmitsError(t *testing.T) {
	src := &fakeSource{failOn: map[int]bool{2: true}}
	e := NewEngine(src, &fakeStore{}, testLogger())

	events, cancel := e.Subscribe()
	defer cancel()

	if _, err := e.Start(Config{Duration: 175 * time.Millisecond, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var samples, errEvents int
	var completed bool
	for ev := range events {
		switch ev.Type {
		case EventSample:
			samples++
		case EventError:
			errEvents++
		case EventCompleted:
			completed = true
			if ev.Session == nil {
				t.Error("completed event carries no session")
			}
		}
	}

	if samples != 2 {
		t.Errorf("got %d sample events, want 2", samples)
	}
	if errEvents != 1 {
		t.Errorf("got %d error events, want 1", errEvents)
	}
	if !completed {
		t.Error("never saw completed event")
	}
	if e.State() != StateCompleted {
		t.Errorf("state = %q, want completed despite failed tick", e.State())
	}

	// The failed tick still consumed its slot on the elapsed timeline.
	ms := e.Measurements()
	if len(ms) != 2 {
		t.Fatalf("got %d measurements, want 2", len(ms))
	}
	if diff := ms[1].Elapsed - 0.15; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("second measurement elapsed = %v, want 0.15", ms[1].Elapsed)
	}
}

func TestStopIsSynchronousAndIdempotent(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop() on idle engine: %v", err)
	}

	if _, err := e.Start(Config{Duration: time.Minute, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if e.State() != StateCompleted {
		t.Fatalf("state after Stop = %q, want completed", e.State())
	}
	frozen := len(e.Measurements())

	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}
	if got := len(e.Measurements()); got != frozen {
		t.Errorf("measurement count changed after second Stop: %d != %d", got, frozen)
	}
}

func TestStopSurfacesPersistenceError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	e := NewEngine(&fakeSource{}, store, testLogger())

	if _, err := e.Start(Config{Duration: time.Minute, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	time.Sleep(70 * time.Millisecond)

	err := e.Stop()
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Stop() error = %v, want PersistenceError", err)
	}

	// Persistence failure does not roll back the completed state.
	if e.State() != StateCompleted {
		t.Errorf("state = %q, want completed", e.State())
	}
}

func TestEngineIsReusableAfterCompletion(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(&fakeSource{}, store, testLogger())

	first, err := e.Start(Config{Duration: 75 * time.Millisecond, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("first Start() error: %v", err)
	}
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	second, err := e.Start(Config{Duration: 75 * time.Millisecond, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	if second == first {
		t.Error("second session reused the first session's ID")
	}
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 2 {
		t.Errorf("store holds %d sessions, want 2", len(store.saved))
	}
}

func TestSampleEventsCarryProgress(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	events, cancel := e.Subscribe()
	defer cancel()

	if _, err := e.Start(Config{Duration: 125 * time.Millisecond, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var last float64
	for ev := range events {
		if ev.Type != EventSample {
			continue
		}
		if ev.ProgressPercent < last {
			t.Errorf("progress went backwards: %v after %v", ev.ProgressPercent, last)
		}
		if ev.ProgressPercent < 0 || ev.ProgressPercent > 100 {
			t.Errorf("progress %v outside [0,100]", ev.ProgressPercent)
		}
		if ev.Measurement == nil {
			t.Error("sample event carries no measurement")
		}
		last = ev.ProgressPercent
	}
}

func TestMeasurementRatesDeriveFromCounters(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	if _, err := e.Start(Config{Duration: 175 * time.Millisecond, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	ms := e.Measurements()
	if len(ms) < 2 {
		t.Fatalf("got %d measurements, want at least 2", len(ms))
	}

	first := ms[0]
	if first.Network.RecvBytesPerSec != 0 || first.Disk.ReadBytesPerSec != 0 {
		t.Errorf("first measurement has nonzero rates: net %v, disk %v",
			first.Network.RecvBytesPerSec, first.Disk.ReadBytesPerSec)
	}

	// fakeSource advances recv by 2000 per call; at 50ms interval that
	// is 40000 bytes/s.
	second := ms[1]
	if second.Network.RecvBytesPerSec != 40000 {
		t.Errorf("recv rate = %v, want 40000", second.Network.RecvBytesPerSec)
	}
	if second.Disk.WriteBytesPerSec != 10000 {
		t.Errorf("disk write rate = %v, want 10000", second.Disk.WriteBytesPerSec)
	}
}

func TestSubscriberChannelClosesAtTerminal(t *testing.T) {
	e := NewEngine(&fakeSource{}, &fakeStore{}, testLogger())

	events, cancel := e.Subscribe()
	defer cancel()

	if _, err := e.Start(Config{Duration: 75 * time.Millisecond, Interval: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed after session end")
		}
	}
}
