package tui

import (
	"errors"
	"strings"
	"testing"

	"resmon/internal/session"
)

func sampleEvent(cpu float64, progress float64) eventMsg {
	return eventMsg(session.Event{
		Type: session.EventSample,
		Measurement: &session.Measurement{
			CPU:    session.CPUMetrics{UsagePercent: cpu},
			Memory: session.MemoryMetrics{TotalBytes: 8 << 30, UsedBytes: 4 << 30, UsedPercent: 50},
		},
		ProgressPercent: progress,
		ElapsedSeconds:  progress / 10,
		DurationSeconds: 10,
	})
}

func TestViewBeforeFirstSample(t *testing.T) {
	m := &Model{}
	if !strings.Contains(m.View(), "Waiting for first sample") {
		t.Error("initial view missing waiting placeholder")
	}
}

func TestSampleEventUpdatesView(t *testing.T) {
	m := &Model{events: make(chan session.Event)}

	updated, cmd := m.Update(sampleEvent(42.5, 30))
	if cmd == nil {
		t.Error("Update did not reschedule event wait")
	}

	view := updated.View()
	if !strings.Contains(view, "42.5%") {
		t.Errorf("view missing CPU value: %q", view)
	}
	if !strings.Contains(view, "30.0%") {
		t.Errorf("view missing progress: %q", view)
	}
}

func TestErrorEventShowsAndSampleClears(t *testing.T) {
	m := &Model{events: make(chan session.Event)}

	updated, _ := m.Update(eventMsg(session.Event{Type: session.EventError, Err: errors.New("probe down")}))
	if !strings.Contains(updated.View(), "probe down") {
		t.Error("view missing error text")
	}

	updated, _ = updated.(*Model).Update(sampleEvent(10, 50))
	if strings.Contains(updated.View(), "probe down") {
		t.Error("error text not cleared by next sample")
	}
}

func TestDoneMessageQuits(t *testing.T) {
	m := &Model{events: make(chan session.Event)}
	m.Update(sampleEvent(10, 100))

	updated, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("doneMsg did not produce a quit command")
	}
	if !updated.(*Model).finished {
		t.Error("model not marked finished after doneMsg")
	}
}

func TestGaugeBarClamps(t *testing.T) {
	over := gaugeBarPlain(150, 10)
	if strings.Contains(over, gaugeEmpty) {
		t.Errorf("gauge above 100%% should be full: %q", over)
	}
	under := gaugeBarPlain(-5, 10)
	if strings.Contains(under, gaugeFill) {
		t.Errorf("gauge below 0%% should be empty: %q", under)
	}
}
