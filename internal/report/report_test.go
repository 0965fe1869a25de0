package report

import (
	"strings"
	"testing"
	"time"

	"resmon/internal/session"
	"resmon/internal/stats"
)

func testSession() *session.Session {
	start := time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)
	return &session.Session{
		ID:              "rep-1",
		DurationSeconds: 10,
		IntervalSeconds: 1,
		StartTime:       start,
		EndTime:         &end,
		State:           session.StateCompleted,
		Measurements: []session.Measurement{
			{Timestamp: start.Add(time.Second), Elapsed: 1, CPU: session.CPUMetrics{UsagePercent: 20}, Memory: session.MemoryMetrics{UsedPercent: 40}},
			{Timestamp: start.Add(2 * time.Second), Elapsed: 2, CPU: session.CPUMetrics{UsagePercent: 60}, Memory: session.MemoryMetrics{UsedPercent: 45}},
		},
	}
}

func TestRenderIncludesSessionAndStats(t *testing.T) {
	sess := testSession()
	out := Render(sess, stats.Compute(sess.Measurements))

	for _, want := range []string{"rep-1", "completed", "Statistics", "Peak CPU", "60.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderWithoutMeasurements(t *testing.T) {
	sess := testSession()
	sess.Measurements = nil

	out := Render(sess, stats.Compute(sess.Measurements))
	if !strings.Contains(out, "No measurements collected") {
		t.Error("empty report missing placeholder text")
	}
	if strings.Contains(out, "Peak CPU") {
		t.Error("empty report should not render statistics")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
