// Package report renders a finished session and its statistics as a
// styled terminal summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"resmon/internal/session"
	"resmon/internal/stats"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)
)

// Render builds the full report for one session
func Render(sess *session.Session, summary *stats.Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resource Monitoring Report"))
	b.WriteString("\n\n")
	b.WriteString(renderHeader(sess))
	b.WriteString("\n")
	b.WriteString(renderSystem(sess))
	b.WriteString("\n")

	if summary == nil {
		b.WriteString(labelStyle.Render("No measurements collected."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(renderSummary(summary))
	return b.String()
}

func renderHeader(sess *session.Session) string {
	var b strings.Builder
	writeField(&b, "Session", sess.ID)
	writeField(&b, "State", string(sess.State))
	writeField(&b, "Started", sess.StartTime.Format(time.RFC3339))
	if sess.EndTime != nil {
		writeField(&b, "Ended", sess.EndTime.Format(time.RFC3339))
	}
	writeField(&b, "Duration", fmt.Sprintf("%.0fs planned, interval %.2gs", sess.DurationSeconds, sess.IntervalSeconds))
	writeField(&b, "Samples", fmt.Sprintf("%d", len(sess.Measurements)))
	return cardStyle.Render(sectionStyle.Render("Session") + "\n" + strings.TrimRight(b.String(), "\n"))
}

func renderSystem(sess *session.Session) string {
	sys := sess.System
	var b strings.Builder
	writeField(&b, "Host", sys.Hostname)
	writeField(&b, "OS", fmt.Sprintf("%s %s (%s)", sys.Platform, sys.PlatformVersion, sys.Arch))
	writeField(&b, "Kernel", sys.KernelVersion)
	writeField(&b, "CPU", fmt.Sprintf("%s, %d cores", sys.CPUModel, sys.CPUCores))
	writeField(&b, "Memory", formatBytes(sys.TotalMemory))
	return cardStyle.Render(sectionStyle.Render("System") + "\n" + strings.TrimRight(b.String(), "\n"))
}

func renderSummary(s *stats.Summary) string {
	var b strings.Builder
	b.WriteString(aggregateRow("CPU usage", s.CPUUsage, "%"))
	b.WriteString(aggregateRow("Memory used", s.MemoryUsed, "%"))
	b.WriteString(aggregateRow("Disk used", s.DiskUsed, "%"))
	b.WriteString(rateRow("Disk read", s.DiskRead))
	b.WriteString(rateRow("Disk write", s.DiskWrite))
	b.WriteString(rateRow("Net recv", s.NetworkRecv))
	b.WriteString(rateRow("Net sent", s.NetworkSent))
	if s.CPUTemperature.Count > 0 {
		b.WriteString(aggregateRow("CPU temp", s.CPUTemperature, "°C"))
	}
	if s.GPUUtilization.Count > 0 {
		b.WriteString(aggregateRow("GPU util", s.GPUUtilization, "%"))
		b.WriteString(aggregateRow("GPU temp", s.GPUTemperature, "°C"))
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Peak CPU:    "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f%% at sample %d (%s)",
		s.PeakCPU.Value, s.PeakCPU.Index, s.PeakCPU.Timestamp.Format("15:04:05"))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Peak memory: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f%% at sample %d (%s)",
		s.PeakMemory.Value, s.PeakMemory.Index, s.PeakMemory.Timestamp.Format("15:04:05"))))

	return cardStyle.Render(sectionStyle.Render("Statistics") + "\n" + b.String())
}

func aggregateRow(name string, a stats.Aggregate, unit string) string {
	return fmt.Sprintf("%s %s\n",
		labelStyle.Render(fmt.Sprintf("%-12s", name)),
		valueStyle.Render(fmt.Sprintf("min %.2f%s  max %.2f%s  avg %.2f%s  median %.2f%s",
			a.Min, unit, a.Max, unit, a.Avg, unit, a.Median, unit)))
}

func rateRow(name string, a stats.Aggregate) string {
	return fmt.Sprintf("%s %s\n",
		labelStyle.Render(fmt.Sprintf("%-12s", name)),
		valueStyle.Render(fmt.Sprintf("min %s/s  max %s/s  avg %s/s",
			formatBytes(uint64(a.Min)), formatBytes(uint64(a.Max)), formatBytes(uint64(a.Avg)))))
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label+":")))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// formatBytes renders a byte count with a binary unit suffix
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
