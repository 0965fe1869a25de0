package session

import "time"

// rateTracker converts successive absolute monotonic counters into
// per-second rates. It uses the configured interval as the time
// denominator, matching the cadence the scheduler intends; scheduler
// jitter introduces a bounded inaccuracy instead of coupling the
// calculation to system-clock precision.
//
// The tracker is private to one session and must not be reused across
// sessions; each Start constructs a fresh one.
type rateTracker struct {
	interval float64 // seconds

	hasNet   bool
	prevRecv uint64
	prevSent uint64

	hasDisk   bool
	prevRead  uint64
	prevWrite uint64
}

func newRateTracker(interval time.Duration) *rateTracker {
	return &rateTracker{interval: interval.Seconds()}
}

// networkRates returns receive/transmit rates in bytes per second.
// The first call establishes the baseline and returns zero rates.
func (r *rateTracker) networkRates(recv, sent uint64) (rx, tx float64) {
	if r.hasNet {
		rx = r.counterRate(recv, r.prevRecv)
		tx = r.counterRate(sent, r.prevSent)
	}
	r.prevRecv, r.prevSent = recv, sent
	r.hasNet = true
	return rx, tx
}

// diskRates returns read/write rates in bytes per second.
// The first call establishes the baseline and returns zero rates.
func (r *rateTracker) diskRates(read, write uint64) (rd, wr float64) {
	if r.hasDisk {
		rd = r.counterRate(read, r.prevRead)
		wr = r.counterRate(write, r.prevWrite)
	}
	r.prevRead, r.prevWrite = read, write
	r.hasDisk = true
	return rd, wr
}

// counterRate derives a rate from two absolute readings. Counters are
// expected to be monotonically non-decreasing; a decrease (counter
// reset, interface restart) is clamped to zero rather than reported as
// negative throughput.
func (r *rateTracker) counterRate(cur, prev uint64) float64 {
	if cur < prev || r.interval <= 0 {
		return 0
	}
	return float64(cur-prev) / r.interval
}
