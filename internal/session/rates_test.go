package session

import (
	"testing"
	"time"
)

func TestNetworkRatesFirstCallIsZero(t *testing.T) {
	r := newRateTracker(time.Second)

	rx, tx := r.networkRates(5000, 2500)
	if rx != 0 || tx != 0 {
		t.Errorf("first call returned rates %v/%v, want 0/0", rx, tx)
	}
}

func TestNetworkRatesFromCounterDeltas(t *testing.T) {
	r := newRateTracker(time.Second)

	r.networkRates(1000, 1)
	rx, tx := r.networkRates(3000, 2)

	if rx != 2000 {
		t.Errorf("rx = %v, want 2000", rx)
	}
	if tx != 1 {
		t.Errorf("tx = %v, want 1", tx)
	}
}

func TestRatesScaleWithInterval(t *testing.T) {
	r := newRateTracker(2 * time.Second)

	r.diskRates(0, 0)
	rd, wr := r.diskRates(4000, 1000)

	if rd != 2000 {
		t.Errorf("rd = %v, want 2000", rd)
	}
	if wr != 500 {
		t.Errorf("wr = %v, want 500", wr)
	}
}

func TestCounterDecreaseClampsToZero(t *testing.T) {
	r := newRateTracker(time.Second)

	r.networkRates(9000, 9000)
	rx, tx := r.networkRates(100, 9500)

	if rx != 0 {
		t.Errorf("rx after counter reset = %v, want 0", rx)
	}
	if tx != 500 {
		t.Errorf("tx = %v, want 500", tx)
	}
}

func TestDiskAndNetworkBaselinesAreIndependent(t *testing.T) {
	r := newRateTracker(time.Second)

	r.networkRates(100, 100)
	rd, wr := r.diskRates(100, 100)
	if rd != 0 || wr != 0 {
		t.Errorf("first disk call returned %v/%v, want 0/0", rd, wr)
	}

	rx, _ := r.networkRates(300, 100)
	if rx != 200 {
		t.Errorf("rx = %v, want 200", rx)
	}
}
