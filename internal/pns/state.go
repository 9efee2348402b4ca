package pns

import (
	"sync"
	"time"
)

// RuntimeState tracks the live session values shared between the burst
// loop and the inbound router.
type RuntimeState struct {
	mu                sync.RWMutex
	burstCount        uint64
	stimulationPeriod time.Duration
}

// NewRuntimeState seeds the state with the registration-time stimulation
// period.
func NewRuntimeState(period time.Duration) *RuntimeState {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &RuntimeState{stimulationPeriod: period}
}

// StimulationPeriod returns the current burst interval.
func (s *RuntimeState) StimulationPeriod() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stimulationPeriod
}

// SetStimulationPeriod adopts a new burst interval announced by FEAGI.
// Non-positive periods are ignored. Reports whether the value changed.
func (s *RuntimeState) SetStimulationPeriod(period time.Duration) bool {
	if period <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if period == s.stimulationPeriod {
		return false
	}
	s.stimulationPeriod = period
	return true
}

// NextBurst increments and returns the burst counter.
func (s *RuntimeState) NextBurst() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.burstCount++
	return s.burstCount
}

// BurstCount returns the number of bursts published so far.
func (s *RuntimeState) BurstCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.burstCount
}
