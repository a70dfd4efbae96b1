// Package metrics records scan and workflow counters. Components take a
// Recorder; NoopRecorder is used when metrics are disabled.
package metrics

import "time"

// Scan outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeAdded    = "added"
	OutcomeReceived = "received"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder defines the observability hooks used by the tracker.
type Recorder interface {
	IncScan(mode, outcome string)
	IncTransition(from, to string)
	ObserveRefreshDuration(d time.Duration)
	SetBoxesByStatus(counts map[string]int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncScan(string, string)               {}
func (NoopRecorder) IncTransition(string, string)         {}
func (NoopRecorder) ObserveRefreshDuration(time.Duration) {}
func (NoopRecorder) SetBoxesByStatus(map[string]int)      {}
