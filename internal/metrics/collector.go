// Package metrics provides simple built-in counters for a watch session
// with no external dependencies.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks what a watch session did with the change events it saw.
// All counters are safe for concurrent use.
type Collector struct {
	stats     SessionStats
	startTime time.Time
}

// SessionStats is a point-in-time snapshot of session activity.
type SessionStats struct {
	// Change processing
	EventsSeen        int64 `json:"events_seen"`
	EventsSkipped     int64 `json:"events_skipped"`
	TemplatePatches   int64 `json:"template_patches"`
	RebuildsRequested int64 `json:"rebuilds_requested"`
	ParseFailures     int64 `json:"parse_failures"`

	// Patch channel
	ClientsConnected int64 `json:"clients_connected"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// IncrementEventSeen records one change event taken off the watcher.
func (c *Collector) IncrementEventSeen() {
	atomic.AddInt64(&c.stats.EventsSeen, 1)
}

// IncrementEventSkipped records an event dropped while the session was
// paused or because the file could not be read.
func (c *Collector) IncrementEventSkipped() {
	atomic.AddInt64(&c.stats.EventsSkipped, 1)
}

// IncrementTemplatePatch records one template patch broadcast to clients.
func (c *Collector) IncrementTemplatePatch() {
	atomic.AddInt64(&c.stats.TemplatePatches, 1)
}

// IncrementRebuildRequested records a needs-rebuild broadcast.
func (c *Collector) IncrementRebuildRequested() {
	atomic.AddInt64(&c.stats.RebuildsRequested, 1)
}

// IncrementParseFailure records a change rejected because the edited
// source did not parse.
func (c *Collector) IncrementParseFailure() {
	atomic.AddInt64(&c.stats.ParseFailures, 1)
}

// IncrementClientConnected records a new patch-channel client.
func (c *Collector) IncrementClientConnected() {
	atomic.AddInt64(&c.stats.ClientsConnected, 1)
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() SessionStats {
	return SessionStats{
		EventsSeen:        atomic.LoadInt64(&c.stats.EventsSeen),
		EventsSkipped:     atomic.LoadInt64(&c.stats.EventsSkipped),
		TemplatePatches:   atomic.LoadInt64(&c.stats.TemplatePatches),
		RebuildsRequested: atomic.LoadInt64(&c.stats.RebuildsRequested),
		ParseFailures:     atomic.LoadInt64(&c.stats.ParseFailures),
		ClientsConnected:  atomic.LoadInt64(&c.stats.ClientsConnected),
		StartTime:         c.startTime,
		Uptime:            time.Since(c.startTime),
	}
}
