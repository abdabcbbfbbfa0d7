package metrics

import (
	"sync"
	"testing"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.IncrementEventSeen()
	c.IncrementEventSeen()
	c.IncrementTemplatePatch()
	c.IncrementRebuildRequested()
	c.IncrementParseFailure()
	c.IncrementEventSkipped()
	c.IncrementClientConnected()

	got := c.Snapshot()
	if got.EventsSeen != 2 || got.TemplatePatches != 1 || got.RebuildsRequested != 1 {
		t.Errorf("snapshot = %+v", got)
	}
	if got.ParseFailures != 1 || got.EventsSkipped != 1 || got.ClientsConnected != 1 {
		t.Errorf("snapshot = %+v", got)
	}
	if got.Uptime < 0 {
		t.Errorf("uptime = %v", got.Uptime)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncrementEventSeen()
				c.IncrementTemplatePatch()
			}
		}()
	}
	wg.Wait()
	got := c.Snapshot()
	if got.EventsSeen != 1000 || got.TemplatePatches != 1000 {
		t.Errorf("snapshot = %+v", got)
	}
}
