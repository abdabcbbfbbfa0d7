package hotreload

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestSession(t *testing.T, dir string) *Session {
	t.Helper()
	s, err := NewSession(DefaultConfig(dir), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig("")
	if _, err := NewSession(cfg, nil); err == nil {
		t.Error("empty root accepted")
	}
}

func TestNewSessionSeedsFileMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "views.go", viewsFile)
	s := newTestSession(t, dir)
	if s.FileMap().Files() != 1 {
		t.Errorf("Files() = %d, want 1", s.FileMap().Files())
	}
}

func TestSessionProcessTemplateEdit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "views.go", viewsFile)
	s := newTestSession(t, dir)

	writeFile(t, dir, "views.go", strings.Replace(viewsFile, "Count:", "Total:", 1))
	s.process(path)

	stats := s.Stats()
	if stats.TemplatePatches != 1 {
		t.Errorf("TemplatePatches = %d, want 1", stats.TemplatePatches)
	}
	if s.paused.Load() {
		t.Error("session paused after a hot patch")
	}
}

func TestSessionProcessCodeEditPauses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "views.go", viewsFile)
	s := newTestSession(t, dir)

	writeFile(t, dir, "views.go", strings.Replace(viewsFile, "return 42", "return 43", 1))
	s.process(path)

	stats := s.Stats()
	if stats.RebuildsRequested != 1 {
		t.Errorf("RebuildsRequested = %d, want 1", stats.RebuildsRequested)
	}
	if !s.paused.Load() {
		t.Error("session not paused after rebuild request")
	}

	s.Resume()
	if s.paused.Load() {
		t.Error("Resume did not clear the pause")
	}
}

func TestSessionProcessParseFailurePauses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "views.go", viewsFile)
	s := newTestSession(t, dir)

	writeFile(t, dir, "views.go", "package app\n\nfunc broken(")
	s.process(path)

	stats := s.Stats()
	if stats.ParseFailures != 1 || stats.RebuildsRequested != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !s.paused.Load() {
		t.Error("session not paused after parse failure")
	}
}

func TestSessionProcessIOFailureSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "views.go", viewsFile)
	s := newTestSession(t, dir)

	s.process(filepath.Join(dir, "missing.go"))

	stats := s.Stats()
	if stats.EventsSkipped != 1 {
		t.Errorf("EventsSkipped = %d, want 1", stats.EventsSkipped)
	}
	if s.paused.Load() {
		t.Error("session paused after an I/O failure")
	}
}
