package hotreload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/livefir/hotreload/internal/metrics"
)

// Session wires the watcher, the file map, and the patch server into one
// watch session. Two goroutines do all the work: the processing loop owns
// the FileMap and consumes debounced change events; the patch server owns
// the client set. They share nothing but the Broadcast hand-off.
type Session struct {
	cfg       Config
	fm        *FileMap
	server    *PatchServer
	logger    *slog.Logger
	collector *metrics.Collector

	// paused flips once a rebuild has been requested: the surrounding
	// build orchestrator is about to replace the running process, so
	// further events are moot until Resume.
	paused atomic.Bool
}

// NewSession scans the configured root and prepares a session. Scan errors
// are non-fatal and logged; only an invalid config is an error.
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	fm, errs := Load(cfg.Root, WithMacros(cfg.Macros...), WithExclude(cfg.excludeFunc()))
	for _, err := range errs {
		logger.Warn("scan", "error", err)
	}
	if fm.Files() == 0 {
		logger.Warn("no source files found under root", "root", cfg.Root)
	}
	collector := metrics.NewCollector()
	return &Session{
		cfg:       cfg,
		fm:        fm,
		server:    NewPatchServer(cfg.Listen, logger, collector),
		logger:    logger,
		collector: collector,
	}, nil
}

// Stats returns a snapshot of what the session has done so far.
func (s *Session) Stats() metrics.SessionStats {
	return s.collector.Snapshot()
}

// FileMap exposes the session's cache, e.g. for asset watching.
func (s *Session) FileMap() *FileMap { return s.fm }

// Resume re-enables event processing after the external build orchestrator
// has restarted the program.
func (s *Session) Resume() {
	s.paused.Store(false)
	s.logger.Info("hot reload resumed")
}

// Run blocks until ctx is done or the patch endpoint fails fatally.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher, err := NewWatcher(s.cfg.Root, s.cfg.Debounce(), s.cfg.excludeFunc(), s.logger)
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- s.server.Run(ctx) }()
	go func() {
		if err := watcher.Run(ctx); err != nil {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()

	s.logger.Info("watching for template edits",
		"root", s.cfg.Root, "listen", s.cfg.Listen, "files", s.fm.Files())

	for {
		select {
		case <-ctx.Done():
			s.server.Shutdown()
			stats := s.collector.Snapshot()
			s.logger.Info("session finished",
				"events", stats.EventsSeen,
				"patches", stats.TemplatePatches,
				"rebuilds", stats.RebuildsRequested,
				"uptime", stats.Uptime.Round(time.Second))
			return nil
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("patch server: %w", err)
			}
			return nil
		case path, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			s.collector.IncrementEventSeen()
			if s.paused.Load() {
				s.collector.IncrementEventSkipped()
				continue
			}
			s.process(path)
		}
	}
}

// process applies one change event and broadcasts the outcome.
func (s *Session) process(path string) {
	res, err := s.fm.ApplyChange(path, s.cfg.Root)
	if err != nil {
		if errors.Is(err, ErrParse) {
			// Broken source: nothing to patch, the compiler will tell the
			// developer what is wrong.
			s.collector.IncrementParseFailure()
			s.requestRebuild(path, err.Error())
			return
		}
		// I/O failures affect only this file; the session keeps running.
		s.collector.IncrementEventSkipped()
		s.logger.Warn("change skipped", "path", path, "error", err)
		return
	}
	if res.NeedsRebuild {
		s.requestRebuild(path, res.Reason)
		return
	}
	for _, t := range res.Templates {
		s.collector.IncrementTemplatePatch()
		s.logger.Info("hot patching template", "name", t.Name)
		s.server.Broadcast(UpdateMessage(t))
	}
}

func (s *Session) requestRebuild(path, reason string) {
	s.collector.IncrementRebuildRequested()
	s.logger.Info("requesting rebuild", "path", path, "reason", reason)
	s.server.Broadcast(RebuildMessage(reason))
	s.paused.Store(true)
}
