package sync

import (
	"context"
	"log"
	"time"

	"github.com/xelth-com/fieldopsgo/internal/config"
)

// Service runs the engine on a schedule. It owns the ticker goroutine;
// callers trigger out-of-band cycles through TriggerSync.
type Service struct {
	engine   *Engine
	cfg      *config.SyncConfig
	stopChan chan struct{}
	syncChan chan struct{}
}

func NewService(engine *Engine, cfg *config.SyncConfig) *Service {
	return &Service{
		engine:   engine,
		cfg:      cfg,
		stopChan: make(chan struct{}),
		syncChan: make(chan struct{}, 1),
	}
}

// Start launches the scheduler goroutine. It returns immediately; cycles
// run in the background until Stop is called.
func (s *Service) Start() {
	if !s.cfg.Enabled {
		log.Println("📡 Sync disabled by configuration")
		return
	}
	go s.run()
}

// Stop shuts the scheduler down. A cycle in flight finishes on its own.
func (s *Service) Stop() {
	close(s.stopChan)
}

// TriggerSync requests an immediate cycle. It never blocks; if a trigger
// is already queued the call is a no-op.
func (s *Service) TriggerSync() {
	select {
	case s.syncChan <- struct{}{}:
	default:
	}
}

// Engine exposes the underlying engine for status queries.
func (s *Service) Engine() *Engine {
	return s.engine
}

func (s *Service) run() {
	interval := time.Duration(s.cfg.AutoSyncInterval) * time.Second
	log.Printf("📡 Sync service started (interval %s)", interval)

	if s.cfg.SyncOnStartup {
		s.runCycle()
	}

	if !s.cfg.AutoSyncEnabled {
		// Manual mode: only explicit triggers run cycles.
		for {
			select {
			case <-s.syncChan:
				s.runCycle()
			case <-s.stopChan:
				log.Println("🛑 Sync service stopped")
				return
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runCycle()
		case <-s.syncChan:
			s.runCycle()
		case <-s.stopChan:
			log.Println("🛑 Sync service stopped")
			return
		}
	}
}

func (s *Service) runCycle() {
	timeout := time.Duration(s.cfg.SyncTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := s.engine.FullSync(ctx); err != nil {
		log.Printf("⚠️ Sync cycle skipped: %v", err)
	}
}
