package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/store"
)

// HousekeepingService periodically deletes expired invitations so the
// table does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the background cleaner. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, waiting for any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once at startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if err := s.Store.Invitations().DeleteExpiredInvitations(ctx); err != nil {
		s.Logger.Error("failed to delete expired invitations", "error", err)
		return
	}
	s.Logger.Debug("expired invitations deleted")
}
