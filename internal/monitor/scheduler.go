package monitor

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
)

// Scheduler wakes the monitor service at a short fixed interval and starts
// a cycle whenever the previous one is older than the check interval.
type Scheduler struct {
	cfg     config.MonitorConfig
	service *Service
	logger  zerolog.Logger
}

// NewScheduler creates a new monitor scheduler.
func NewScheduler(cfg config.MonitorConfig, service *Service, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		service: service,
		logger:  logger.With().Str("component", "MonitorScheduler").Logger(),
	}
}

// Run wakes until ctx is cancelled. It never stops on its own.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Link monitor disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().
		Dur("check_interval", s.cfg.CheckInterval()).
		Dur("wake_interval", s.cfg.WakeInterval()).
		Msg("Starting link monitor")

	ticker := time.NewTicker(s.cfg.WakeInterval())
	defer ticker.Stop()

	for {
		s.Wake(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Link monitor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Wake runs one scheduling step: start a cycle if one is due and none is
// in flight, then broadcast the check status. It reports whether a cycle ran.
func (s *Scheduler) Wake(ctx context.Context) (ran bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Monitor wake panicked")
		}
	}()

	ran = s.tryCycle(ctx)
	s.service.broadcastStatus(ctx)
	return ran
}

func (s *Scheduler) tryCycle(ctx context.Context) bool {
	if !s.service.cycleMu.TryLock() {
		s.logger.Debug().Msg("Cycle in flight, skipping wake")
		return false
	}
	defer s.service.cycleMu.Unlock()

	due, err := s.cycleDue(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read last cycle audit")
		return false
	}
	if !due {
		return false
	}

	if _, err := s.service.runCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Monitor cycle failed")
	}
	return true
}

func (s *Scheduler) cycleDue(ctx context.Context) (bool, error) {
	audit, err := s.service.store.Audit(ctx, s.service.cfg.AuditName)
	if errors.Is(err, common.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return s.service.now().Sub(audit.Stamp) >= s.cfg.CheckInterval(), nil
}
