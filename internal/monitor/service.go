// Package monitor re-checks tracked links, records detected changes and
// keeps connected sessions informed.
package monitor

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/bus"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/diagnostics"
	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/mask"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/normalizer"
	"github.com/aleister1102/pagewatch/internal/notifier"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LinkStore is the persistence used by the monitor.
type LinkStore interface {
	ListLinks(ctx context.Context) ([]models.Link, error)
	GetLink(ctx context.Context, url string) (models.Link, error)
	InsertLink(ctx context.Context, link models.Link) (models.Link, error)
	RecordCheck(ctx context.Context, url string, stamp time.Time) error
	RecordChange(ctx context.Context, url string, stamp time.Time, html string) error
	CreateItem(ctx context.Context, title, body string, createdAt time.Time) (models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	Audit(ctx context.Context, name string) (models.Audit, error)
	UpsertAudit(ctx context.Context, name string, stamp time.Time) error
}

// PageNormalizer fetches a page and returns its normalized snapshot.
type PageNormalizer interface {
	Normalize(ctx context.Context, url string) (string, error)
}

// Broadcaster delivers a message to every open session.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg bus.Message)
}

// SnapshotRecorder captures a diagnostics snapshot.
type SnapshotRecorder interface {
	Snapshot(now time.Time) (diagnostics.Snapshot, error)
}

// Dependencies groups the collaborators of a Service. Store and Normalizer
// are required; the rest default to no-ops.
type Dependencies struct {
	Store       LinkStore
	Normalizer  PageNormalizer
	Notifier    notifier.Notifier
	Broadcaster Broadcaster
	Diagnostics SnapshotRecorder
	Clock       func() time.Time
}

// CheckResult is the outcome of checking one link.
type CheckResult struct {
	URL       string
	Changed   bool
	Diff      string
	CheckedAt time.Time
}

// Service runs link checks. Scheduled cycles, forced cycles and forced
// single-link checks all go through it.
type Service struct {
	cfg         config.MonitorConfig
	store       LinkStore
	normalizer  PageNormalizer
	notifier    notifier.Notifier
	broadcaster Broadcaster
	diagnostics SnapshotRecorder
	now         func() time.Time
	logger      zerolog.Logger

	// cycleMu is the single-slot guard: at most one cycle runs at a time.
	cycleMu  sync.Mutex
	tracker  *CycleTracker
	urlLocks *URLMutexManager
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, bus.Message) {}

// NewService creates a monitor service.
func NewService(cfg config.MonitorConfig, deps Dependencies, logger zerolog.Logger) (*Service, error) {
	if deps.Store == nil {
		return nil, common.NewValidationError("store", nil, "link store is required")
	}
	if deps.Normalizer == nil {
		return nil, common.NewValidationError("normalizer", nil, "normalizer is required")
	}
	if cfg.AuditName == "" {
		cfg.AuditName = config.DefaultMonitorAuditName
	}
	if cfg.MaxConcurrentChecks <= 0 {
		cfg.MaxConcurrentChecks = config.DefaultMonitorMaxConcurrentChecks
	}

	s := &Service{
		cfg:         cfg,
		store:       deps.Store,
		normalizer:  deps.Normalizer,
		notifier:    deps.Notifier,
		broadcaster: deps.Broadcaster,
		diagnostics: deps.Diagnostics,
		now:         deps.Clock,
		logger:      logger.With().Str("component", "MonitorService").Logger(),
		tracker:     NewCycleTracker(),
	}
	if s.notifier == nil {
		s.notifier = notifier.NopNotifier{}
	}
	if s.broadcaster == nil {
		s.broadcaster = nopBroadcaster{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.urlLocks = NewURLMutexManager(s.logger)
	return s, nil
}

// Track validates rawURL, takes its first snapshot and stores the link.
func (s *Service) Track(ctx context.Context, rawURL string) (models.Link, error) {
	url, err := normalizer.NormalizeURL(rawURL)
	if err != nil {
		return models.Link{}, err
	}

	unlock := s.urlLocks.Lock(url)
	defer unlock()

	html, err := s.normalizer.Normalize(ctx, url)
	if err != nil {
		return models.Link{}, err
	}

	link, err := s.store.InsertLink(ctx, models.NewLink(url, html, s.now()))
	if err != nil {
		return models.Link{}, err
	}
	s.logger.Info().Str("url", url).Int64("row_id", link.RowID).Msg("Link tracked")
	return link, nil
}

// CheckLink checks a single link now, regardless of the cycle interval.
func (s *Service) CheckLink(ctx context.Context, url string) (CheckResult, error) {
	return s.checkLink(ctx, url)
}

// CheckAll runs a full cycle now. It waits for a cycle already in flight
// to finish instead of overlapping it.
func (s *Service) CheckAll(ctx context.Context) (models.CycleSummary, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.runCycle(ctx)
}

// Status reports when the last cycle started and when the next is due.
func (s *Service) Status(ctx context.Context) (models.LinkCheckStatus, error) {
	audit, err := s.store.Audit(ctx, s.cfg.AuditName)
	if errors.Is(err, common.ErrNotFound) {
		return models.LinkCheckStatus{NextCheck: s.now().UTC()}, nil
	}
	if err != nil {
		return models.LinkCheckStatus{}, err
	}

	last := audit.Stamp
	return models.LinkCheckStatus{
		LastCheck: &last,
		NextCheck: last.Add(s.cfg.CheckInterval()),
	}, nil
}

func (s *Service) checkLink(ctx context.Context, url string) (CheckResult, error) {
	unlock := s.urlLocks.Lock(url)
	defer unlock()

	link, err := s.store.GetLink(ctx, url)
	if err != nil {
		return CheckResult{}, err
	}

	checkedAt := s.now()
	fresh, err := s.normalizer.Normalize(ctx, url)
	if err != nil {
		// checkStamp tracks attempts, successful or not.
		if recErr := s.store.RecordCheck(ctx, url, checkedAt); recErr != nil {
			s.logger.Debug().Err(recErr).Str("url", url).Msg("Failed to record check attempt")
		} else {
			s.broadcastLinks(ctx)
		}
		return CheckResult{}, err
	}

	oldMasked, err := mask.Apply(link.HTML, link.Mask, mask.StrategyRemove)
	if err != nil {
		return CheckResult{}, err
	}
	newMasked, err := mask.Apply(fresh, link.Mask, mask.StrategyRemove)
	if err != nil {
		return CheckResult{}, err
	}

	diff, err := differ.Diff(oldMasked, newMasked)
	if err != nil {
		return CheckResult{}, common.WrapErrorf(err, "diff %s", url)
	}

	result := CheckResult{URL: url, Changed: diff.Changed, Diff: diff.Body, CheckedAt: checkedAt}
	if !diff.Changed {
		if err := s.store.RecordCheck(ctx, url, checkedAt); err != nil {
			return CheckResult{}, err
		}
		s.logger.Debug().Str("url", url).Msg("Link unchanged")
		s.broadcastLinks(ctx)
		return result, nil
	}

	if err := s.store.RecordChange(ctx, url, checkedAt, fresh); err != nil {
		return CheckResult{}, err
	}
	if _, err := s.store.CreateItem(ctx, models.ChangeTitle(url), models.ChangeBody(diff.Body), checkedAt); err != nil {
		return CheckResult{}, common.WrapErrorf(err, "create change item for %s", url)
	}
	s.logger.Info().Str("url", url).Int("lines_added", diff.Stats.LinesAdded).Int("lines_deleted", diff.Stats.LinesDeleted).Msg("Link changed")

	change := models.LinkChange{
		URL:          url,
		Diff:         diff.Body,
		LinesAdded:   diff.Stats.LinesAdded,
		LinesDeleted: diff.Stats.LinesDeleted,
		DetectedAt:   checkedAt,
	}
	if err := s.notifier.NotifyChange(ctx, change); err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Failed to send change notification")
	}

	s.broadcastLinks(ctx)
	s.broadcastItems(ctx)
	return result, nil
}

// runCycle checks every link. Callers hold cycleMu.
func (s *Service) runCycle(ctx context.Context) (models.CycleSummary, error) {
	startedAt := s.now()
	cycleID := s.tracker.StartCycle(startedAt)
	logger := s.logger.With().Str("cycle_id", cycleID).Logger()

	if err := s.store.UpsertAudit(ctx, s.cfg.AuditName, startedAt); err != nil {
		return models.CycleSummary{}, common.WrapError(err, "record cycle start")
	}

	links, err := s.store.ListLinks(ctx)
	if err != nil {
		return models.CycleSummary{}, common.WrapError(err, "list links")
	}
	logger.Debug().Int("links", len(links)).Msg("Monitor cycle started")

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentChecks)
	activeURLs := make([]string, 0, len(links))
	for _, link := range links {
		url := link.URL
		activeURLs = append(activeURLs, url)
		g.Go(func() error {
			s.checkInCycle(ctx, url, logger)
			return nil
		})
	}
	_ = g.Wait()

	s.takeSnapshot(startedAt, logger)
	s.urlLocks.CleanupUnusedMutexes(activeURLs)

	summary := s.tracker.EndCycle(len(links), s.now())
	event := logger.Debug()
	if s.tracker.HasChanges() || len(summary.FailedURLs) > 0 {
		event = logger.Info()
	}
	event.
		Int("links", summary.TotalLinks).
		Strs("changed", summary.ChangedURLs).
		Strs("failed", summary.FailedURLs).
		Dur("duration", summary.Duration).
		Msg("Monitor cycle finished")
	return summary, nil
}

// checkInCycle checks one link and keeps any failure local to it.
func (s *Service) checkInCycle(ctx context.Context, url string, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			s.tracker.AddFailedURL(url)
			logger.Error().Str("url", url).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Link check panicked")
		}
	}()

	result, err := s.checkLink(ctx, url)
	switch {
	case errors.Is(err, common.ErrNotFound):
		logger.Debug().Str("url", url).Msg("Link removed during cycle")
	case err != nil:
		s.tracker.AddFailedURL(url)
		logger.Warn().Err(err).Str("url", url).Msg("Link check failed")
	case result.Changed:
		s.tracker.AddChangedURL(url)
	}
}

func (s *Service) takeSnapshot(now time.Time, logger zerolog.Logger) {
	if s.diagnostics == nil {
		return
	}
	snap, err := s.diagnostics.Snapshot(now)
	if err != nil {
		logger.Warn().Err(err).Msg("Diagnostics snapshot failed")
		return
	}
	logger.Debug().
		Int64("alloc_mb", snap.Usage.AllocMB).
		Int("goroutines", snap.Usage.Goroutines).
		Str("profile", snap.ProfilePath).
		Msg("Diagnostics snapshot taken")
}

// Broadcasts outlive the requesting connection.
func (s *Service) broadcastLinks(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	links, err := s.store.ListLinks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list links for broadcast")
		return
	}
	s.broadcaster.Broadcast(ctx, bus.Message{Type: bus.TypeListLinks, Data: links})
}

func (s *Service) broadcastItems(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	items, err := s.store.ListItems(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list items for broadcast")
		return
	}
	s.broadcaster.Broadcast(ctx, bus.Message{Type: bus.TypeListItems, Data: items})
}

func (s *Service) broadcastStatus(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	status, err := s.Status(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read link check status")
		return
	}
	s.broadcaster.Broadcast(ctx, bus.Message{Type: bus.TypeLinkCheckStatus, Data: status})
}
