package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/bus"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/datastore"
	"github.com/aleister1102/pagewatch/internal/diagnostics"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubPages struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	panics map[string]bool
	calls  int
}

func newStubPages() *stubPages {
	return &stubPages{
		pages:  make(map[string]string),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (p *stubPages) Normalize(_ context.Context, url string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.panics[url] {
		panic("normalizer exploded")
	}
	if err := p.errs[url]; err != nil {
		return "", err
	}
	return p.pages[url], nil
}

func (p *stubPages) set(url, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[url] = html
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []bus.Message
	ctxErrs  []error
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, msg bus.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	b.ctxErrs = append(b.ctxErrs, ctx.Err())
}

func (b *recordingBroadcaster) types() []bus.CommandType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bus.CommandType, 0, len(b.messages))
	for _, m := range b.messages {
		out = append(out, m.Type)
	}
	return out
}

func (b *recordingBroadcaster) last() bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[len(b.messages)-1]
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	changes  []models.LinkChange
	onNotify func()
}

func (n *recordingNotifier) NotifyChange(_ context.Context, change models.LinkChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	if n.onNotify != nil {
		n.onNotify()
	}
	return nil
}

type countingSnapshots struct {
	mu    sync.Mutex
	count int
}

func (c *countingSnapshots) Snapshot(now time.Time) (diagnostics.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return diagnostics.Snapshot{TakenAt: now}, errors.New("disk full")
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type harness struct {
	cfg         config.MonitorConfig
	service     *Service
	store       *datastore.Store
	pages       *stubPages
	broadcaster *recordingBroadcaster
	notifier    *recordingNotifier
	snapshots   *countingSnapshots
	clock       *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := datastore.Open(datastore.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		cfg:         config.NewDefaultMonitorConfig(),
		store:       store,
		pages:       newStubPages(),
		broadcaster: &recordingBroadcaster{},
		notifier:    &recordingNotifier{},
		snapshots:   &countingSnapshots{},
		clock:       &fakeClock{now: baseTime},
	}
	h.service, err = NewService(h.cfg, Dependencies{
		Store:       store,
		Normalizer:  h.pages,
		Notifier:    h.notifier,
		Broadcaster: h.broadcaster,
		Diagnostics: h.snapshots,
		Clock:       h.clock.Now,
	}, zerolog.Nop())
	require.NoError(t, err)
	return h
}

func (h *harness) track(t *testing.T, url, html string) models.Link {
	t.Helper()
	h.pages.set(url, html)
	link, err := h.service.Track(context.Background(), url)
	require.NoError(t, err)
	return link
}

func (h *harness) link(t *testing.T, url string) models.Link {
	t.Helper()
	link, err := h.store.GetLink(context.Background(), url)
	require.NoError(t, err)
	return link
}

func (h *harness) items(t *testing.T) []models.Item {
	t.Helper()
	items, err := h.store.ListItems(context.Background())
	require.NoError(t, err)
	return items
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(config.NewDefaultMonitorConfig(), Dependencies{Normalizer: newStubPages()}, zerolog.Nop())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestService_Track(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.pages.set("https://example.com/a", "A\nB")

	link, err := h.service.Track(ctx, "  https://Example.com/a#top")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", link.URL)

	links, err := h.store.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/a", links[0].URL)
	assert.Equal(t, "A\nB", links[0].HTML)
	assert.True(t, baseTime.Equal(links[0].CheckStamp))
	assert.True(t, links[0].CheckStamp.Equal(links[0].ChangeStamp))

	_, err = h.service.Track(ctx, "https://example.com/a")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestService_TrackInvalidURL(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Track(context.Background(), "not a url")

	var invalid *common.InvalidURLError
	assert.True(t, errors.As(err, &invalid))
	assert.Zero(t, h.pages.calls)
}

func TestService_TrackFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.pages.errs["https://example.com/down"] = common.NewFetchError("https://example.com/down", errors.New("refused"))

	_, err := h.service.Track(context.Background(), "https://example.com/down")

	var fetchErr *common.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	links, err := h.store.ListLinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestService_CycleIsIdempotentWithoutUpstreamChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.track(t, "https://example.com/a", "A\nB")
	h.track(t, "https://example.com/b", "X")

	h.clock.Advance(time.Minute)
	_, err := h.service.CheckAll(ctx)
	require.NoError(t, err)
	secondRun := h.clock.Advance(time.Minute)
	summary, err := h.service.CheckAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalLinks)
	assert.Empty(t, summary.ChangedURLs)
	assert.Empty(t, summary.FailedURLs)
	for url, html := range map[string]string{"https://example.com/a": "A\nB", "https://example.com/b": "X"} {
		link := h.link(t, url)
		assert.Equal(t, html, link.HTML)
		assert.True(t, secondRun.Equal(link.CheckStamp), "check stamp advances for %s", url)
		assert.True(t, baseTime.Equal(link.ChangeStamp), "change stamp is kept for %s", url)
	}
	assert.Empty(t, h.items(t))
	assert.Empty(t, h.notifier.changes)
	assert.NotContains(t, h.broadcaster.types(), bus.TypeListItems)
	assert.Equal(t, 2, h.snapshots.count)
}

func TestService_CheckLinkDetectsChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	url := "https://example.com/a"
	h.track(t, url, "A\nB")
	h.pages.set(url, "A\nC")
	checkedAt := h.clock.Advance(time.Minute)

	result, err := h.service.CheckLink(ctx, url)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "@@ -1,2 +1,2 @@\n A\n-B\n+C", result.Diff)

	link := h.link(t, url)
	assert.Equal(t, "A\nC", link.HTML)
	assert.True(t, checkedAt.Equal(link.CheckStamp))
	assert.True(t, checkedAt.Equal(link.ChangeStamp))

	items := h.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Beware https://example.com/a change", items[0].Title)
	assert.Equal(t, models.ChangeBody(result.Diff), items[0].Body)

	require.Len(t, h.notifier.changes, 1)
	assert.Equal(t, 1, h.notifier.changes[0].LinesAdded)
	assert.Equal(t, 1, h.notifier.changes[0].LinesDeleted)
	assert.Equal(t, []bus.CommandType{bus.TypeListLinks, bus.TypeListItems}, h.broadcaster.types())

	// A second check of the same content finds nothing new.
	h.broadcaster.reset()
	h.clock.Advance(time.Minute)
	result, err = h.service.CheckLink(ctx, url)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Len(t, h.items(t), 1)
	assert.Equal(t, []bus.CommandType{bus.TypeListLinks}, h.broadcaster.types())
}

func TestService_CheckLinkBroadcastsAfterRequesterLeaves(t *testing.T) {
	h := newHarness(t)
	url := "https://example.com/a"
	h.track(t, url, "A\nB")
	h.pages.set(url, "A\nC")
	h.clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The requesting connection goes away once the change is stored.
	h.notifier.onNotify = cancel

	result, err := h.service.CheckLink(ctx, url)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, "A\nC", h.link(t, url).HTML)
	assert.Len(t, h.items(t), 1)

	assert.Equal(t, []bus.CommandType{bus.TypeListLinks, bus.TypeListItems}, h.broadcaster.types())
	for _, err := range h.broadcaster.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestService_MaskSuppressesChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	url := "https://example.com/a"
	link := h.track(t, url, "A\nB")
	require.NoError(t, h.store.SetLinkField(ctx, link.RowID, models.LinkFieldMask, "B|C"))
	h.pages.set(url, "A\nC")
	checkedAt := h.clock.Advance(time.Minute)

	result, err := h.service.CheckLink(ctx, url)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.Diff)
	got := h.link(t, url)
	assert.Equal(t, "A\nB", got.HTML)
	assert.True(t, checkedAt.Equal(got.CheckStamp))
	assert.True(t, baseTime.Equal(got.ChangeStamp))
	assert.Empty(t, h.items(t))
}

func TestService_CheckMissingLink(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.CheckLink(context.Background(), "https://example.com/missing")

	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_CycleIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.track(t, "https://example.com/down", "D")
	h.track(t, "https://example.com/boom", "P")
	h.track(t, "https://example.com/changed", "A\nB")

	h.pages.errs["https://example.com/down"] = common.NewFetchError("https://example.com/down", common.NewHTTPErrorWithURL(503, "unavailable", "https://example.com/down"))
	h.pages.panics["https://example.com/boom"] = true
	h.pages.set("https://example.com/changed", "A\nC")
	checkedAt := h.clock.Advance(time.Minute)

	summary, err := h.service.CheckAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalLinks)
	assert.Equal(t, []string{"https://example.com/changed"}, summary.ChangedURLs)
	assert.Equal(t, []string{"https://example.com/boom", "https://example.com/down"}, summary.FailedURLs)

	down := h.link(t, "https://example.com/down")
	assert.True(t, checkedAt.Equal(down.CheckStamp), "failed attempts still move checkStamp")
	assert.True(t, baseTime.Equal(down.ChangeStamp))
	assert.Equal(t, "D", down.HTML)
	assert.Equal(t, "A\nC", h.link(t, "https://example.com/changed").HTML)
	assert.Len(t, h.items(t), 1)
}

func TestService_CheckLinkRecordsFailedAttempt(t *testing.T) {
	h := newHarness(t)
	url := "https://example.com/down"
	h.track(t, url, "D")
	h.pages.errs[url] = common.NewFetchError(url, errors.New("refused"))
	checkedAt := h.clock.Advance(time.Minute)

	_, err := h.service.CheckLink(context.Background(), url)

	var fetchErr *common.FetchError
	require.True(t, errors.As(err, &fetchErr))
	link := h.link(t, url)
	assert.True(t, checkedAt.Equal(link.CheckStamp))
	assert.True(t, baseTime.Equal(link.ChangeStamp))
	assert.Equal(t, "D", link.HTML)
	assert.Empty(t, h.items(t))
	assert.Equal(t, []bus.CommandType{bus.TypeListLinks}, h.broadcaster.types())
}

func TestService_CheckAllRecordsAudit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status, err := h.service.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.LastCheck)
	assert.True(t, baseTime.Equal(status.NextCheck))

	started := h.clock.Advance(time.Minute)
	_, err = h.service.CheckAll(ctx)
	require.NoError(t, err)

	status, err = h.service.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastCheck)
	assert.True(t, started.Equal(*status.LastCheck))
	assert.True(t, started.Add(h.cfg.CheckInterval()).Equal(status.NextCheck))
}
