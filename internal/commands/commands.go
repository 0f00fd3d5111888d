// Package commands implements the link commands of the session bus.
package commands

import (
	"context"
	"time"

	"github.com/aleister1102/pagewatch/internal/bus"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/mask"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/normalizer"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LinkStore is the persistence the handlers read and edit directly.
type LinkStore interface {
	ListLinks(ctx context.Context) ([]models.Link, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	SetLinkField(ctx context.Context, rowID int64, field models.LinkField, value string) error
	DeleteLink(ctx context.Context, url string) error
}

// LinkMonitor runs tracking and forced checks.
type LinkMonitor interface {
	Track(ctx context.Context, rawURL string) (models.Link, error)
	CheckLink(ctx context.Context, url string) (monitor.CheckResult, error)
	CheckAll(ctx context.Context) (models.CycleSummary, error)
	Status(ctx context.Context) (models.LinkCheckStatus, error)
}

type urlArgs struct {
	URL string `json:"url" validate:"required"`
}

type maskArgs struct {
	RowID int64  `json:"rowId" validate:"required,gt=0"`
	Mask  string `json:"mask"`
}

type patternArgs struct {
	RowID   int64  `json:"rowId" validate:"required,gt=0"`
	Pattern string `json:"pattern"`
}

// Handlers holds the link command implementations.
type Handlers struct {
	store       LinkStore
	monitor     LinkMonitor
	broadcaster monitor.Broadcaster
	validate    *validator.Validate
	logger      zerolog.Logger
}

// New creates the link command handlers.
func New(store LinkStore, linkMonitor LinkMonitor, broadcaster monitor.Broadcaster, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:       store,
		monitor:     linkMonitor,
		broadcaster: broadcaster,
		validate:    validator.New(),
		logger:      logger.With().Str("component", "LinkCommands").Logger(),
	}
}

// Register installs every link command on d.
func (h *Handlers) Register(d *bus.Dispatcher) {
	d.Handle(bus.TypeListLinks, h.listLinks)
	d.Handle(bus.TypeListItems, h.listItems)
	d.Handle(bus.TypeTrackLink, h.trackLink)
	d.Handle(bus.TypeForceCheckLink, h.forceCheckLink)
	d.Handle(bus.TypeForceCheckLinks, h.forceCheckLinks)
	d.Handle(bus.TypeSetLinkMask, h.setLinkMask)
	d.Handle(bus.TypeSetLinkRunMaskPositive, h.setRunMask(models.LinkFieldRunMaskPositive))
	d.Handle(bus.TypeSetLinkRunMaskNegative, h.setRunMask(models.LinkFieldRunMaskNegative))
	d.Handle(bus.TypeDeleteLink, h.deleteLink)
	d.Handle(bus.TypeGetLinkCheckStatus, h.getLinkCheckStatus)
}

func (h *Handlers) listLinks(ctx context.Context, _ *bus.Session, _ bus.Request) (any, error) {
	return h.store.ListLinks(ctx)
}

func (h *Handlers) listItems(ctx context.Context, _ *bus.Session, _ bus.Request) (any, error) {
	return h.store.ListItems(ctx)
}

func (h *Handlers) trackLink(ctx context.Context, s *bus.Session, req bus.Request) (any, error) {
	var args urlArgs
	if err := h.bind(req, &args); err != nil {
		return nil, err
	}

	started := time.Now()
	link, err := h.monitor.Track(ctx, args.URL)
	if err != nil {
		return nil, err
	}
	h.logger.Info().Str("url", link.URL).Str("user", s.User).Dur("took", time.Since(started)).Msg("Link tracked")

	links, err := h.store.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.Send(ctx, bus.Message{Type: bus.TypeListLinks, Data: links})
}

func (h *Handlers) forceCheckLink(ctx context.Context, _ *bus.Session, req bus.Request) (any, error) {
	var args urlArgs
	if err := h.bind(req, &args); err != nil {
		return nil, err
	}
	url, err := normalizer.NormalizeURL(args.URL)
	if err != nil {
		return nil, err
	}

	_, err = h.monitor.CheckLink(ctx, url)
	return nil, err
}

// forceCheckLinks runs the cycle to completion even if the requester
// disconnects, like a scheduled cycle.
func (h *Handlers) forceCheckLinks(ctx context.Context, _ *bus.Session, _ bus.Request) (any, error) {
	_, err := h.monitor.CheckAll(context.WithoutCancel(ctx))
	return nil, err
}

func (h *Handlers) setLinkMask(ctx context.Context, _ *bus.Session, req bus.Request) (any, error) {
	var args maskArgs
	if err := h.bind(req, &args); err != nil {
		return nil, err
	}
	return nil, h.updatePattern(ctx, args.RowID, models.LinkFieldMask, args.Mask)
}

func (h *Handlers) setRunMask(field models.LinkField) bus.HandlerFunc {
	return func(ctx context.Context, _ *bus.Session, req bus.Request) (any, error) {
		var args patternArgs
		if err := h.bind(req, &args); err != nil {
			return nil, err
		}
		return nil, h.updatePattern(ctx, args.RowID, field, args.Pattern)
	}
}

func (h *Handlers) deleteLink(ctx context.Context, s *bus.Session, req bus.Request) (any, error) {
	var args urlArgs
	if err := h.bind(req, &args); err != nil {
		return nil, err
	}
	url, err := normalizer.NormalizeURL(args.URL)
	if err != nil {
		return nil, err
	}

	if err := h.store.DeleteLink(ctx, url); err != nil {
		return nil, err
	}
	h.logger.Info().Str("url", url).Str("user", s.User).Msg("Link deleted")
	h.broadcastLinks(ctx)
	return nil, nil
}

func (h *Handlers) getLinkCheckStatus(ctx context.Context, s *bus.Session, _ bus.Request) (any, error) {
	status, err := h.monitor.Status(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.Send(ctx, bus.Message{Type: bus.TypeLinkCheckStatus, Data: status})
}

// updatePattern rejects patterns that do not compile before touching the row.
func (h *Handlers) updatePattern(ctx context.Context, rowID int64, field models.LinkField, pattern string) error {
	if err := mask.Validate(pattern); err != nil {
		return err
	}
	if err := h.store.SetLinkField(ctx, rowID, field, pattern); err != nil {
		return err
	}
	h.broadcastLinks(ctx)
	return nil
}

// broadcastLinks runs even when the requester has gone: the change is
// already stored.
func (h *Handlers) broadcastLinks(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	links, err := h.store.ListLinks(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to list links for broadcast")
		return
	}
	h.broadcaster.Broadcast(ctx, bus.Message{Type: bus.TypeListLinks, Data: links})
}

func (h *Handlers) bind(req bus.Request, args any) error {
	if err := req.Bind(args); err != nil {
		return err
	}
	if err := h.validate.Struct(args); err != nil {
		return common.NewValidationError(string(req.Type), string(req.Args), err.Error())
	}
	return nil
}
