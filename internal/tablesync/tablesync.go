// Package tablesync drives page-by-page enumeration of a record table.
package tablesync

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/metrics"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
	"github.com/copperpack/copper-pack/internal/telemetry"
)

const (
	// DefaultPageSize keeps a page well inside host invocation timeouts.
	DefaultPageSize = 50

	defaultSortBy        = "date_created"
	defaultSortDirection = "asc"
)

// Options configures paging. Zero values select the defaults.
type Options struct {
	PageSize      int
	SortBy        string
	SortDirection string
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.SortBy == "" {
		o.SortBy = defaultSortBy
	}
	if o.SortDirection == "" {
		o.SortDirection = defaultSortDirection
	}
	return o
}

// Page is one batch of enriched records. Continuation is nil once the
// table has been fully enumerated.
type Page struct {
	Result       []models.Record      `json:"result"`
	Continuation *models.Continuation `json:"continuation,omitempty"`
}

// Controller fetches and enriches one page per call. It keeps no state
// between calls; everything needed to resume travels in the continuation.
type Controller struct {
	client   *copper.Client
	loader   *reference.Loader
	enricher *enrich.Enricher
	opts     Options
	logger   *slog.Logger
}

// New creates a Controller.
func New(client *copper.Client, loader *reference.Loader, enricher *enrich.Enricher, opts Options, logger *slog.Logger) *Controller {
	return &Controller{
		client:   client,
		loader:   loader,
		enricher: enricher,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Sync returns the page named by cont, starting at page 1 when cont is nil.
// A continuation for the next page is emitted only when the page came back
// full; a short or empty page ends the enumeration.
func (c *Controller) Sync(ctx context.Context, rt models.RecordType, cont *models.Continuation) (*Page, error) {
	if !rt.IsValid() {
		return nil, models.InvalidValuef("unknown record type %q", rt)
	}
	pageNumber := 1
	if cont != nil && cont.PageNumber > 1 {
		pageNumber = cont.PageNumber
	}

	ctx, span := telemetry.Tracer().Start(ctx, "tablesync.Sync")
	span.SetAttributes(
		attribute.String("copper.record_type", string(rt)),
		attribute.Int("copper.page_number", pageNumber),
	)
	defer span.End()

	var (
		refs *models.ReferenceData
		raws []models.RawRecord
	)
	err := reference.Gather(ctx,
		func(ctx context.Context) (err error) {
			refs, err = c.loader.LoadFor(ctx, rt)
			return err
		},
		func(ctx context.Context) (err error) {
			raws, err = c.fetchPage(ctx, rt, pageNumber)
			return err
		},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync failed")
		return nil, fmt.Errorf("syncing %s page %d: %w", rt.APIPath(), pageNumber, err)
	}

	page := &Page{Result: c.enricher.EnrichAll(rt, raws, refs, true)}
	if len(raws) == c.opts.PageSize {
		page.Continuation = &models.Continuation{PageNumber: pageNumber + 1}
	}

	metrics.Inc(metrics.SyncPages)
	metrics.Add(metrics.RecordsSynced, len(raws))
	span.SetAttributes(attribute.Int("copper.records", len(raws)))
	c.logger.Debug("tablesync: page synced", "record_type", rt, "page_number", pageNumber,
		"records", len(raws), "more", page.Continuation != nil)
	return page, nil
}

// Walk syncs consecutive pages starting at cont, calling fn for each, until
// the table is exhausted or maxPages pages were read (maxPages <= 0 means
// no limit). It returns the continuation to resume from, or nil when done.
func (c *Controller) Walk(ctx context.Context, rt models.RecordType, cont *models.Continuation, maxPages int, fn func(*Page) error) (*models.Continuation, error) {
	for n := 0; maxPages <= 0 || n < maxPages; n++ {
		page, err := c.Sync(ctx, rt, cont)
		if err != nil {
			return cont, err
		}
		if err := fn(page); err != nil {
			return page.Continuation, err
		}
		cont = page.Continuation
		if cont == nil {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return cont, err
		}
	}
	return cont, nil
}

func (c *Controller) fetchPage(ctx context.Context, rt models.RecordType, pageNumber int) ([]models.RawRecord, error) {
	resp, err := c.client.Post(ctx, rt.APIPath()+"/search", map[string]any{
		"page_size":      c.opts.PageSize,
		"page_number":    pageNumber,
		"sort_by":        c.opts.SortBy,
		"sort_direction": c.opts.SortDirection,
	})
	if err != nil {
		return nil, err
	}
	raws, err := models.DecodeRawRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s page: %w", rt.APIPath(), err)
	}
	return raws, nil
}
