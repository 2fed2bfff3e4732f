// Package actions implements single-record lookups and the mutating
// actions: status and stage changes, assignment, tagging and custom field
// updates. Every action validates its inputs before issuing the PUT and
// returns the updated record enriched without reference stubs.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/identifier"
	"github.com/copperpack/copper-pack/internal/metrics"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
)

// Executor performs lookups and actions against one set of credentials.
type Executor struct {
	client   *copper.Client
	loader   *reference.Loader
	enricher *enrich.Enricher
	logger   *slog.Logger
}

// New creates an Executor.
func New(client *copper.Client, loader *reference.Loader, enricher *enrich.Enricher, logger *slog.Logger) *Executor {
	return &Executor{
		client:   client,
		loader:   loader,
		enricher: enricher,
		logger:   logger,
	}
}

// Get fetches and enriches a single record. ref is a record URL or a bare id.
func (e *Executor) Get(ctx context.Context, rt models.RecordType, ref string) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, rt)
	if err != nil {
		return nil, err
	}
	refs, raw, err := e.load(ctx, ri, true)
	if err != nil {
		return nil, err
	}
	return e.enricher.Enrich(rt, raw, refs, false), nil
}

// load fetches the reference data for ri.Type and, when withRecord is set,
// the current record, concurrently.
func (e *Executor) load(ctx context.Context, ri models.RecordIdentifier, withRecord bool) (*models.ReferenceData, models.RawRecord, error) {
	var (
		refs *models.ReferenceData
		raw  models.RawRecord
	)
	fetches := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			refs, err = e.loader.LoadFor(ctx, ri.Type)
			return err
		},
	}
	if withRecord {
		fetches = append(fetches, func(ctx context.Context) (err error) {
			raw, err = e.fetchRecord(ctx, ri)
			return err
		})
	}
	if err := reference.Gather(ctx, fetches...); err != nil {
		return nil, nil, err
	}
	return refs, raw, nil
}

func (e *Executor) fetchRecord(ctx context.Context, ri models.RecordIdentifier) (models.RawRecord, error) {
	resp, err := e.client.Get(ctx, recordPath(ri), nil, 0)
	if err != nil {
		if copper.IsNotFound(err) {
			return nil, models.NotFoundf("no %s with id %s", ri.Type, ri.ID)
		}
		return nil, err
	}
	raw, err := models.DecodeRawRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", ri.Type, ri.ID, err)
	}
	return raw, nil
}

// update PUTs payload and enriches the returned record.
func (e *Executor) update(ctx context.Context, action string, ri models.RecordIdentifier, payload map[string]any, refs *models.ReferenceData) (models.Record, error) {
	resp, err := e.client.Put(ctx, recordPath(ri), payload)
	if err != nil {
		if copper.IsNotFound(err) {
			return nil, models.NotFoundf("no %s with id %s", ri.Type, ri.ID)
		}
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	raw, err := models.DecodeRawRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", action, err)
	}

	metrics.Inc(metrics.Actions)
	e.logger.Info("actions: record updated", "action", action, "record_type", ri.Type, "id", ri.ID)
	return e.enricher.Enrich(ri.Type, raw, refs, false), nil
}

func recordPath(ri models.RecordIdentifier) string {
	return ri.Type.APIPath() + "/" + ri.ID
}

// apiID renders a reference id the way the API issues it: as a JSON number
// when numeric.
func apiID(id models.FlexID) any {
	s := string(id)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return json.Number(s)
	}
	return s
}
