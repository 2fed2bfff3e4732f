// Package reference loads the account-wide configuration collections used to
// resolve foreign keys on records.
package reference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/models"
)

const (
	// usersPageSize is the users/search ceiling; the user list is loaded in one call.
	usersPageSize = 200

	// DefaultReferenceTTL bounds how long reference collections are cached.
	DefaultReferenceTTL = time.Hour

	// DefaultUsersTTL bounds how long the user list is cached.
	DefaultUsersTTL = 5 * time.Minute
)

// Dataset names one reference collection.
type Dataset string

const (
	DatasetAccount         Dataset = "account"
	DatasetUsers           Dataset = "users"
	DatasetPipelines       Dataset = "pipelines"
	DatasetCustomerSources Dataset = "customer_sources"
	DatasetLossReasons     Dataset = "loss_reasons"
	DatasetContactTypes    Dataset = "contact_types"
	DatasetCustomFields    Dataset = "custom_field_definitions"
)

// DatasetsFor returns the collections the enricher needs for rt.
func DatasetsFor(rt models.RecordType) []Dataset {
	common := []Dataset{DatasetAccount, DatasetUsers, DatasetCustomFields}
	switch rt {
	case models.RecordTypeOpportunity:
		return append(common, DatasetPipelines, DatasetCustomerSources, DatasetLossReasons)
	case models.RecordTypeCompany, models.RecordTypePerson:
		return append(common, DatasetContactTypes)
	}
	return common
}

// TTLs configures cache lifetimes. Zero values disable caching for that class.
type TTLs struct {
	Reference time.Duration
	Users     time.Duration
}

// DefaultTTLs returns the standard lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{Reference: DefaultReferenceTTL, Users: DefaultUsersTTL}
}

// Loader fetches reference collections whole; none of them is paginated.
type Loader struct {
	client *copper.Client
	ttl    TTLs
	logger *slog.Logger
}

// NewLoader creates a loader on top of an authenticated client.
func NewLoader(client *copper.Client, ttl TTLs, logger *slog.Logger) *Loader {
	return &Loader{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// LoadBasic GETs a simple collection endpoint and decodes it into dest.
func (l *Loader) LoadBasic(ctx context.Context, endpoint string, dest any) error {
	resp, err := l.client.Get(ctx, endpoint, nil, l.ttl.Reference)
	if err != nil {
		return fmt.Errorf("loading %s: %w", endpoint, err)
	}
	if err := copper.Decode(resp, dest); err != nil {
		return fmt.Errorf("loading %s: %w", endpoint, err)
	}
	return nil
}

// Pipelines returns all opportunity pipelines with their stages.
func (l *Loader) Pipelines(ctx context.Context) ([]models.Pipeline, error) {
	var out []models.Pipeline
	if err := l.LoadBasic(ctx, string(DatasetPipelines), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CustomerSources returns all customer sources.
func (l *Loader) CustomerSources(ctx context.Context) ([]models.NamedItem, error) {
	var out []models.NamedItem
	if err := l.LoadBasic(ctx, string(DatasetCustomerSources), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LossReasons returns all loss reasons.
func (l *Loader) LossReasons(ctx context.Context) ([]models.NamedItem, error) {
	var out []models.NamedItem
	if err := l.LoadBasic(ctx, string(DatasetLossReasons), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ContactTypes returns all contact types.
func (l *Loader) ContactTypes(ctx context.Context) ([]models.NamedItem, error) {
	var out []models.NamedItem
	if err := l.LoadBasic(ctx, string(DatasetContactTypes), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CustomFieldDefinitions returns every custom field definition.
func (l *Loader) CustomFieldDefinitions(ctx context.Context) ([]models.CustomFieldDefinition, error) {
	var out []models.CustomFieldDefinition
	if err := l.LoadBasic(ctx, string(DatasetCustomFields), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Account returns the account the credentials belong to.
func (l *Loader) Account(ctx context.Context) (*models.Account, error) {
	var out models.Account
	if err := l.LoadBasic(ctx, string(DatasetAccount), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users returns up to 200 users. The listing endpoint is POST-only, so the
// client's GET cache cannot serve it; the loader caches the body itself
// under a key scoped to the calling identity.
func (l *Loader) Users(ctx context.Context) ([]models.User, error) {
	key := "users/search as " + l.client.Identity()
	store := l.client.Cache()

	if l.ttl.Users > 0 {
		if body, ok, err := store.Get(ctx, key); err != nil {
			l.logger.Warn("reference: users cache read failed", "error", err)
		} else if ok {
			var out []models.User
			if err := copper.Decode(&copper.Response{Body: body}, &out); err == nil {
				return out, nil
			}
		}
	}

	resp, err := l.client.Post(ctx, "users/search", map[string]any{
		"page_size": usersPageSize,
		"sort_by":   "name",
	})
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	var out []models.User
	if err := copper.Decode(resp, &out); err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	if l.ttl.Users > 0 {
		if err := store.Set(ctx, key, resp.Body, l.ttl.Users); err != nil {
			l.logger.Warn("reference: users cache write failed", "error", err)
		}
	}
	return out, nil
}

// Load fetches the requested datasets concurrently and returns them bundled.
// The first failure cancels the rest.
func (l *Loader) Load(ctx context.Context, datasets ...Dataset) (*models.ReferenceData, error) {
	refs := &models.ReferenceData{}
	fetches := make([]func(context.Context) error, 0, len(datasets))

	for _, ds := range dedupe(datasets) {
		switch ds {
		case DatasetAccount:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.Account, err = l.Account(ctx)
				return err
			})
		case DatasetUsers:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.Users, err = l.Users(ctx)
				return err
			})
		case DatasetPipelines:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.Pipelines, err = l.Pipelines(ctx)
				return err
			})
		case DatasetCustomerSources:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.CustomerSources, err = l.CustomerSources(ctx)
				return err
			})
		case DatasetLossReasons:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.LossReasons, err = l.LossReasons(ctx)
				return err
			})
		case DatasetContactTypes:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.ContactTypes, err = l.ContactTypes(ctx)
				return err
			})
		case DatasetCustomFields:
			fetches = append(fetches, func(ctx context.Context) (err error) {
				refs.CustomFields, err = l.CustomFieldDefinitions(ctx)
				return err
			})
		default:
			return nil, fmt.Errorf("reference: unknown dataset %q", ds)
		}
	}

	if err := Gather(ctx, fetches...); err != nil {
		return nil, err
	}
	l.logger.Debug("reference: loaded datasets", "count", len(fetches))
	return refs, nil
}

// LoadFor fetches every dataset the enricher needs for rt.
func (l *Loader) LoadFor(ctx context.Context, rt models.RecordType) (*models.ReferenceData, error) {
	return l.Load(ctx, DatasetsFor(rt)...)
}

func dedupe(in []Dataset) []Dataset {
	seen := make(map[Dataset]bool, len(in))
	out := make([]Dataset, 0, len(in))
	for _, ds := range in {
		if !seen[ds] {
			seen[ds] = true
			out = append(out, ds)
		}
	}
	return out
}
