// Package pack assembles the per-credential object graph (client, reference
// loader, sync controller and action executor) that every surface uses.
package pack

import (
	"context"
	"log/slog"

	"github.com/copperpack/copper-pack/internal/actions"
	"github.com/copperpack/copper-pack/internal/cache"
	"github.com/copperpack/copper-pack/internal/config"
	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
	"github.com/copperpack/copper-pack/internal/tablesync"
)

// Settings is the immutable configuration shared by all sessions.
type Settings struct {
	Client  copper.Options
	AppHost string
	TTLs    reference.TTLs
	Sync    tablesync.Options
}

// SettingsFromConfig derives Settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Client: copper.Options{
			BaseURL: cfg.Copper.APIBaseURL,
			Timeout: cfg.Copper.Timeout(),
		},
		AppHost: cfg.Copper.AppHost,
		TTLs: reference.TTLs{
			Reference: cfg.Cache.ReferenceTTL(),
			Users:     cfg.Cache.UsersTTL(),
		},
		Sync: tablesync.Options{
			PageSize:      cfg.Sync.PageSize,
			SortBy:        cfg.Sync.SortBy,
			SortDirection: cfg.Sync.SortDirection,
		},
	}
}

// Factory builds sessions. The response cache is shared across sessions;
// its keys are scoped by identity.
type Factory struct {
	settings Settings
	store    cache.Store
	enricher *enrich.Enricher
	logger   *slog.Logger
}

// NewFactory creates a Factory. A nil store disables caching.
func NewFactory(settings Settings, store cache.Store, logger *slog.Logger) *Factory {
	if settings.AppHost == "" {
		settings.AppHost = config.DefaultAppHost
	}
	if settings.Client.BaseURL == "" {
		settings.Client.BaseURL = config.DefaultAPIBaseURL
	}
	return &Factory{
		settings: settings,
		store:    store,
		enricher: enrich.New(settings.AppHost),
		logger:   logger,
	}
}

// Session is everything needed to serve requests for one set of credentials.
type Session struct {
	Client  *copper.Client
	Loader  *reference.Loader
	Tables  *tablesync.Controller
	Actions *actions.Executor
}

// Session builds a session for creds.
func (f *Factory) Session(creds copper.Credentials) (*Session, error) {
	client, err := copper.NewClient(f.settings.Client, creds, f.store, f.logger)
	if err != nil {
		return nil, err
	}
	loader := reference.NewLoader(client, f.settings.TTLs, f.logger)
	return &Session{
		Client:  client,
		Loader:  loader,
		Tables:  tablesync.New(client, loader, f.enricher, f.settings.Sync, f.logger),
		Actions: actions.New(client, loader, f.enricher, f.logger),
	}, nil
}

// Health fetches the account uncached to prove the credentials work.
func (s *Session) Health(ctx context.Context) (*models.Account, error) {
	resp, err := s.Client.Get(ctx, "account", nil, 0)
	if err != nil {
		return nil, err
	}
	var acct models.Account
	if err := copper.Decode(resp, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
