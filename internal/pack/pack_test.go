package pack

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/cache"
	"github.com/copperpack/copper-pack/internal/config"
	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/copper/coppertest"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Copper: config.CopperConfig{APIBaseURL: "https://example.test/v1/", AppHost: "app.example.test", TimeoutSeconds: 5},
		Sync:   config.SyncConfig{PageSize: 25, SortBy: "name", SortDirection: "desc"},
		Cache:  config.CacheConfig{ReferenceTTLSeconds: 60, UsersTTLSeconds: 10},
	}
	s := SettingsFromConfig(cfg)
	assert.Equal(t, "https://example.test/v1/", s.Client.BaseURL)
	assert.Equal(t, "app.example.test", s.AppHost)
	assert.Equal(t, 25, s.Sync.PageSize)
	assert.Equal(t, "desc", s.Sync.SortDirection)
	assert.Equal(t, int64(60), int64(s.TTLs.Reference.Seconds()))
	assert.Equal(t, int64(10), int64(s.TTLs.Users.Seconds()))
}

func TestSession_EndToEnd(t *testing.T) {
	srv := coppertest.NewServer(t)
	srv.AddRecord(models.RecordTypeCompany, coppertest.Company(90001))

	f := NewFactory(Settings{
		Client: copper.Options{BaseURL: srv.BaseURL()},
		TTLs:   reference.DefaultTTLs(),
	}, cache.NewMemoryStore(), coppertest.QuietLogger())

	s, err := f.Session(coppertest.Credentials())
	require.NoError(t, err)

	page, err := s.Tables.Sync(context.Background(), models.RecordTypeCompany, nil)
	require.NoError(t, err)
	require.Len(t, page.Result, 1)
	assert.Equal(t, "https://app.copper.com/companies/999/app#/organization/90001", page.Result[0]["url"])

	rec, err := s.Actions.Get(context.Background(), models.RecordTypeCompany, "90001")
	require.NoError(t, err)
	assert.Equal(t, "Company 90001", rec["name"])

	// The second load was served from the shared cache.
	assert.Equal(t, 1, srv.Count(http.MethodGet, "account"))

	acct, err := s.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme Sales", acct.Name)
	assert.Equal(t, 2, srv.Count(http.MethodGet, "account"))
}

func TestSession_RequiresCredentials(t *testing.T) {
	f := NewFactory(Settings{}, nil, coppertest.QuietLogger())
	_, err := f.Session(copper.Credentials{APIKey: "k"})
	require.Error(t, err)
}

func TestHealth_BadCredentials(t *testing.T) {
	srv := coppertest.NewServer(t)
	f := NewFactory(Settings{Client: copper.Options{BaseURL: srv.BaseURL()}}, nil, coppertest.QuietLogger())

	s, err := f.Session(copper.Credentials{APIKey: "wrong", UserEmail: coppertest.UserEmail})
	require.NoError(t, err)

	_, err = s.Health(context.Background())
	require.Error(t, err)
	assert.True(t, copper.IsUnauthorized(err))
	assert.True(t, errors.Is(err, models.ErrUpstream))
}
