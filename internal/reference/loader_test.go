package reference_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/cache"
	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/copper/coppertest"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
)

func newLoader(t *testing.T, srv *coppertest.Server, store cache.Store) *reference.Loader {
	t.Helper()
	c, err := copper.NewClient(copper.Options{BaseURL: srv.BaseURL()}, coppertest.Credentials(), store, coppertest.QuietLogger())
	require.NoError(t, err)
	return reference.NewLoader(c, reference.DefaultTTLs(), coppertest.QuietLogger())
}

func TestDatasetsFor(t *testing.T) {
	opp := reference.DatasetsFor(models.RecordTypeOpportunity)
	assert.Contains(t, opp, reference.DatasetPipelines)
	assert.Contains(t, opp, reference.DatasetLossReasons)
	assert.NotContains(t, opp, reference.DatasetContactTypes)

	for _, rt := range []models.RecordType{models.RecordTypeCompany, models.RecordTypePerson} {
		ds := reference.DatasetsFor(rt)
		assert.Contains(t, ds, reference.DatasetContactTypes, rt)
		assert.Contains(t, ds, reference.DatasetUsers, rt)
		assert.NotContains(t, ds, reference.DatasetPipelines, rt)
	}
}

func TestLoadFor_Opportunity(t *testing.T) {
	srv := coppertest.NewServer(t)
	l := newLoader(t, srv, nil)

	refs, err := l.LoadFor(context.Background(), models.RecordTypeOpportunity)
	require.NoError(t, err)

	assert.Equal(t, "999", refs.AccountID())
	assert.Len(t, refs.Users, 2)
	require.Len(t, refs.Pipelines, 2)
	assert.Len(t, refs.Pipelines[0].Stages, 3)
	assert.Len(t, refs.CustomerSources, 2)
	assert.Len(t, refs.LossReasons, 3)
	assert.NotEmpty(t, refs.CustomFields)
	assert.Empty(t, refs.ContactTypes)

	assert.Equal(t, 0, srv.Count(http.MethodGet, "contact_types"))
}

func TestUsers_PostsWithPageSizeCeiling(t *testing.T) {
	srv := coppertest.NewServer(t)
	l := newLoader(t, srv, nil)

	users, err := l.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada@example.com", users[0].Email)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "users/search", reqs[0].Path)
	assert.EqualValues(t, 200, reqs[0].Body["page_size"])
}

func TestLoad_CachesReferenceAndUsers(t *testing.T) {
	srv := coppertest.NewServer(t)
	l := newLoader(t, srv, cache.NewMemoryStore())
	ctx := context.Background()

	for range 3 {
		_, err := l.LoadFor(ctx, models.RecordTypeCompany)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, srv.Count(http.MethodGet, "account"))
	assert.Equal(t, 1, srv.Count(http.MethodGet, "contact_types"))
	assert.Equal(t, 1, srv.Count(http.MethodGet, "custom_field_definitions"))
	assert.Equal(t, 1, srv.Count(http.MethodPost, "users/search"))
}

func TestLoad_WithoutCacheRefetches(t *testing.T) {
	srv := coppertest.NewServer(t)
	l := newLoader(t, srv, nil)
	ctx := context.Background()

	_, err := l.Load(ctx, reference.DatasetPipelines, reference.DatasetPipelines)
	require.NoError(t, err)
	_, err = l.Load(ctx, reference.DatasetPipelines)
	require.NoError(t, err)

	// Duplicate datasets within one Load are fetched once.
	assert.Equal(t, 2, srv.Count(http.MethodGet, "pipelines"))
}

func TestLoad_PropagatesUpstreamFailure(t *testing.T) {
	srv := coppertest.NewServer(t)
	srv.Fail(http.MethodGet, "loss_reasons", http.StatusInternalServerError)
	l := newLoader(t, srv, nil)

	_, err := l.LoadFor(context.Background(), models.RecordTypeOpportunity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstream))
	assert.Contains(t, err.Error(), "loss_reasons")
}

func TestLoad_UnknownDataset(t *testing.T) {
	srv := coppertest.NewServer(t)
	l := newLoader(t, srv, nil)

	_, err := l.Load(context.Background(), reference.Dataset("widgets"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widgets")
}

func TestGather_RunsConcurrentlyAndReturnsFirstError(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- reference.Gather(context.Background(), fetch, fetch, fetch) }()

	require.Eventually(t, func() bool { return running.Load() == 3 }, time.Second, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 3, peak.Load())

	boom := errors.New("boom")
	err := reference.Gather(context.Background(),
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
	)
	assert.ErrorIs(t, err, boom)
}
