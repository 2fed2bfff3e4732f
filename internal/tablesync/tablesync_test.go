package tablesync

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/copper/coppertest"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/metrics"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
)

func newController(t *testing.T, srv *coppertest.Server, pageSize int) *Controller {
	t.Helper()
	client := srv.NewClient(t)
	loader := reference.NewLoader(client, reference.DefaultTTLs(), coppertest.QuietLogger())
	return New(client, loader, enrich.New("app.copper.com"), Options{PageSize: pageSize}, coppertest.QuietLogger())
}

func seedOpportunities(srv *coppertest.Server, n int) {
	for i := 0; i < n; i++ {
		srv.AddRecord(models.RecordTypeOpportunity, coppertest.Opportunity(int64(100000+i)))
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 50, o.PageSize)
	assert.Equal(t, "date_created", o.SortBy)
	assert.Equal(t, "asc", o.SortDirection)
}

func TestSync_FullPageEmitsContinuation(t *testing.T) {
	srv := coppertest.NewServer(t)
	seedOpportunities(srv, 5)
	c := newController(t, srv, 2)

	page, err := c.Sync(context.Background(), models.RecordTypeOpportunity, nil)
	require.NoError(t, err)
	require.Len(t, page.Result, 2)
	assert.Equal(t, &models.Continuation{PageNumber: 2}, page.Continuation)
	assert.Equal(t, "100000", page.Result[0]["id"])

	// Rows carry reference stubs.
	assert.Equal(t, enrich.CompanyRef{ID: "90001", Name: "Globex"}, page.Result[0]["company"])

	var search coppertest.RecordedRequest
	for _, r := range srv.Requests() {
		if r.Path == "opportunities/search" {
			search = r
		}
	}
	assert.Equal(t, http.MethodPost, search.Method)
	assert.EqualValues(t, 2, search.Body["page_size"])
	assert.EqualValues(t, 1, search.Body["page_number"])
	assert.Equal(t, "date_created", search.Body["sort_by"])
	assert.Equal(t, "asc", search.Body["sort_direction"])
}

func TestSync_ShortPageEndsEnumeration(t *testing.T) {
	srv := coppertest.NewServer(t)
	seedOpportunities(srv, 5)
	c := newController(t, srv, 2)
	pagesBefore, recordsBefore := metrics.SyncPages.Value(), metrics.RecordsSynced.Value()

	page, err := c.Sync(context.Background(), models.RecordTypeOpportunity, &models.Continuation{PageNumber: 3})
	require.NoError(t, err)
	require.Len(t, page.Result, 1)
	assert.Nil(t, page.Continuation)
	assert.Equal(t, pagesBefore+1, metrics.SyncPages.Value())
	assert.Equal(t, recordsBefore+1, metrics.RecordsSynced.Value())
}

func TestSync_EmptyPageEndsEnumeration(t *testing.T) {
	srv := coppertest.NewServer(t)
	c := newController(t, srv, 2)

	page, err := c.Sync(context.Background(), models.RecordTypeCompany, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Result)
	assert.Nil(t, page.Continuation)
}

func TestSync_ExactMultipleNeedsOneEmptyPage(t *testing.T) {
	srv := coppertest.NewServer(t)
	seedOpportunities(srv, 4)
	c := newController(t, srv, 2)

	var pages int
	cont, err := c.Walk(context.Background(), models.RecordTypeOpportunity, nil, 0, func(p *Page) error {
		pages++
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, cont)
	assert.Equal(t, 3, pages)
}

func TestWalk_StopsAtMaxPages(t *testing.T) {
	srv := coppertest.NewServer(t)
	seedOpportunities(srv, 7)
	c := newController(t, srv, 2)

	var ids []any
	cont, err := c.Walk(context.Background(), models.RecordTypeOpportunity, nil, 2, func(p *Page) error {
		for _, r := range p.Result {
			ids = append(ids, r["id"])
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, &models.Continuation{PageNumber: 3}, cont)
	assert.Equal(t, []any{"100000", "100001", "100002", "100003"}, ids)
}

func TestWalk_PropagatesCallbackError(t *testing.T) {
	srv := coppertest.NewServer(t)
	seedOpportunities(srv, 4)
	c := newController(t, srv, 2)

	stop := errors.New("stop")
	cont, err := c.Walk(context.Background(), models.RecordTypeOpportunity, nil, 0, func(*Page) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, &models.Continuation{PageNumber: 2}, cont)
}

func TestSync_UpstreamFailure(t *testing.T) {
	srv := coppertest.NewServer(t)
	srv.Fail(http.MethodPost, "people/search", http.StatusTooManyRequests)
	c := newController(t, srv, 2)

	_, err := c.Sync(context.Background(), models.RecordTypePerson, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstream))
}

func TestSync_UnknownType(t *testing.T) {
	srv := coppertest.NewServer(t)
	c := newController(t, srv, 2)

	_, err := c.Sync(context.Background(), models.RecordType("task"), nil)
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Empty(t, srv.Requests())
}
