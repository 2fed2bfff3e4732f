package actions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/copper/coppertest"
	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/reference"
)

const (
	oppURL     = "https://app.copper.com/companies/999/app#/deal/123456"
	companyURL = "https://app.copper.com/companies/999/app#/organization/90001"
)

func newExecutor(t *testing.T) (*Executor, *coppertest.Server) {
	t.Helper()
	srv := coppertest.NewServer(t)
	srv.AddRecord(models.RecordTypeOpportunity, coppertest.Opportunity(123456))
	srv.AddRecord(models.RecordTypeCompany, coppertest.Company(90001))
	srv.AddRecord(models.RecordTypePerson, coppertest.Person(80001))

	client := srv.NewClient(t)
	loader := reference.NewLoader(client, reference.DefaultTTLs(), coppertest.QuietLogger())
	return New(client, loader, enrich.New("app.copper.com"), coppertest.QuietLogger()), srv
}

func puts(srv *coppertest.Server) []coppertest.RecordedRequest {
	var out []coppertest.RecordedRequest
	for _, r := range srv.Requests() {
		if r.Method == http.MethodPut {
			out = append(out, r)
		}
	}
	return out
}

func TestGet(t *testing.T) {
	e, _ := newExecutor(t)

	rec, err := e.Get(context.Background(), models.RecordTypeOpportunity, oppURL)
	require.NoError(t, err)
	assert.Equal(t, "123456", rec["id"])
	assert.Equal(t, "Proposal", rec["pipelineStage"])
	assert.NotContains(t, rec, "company", "single records carry no reference stubs")

	rec, err = e.Get(context.Background(), models.RecordTypePerson, "80001")
	require.NoError(t, err)
	assert.Equal(t, "Pat", rec["firstName"])
}

func TestGet_Errors(t *testing.T) {
	e, srv := newExecutor(t)
	ctx := context.Background()

	_, err := e.Get(ctx, models.RecordTypeCompany, "99999")
	assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)

	_, err = e.Get(ctx, models.RecordTypePerson, companyURL)
	assert.True(t, errors.Is(err, models.ErrTypeMismatch))

	before := len(srv.Requests())
	_, err = e.Get(ctx, models.RecordTypePerson, "bob")
	assert.True(t, errors.Is(err, models.ErrInvalidIdentifier))
	assert.Len(t, srv.Requests(), before)
}

func TestNormalizeStatus(t *testing.T) {
	for in, want := range map[string]string{"won": "Won", "LOST": "Lost", " open ": "Open", "aBaNdOnEd": "Abandoned"} {
		got, err := NormalizeStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := NormalizeStatus("closed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Contains(t, err.Error(), "Open, Won, Lost, or Abandoned")
}

func TestSetStatus(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.SetStatus(context.Background(), oppURL, "won", "")
	require.NoError(t, err)
	assert.Equal(t, "Won", rec["status"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.Equal(t, "opportunities/123456", p[0].Path)
	assert.Equal(t, map[string]any{"status": "Won"}, p[0].Body)
}

func TestSetStatus_LostWithReason(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.SetStatus(context.Background(), "123456", "Lost", "timing")
	require.NoError(t, err)
	assert.Equal(t, "Lost", rec["status"])
	assert.Equal(t, "Timing", rec["lossReason"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.EqualValues(t, 502, p[0].Body["loss_reason_id"])
}

func TestSetStatus_ValidationPrecedesUpdate(t *testing.T) {
	e, srv := newExecutor(t)
	ctx := context.Background()

	_, err := e.SetStatus(ctx, oppURL, "Pending", "")
	assert.True(t, errors.Is(err, models.ErrInvalidValue))

	_, err = e.SetStatus(ctx, oppURL, "Won", "Price")
	assert.True(t, errors.Is(err, models.ErrInvalidValue))

	_, err = e.SetStatus(ctx, oppURL, "Lost", "Weather")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Contains(t, err.Error(), "Price, Timing, or Competitor")

	_, err = e.SetStatus(ctx, companyURL, "Won", "")
	assert.True(t, errors.Is(err, models.ErrTypeMismatch))

	assert.Empty(t, puts(srv))
}

func TestSetStage(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.SetStage(context.Background(), oppURL, "negotiation")
	require.NoError(t, err)
	assert.Equal(t, "Negotiation", rec["pipelineStage"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.EqualValues(t, 303, p[0].Body["pipeline_stage_id"])
}

func TestSetStage_UnknownStageListsPipelineStages(t *testing.T) {
	e, srv := newExecutor(t)

	_, err := e.SetStage(context.Background(), oppURL, "Closed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Contains(t, err.Error(), "Qualified, Proposal, or Negotiation")
	assert.Empty(t, puts(srv))
}

func TestAssign(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.Assign(context.Background(), models.RecordTypeCompany, companyURL, "Grace@Example.com")
	require.NoError(t, err)
	assert.Equal(t, enrich.PersonRef{ID: "1002", Email: "grace@example.com", Name: "Grace Hopper"}, rec["assignee"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.EqualValues(t, 1002, p[0].Body["assignee_id"])
}

func TestAssign_UnknownUser(t *testing.T) {
	e, srv := newExecutor(t)

	_, err := e.Assign(context.Background(), models.RecordTypeCompany, companyURL, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "ada@example.com or grace@example.com")
	assert.Empty(t, puts(srv))
}

func TestRemoveTag_AbsentTagLeavesListUnchanged(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.RemoveTag(context.Background(), models.RecordTypeOpportunity, oppURL, "smb")
	require.NoError(t, err)
	assert.Equal(t, []any{"enterprise"}, rec["tags"])
	assert.Empty(t, puts(srv))
}

func TestRemoveTag(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.RemoveTag(context.Background(), models.RecordTypeOpportunity, oppURL, "enterprise")
	require.NoError(t, err)
	assert.Equal(t, []any{}, rec["tags"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.Equal(t, []any{}, p[0].Body["tags"])
}

func TestAddTag(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.AddTag(context.Background(), models.RecordTypeOpportunity, oppURL, "renewal")
	require.NoError(t, err)
	assert.Equal(t, []any{"enterprise", "renewal"}, rec["tags"])

	p := puts(srv)
	require.Len(t, p, 1)
	assert.Equal(t, []any{"enterprise", "renewal"}, p[0].Body["tags"])
}

func TestAddTag_ExistingTagIsNotDuplicated(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.AddTag(context.Background(), models.RecordTypeOpportunity, oppURL, "enterprise")
	require.NoError(t, err)
	assert.Equal(t, []any{"enterprise"}, rec["tags"])
	assert.Empty(t, puts(srv))
}

func TestAddTag_RequiresTag(t *testing.T) {
	e, srv := newExecutor(t)

	_, err := e.AddTag(context.Background(), models.RecordTypeOpportunity, oppURL, "  ")
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Empty(t, srv.Requests())
}

func TestSetCustomField(t *testing.T) {
	e, srv := newExecutor(t)

	rec, err := e.SetCustomField(context.Background(), models.RecordTypeOpportunity, oppURL, "region", "APAC")
	require.NoError(t, err)
	assert.Equal(t, "APAC", rec["Region"])
	assert.EqualValues(t, 1200.5, rec["Budget"], "other custom fields are kept")

	p := puts(srv)
	require.Len(t, p, 1)
	fields, ok := p[0].Body["custom_fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, map[string]any{"custom_field_definition_id": float64(701), "value": float64(802)}, fields[0])
}

func TestSetCustomField_UnknownField(t *testing.T) {
	e, srv := newExecutor(t)

	_, err := e.SetCustomField(context.Background(), models.RecordTypeCompany, companyURL, "Budget", "10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidValue))
	assert.Contains(t, err.Error(), `"Region"`)
	assert.Empty(t, puts(srv))
}

func TestConvertCustomFieldValue(t *testing.T) {
	refs := coppertest.DefaultReferenceData()
	def := func(id string) *models.CustomFieldDefinition {
		d := refs.FindCustomField(id)
		require.NotNil(t, d)
		return d
	}

	tests := []struct {
		name    string
		def     *models.CustomFieldDefinition
		in      string
		want    any
		wantErr bool
	}{
		{"dropdown", def("701"), "emea", json.Number("801"), false},
		{"dropdown unknown", def("701"), "LATAM", nil, true},
		{"currency", def("702"), "1200.50", 1200.5, false},
		{"currency not a number", def("702"), "lots", nil, true},
		{"multiselect", def("703"), "Phone, Email", []any{json.Number("812"), json.Number("811")}, false},
		{"multiselect unknown", def("703"), "Fax", nil, true},
		{"text", def("704"), " hello ", "hello", false},
		{"date", def("705"), "2023-11-14", int64(1699920000), false},
		{"date bad", def("705"), "11/14/2023", nil, true},
		{"checkbox yes", def("706"), "Yes", true, false},
		{"checkbox bad", def("706"), "maybe", nil, true},
		{"connect", def("707"), "123", nil, true},
		{"clear", def("704"), "", nil, false},
		{"url", &models.CustomFieldDefinition{Name: "Site", DataType: models.CustomFieldURL}, "https://x.example", "https://x.example", false},
		{"url relative", &models.CustomFieldDefinition{Name: "Site", DataType: models.CustomFieldURL}, "x.example", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertCustomFieldValue(tt.def, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdate_UpstreamFailure(t *testing.T) {
	e, srv := newExecutor(t)
	srv.Fail(http.MethodPut, "opportunities/123456", http.StatusInternalServerError)

	_, err := e.SetStatus(context.Background(), oppURL, "Won", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUpstream))
}
