package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/copper/coppertest"
	packmcp "github.com/copperpack/copper-pack/internal/mcp"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/pack"
	"github.com/copperpack/copper-pack/internal/reference"
	"github.com/copperpack/copper-pack/internal/tablesync"
)

// newMCPServer returns a Server bound to a fake Copper seeded with records.
func newMCPServer(t *testing.T) (*packmcp.Server, *coppertest.Server) {
	t.Helper()
	crm := coppertest.NewServer(t)
	crm.AddRecord(models.RecordTypeOpportunity, coppertest.Opportunity(123456))
	crm.AddRecord(models.RecordTypeOpportunity, coppertest.Opportunity(123457))
	crm.AddRecord(models.RecordTypePerson, coppertest.Person(80001))

	factory := pack.NewFactory(pack.Settings{
		Client: copper.Options{BaseURL: crm.BaseURL()},
		TTLs:   reference.DefaultTTLs(),
		Sync:   tablesync.Options{PageSize: 2},
	}, nil, coppertest.QuietLogger())
	sess, err := factory.Session(coppertest.Credentials())
	require.NoError(t, err)

	return packmcp.NewServer(sess, "test", coppertest.QuietLogger()), crm
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func TestMCPSyncTable_Paginates(t *testing.T) {
	srv, crm := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSyncTable(ctx, makeReq("sync_table", map[string]any{"type": "opportunities"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Len(t, out["result"], 2)
	token, ok := out["continuation"].(string)
	require.True(t, ok)

	crm.AddRecord(models.RecordTypeOpportunity, coppertest.Opportunity(123458))
	result, err = srv.HandleSyncTable(ctx, makeReq("sync_table", map[string]any{"type": "opportunities", "continuation": token}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Len(t, out["result"], 1)
	assert.NotContains(t, out, "continuation")
}

func TestMCPSyncTable_InvalidArguments(t *testing.T) {
	srv, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSyncTable(ctx, makeReq("sync_table", map[string]any{"type": "tasks"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "opportunities, companies, or people")

	result, err = srv.HandleSyncTable(ctx, makeReq("sync_table", map[string]any{"type": "people", "continuation": "!!"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPGetRecord(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleGetRecord(context.Background(), makeReq("get_record", map[string]any{
		"type": "opportunity",
		"ref":  "https://app.copper.com/companies/999/app#/deal/123456",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "123456", out["id"])
	assert.Equal(t, "Sales", out["pipeline"])
}

func TestMCPGetRecord_TypeMismatchIsToolError(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleGetRecord(context.Background(), makeReq("get_record", map[string]any{
		"type": "people",
		"ref":  "https://app.copper.com/companies/999/app#/deal/123456",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "a person")
	assert.Contains(t, textContent(t, result), "an opportunity")
}

func TestMCPSetStatusAndStage(t *testing.T) {
	srv, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSetStatus(ctx, makeReq("set_opportunity_status", map[string]any{"ref": "123456", "status": "abandoned"}))
	require.NoError(t, err)
	assert.Equal(t, "Abandoned", decodeResult(t, result)["status"])

	result, err = srv.HandleSetStage(ctx, makeReq("set_opportunity_stage", map[string]any{"ref": "123457", "stage": "negotiation"}))
	require.NoError(t, err)
	assert.Equal(t, "Negotiation", decodeResult(t, result)["pipelineStage"])
}

func TestMCPAssignAndTags(t *testing.T) {
	srv, crm := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleAssign(ctx, makeReq("assign_record", map[string]any{"type": "people", "ref": "80001", "email": "grace@example.com"}))
	require.NoError(t, err)
	assignee := decodeResult(t, result)["assignee"].(map[string]any)
	assert.Equal(t, "grace@example.com", assignee["email"])

	result, err = srv.HandleAddTag(ctx, makeReq("add_tag", map[string]any{"type": "people", "ref": "80001", "tag": "champion"}))
	require.NoError(t, err)
	assert.Equal(t, []any{"champion"}, decodeResult(t, result)["tags"])

	result, err = srv.HandleRemoveTag(ctx, makeReq("remove_tag", map[string]any{"type": "people", "ref": "80001", "tag": "champion"}))
	require.NoError(t, err)
	assert.Equal(t, []any{}, decodeResult(t, result)["tags"])

	assert.Equal(t, []any{}, crm.Record(models.RecordTypePerson, "80001")["tags"])
}

func TestMCPSetCustomField(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleSetCustomField(context.Background(), makeReq("set_custom_field", map[string]any{
		"type": "opportunities", "ref": "123456", "field": "Channels", "value": "Email,Phone",
	}))
	require.NoError(t, err)
	assert.Equal(t, []any{"Email", "Phone"}, decodeResult(t, result)["Channels"])
}

func TestMCPRequiredArguments(t *testing.T) {
	srv, crm := newMCPServer(t)

	result, err := srv.HandleSetStage(context.Background(), makeReq("set_opportunity_stage", map[string]any{"ref": "123456"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "stage is required")
	assert.Empty(t, crm.Requests())
}

func TestMCPWithoutSession(t *testing.T) {
	srv := packmcp.NewServer(nil, "test", coppertest.QuietLogger())

	result, err := srv.HandleGetRecord(context.Background(), makeReq("get_record", map[string]any{"type": "people", "ref": "80001"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "credentials")
	assert.NotNil(t, srv.MCPServer())
}
