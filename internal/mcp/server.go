// Package mcp implements the Model Context Protocol server for copper-pack.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/pack"
)

const typeDescription = "Record type: opportunities, companies, or people"

// Server wraps an MCPServer bound to one Copper session.
type Server struct {
	mcp     *mcpserver.MCPServer
	session *pack.Session
	logger  *slog.Logger
}

// NewServer creates a new MCP server. If session is nil (no credentials
// configured) every tool call returns an error result instead of panicking.
func NewServer(session *pack.Session, version string, logger *slog.Logger) *Server {
	s := &Server{
		session: session,
		logger:  logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"copper-pack",
		version,
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildSyncTableTool(), s.handleSyncTable)
	mcpSrv.AddTool(buildGetRecordTool(), s.handleGetRecord)
	mcpSrv.AddTool(buildSetStatusTool(), s.handleSetStatus)
	mcpSrv.AddTool(buildSetStageTool(), s.handleSetStage)
	mcpSrv.AddTool(buildAssignTool(), s.handleAssign)
	mcpSrv.AddTool(buildTagTool("add_tag", "Add a tag to a record. Adding a tag the record already has changes nothing."), s.handleAddTag)
	mcpSrv.AddTool(buildTagTool("remove_tag", "Remove a tag from a record."), s.handleRemoveTag)
	mcpSrv.AddTool(buildSetCustomFieldTool(), s.handleSetCustomField)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleSyncTable is the exported handler for the "sync_table" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleSyncTable(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSyncTable(ctx, req)
}

// HandleGetRecord is the exported handler for the "get_record" tool.
func (s *Server) HandleGetRecord(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetRecord(ctx, req)
}

// HandleSetStatus is the exported handler for the "set_opportunity_status" tool.
func (s *Server) HandleSetStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSetStatus(ctx, req)
}

// HandleSetStage is the exported handler for the "set_opportunity_stage" tool.
func (s *Server) HandleSetStage(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSetStage(ctx, req)
}

// HandleAssign is the exported handler for the "assign_record" tool.
func (s *Server) HandleAssign(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleAssign(ctx, req)
}

// HandleAddTag is the exported handler for the "add_tag" tool.
func (s *Server) HandleAddTag(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleAddTag(ctx, req)
}

// HandleRemoveTag is the exported handler for the "remove_tag" tool.
func (s *Server) HandleRemoveTag(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRemoveTag(ctx, req)
}

// HandleSetCustomField is the exported handler for the "set_custom_field" tool.
func (s *Server) HandleSetCustomField(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSetCustomField(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// recordResult turns an action outcome into a tool result. Failures are
// reported to the model as error results, not protocol errors.
func (s *Server) recordResult(tool string, rec models.Record, err error) (*mcpgo.CallToolResult, error) {
	if err != nil {
		s.logger.Info("mcp: tool failed", "tool", tool, "error", err)
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(rec)
}

// prepare checks the session and required string arguments, returning an
// error result when something is missing.
func (s *Server) prepare(req mcpgo.CallToolRequest, required ...string) *mcpgo.CallToolResult {
	if s.session == nil {
		return mcpgo.NewToolResultError("copper credentials are not configured")
	}
	for _, name := range required {
		if strings.TrimSpace(req.GetString(name, "")) == "" {
			return mcpgo.NewToolResultError(fmt.Sprintf("%s is required and must not be empty", name))
		}
	}
	return nil
}

func recordType(req mcpgo.CallToolRequest) (models.RecordType, *mcpgo.CallToolResult) {
	rt, err := models.ParseRecordType(req.GetString("type", ""))
	if err != nil {
		return "", mcpgo.NewToolResultError(err.Error())
	}
	return rt, nil
}

// --- tool definitions ---

func withRef() mcpgo.ToolOption {
	return mcpgo.WithString("ref",
		mcpgo.Required(),
		mcpgo.Description("Copper record URL or numeric record id"),
	)
}

func withType() mcpgo.ToolOption {
	return mcpgo.WithString("type",
		mcpgo.Required(),
		mcpgo.Description(typeDescription),
	)
}

func buildSyncTableTool() mcpgo.Tool {
	return mcpgo.NewTool("sync_table",
		mcpgo.WithDescription("Read one page of a Copper table. Pass the returned continuation to read the next page; no continuation means the table is complete."),
		withType(),
		mcpgo.WithString("continuation",
			mcpgo.Description("Continuation token from the previous page"),
		),
	)
}

func buildGetRecordTool() mcpgo.Tool {
	return mcpgo.NewTool("get_record",
		mcpgo.WithDescription("Fetch a single enriched Copper record."),
		withType(),
		withRef(),
	)
}

func buildSetStatusTool() mcpgo.Tool {
	return mcpgo.NewTool("set_opportunity_status",
		mcpgo.WithDescription("Change an opportunity's status."),
		withRef(),
		mcpgo.WithString("status",
			mcpgo.Required(),
			mcpgo.Description("Open, Won, Lost, or Abandoned"),
		),
		mcpgo.WithString("loss_reason",
			mcpgo.Description("Loss reason name; only valid with status Lost"),
		),
	)
}

func buildSetStageTool() mcpgo.Tool {
	return mcpgo.NewTool("set_opportunity_stage",
		mcpgo.WithDescription("Move an opportunity to a stage of its pipeline."),
		withRef(),
		mcpgo.WithString("stage",
			mcpgo.Required(),
			mcpgo.Description("Stage name within the opportunity's pipeline"),
		),
	)
}

func buildAssignTool() mcpgo.Tool {
	return mcpgo.NewTool("assign_record",
		mcpgo.WithDescription("Assign a record to a Copper user."),
		withType(),
		withRef(),
		mcpgo.WithString("email",
			mcpgo.Required(),
			mcpgo.Description("Email of the user to assign"),
		),
	)
}

func buildTagTool(name, description string) mcpgo.Tool {
	return mcpgo.NewTool(name,
		mcpgo.WithDescription(description),
		withType(),
		withRef(),
		mcpgo.WithString("tag",
			mcpgo.Required(),
			mcpgo.Description("Tag text"),
		),
	)
}

func buildSetCustomFieldTool() mcpgo.Tool {
	return mcpgo.NewTool("set_custom_field",
		mcpgo.WithDescription("Set a custom field on a record. Dates use YYYY-MM-DD; multi-select options are comma separated; an empty value clears the field."),
		withType(),
		withRef(),
		mcpgo.WithString("field",
			mcpgo.Required(),
			mcpgo.Description("Custom field name"),
		),
		mcpgo.WithString("value",
			mcpgo.Description("New value"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleSyncTable(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	cont, err := models.DecodeContinuation(req.GetString("continuation", ""))
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	page, err := s.session.Tables.Sync(ctx, rt, cont)
	if err != nil {
		return mcpgo.NewToolResultError("sync failed: " + err.Error()), nil
	}

	result := map[string]any{"result": page.Result}
	if page.Continuation != nil {
		result["continuation"] = page.Continuation.Encode()
	}
	return toolResultJSON(result)
}

func (s *Server) handleGetRecord(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref"); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.Get(ctx, rt, req.GetString("ref", ""))
	return s.recordResult("get_record", rec, err)
}

func (s *Server) handleSetStatus(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "status"); res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.SetStatus(ctx,
		req.GetString("ref", ""), req.GetString("status", ""), req.GetString("loss_reason", ""))
	return s.recordResult("set_opportunity_status", rec, err)
}

func (s *Server) handleSetStage(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "stage"); res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.SetStage(ctx, req.GetString("ref", ""), req.GetString("stage", ""))
	return s.recordResult("set_opportunity_stage", rec, err)
}

func (s *Server) handleAssign(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "email"); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.Assign(ctx, rt, req.GetString("ref", ""), req.GetString("email", ""))
	return s.recordResult("assign_record", rec, err)
}

func (s *Server) handleAddTag(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "tag"); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.AddTag(ctx, rt, req.GetString("ref", ""), req.GetString("tag", ""))
	return s.recordResult("add_tag", rec, err)
}

func (s *Server) handleRemoveTag(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "tag"); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.RemoveTag(ctx, rt, req.GetString("ref", ""), req.GetString("tag", ""))
	return s.recordResult("remove_tag", rec, err)
}

func (s *Server) handleSetCustomField(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if res := s.prepare(req, "ref", "field"); res != nil {
		return res, nil
	}
	rt, res := recordType(req)
	if res != nil {
		return res, nil
	}
	rec, err := s.session.Actions.SetCustomField(ctx, rt,
		req.GetString("ref", ""), req.GetString("field", ""), req.GetString("value", ""))
	return s.recordResult("set_custom_field", rec, err)
}
