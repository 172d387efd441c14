// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Daybook journal over stdio for LLM integration.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/storage"
)

const defaultImportName = "mcp-import.md"

// Server wraps the MCP server with the journal tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *journalservice.Service
	exports storage.Provider
}

// New creates an MCP server. exports receives saved exports and may be nil,
// in which case export_journal can only return the document inline.
func New(svc *journalservice.Service, exports storage.Provider) *Server {
	s := &Server{svc: svc, exports: exports}

	s.mcp = server.NewMCPServer(
		"Daybook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("export_journal",
		mcp.WithDescription("Render notes, todos and schedules as one journal Markdown document, "+
			"grouped by day with the newest day first."),
		mcp.WithString("query", mcp.Description("Only export records containing this text (empty for all)")),
		mcp.WithBoolean("save", mcp.Description("Write the document to the export directory instead of returning it")),
	), s.exportJournal)

	s.mcp.AddTool(mcp.NewTool("import_journal",
		mcp.WithDescription("Import a journal Markdown document. Content MUST follow the journal format; "+
			"read it first via get_journal_format or the "+JournalFormatURI+" resource. "+
			"Returns a summary of created, failed and dropped records."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Journal document")),
		mcp.WithString("filename", mcp.Description("Name to report as the import source (default "+defaultImportName+")")),
	), s.importJournal)

	s.mcp.AddTool(mcp.NewTool("get_journal_format",
		mcp.WithDescription("Returns the journal document format. "+
			"Call this before writing a document for import_journal."),
	), s.getJournalFormat)

	s.mcp.AddTool(mcp.NewTool("list_exports",
		mcp.WithDescription("List journal files saved in the export directory."),
	), s.listExports)

	s.mcp.AddResource(
		mcp.NewResource(JournalFormatURI, "Journal Format",
			mcp.WithResourceDescription("Markdown grammar of exported and imported journals."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readJournalFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) exportJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}

	exp, err := s.svc.Export(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !req.GetBool("save", false) {
		return mcp.NewToolResultText(string(exp.Content)), nil
	}
	if s.exports == nil {
		return mcp.NewToolResultError("no export directory configured"), nil
	}
	if err := s.exports.Write(exp.Filename, exp.Content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s (%d records)", exp.Filename, exp.Records)), nil
}

func (s *Server) importJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := defaultImportName
	if f, fErr := req.RequireString("filename"); fErr == nil && f != "" {
		filename = f
	}

	sum, err := s.svc.Import(ctx, filename, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sum, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getJournalFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(JournalFormat), nil
}

func (s *Server) listExports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.exports == nil {
		return mcp.NewToolResultError("no export directory configured"), nil
	}
	files, err := s.exports.List("")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no exports found"), nil
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readJournalFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      JournalFormatURI,
			MIMEType: "text/markdown",
			Text:     JournalFormat,
		},
	}, nil
}
