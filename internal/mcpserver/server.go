// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes linkfinder tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/linkfinder/internal/apperr"
	"github.com/starford/linkfinder/internal/linkservice"
	"github.com/starford/linkfinder/internal/models"
)

const linkFormatURI = "linkfinder://link-format"

// Server wraps the MCP server with linkfinder tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all linkfinder tools registered.
func New(svc *linkservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Linkfinder",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_links",
		mcp.WithDescription("Find link targets (titles, headings, blocks, tags) matching typed text. "+
			"Prefix matches rank before in-order character matches; at most 100 results."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Typed text to match")),
	), s.queryLinks)

	s.mcp.AddTool(mcp.NewTool("resolve_span",
		mcp.WithDescription("Find the span of a line that should become a link, given a cursor position. "+
			"Prefers dates, then the widest phrase with a match, then the word under the cursor."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The line of text")),
		mcp.WithNumber("cursor", mcp.Required(), mcp.Description("Cursor offset in characters (not bytes)")),
	), s.resolveSpan)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Resolve the span around a cursor and return it with its matches."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The line of text")),
		mcp.WithNumber("cursor", mcp.Required(), mcp.Description("Cursor offset in characters (not bytes)")),
	), s.suggestLinks)

	s.mcp.AddTool(mcp.NewTool("format_link",
		mcp.WithDescription("Build the wikilink for an indexed entry. Read the "+linkFormatURI+" resource for the format."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("title", "heading", "block", "tag"), mcp.Description("Entry kind")),
		mcp.WithString("source_path", mcp.Required(), mcp.Description("Path of the document owning the entry")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Entry target as returned by query_links")),
		mcp.WithString("label", mcp.Description("Visible label, usually the typed text")),
	), s.formatLink)

	s.mcp.AddTool(mcp.NewTool("rebuild_index",
		mcp.WithDescription("Rebuild the link index from the vault. Does nothing if a rebuild is already running."),
	), s.rebuildIndex)

	// Resource: link format contract.
	s.mcp.AddResource(
		mcp.NewResource(linkFormatURI, "Link Format",
			mcp.WithResourceDescription("How linkfinder builds links and which document features it indexes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkFormatResource,
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

func (s *Server) queryLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Query(ctx, text))
}

func (s *Server) resolveSpan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, cursor, errResult := lineAndCursor(req)
	if errResult != nil {
		return errResult, nil
	}
	span, ok := s.svc.Resolve(ctx, line, cursor)
	if !ok {
		return mcp.NewToolResultText("no span at cursor"), nil
	}
	return jsonResult(span)
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, cursor, errResult := lineAndCursor(req)
	if errResult != nil {
		return errResult, nil
	}
	sug, ok := s.svc.Suggest(ctx, line, cursor)
	if !ok {
		return mcp.NewToolResultText("no span at cursor"), nil
	}
	return jsonResult(sug)
}

func (s *Server) formatLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("source_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := models.EntryID{Kind: models.Kind(kind), SourcePath: path, Target: target}
	if !id.Kind.Valid() {
		return mcp.NewToolResultError("kind must be title, heading, block or tag"), nil
	}

	link, err := s.svc.FormatLink(ctx, id, req.GetString("label", ""))
	if errors.Is(err, apperr.ErrUnknownEntry) {
		return mcp.NewToolResultError("no such entry in the index; use query_links first"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(link), nil
}

func (s *Server) rebuildIndex(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ran, err := s.svc.Rebuild(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ran {
		return mcp.NewToolResultText("rebuild already in progress"), nil
	}
	return jsonResult(s.svc.Stats())
}

func (s *Server) readLinkFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkFormatURI,
			MIMEType: "text/markdown",
			Text:     LinkFormatContract,
		},
	}, nil
}

func lineAndCursor(req mcp.CallToolRequest) (string, int, *mcp.CallToolResult) {
	line, err := req.RequireString("line")
	if err != nil {
		return "", 0, mcp.NewToolResultError(err.Error())
	}
	cursor, err := req.RequireInt("cursor")
	if err != nil {
		return "", 0, mcp.NewToolResultError(err.Error())
	}
	if cursor < 0 {
		return "", 0, mcp.NewToolResultError("cursor must not be negative")
	}
	return line, cursor, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
