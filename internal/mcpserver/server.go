// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the portfolio's works to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/recent"
	"github.com/starford/folio/internal/works"
)

const contractURI = "folio://work-format"

// Server wraps the MCP server with portfolio tools.
type Server struct {
	mcp    *server.MCPServer
	works  *works.Repository
	recent *recent.Reader
	db     index.WorkIndex
}

// New creates a new MCP server with all tools registered.
func New(repo *works.Repository, rec *recent.Reader, db index.WorkIndex, version string) *Server {
	s := &Server{works: repo, recent: rec, db: db}

	s.mcp = server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_works",
		mcp.WithDescription("List the published works, newest first, with title, date and keywords."),
	), s.listWorks)

	s.mcp.AddTool(mcp.NewTool("read_work",
		mcp.WithDescription("Read a work: its header fields and rendered HTML body."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Work name (file name without .markdown)")),
	), s.readWork)

	s.mcp.AddTool(mcp.NewTool("search_works",
		mcp.WithDescription("Full-text search through work titles, bodies and keywords."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchWorks)

	s.mcp.AddTool(mcp.NewTool("works_by_keyword",
		mcp.WithDescription("List the published works tagged with a keyword."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Keyword to filter by")),
	), s.worksByKeyword)

	s.mcp.AddTool(mcp.NewTool("recently_updated",
		mcp.WithDescription("Names of recently updated works, most recent first."),
	), s.recentlyUpdated)

	s.mcp.AddTool(mcp.NewTool("get_work_format",
		mcp.WithDescription("Returns the work document format. "+
			"Call this before drafting a work to get the header block right."),
	), s.getWorkFormat)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Work Document Format",
			mcp.WithResourceDescription("Header block and body format of work documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readWorkFormatResource,
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

type workSummary struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Date     string   `json:"date,omitempty"`
	Keywords []string `json:"keywords"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWorks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.works.Sorted(works.WithScope(ctx))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]workSummary, 0, len(ws))
	for _, w := range ws {
		sum := workSummary{Name: w.Name, Title: w.Title, Keywords: w.Keywords}
		if w.DateValid {
			sum.Date = w.Date.Format("2006-01-02")
		}
		out = append(out, sum)
	}
	return jsonResult(out)
}

func (s *Server) readWork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := s.works.Get(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for pair := w.Fields.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&b, "%s: %s\n", pair.Key, pair.Value)
	}
	b.WriteString("\n")
	b.WriteString(string(w.HTML))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) searchWorks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	return jsonResult(results)
}

func (s *Server) worksByKeyword(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kw, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.db.ByKeyword(kw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no works found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) recentlyUpdated(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.recent.Read(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) getWorkFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(WorkFormatContract), nil
}

func (s *Server) readWorkFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     WorkFormatContract,
		},
	}, nil
}
