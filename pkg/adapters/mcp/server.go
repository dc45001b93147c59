package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/emergence/internal/logging"
	mermaid "github.com/aretw0/emergence/internal/presentation/graph"
	"github.com/aretw0/emergence/internal/runtime"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/aretw0/emergence/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const documentURI = "emergence://document"

// Engine is what the MCP server needs from the document side.
type Engine interface {
	Document(ctx context.Context) (*domain.Document, error)
}

// NextStep describes one follow-up of a rendered node.
type NextStep struct {
	Index  int    `json:"index" jsonschema_description:"Zero-based follow-up index"`
	Prompt string `json:"prompt"`
	NodeID string `json:"nodeId" jsonschema_description:"Target node identifier"`
	Exists bool   `json:"exists" jsonschema_description:"False when the target is a dangling reference"`
}

// RenderResponse is the result of render_node.
type RenderResponse struct {
	View *domain.DisplayModel `json:"view" jsonschema_description:"Question, answer, media blocks and follow-up labels of the node"`
	Next []NextStep           `json:"next" jsonschema_description:"Where each follow-up leads"`
}

// ValidateResponse is the result of validate_document.
type ValidateResponse struct {
	Level      string   `json:"level" jsonschema_description:"valid, warning or error"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
	Nodes      int      `json:"nodes" jsonschema_description:"Node count, -1 when unparseable"`
}

type validateArgs struct {
	Document string `json:"document"`
	Format   string `json:"format"`
}

type renderArgs struct {
	NodeID string `json:"node_id"`
}

// Server exposes document validation, inspection and node rendering as MCP tools.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server named "emergence-mcp".
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("emergence-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check a content graph document. Reports syntax errors and every structural violation."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("format", mcp.Description("json (default) or yaml"), mcp.Enum("json", "yaml")),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Inspect the loaded document: reachable, unreachable and terminal nodes and dangling references, or a Mermaid flowchart."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("render_node",
		mcp.WithDescription("Render a node of the loaded document the way a presentation session would show it."),
		mcp.WithString("node_id", mcp.Description("Node to render; the start node when omitted")),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleRender))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args validateArgs) (ValidateResponse, error) {
	format := args.Format
	if format == "" {
		format = "json"
	}
	st := editor.CheckFormat([]byte(args.Document), format)
	resp := ValidateResponse{
		Level:      string(st.Level),
		Message:    st.Message,
		Violations: st.Violations,
		Nodes:      -1,
	}
	if format == "json" {
		resp.Nodes = editor.ComputeStats(args.Document).Nodes
	} else if st.Document != nil {
		resp.Nodes = len(st.Document.Nodes)
	}
	s.logger.Debug("document validated", "level", st.Level, "violations", len(st.Violations))
	return resp, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.engine.Document(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(mermaid.GenerateMermaid(doc, nil)), nil
	}
	data, err := json.Marshal(graph.Inspect(doc))
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args renderArgs) (RenderResponse, error) {
	doc, err := s.engine.Document(ctx)
	if err != nil {
		return RenderResponse{}, fmt.Errorf("load failed: %w", err)
	}
	id := args.NodeID
	if id == "" {
		id = doc.StartNode
	}
	node, ok := doc.Node(id)
	if !ok {
		return RenderResponse{}, &domain.DanglingReferenceError{TargetID: id}
	}

	resp := RenderResponse{View: runtime.Present(node), Next: make([]NextStep, 0, len(node.FollowUps))}
	for i, fu := range node.FollowUps {
		_, exists := doc.Node(fu.NextNodeID)
		resp.Next = append(resp.Next, NextStep{Index: i, Prompt: fu.Prompt, NodeID: fu.NextNodeID, Exists: exists})
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(documentURI, "Loaded content graph document",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := s.engine.Document(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      documentURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
