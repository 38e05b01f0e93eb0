package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource exposing the materialized tree.
const StateURI = "canopy://state"

// Editor is the part of the design runtime the MCP server drives.
type Editor interface {
	State() domain.Snapshot
	StateFor(id string) (domain.ElementState, error)
	PatchState(ctx context.Context, id string, patch domain.Patch, recorded bool) error
	CreateElement(ctx context.Context, compKey string, state domain.State, recorded bool) (string, error)
	Registry() *registry.Registry
}

// CreateResponse is the structured result of create_element.
type CreateResponse struct {
	ID      string `json:"id" jsonschema_description:"Identifier of the new element"`
	CompKey string `json:"compKey" jsonschema_description:"Kind of the new element"`
	Parent  string `json:"parent" jsonschema_description:"Parent the element was attached to"`
}

// Server exposes a design runtime as an MCP server.
type Server struct {
	editor    Editor
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(editor Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get every element of the design tree, keyed by element ID."),
	), s.handleGetState)

	s.mcpServer.AddTool(mcp.NewTool("get_element",
		mcp.WithDescription("Get a single element of the design tree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element ID")),
	), s.handleGetElement)

	s.mcpServer.AddTool(mcp.NewTool("patch_element",
		mcp.WithDescription("Deep-merge a partial state into an element. Only the fields present are changed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element ID")),
		mcp.WithString("patch", mcp.Required(), mcp.Description(`JSON object with any of "style", "properties", "appearance", "parent", "alias"`)),
	), s.handlePatchElement)

	s.mcpServer.AddTool(mcp.NewTool("create_element",
		mcp.WithDescription("Create a design element of a catalog kind. Missing fields take the catalog defaults."),
		mcp.WithString("comp_key", mcp.Required(), mcp.Description("Catalog key of the element kind, e.g. Button")),
		mcp.WithString("parent", mcp.Description("Parent element ID (defaults to the canvas root)")),
		mcp.WithString("state", mcp.Description("JSON object with initial style, properties, appearance or alias")),
		mcp.WithOutputSchema[CreateResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateElement))

	s.mcpServer.AddTool(mcp.NewTool("list_catalog",
		mcp.WithDescription("List the design element catalog by category."),
	), s.handleListCatalog)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.editor.State())
}

func (s *Server) handleGetElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["id"].(string)
	el, err := s.editor.StateFor(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(el)
}

func (s *Server) handlePatchElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, _ := args["id"].(string)
	raw, _ := args["patch"].(string)

	var patch domain.Patch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
	}
	if patch.IsEmpty() {
		return mcp.NewToolResultError("patch changes nothing"), nil
	}
	if _, err := s.editor.StateFor(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.editor.PatchState(ctx, id, patch, true); err != nil {
		s.logger.Warn("MCP patch_element failed", "id", id, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("patch failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("patch for %s recorded", id)), nil
}

func (s *Server) handleCreateElement(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CreateResponse, error) {
	compKey, _ := args["comp_key"].(string)
	if compKey == "" {
		return CreateResponse{}, errors.New("comp_key is required")
	}
	if _, err := s.editor.Registry().Lookup(compKey); err != nil {
		return CreateResponse{}, err
	}

	var state domain.State
	if raw, ok := args["state"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return CreateResponse{}, fmt.Errorf("invalid state: %w", err)
		}
	}
	if parent, ok := args["parent"].(string); ok && parent != "" {
		state.Parent = parent
	}
	if state.Parent == "" {
		state.Parent = domain.RootID
	}
	if state.Parent != domain.RootID {
		if _, err := s.editor.StateFor(state.Parent); err != nil {
			return CreateResponse{}, fmt.Errorf("%w: %s", domain.ErrParentNotFound, state.Parent)
		}
	}

	id, err := s.editor.CreateElement(ctx, compKey, state, true)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return CreateResponse{ID: id, CompKey: compKey, Parent: state.Parent}, nil
}

func (s *Server) handleListCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.editor.Registry().Categories())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Design tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.editor.State())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
