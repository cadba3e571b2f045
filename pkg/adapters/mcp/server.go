// Package mcp exposes flow authoring and a test conversation as Model Context Protocol tools,
// so an AI assistant can inspect and edit the chat flow.
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

	"github.com/aretw0/chatter"
	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/aretw0/chatter/pkg/ports"
	"github.com/aretw0/chatter/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowResourceURI names the read-only resource holding the whole flow.
const FlowResourceURI = "chatter://flow"

// NodeList is the output of list_nodes.
type NodeList struct {
	Nodes []domain.RuleRecord `json:"nodes" jsonschema_description:"Every node in flow order"`
}

// LintResult is the output of lint_graph.
type LintResult struct {
	Clean       bool     `json:"clean" jsonschema_description:"True when there are no findings"`
	Unresolved  []string `json:"unresolved" jsonschema_description:"Options whose payload names no node"`
	Unreachable []string `json:"unreachable" jsonschema_description:"Nodes not reachable from welcome_node"`
}

// InteractResult is the output of interact.
type InteractResult struct {
	Outcome domain.Outcome  `json:"outcome" jsonschema_description:"text, rich, form or failure"`
	Message string          `json:"message,omitempty" jsonschema_description:"Bot message or answer"`
	Options []domain.Option `json:"options,omitempty" jsonschema_description:"Quick replies offered"`
	Error   string          `json:"error,omitempty" jsonschema_description:"Failure reason"`
}

// Server exposes an Editor and a Resolver as an MCP server.
type Server struct {
	editor    *editor.Editor
	resolver  ports.Resolver
	mcpServer *server.MCPServer
	clientID  string
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClientID sets the tenant reported for interact calls.
func WithClientID(clientID string) Option {
	return func(s *Server) {
		s.clientID = clientID
	}
}

// NewServer creates a new MCP Server instance. The editor should already be loaded.
func NewServer(ed *editor.Editor, resolver ports.Resolver, opts ...Option) *Server {
	s := &Server{
		editor:    ed,
		resolver:  resolver,
		mcpServer: server.NewMCPServer("chatter-mcp", strings.TrimSpace(chatter.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List every node of the chat flow in order."),
		mcp.WithOutputSchema[NodeList](),
	), mcp.NewStructuredToolHandler(s.handleListNodes))

	s.mcpServer.AddTool(mcp.NewTool("save_node",
		mcp.WithDescription("Create or update a flow node. Rich nodes show a message and options; text nodes show an answer."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node identifier, no whitespace")),
		mcp.WithString("response_type", mcp.Required(), mcp.Description(`"rich" or "text"`)),
		mcp.WithString("message", mcp.Description("Message of a rich node")),
		mcp.WithString("answer", mcp.Description("Answer of a text node")),
		mcp.WithString("options", mcp.Description(`JSON array of {"text","payload"} options of a rich node`)),
		mcp.WithBoolean("create", mcp.Description("True to create a new node, false to update an existing one")),
		mcp.WithOutputSchema[domain.RuleRecord](),
	), mcp.NewStructuredToolHandler(s.handleSaveNode))

	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node. welcome_node and show_form cannot be deleted."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node identifier")),
	), s.handleDeleteNode)

	s.mcpServer.AddTool(mcp.NewTool("lint_graph",
		mcp.WithDescription("Report dangling option payloads and unreachable nodes."),
		mcp.WithOutputSchema[LintResult](),
	), mcp.NewStructuredToolHandler(s.handleLint))

	s.mcpServer.AddTool(mcp.NewTool("interact",
		mcp.WithDescription("Resolve one widget interaction the way a visitor would see it."),
		mcp.WithString("type", mcp.Description(`"rule" (payload is a node id) or "text" (free text); default "rule"`)),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Node id or visitor text")),
		mcp.WithOutputSchema[InteractResult](),
	), mcp.NewStructuredToolHandler(s.handleInteract))
}

func (s *Server) handleListNodes(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (NodeList, error) {
	g, err := s.editor.Refresh(ctx)
	if err != nil {
		return NodeList{}, fmt.Errorf("load failed: %w", err)
	}
	nodes := g.ListNodes()
	out := NodeList{Nodes: make([]domain.RuleRecord, len(nodes))}
	for i, n := range nodes {
		out.Nodes[i] = domain.RecordFromNode(n)
	}
	return out, nil
}

func (s *Server) handleSaveNode(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (domain.RuleRecord, error) {
	draft := editor.Draft{
		ID:           stringArg(args, "node_id"),
		ResponseType: domain.ResponseType(stringArg(args, "response_type")),
		Message:      stringArg(args, "message"),
		AnswerText:   stringArg(args, "answer"),
	}
	if create, ok := args["create"].(bool); ok {
		draft.Create = create
	}
	if raw := stringArg(args, "options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &draft.Options); err != nil {
			return domain.RuleRecord{}, fmt.Errorf("options must be a JSON array of {text, payload}: %w", err)
		}
	}

	node, err := s.editor.SaveNode(ctx, draft)
	if err != nil {
		return domain.RuleRecord{}, err
	}
	s.logger.Info("MCP: node saved", "node_id", node.ID, "create", draft.Create)
	return domain.RecordFromNode(node), nil
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("node_id", "")
	if err := s.editor.DeleteNode(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
}

func (s *Server) handleLint(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (LintResult, error) {
	report, err := s.editor.Lint(ctx)
	if err != nil {
		return LintResult{}, err
	}
	out := LintResult{
		Clean:       report.Clean(),
		Unresolved:  make([]string, len(report.Unresolved)),
		Unreachable: append([]string{}, report.Unreachable...),
	}
	for i, u := range report.Unresolved {
		out.Unresolved[i] = u.String()
	}
	return out, nil
}

func (s *Server) handleInteract(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (InteractResult, error) {
	kind := domain.InteractionKind(stringArg(args, "type"))
	if kind == "" {
		kind = domain.KindRule
	}
	if !kind.Valid() {
		return InteractResult{}, fmt.Errorf("unknown interaction type %q", kind)
	}
	payload, err := runner.SanitizeInput(stringArg(args, "payload"))
	if err != nil {
		s.logger.Warn("MCP interact: input rejected", "err", err)
		return InteractResult{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.resolver.Resolve(ctx, domain.ResolveRequest{Kind: kind, Payload: payload, ClientID: s.clientID})
	if err != nil {
		return failure(err), nil
	}
	switch v := res.(type) {
	case domain.TextResponse:
		return InteractResult{Outcome: domain.OutcomeText, Message: v.Answer}, nil
	case domain.RichResponse:
		return InteractResult{Outcome: domain.OutcomeRich, Message: v.Message, Options: v.Options}, nil
	case domain.FormEscalation:
		return InteractResult{Outcome: domain.OutcomeForm, Message: v.Message}, nil
	case domain.Failure:
		return failure(v), nil
	default:
		return failure(domain.ErrMalformedResponse), nil
	}
}

func failure(err error) InteractResult {
	msg := err.Error()
	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) && resErr.Message != "" {
		msg = resErr.Message
	}
	return InteractResult{Outcome: domain.OutcomeFailure, Error: msg}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowResourceURI, "Chat flow",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.handleListNodes(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(list.Nodes)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FlowResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}
