// Package toolserver exposes the rental workflow as Model Context Protocol tools.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Proton-105/rental-agent/internal/agent"
	apperrors "github.com/Proton-105/rental-agent/internal/errors"
	"github.com/Proton-105/rental-agent/internal/ratelimit"
	"github.com/Proton-105/rental-agent/internal/session"
	"github.com/Proton-105/rental-agent/pkg/logger"
)

const (
	ServerName = "rental-agent"

	ToolStartCall       = "start_call"
	ToolGetInstructions = "get_instructions"

	argCallID = "call_id"
)

// Sessions is the call session surface used by the server.
type Sessions interface {
	Start(ctx context.Context) (*session.Record, string, error)
	Invoke(ctx context.Context, callID, tool string, args agent.Args) (session.Reply, error)
	Instructions(ctx context.Context, callID string) (string, error)
}

// CallResult is the JSON body of every successful tool result.
type CallResult struct {
	CallID       string `json:"call_id"`
	Reply        string `json:"reply,omitempty"`
	Stage        string `json:"stage"`
	Ended        bool   `json:"ended"`
	Instructions string `json:"instructions,omitempty"`
}

type Server struct {
	sessions Sessions
	guard    *ratelimit.Guard
	errs     *apperrors.Handler
	log      *slog.Logger
	mcp      *server.MCPServer
}

// New registers start_call, get_instructions and every workflow operation.
func New(sessions Sessions, guard *ratelimit.Guard, errs *apperrors.Handler, log *slog.Logger, version string) *Server {
	if log == nil {
		log = slog.Default()
	}
	if errs == nil {
		errs = apperrors.NewHandler(log, false)
	}

	s := &Server{
		sessions: sessions,
		guard:    guard,
		errs:     errs,
		log:      log,
		mcp:      server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the tools on stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// SSE builds the SSE transport. Mount SSEHandler at /sse and MessageHandler at /message.
func (s *Server) SSE(baseURL string) *server.SSEServer {
	return server.NewSSEServer(s.mcp, server.WithBaseURL(baseURL))
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolStartCall,
		mcp.WithDescription("Start a new rental call. Returns the call_id to pass to every other tool and the greeting instructions."),
	), s.handleStartCall)

	s.mcp.AddTool(mcp.NewTool(ToolGetInstructions,
		mcp.WithDescription("Get the agent instructions for the current stage of a call."),
		mcp.WithString(argCallID, mcp.Required(), mcp.Description("The call id returned by start_call")),
	), s.handleGetInstructions)

	for _, t := range agent.Tools() {
		s.mcp.AddTool(toolDefinition(t), s.workflowHandler(t.Name))
	}
}

func toolDefinition(t agent.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description),
		mcp.WithString(argCallID, mcp.Required(), mcp.Description("The call id returned by start_call")),
	}

	for _, p := range t.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}

		switch p.Type {
		case agent.TypeNumber, agent.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	return mcp.NewTool(t.Name, opts...)
}

func (s *Server) handleStartCall(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, instructions, err := s.sessions.Start(ctx)
	if err != nil {
		return s.failure(ctx, err), nil
	}

	return s.success(CallResult{
		CallID:       rec.CallID,
		Stage:        rec.State.Stage.String(),
		Instructions: instructions,
	}), nil
}

func (s *Server) handleGetInstructions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID, err := req.RequireString(argCallID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ctx = logger.WithCorrelationID(ctx, callID)

	instructions, err := s.sessions.Instructions(ctx, callID)
	if err != nil {
		return s.failure(ctx, err), nil
	}

	return mcp.NewToolResultText(instructions), nil
}

func (s *Server) workflowHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID, err := req.RequireString(argCallID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ctx = logger.WithCorrelationID(ctx, callID)

		if err := s.guard.Allow(ctx, callID); err != nil {
			return s.failure(ctx, err), nil
		}

		args := agent.Args{}
		for k, v := range req.GetArguments() {
			if k != argCallID {
				args[k] = v
			}
		}

		reply, err := s.sessions.Invoke(ctx, callID, name, args)
		if err != nil {
			return s.failure(ctx, err), nil
		}

		return s.success(CallResult{
			CallID:       reply.CallID,
			Reply:        reply.Text,
			Stage:        reply.Stage.String(),
			Ended:        reply.Ended,
			Instructions: reply.Instructions,
		}), nil
	}
}

func (s *Server) success(res CallResult) *mcp.CallToolResult {
	body, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(body))
}

// failure maps session and application errors to a tool error result.
func (s *Server) failure(ctx context.Context, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, session.ErrCallNotFound):
		return mcp.NewToolResultError("Unknown call_id. Call start_call first.")
	case errors.Is(err, session.ErrCallEnded):
		return mcp.NewToolResultError("This call has ended. Start a new call to continue.")
	case errors.Is(err, agent.ErrUnknownTool):
		return mcp.NewToolResultError(err.Error())
	}

	return mcp.NewToolResultError(s.errs.Handle(ctx, err).Message)
}
