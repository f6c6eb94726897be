package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpx/cull/internal/config"
	"github.com/hpx/cull/internal/db"
	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/review"
)

// Handlers holds dependencies for MCP tool handlers. One session is active at
// a time; review_open replaces it.
type Handlers struct {
	database *sql.DB
	cfg      *config.Config

	mu      sync.Mutex
	session *review.Session
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{database: database, cfg: cfg}
}

// currentSession returns the open session, or an invalid-request error when
// review_open has not been called yet.
func (h *Handlers) currentSession() (*review.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, errors.NewInvalidRequest("no open session: call review_open first")
	}
	return h.session, nil
}

// Request types for each tool

// OpenRequest represents the arguments for review_open.
type OpenRequest struct {
	Root string `json:"root"`
}

// CurrentRequest represents the arguments for review_current.
type CurrentRequest struct {
	Thumbnail bool `json:"thumbnail,omitempty"`
}

// DecideRequest represents the arguments for review_decide.
type DecideRequest struct {
	Position int    `json:"position,omitempty"`
	Decision string `json:"decision"`
}

// Handler implementations

// HandleOpen handles the review_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Root == "" {
		return errorResult(errors.NewInvalidRequest("root is required")), nil
	}

	s, err := review.OpenDirSession(ctx, h.cfg, input.Root, db.NewSessionStore(h.database))
	if err != nil {
		return errorResult(err), nil
	}

	h.mu.Lock()
	h.session = s
	h.mu.Unlock()

	result, err := s.Status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCurrent handles the review_current tool call.
func (h *Handlers) HandleCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CurrentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	var result *review.CurrentOutput
	if input.Thumbnail {
		result, err = s.Thumbnail(ctx)
	} else {
		result, err = s.Current()
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAccept handles the review_accept tool call.
func (h *Handlers) HandleAccept(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.Accept(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReject handles the review_reject tool call.
func (h *Handlers) HandleReject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.Reject(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDecide handles the review_decide tool call.
func (h *Handlers) HandleDecide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DecideRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.DecideAt(ctx, input.Position, review.Decision(input.Decision))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUndo handles the review_undo tool call.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.Undo(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFlush handles the review_flush tool call.
func (h *Handlers) HandleFlush(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.Flush(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStatus handles the review_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	result, err := s.Status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReset handles the review_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.currentSession()
	if err != nil {
		return errorResult(err), nil
	}

	if err := s.Reset(ctx); err != nil {
		return errorResult(err), nil
	}
	result, err := s.Status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cullErr, ok := err.(*errors.CullError); ok {
		errorObj := map[string]any{
			"code":    cullErr.Code,
			"message": cullErr.Message,
			"status":  cullErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if cullErr.Code != errors.ErrInternal && cullErr.Details != nil {
			errorObj["details"] = cullErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
