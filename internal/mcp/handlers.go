package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/history"
	"github.com/exsess/exsess/internal/restore"
	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store     *store.Store
	engine    *restore.Engine
	historyDB *sql.DB
	cfg       *config.Config
	log       zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, engine *restore.Engine, historyDB *sql.DB, cfg *config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{store: st, engine: engine, historyDB: historyDB, cfg: cfg, log: log}
}

// Request types for each tool

// SaveRequest represents the arguments for session_save.
type SaveRequest struct {
	Name string `json:"name,omitempty"`
}

// RestoreRequest represents the arguments for session_restore.
type RestoreRequest struct {
	Key            string `json:"key"`
	OpenTimeoutMS  *int   `json:"open_timeout_ms,omitempty"`
	PollIntervalMS *int   `json:"poll_interval_ms,omitempty"`
}

// DeleteRequest represents the arguments for session_delete.
type DeleteRequest struct {
	Key string `json:"key"`
}

// RemovePathRequest represents the arguments for session_remove_path.
type RemovePathRequest struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// AddPathRequest represents the arguments for session_add_path.
type AddPathRequest struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Rect  []int  `json:"rect,omitempty"`
	State string `json:"state,omitempty"`
}

// HistoryRequest represents the arguments for session_history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RestoreResult is the session_restore response payload.
type RestoreResult struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Restored   int    `json:"restored"`
	Skipped    int    `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
	PassID     string `json:"pass_id,omitempty"`
}

// Handler implementations

// HandleSave handles the session_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.Capture(input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"key":     result.Key,
		"summary": session.Summarize(result.Key, result.Session),
	})
}

// HandleList handles the session_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := h.store.List()
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"sessions": summaries})
}

// HandleRestore handles the session_restore tool call.
func (h *Handlers) HandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RestoreRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	sess, err := h.store.Load(input.Key)
	if err != nil {
		return errorResult(err), nil
	}

	openTimeout := h.cfg.OpenTimeout()
	if input.OpenTimeoutMS != nil {
		openTimeout = time.Duration(*input.OpenTimeoutMS) * time.Millisecond
	}
	pollInterval := h.cfg.PollInterval()
	if input.PollIntervalMS != nil {
		pollInterval = time.Duration(*input.PollIntervalMS) * time.Millisecond
	}

	started := time.Now()
	res := h.engine.Restore(ctx, sess, openTimeout, pollInterval)
	duration := time.Since(started)

	result := RestoreResult{
		Key:        input.Key,
		Name:       sess.Name,
		Restored:   res.Restored,
		Skipped:    res.Skipped,
		DurationMS: duration.Milliseconds(),
	}

	passID, err := history.Record(h.historyDB, history.Pass{
		SessionKey:  input.Key,
		SessionName: sess.Name,
		Restored:    res.Restored,
		Skipped:     res.Skipped,
		StartedAt:   started,
		DurationMS:  duration.Milliseconds(),
	})
	if err != nil {
		// The restore itself succeeded; a history write failure is not fatal.
		h.log.Warn().Err(err).Msg("failed to record restore pass")
	} else {
		result.PassID = passID
	}

	return successResult(result)
}

// HandleDelete handles the session_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.store.Delete(input.Key); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "key": input.Key})
}

// HandleRemovePath handles the session_remove_path tool call.
func (h *Handlers) HandleRemovePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemovePathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	remains, err := h.store.RemoveEntry(input.Key, input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"key":             input.Key,
		"session_remains": remains,
	})
}

// HandleAddPath handles the session_add_path tool call.
func (h *Handlers) HandleAddPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddPathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var rect *session.Rect
	if len(input.Rect) > 0 {
		if len(input.Rect) != 4 {
			return errorResult(errors.NewInvalidRequest("rect must have exactly 4 elements: [left, top, width, height]")), nil
		}
		rect = &session.Rect{
			Left:   input.Rect[0],
			Top:    input.Rect[1],
			Width:  input.Rect[2],
			Height: input.Rect[3],
		}
	}

	var state *session.ShowState
	if input.State != "" {
		parsed, err := session.ParseShowState(input.State)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		state = &parsed
	}

	added, err := h.store.AddEntry(input.Key, input.Path, rect, state)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"key":   input.Key,
		"added": added,
	})
}

// HandleHistory handles the session_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.cfg.HistoryLimit
	}

	passes, err := history.List(h.historyDB, limit)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}

	return successResult(map[string]any{"passes": passes})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := err.(*errors.SessError); ok {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
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
