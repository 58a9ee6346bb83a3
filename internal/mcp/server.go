package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/restore"
	"github.com/exsess/exsess/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"session_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"session_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"session_restore": {
		def:     restoreToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRestore },
	},
	"session_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"session_remove_path": {
		def:     removePathToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemovePath },
	},
	"session_add_path": {
		def:     addPathToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddPath },
	},
	"session_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with exsess tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(st *store.Store, engine *restore.Engine, historyDB *sql.DB, cfg *config.Config, log zerolog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"exsess",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, engine, historyDB, cfg, log)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, engine *restore.Engine, historyDB *sql.DB, cfg *config.Config, log zerolog.Logger, version string) error {
	s := NewServer(st, engine, historyDB, cfg, log, version)
	return server.ServeStdio(s)
}
