package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("session_save",
	mcp.WithDescription("Save the currently open folder windows as a named session. Duplicate paths are deduplicated, first seen wins."),
	mcp.WithString("name",
		mcp.Description("Session name. Omit to derive one from the capture time."),
	),
)

var listToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List saved sessions with window and tab counts, most recent first."),
)

var restoreToolDef = mcp.NewTool("session_restore",
	mcp.WithDescription("Restore a saved session: reopen missing folder windows and apply saved geometry. Returns restored and skipped counts."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Storage key of the session to restore."),
	),
	mcp.WithNumber("open_timeout_ms",
		mcp.Description("How long to wait for launched windows to appear. Defaults to the configured timeout."),
	),
	mcp.WithNumber("poll_interval_ms",
		mcp.Description("Sleep between polling rounds. Defaults to the configured interval."),
	),
)

var deleteToolDef = mcp.NewTool("session_delete",
	mcp.WithDescription("Delete a saved session. Deleting a nonexistent key is not an error."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Storage key of the session to delete."),
	),
)

var removePathToolDef = mcp.NewTool("session_remove_path",
	mcp.WithDescription("Remove a folder path from a saved session. Removing the last path deletes the whole session."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Storage key of the session to modify."),
	),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Folder path to remove."),
	),
)

var addPathToolDef = mcp.NewTool("session_add_path",
	mcp.WithDescription("Add a folder path to a saved session. Fails softly (added=false) if the path is already present."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Storage key of the session to modify."),
	),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Folder path to add."),
	),
	mcp.WithArray("rect",
		mcp.Description("Window geometry as [left, top, width, height]. Defaults to the configured rect."),
	),
	mcp.WithString("state",
		mcp.Description("Show state: normal, minimized, or maximized. Defaults to normal."),
	),
)

var historyToolDef = mcp.NewTool("session_history",
	mcp.WithDescription("List recent restore passes with their restored and skipped counts."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum passes to return. Defaults to the configured history limit."),
	),
)
