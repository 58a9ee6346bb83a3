package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/exsess/exsess/internal/errors"
)

// decode maps MCP request arguments onto a typed argument struct by
// round-tripping through JSON. Arguments that do not fit the target shape
// come back as INVALID_REQUEST so handlers can return them directly.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var args T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return args, errors.NewInvalidRequest(fmt.Sprintf("arguments did not serialize: %v", err))
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errors.NewInvalidRequest(fmt.Sprintf("arguments did not match tool schema: %v", err))
	}
	return args, nil
}
