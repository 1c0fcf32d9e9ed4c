// Package mcp exposes the tool registry over the Model Context Protocol.
// It wraps github.com/felixgeelhaar/mcp-go, which provides the stdio and
// HTTP transports.
package mcp

import (
	mcpgo "github.com/felixgeelhaar/mcp-go"
)

// Re-export core types from mcp-go for convenience.
type (
	// ServerInfo contains MCP server metadata.
	ServerInfo = mcpgo.ServerInfo

	// ServeOption configures the stdio transport.
	ServeOption = mcpgo.ServeOption

	// HTTPOption configures the HTTP transport.
	HTTPOption = mcpgo.HTTPOption
)
