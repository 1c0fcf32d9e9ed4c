// Package storagemcp provides the version information for storage-mcp.
package storagemcp

// Version is the current version of storage-mcp.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
