package app

import "github.com/rhuanca/databricks-mcp-server/internal/domain"

// Version is the semantic version, set at build time via -ldflags.
var Version = domain.ServerVersion

// Build is the git commit hash or build identifier, set at build time via -ldflags.
var Build = "dev"
