// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

// Server wraps the mcp-go server with the booking tools. It exposes the
// intake pipeline over the Model Context Protocol so AI agents can list
// and triage bookings, score leads, and trigger follow-up workflows.
type Server struct {
	store  store.Store
	reg    *integration.Registry
	orch   *workflow.Orchestrator
	logger *slog.Logger
	server *server.MCPServer
}

// NewServer creates a Server with all tools registered. Integration-backed
// tools (calendar, email, payments, messaging) are only registered when the
// corresponding capability is configured, so agents never see tools that
// would always fail.
func NewServer(st store.Store, reg *integration.Registry, orch *workflow.Orchestrator, logger *slog.Logger) *Server {
	s := &Server{
		store:  st,
		reg:    reg,
		orch:   orch,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"Bluestem Events API",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server instance, mainly for tests.
func (s *Server) Server() *server.MCPServer {
	return s.server
}

// ServeStdio runs the server over stdin/stdout. This is the integration
// path for MCP clients that launch the server as a subprocess.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(false)}
}

func boolPtr(b bool) *bool {
	return &b
}
