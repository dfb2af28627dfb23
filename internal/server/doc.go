// Package server orchestrates the research-manager server components.
//
// # Overview
//
// The server package is the central coordinator of the research-manager
// server. It owns and manages all major components: HTTP server, data store,
// auth service, and the result-processing pipeline.
//
// # Server Struct
//
// The Server struct is the main entry point:
//
//	type Server struct {
//	    config      *config.Config
//	    store       store.Store
//	    auth        *auth.Service
//	    verifier    *auth.JWTVerifier
//	    pipeline    *pipeline.Pipeline
//	    httpServer  *http.Server
//	    tsnetServer *tsnet.Server
//	    logger      *slog.Logger
//	}
//
// # HTTP API
//
// The server exposes HTTP endpoints in api.go:
//
//   - POST /api/signup - Create an account
//   - POST /api/login - Exchange credentials for a bearer token
//   - POST /api/synthesis - Record a catalyst synthesis
//   - GET /api/synthesis - List the caller's syntheses
//   - DELETE /api/synthesis/{id} - Delete a synthesis
//   - POST /api/reactions - Record a reaction run
//   - GET /api/reactions - List the caller's reactions with synthesis details
//   - DELETE /api/reactions/{id} - Delete a reaction
//   - POST /api/reactions/{id}/result - Upload and process an .xlsx result file
//   - GET /api/reactions/{id}/result - Fetch the stored average
//   - GET /api/reactions/{id}/result/graph - Fetch the stored chart PNG
//   - GET /health - Liveness check
//
// All /api routes other than signup and login require a bearer token minted
// by login. List endpoints are scoped to the authenticated user; deletes are
// unconditional by primary key.
//
// # Result Processing
//
// A result upload runs the full pipeline synchronously inside the request:
// parse the workbook, filter and smooth the series, render the chart, and
// upsert the single result row for the reaction. Failures caused by the
// uploaded data come back as 422 with the failure message; nothing is stored
// on any failure.
//
// # Tailscale
//
// With tailscale.enabled the server joins a tailnet via tsnet and serves on
// port 80 of its tailnet address instead of binding a local TCP port. State
// lives under tailscale.state_dir so the node identity survives restarts.
//
// # Graceful Shutdown
//
// Run blocks until the context is canceled or the listener fails, then gives
// in-flight requests five seconds to drain before closing the store and, if
// present, the tsnet node.
package server
