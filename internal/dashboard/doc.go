// Package dashboard serves the read-only HTTP API consumed by the
// knowledge base dashboard UI.
//
// Endpoints:
//   - GET /healthz       liveness probe
//   - GET /metrics       Prometheus metrics
//   - GET /api/stats     entry counts per category plus recent saves
//   - GET /api/entries   recent entries, optionally ?category= and ?limit=
//
// All writes go through the MCP tool surface; the dashboard only reads.
// Errors are rendered as {"error": "..."} JSON with the matching HTTP
// status.
package dashboard
