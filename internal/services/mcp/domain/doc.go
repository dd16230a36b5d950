// Package domain defines the MCP tool surface: typed inputs and outputs,
// tool schemas, and handlers binding each tool to the game application
// service.
//
// Handlers return caller-facing errors built from localized rejection
// messages; internal error chains stay in logs and telemetry.
package domain
