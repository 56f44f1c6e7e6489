// Package cli provides the interactive rentdesk command-line client.
//
// It wires configuration and the HTTP auth client into a small REPL:
// login, refresh, me and logout. The refresh token lives only in memory for
// the lifetime of the process.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
