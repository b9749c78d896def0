// Package application wires configuration, settings, the preflight runner and
// the readiness HTTP server together, keeping the main package focused on CLI
// parsing and orchestration.
package application
