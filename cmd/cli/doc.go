// Package cli constructs the repowatch command-line interface, wiring the
// Cobra command hierarchy, the configuration loader, and structured logging.
package cli
