// Package repository exposes a live, uncached view of a Git working tree.
//
// Facade resolves filesystem paths to repository roots and derives branch,
// status, diff and remote facts through an interchangeable Backend. Read
// operations degrade to empty results when the backend fails, while path
// resolution and branch switching surface explicit errors so callers can
// prompt or report.
package repository
