// Package changes lists staged and unstaged file changes and prints per-file diffs.
package changes
