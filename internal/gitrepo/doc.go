// Package gitrepo holds backend-independent helpers for presenting Git remotes.
package gitrepo
