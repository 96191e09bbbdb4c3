// Package branches lists local branches of a repository and marks the checked-out one.
//
// The cd subpackage switches between branches, offering to create a missing target.
package branches
