package repository

import (
	"fmt"
	"path/filepath"
)

const diffStatSummaryTemplateConstant = "%d insertions(+), %d deletions(-)"

// Handle identifies a resolved repository by the absolute path of its top-level working directory.
// Handles are produced by Facade.Resolve and never change afterwards.
type Handle struct {
	root string
}

// Root returns the absolute top-level directory of the repository.
func (handle Handle) Root() string {
	return handle.root
}

// Name returns the base name of the repository root.
func (handle Handle) Name() string {
	return filepath.Base(handle.root)
}

// IsZero reports whether the handle was never resolved.
func (handle Handle) IsZero() bool {
	return len(handle.root) == 0
}

// String implements fmt.Stringer.
func (handle Handle) String() string {
	return handle.root
}

// StatusSnapshot partitions changed paths into added, modified and deleted sets.
// Each slice is sorted, duplicate free and disjoint from the other two.
type StatusSnapshot struct {
	Added    []string `json:"added" yaml:"added"`
	Modified []string `json:"modified" yaml:"modified"`
	Deleted  []string `json:"deleted" yaml:"deleted"`
}

// IsEmpty reports whether no category holds a path.
func (snapshot StatusSnapshot) IsEmpty() bool {
	return len(snapshot.Added) == 0 && len(snapshot.Modified) == 0 && len(snapshot.Deleted) == 0
}

// ModifiedFile keys a changed path together with the side of the index it changed on.
type ModifiedFile struct {
	Path   string `json:"path" yaml:"path"`
	Staged bool   `json:"staged" yaml:"staged"`
}

// DiffStat counts inserted and deleted lines of a single file diff.
type DiffStat struct {
	Insertions int `json:"insertions" yaml:"insertions"`
	Deletions  int `json:"deletions" yaml:"deletions"`
}

// String renders the summary line shown next to a diff.
func (stat DiffStat) String() string {
	return fmt.Sprintf(diffStatSummaryTemplateConstant, stat.Insertions, stat.Deletions)
}

// StatusCode is a porcelain status letter for one side of the index.
type StatusCode byte

// Porcelain status letters.
const (
	StatusUnmodified StatusCode = ' '
	StatusModified   StatusCode = 'M'
	StatusTypeChange StatusCode = 'T'
	StatusAdded      StatusCode = 'A'
	StatusDeleted    StatusCode = 'D'
	StatusRenamed    StatusCode = 'R'
	StatusCopied     StatusCode = 'C'
	StatusUnmerged   StatusCode = 'U'
	StatusUntracked  StatusCode = '?'
	StatusIgnored    StatusCode = '!'
)

// String returns the porcelain letter.
func (code StatusCode) String() string {
	return string(rune(code))
}

// FileState is the raw per-path status reported by a backend. Staging describes
// HEAD against the index and Worktree describes the index against the working tree.
type FileState struct {
	Path     string
	Staging  StatusCode
	Worktree StatusCode
}
