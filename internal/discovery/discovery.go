// Package discovery locates Git working trees below a set of root directories.
package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	pathutils "github.com/temirov/repowatch/internal/utils/path"
)

const metadataEntryNameConstant = ".git"

// Discoverer walks directory trees looking for repository metadata entries.
type Discoverer struct {
	pathExpander *pathutils.HomeExpander
}

// NewDiscoverer constructs a Discoverer that expands leading tildes in roots.
func NewDiscoverer() *Discoverer {
	return &Discoverer{pathExpander: pathutils.NewHomeExpander()}
}

// Discover returns the sorted, duplicate free working tree directories found under roots.
// A working tree is any directory holding a .git directory or a .git pointer file. Metadata
// directories are never descended into and unreadable subdirectories are skipped. Each root
// must name an existing directory.
func (discoverer *Discoverer) Discover(executionContext context.Context, roots []string) ([]string, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	pathExpander := discoverer.pathExpander
	if pathExpander == nil {
		pathExpander = pathutils.NewHomeExpander()
	}

	seen := make(map[string]struct{})
	var workingTrees []string

	for _, root := range roots {
		resolvedRoot, resolveError := pathExpander.ResolveDirectory(root)
		if resolveError != nil {
			return nil, resolveError
		}

		walkError := filepath.WalkDir(resolvedRoot, func(path string, directoryEntry fs.DirEntry, entryError error) error {
			if contextError := executionContext.Err(); contextError != nil {
				return contextError
			}
			if entryError != nil {
				if directoryEntry != nil && directoryEntry.IsDir() && path != resolvedRoot {
					return fs.SkipDir
				}
				return nil
			}
			if directoryEntry.Name() != metadataEntryNameConstant {
				return nil
			}

			workingTree := filepath.Dir(path)
			if _, alreadySeen := seen[workingTree]; !alreadySeen {
				seen[workingTree] = struct{}{}
				workingTrees = append(workingTrees, workingTree)
			}
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(workingTrees)
	return workingTrees, nil
}
