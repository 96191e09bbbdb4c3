package repository

import (
	"slices"
	"strings"
)

type statusCategory int

const (
	statusCategoryNone statusCategory = iota
	statusCategoryModified
	statusCategoryAdded
	statusCategoryDeleted
)

// ClassifyFileStates partitions raw file states into a StatusSnapshot. A path is
// deleted when either side reports a deletion, otherwise added when the index
// reports an addition, otherwise modified when either side reports a content,
// type, rename, copy or merge change. Untracked and ignored paths are dropped.
// When a path is reported more than once the strongest category wins.
func ClassifyFileStates(fileStates []FileState) StatusSnapshot {
	categoriesByPath := make(map[string]statusCategory, len(fileStates))
	for _, fileState := range fileStates {
		path := fileState.Path
		if len(path) == 0 {
			continue
		}
		category := classifyFileState(fileState)
		if category == statusCategoryNone {
			continue
		}
		if category > categoriesByPath[path] {
			categoriesByPath[path] = category
		}
	}

	snapshot := StatusSnapshot{Added: []string{}, Modified: []string{}, Deleted: []string{}}
	for path, category := range categoriesByPath {
		switch category {
		case statusCategoryAdded:
			snapshot.Added = append(snapshot.Added, path)
		case statusCategoryModified:
			snapshot.Modified = append(snapshot.Modified, path)
		case statusCategoryDeleted:
			snapshot.Deleted = append(snapshot.Deleted, path)
		}
	}
	slices.Sort(snapshot.Added)
	slices.Sort(snapshot.Modified)
	slices.Sort(snapshot.Deleted)
	return snapshot
}

func classifyFileState(fileState FileState) statusCategory {
	if fileState.Staging == StatusDeleted || fileState.Worktree == StatusDeleted {
		return statusCategoryDeleted
	}
	if fileState.Staging == StatusAdded {
		return statusCategoryAdded
	}
	if isContentChange(fileState.Staging) || isContentChange(fileState.Worktree) {
		return statusCategoryModified
	}
	return statusCategoryNone
}

func isContentChange(code StatusCode) bool {
	switch code {
	case StatusModified, StatusTypeChange, StatusRenamed, StatusCopied, StatusUnmerged:
		return true
	default:
		return false
	}
}

func sortModifiedFiles(modifiedFiles []ModifiedFile) []ModifiedFile {
	slices.SortFunc(modifiedFiles, func(left ModifiedFile, right ModifiedFile) int {
		if pathOrder := strings.Compare(left.Path, right.Path); pathOrder != 0 {
			return pathOrder
		}
		switch {
		case left.Staged == right.Staged:
			return 0
		case !left.Staged:
			return -1
		default:
			return 1
		}
	})
	return slices.Compact(modifiedFiles)
}

func normalizeBranchList(branchNames []string) []string {
	normalizedBranches := make([]string, 0, len(branchNames))
	for _, branchName := range branchNames {
		trimmedBranch := strings.TrimSpace(branchName)
		if !isBranchListEntry(trimmedBranch) {
			continue
		}
		normalizedBranches = append(normalizedBranches, trimmedBranch)
	}
	slices.Sort(normalizedBranches)
	return slices.Compact(normalizedBranches)
}
