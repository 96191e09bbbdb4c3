package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFileState(t *testing.T) {
	testCases := []struct {
		name     string
		staging  StatusCode
		worktree StatusCode
		expected statusCategory
	}{
		{name: "staged_modification", staging: StatusModified, worktree: StatusUnmodified, expected: statusCategoryModified},
		{name: "worktree_modification", staging: StatusUnmodified, worktree: StatusModified, expected: statusCategoryModified},
		{name: "staged_addition", staging: StatusAdded, worktree: StatusUnmodified, expected: statusCategoryAdded},
		{name: "added_then_modified", staging: StatusAdded, worktree: StatusModified, expected: statusCategoryAdded},
		{name: "added_then_deleted", staging: StatusAdded, worktree: StatusDeleted, expected: statusCategoryDeleted},
		{name: "staged_deletion", staging: StatusDeleted, worktree: StatusUnmodified, expected: statusCategoryDeleted},
		{name: "worktree_deletion", staging: StatusModified, worktree: StatusDeleted, expected: statusCategoryDeleted},
		{name: "rename", staging: StatusRenamed, worktree: StatusUnmodified, expected: statusCategoryModified},
		{name: "copy", staging: StatusCopied, worktree: StatusModified, expected: statusCategoryModified},
		{name: "type_change", staging: StatusUnmodified, worktree: StatusTypeChange, expected: statusCategoryModified},
		{name: "unmerged", staging: StatusUnmerged, worktree: StatusUnmerged, expected: statusCategoryModified},
		{name: "both_added_conflict", staging: StatusAdded, worktree: StatusAdded, expected: statusCategoryAdded},
		{name: "untracked", staging: StatusUntracked, worktree: StatusUntracked, expected: statusCategoryNone},
		{name: "ignored", staging: StatusIgnored, worktree: StatusIgnored, expected: statusCategoryNone},
		{name: "clean", staging: StatusUnmodified, worktree: StatusUnmodified, expected: statusCategoryNone},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, classifyFileState(FileState{Path: "file", Staging: testCase.staging, Worktree: testCase.worktree}))
		})
	}
}

func TestClassifyFileStatesReturnsEmptyCategories(t *testing.T) {
	snapshot := ClassifyFileStates(nil)
	require.NotNil(t, snapshot.Added)
	require.NotNil(t, snapshot.Modified)
	require.NotNil(t, snapshot.Deleted)
	require.True(t, snapshot.IsEmpty())
}

func TestStatusCodeString(t *testing.T) {
	require.Equal(t, "M", StatusModified.String())
	require.Equal(t, " ", StatusUnmodified.String())
	require.Equal(t, "?", StatusUntracked.String())
}

func TestValidateBranchName(t *testing.T) {
	for _, validName := range []string{"main", "feature/login", "release-1.2", "fix_42"} {
		require.NoError(t, ValidateBranchName(validName), validName)
	}
	for _, invalidName := range []string{"", "  ", "-delete", "a..b", "topic.lock", "with space", "x~1", "colon:name", "trailing/", "@"} {
		require.ErrorIs(t, ValidateBranchName(invalidName), ErrInvalidBranchName, invalidName)
	}
}

func TestNormalizeBranchList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, normalizeBranchList([]string{" b ", "a", "(no branch)", "b", ""}))
}
