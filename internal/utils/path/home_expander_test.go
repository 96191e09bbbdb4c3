package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHomeExpanderExpand(t *testing.T) {
	expander := NewHomeExpanderWithProvider(func() (string, error) {
		return "/home/tester", nil
	})

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare_tilde", input: "~", expected: "/home/tester"},
		{name: "tilde_prefix", input: "~/src/repo", expected: "/home/tester/src/repo"},
		{name: "absolute_untouched", input: "/srv/repo", expected: "/srv/repo"},
		{name: "other_user_untouched", input: "~other/repo", expected: "~other/repo"},
		{name: "empty_untouched", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderProviderFailureLeavesPath(t *testing.T) {
	expander := NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})
	require.Equal(t, "~/repo", expander.Expand("~/repo"))
}

func TestHomeExpanderResolveDirectory(t *testing.T) {
	homeDirectory := t.TempDir()
	repositoryDirectory := filepath.Join(homeDirectory, "repo")
	require.NoError(t, os.MkdirAll(repositoryDirectory, 0o755))
	regularFile := filepath.Join(homeDirectory, "notes.txt")
	require.NoError(t, os.WriteFile(regularFile, []byte("x"), 0o600))

	expander := NewHomeExpanderWithProvider(func() (string, error) {
		return homeDirectory, nil
	})

	resolved, resolveError := expander.ResolveDirectory(" ~/repo ")
	require.NoError(t, resolveError)
	require.Equal(t, repositoryDirectory, resolved)

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(t, workingDirectoryError)
	resolved, resolveError = expander.ResolveDirectory("")
	require.NoError(t, resolveError)
	require.Equal(t, workingDirectory, resolved)

	_, resolveError = expander.ResolveDirectory(filepath.Join(homeDirectory, "absent"))
	require.ErrorIs(t, resolveError, ErrPathMissing)

	_, resolveError = expander.ResolveDirectory(regularFile)
	require.ErrorIs(t, resolveError, ErrPathNotDirectory)
}
