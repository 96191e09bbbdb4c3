// Package repositorytest builds throwaway repositories with go-git for command tests.
package repositorytest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/repository"
	gogitbackend "github.com/temirov/repowatch/internal/repository/gogit"
)

// MainBranchName is the branch new fixtures start on.
const MainBranchName = "main"

const (
	fixtureDirectoryName    = "work"
	fixtureAuthorName       = "Repowatch Tester"
	fixtureAuthorEmail      = "tester@example.com"
	fixtureOriginRemoteName = "origin"
	fixtureDirectoryMode    = 0o755
	fixtureFileMode         = 0o644
	fixtureInitialMessage   = "initial"
)

// Fixture is a repository on disk whose top-level directory is named "work".
type Fixture struct {
	Root       string
	Repository *gogit.Repository
}

// NewFixture initializes an empty repository on branch main.
func NewFixture(t testing.TB) Fixture {
	t.Helper()
	parent, evalError := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, evalError)
	root := filepath.Join(parent, fixtureDirectoryName)
	require.NoError(t, os.MkdirAll(root, fixtureDirectoryMode))

	initialized, initError := gogit.PlainInitWithOptions(root, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(MainBranchName)},
	})
	require.NoError(t, initError)
	return Fixture{Root: root, Repository: initialized}
}

// NewCommittedFixture initializes a repository with files committed on main.
func NewCommittedFixture(t testing.TB, files map[string]string) Fixture {
	t.Helper()
	fixture := NewFixture(t)
	paths := make([]string, 0, len(files))
	for relativePath, content := range files {
		fixture.WriteFile(t, relativePath, content)
		paths = append(paths, relativePath)
	}
	fixture.Stage(t, paths...)
	fixture.Commit(t, fixtureInitialMessage)
	return fixture
}

// WriteFile writes content below the repository root, creating parent directories.
func (fixture Fixture) WriteFile(t testing.TB, relativePath string, content string) {
	t.Helper()
	absolutePath := filepath.Join(fixture.Root, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), fixtureDirectoryMode))
	require.NoError(t, os.WriteFile(absolutePath, []byte(content), fixtureFileMode))
}

// RemoveFile deletes a file from the working tree.
func (fixture Fixture) RemoveFile(t testing.TB, relativePath string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(fixture.Root, relativePath)))
}

// Stage adds paths to the index.
func (fixture Fixture) Stage(t testing.TB, relativePaths ...string) {
	t.Helper()
	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(t, worktreeError)
	for _, relativePath := range relativePaths {
		_, addError := worktree.Add(filepath.ToSlash(relativePath))
		require.NoError(t, addError)
	}
}

// Commit records the index and returns the new commit id.
func (fixture Fixture) Commit(t testing.TB, message string) plumbing.Hash {
	t.Helper()
	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(t, worktreeError)
	commitHash, commitError := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: fixtureAuthorName, Email: fixtureAuthorEmail, When: time.Now()},
	})
	require.NoError(t, commitError)
	return commitHash
}

// CreateBranch points a new branch at HEAD without checking it out.
func (fixture Fixture) CreateBranch(t testing.TB, branchName string) {
	t.Helper()
	head, headError := fixture.Repository.Head()
	require.NoError(t, headError)
	reference := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branchName), head.Hash())
	require.NoError(t, fixture.Repository.Storer.SetReference(reference))
}

// SetOrigin configures the origin remote URL.
func (fixture Fixture) SetOrigin(t testing.TB, remoteURL string) {
	t.Helper()
	_, remoteError := fixture.Repository.CreateRemote(&gitconfig.RemoteConfig{Name: fixtureOriginRemoteName, URLs: []string{remoteURL}})
	require.NoError(t, remoteError)
}

// CurrentBranch reads the checked-out branch directly from the repository.
func (fixture Fixture) CurrentBranch(t testing.TB) string {
	t.Helper()
	head, headError := fixture.Repository.Head()
	require.NoError(t, headError)
	return head.Name().Short()
}

// NewLibraryFacade builds a facade over the go-git backend.
func NewLibraryFacade(t testing.TB) *repository.Facade {
	t.Helper()
	facade, facadeError := repository.NewFacade(gogitbackend.NewBackend(), zap.NewNop())
	require.NoError(t, facadeError)
	return facade
}
