package dependencies_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/dependencies"
	"github.com/temirov/repowatch/internal/execshell"
	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/repository/gogit"
	"github.com/temirov/repowatch/internal/repository/repositorytest"
	"github.com/temirov/repowatch/internal/repository/shellgit"
)

type recordingGitExecutor struct {
	recorded []execshell.CommandDetails
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recorded = append(executor.recorded, details)
	return execshell.ExecutionResult{StandardOutput: "main\n"}, nil
}

func TestResolveBackendSelection(t *testing.T) {
	testCases := []struct {
		name         string
		backendName  string
		expectedType any
		expectError  bool
	}{
		{name: "default", backendName: "", expectedType: &shellgit.Backend{}},
		{name: "shell", backendName: dependencies.BackendShell, expectedType: &shellgit.Backend{}},
		{name: "library mixed case", backendName: " Library ", expectedType: &gogit.Backend{}},
		{name: "unknown", backendName: "svn", expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			backend, resolveError := dependencies.ResolveBackend(nil, &recordingGitExecutor{}, dependencies.RepositoryOptions{Backend: testCase.backendName})
			if testCase.expectError {
				require.ErrorIs(t, resolveError, dependencies.ErrUnknownBackend)
				require.Nil(t, backend)
				return
			}
			require.NoError(t, resolveError)
			require.IsType(t, testCase.expectedType, backend)
		})
	}
}

func TestResolveFacadeUsesProvidedExecutor(t *testing.T) {
	executor := &recordingGitExecutor{}
	facade, resolveError := dependencies.ResolveFacade(nil, nil, executor, dependencies.RepositoryOptions{Backend: dependencies.BackendShell, Logger: zap.NewNop()})
	require.NoError(t, resolveError)

	_ = facade.LocalBranches(context.Background(), repository.Handle{})
	require.Len(t, executor.recorded, 1)
	require.Equal(t, "0", executor.recorded[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
}

func TestResolveFacadeReturnsExisting(t *testing.T) {
	existing, constructionError := repository.NewFacade(gogit.NewBackend(), zap.NewNop())
	require.NoError(t, constructionError)

	resolved, resolveError := dependencies.ResolveFacade(existing, nil, nil, dependencies.RepositoryOptions{Backend: "svn"})
	require.NoError(t, resolveError)
	require.Same(t, existing, resolved)
}

func TestResolveGitExecutorBuildsShellExecutor(t *testing.T) {
	executor, resolveError := dependencies.ResolveGitExecutor(nil, dependencies.RepositoryOptions{CommandTimeout: time.Second})
	require.NoError(t, resolveError)
	require.IsType(t, &execshell.ShellExecutor{}, executor)
}

func TestRepositoryConfigurationSanitize(t *testing.T) {
	sanitized := dependencies.RepositoryConfiguration{Backend: "  LIBRARY ", CommandTimeout: -time.Second}.Sanitize()
	require.Equal(t, dependencies.BackendLibrary, sanitized.Backend)
	require.Zero(t, sanitized.CommandTimeout)

	require.Equal(t, dependencies.BackendShell, dependencies.RepositoryConfiguration{}.Sanitize().Backend)
	require.Equal(t, dependencies.DefaultRepositoryConfiguration(), dependencies.ResolveRepositoryConfiguration(nil))
}

func TestDefaultConfigurationValues(t *testing.T) {
	require.Equal(t, map[string]any{
		"repository.backend":         dependencies.BackendShell,
		"repository.command_timeout": 30 * time.Second,
	}, dependencies.DefaultConfigurationValues("repository"))
}

func TestNewRepositoryOptionsInstallsConsoleObserver(t *testing.T) {
	configuration := dependencies.RepositoryConfiguration{Backend: dependencies.BackendShell, CommandTimeout: time.Second}

	plainOptions := dependencies.NewRepositoryOptions(configuration, zap.NewNop(), false)
	require.Nil(t, plainOptions.EventObserver)

	consoleOptions := dependencies.NewRepositoryOptions(configuration, zap.NewNop(), true)
	require.NotNil(t, consoleOptions.EventObserver)
	require.Equal(t, time.Second, consoleOptions.CommandTimeout)
}

func TestResolveHandleExpandsHomeAndDefaultsToWorkingDirectory(t *testing.T) {
	fixture := repositorytest.NewCommittedFixture(t, map[string]string{"tracked.txt": "one\n"})
	facade := repositorytest.NewLibraryFacade(t)
	t.Setenv("HOME", fixture.Root)

	handle, resolveError := dependencies.ResolveHandle(context.Background(), facade, []string{"~/tracked.txt"}, 0)
	require.NoError(t, resolveError)
	require.Equal(t, fixture.Root, handle.Root())

	t.Chdir(fixture.Root)
	defaultHandle, defaultError := dependencies.ResolveHandle(context.Background(), facade, nil, 0)
	require.NoError(t, defaultError)
	require.Equal(t, handle, defaultHandle)
}
