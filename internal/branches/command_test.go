package branches_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/temirov/repowatch/internal/branches"
	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/repository/repositorytest"
)

func executeBranchesCommand(testInstance *testing.T, facade *repository.Facade, arguments ...string) (string, error) {
	testInstance.Helper()
	builder := branches.CommandBuilder{Facade: facade}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(output)
	command.SetContext(context.Background())
	command.SetArgs(arguments)
	executeError := command.Execute()
	return output.String(), executeError
}

func TestBranchesCommandMarksCurrentBranch(testInstance *testing.T) {
	fixture := repositorytest.NewCommittedFixture(testInstance, map[string]string{"readme.md": "hello\n"})
	fixture.CreateBranch(testInstance, "zeta")
	fixture.CreateBranch(testInstance, "alpha")

	output, executeError := executeBranchesCommand(testInstance, repositorytest.NewLibraryFacade(testInstance), fixture.Root)
	require.NoError(testInstance, executeError)
	require.Equal(testInstance, "  alpha\n* main\n  zeta\n", output)
}

func TestBranchesCommandReportsDetachedHead(testInstance *testing.T) {
	fixture := repositorytest.NewCommittedFixture(testInstance, map[string]string{"readme.md": "hello\n"})
	head, headError := fixture.Repository.Head()
	require.NoError(testInstance, headError)
	require.NoError(testInstance, fixture.Repository.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, head.Hash())))

	output, executeError := executeBranchesCommand(testInstance, repositorytest.NewLibraryFacade(testInstance), fixture.Root)
	require.NoError(testInstance, executeError)
	require.Equal(testInstance, "* (HEAD detached at "+head.Hash().String()[:7]+")\n  main\n", output)
}

func TestBranchesCommandRejectsExtraArguments(testInstance *testing.T) {
	_, executeError := executeBranchesCommand(testInstance, repositorytest.NewLibraryFacade(testInstance), "one", "two")
	require.Error(testInstance, executeError)
}

func TestBranchesCommandOutsideRepository(testInstance *testing.T) {
	_, executeError := executeBranchesCommand(testInstance, repositorytest.NewLibraryFacade(testInstance), testInstance.TempDir())
	require.ErrorIs(testInstance, executeError, repository.ErrNotARepository)
}
