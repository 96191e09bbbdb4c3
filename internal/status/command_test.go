package status_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/repository/repositorytest"
	"github.com/temirov/repowatch/internal/status"
	flagutils "github.com/temirov/repowatch/internal/utils/flags"
)

const (
	textCleanExpected = "Repository: %s\nProject:    work\nBranch:     main\nWorking tree clean\n"
	textDirtyExpected = "Repository: %s\n" +
		"Project:    myproj\n" +
		"Branch:     main\n" +
		"Remote:     https://github.com/temirov/myproj\n" +
		"Added (1):\n" +
		"  fresh.txt\n" +
		"Deleted (1):\n" +
		"  doomed.txt\n"
)

func runStatusCommand(t *testing.T, facade *repository.Facade, arguments ...string) (string, error) {
	t.Helper()
	builder := status.CommandBuilder{Facade: facade}
	command, buildError := builder.Build()
	require.NoError(t, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(output)
	command.SetContext(context.Background())
	command.SetArgs(arguments)
	executeError := command.Execute()
	return output.String(), executeError
}

func TestStatusCommandBuilds(t *testing.T) {
	builder := status.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	require.IsType(t, &cobra.Command{}, command)
	require.NotNil(t, command.Flags().Lookup("format"))
}

func TestStatusCommandRendersText(t *testing.T) {
	fixture := repositorytest.NewCommittedFixture(t, map[string]string{"tracked.txt": "one\n", "doomed.txt": "bye\n"})
	facade := repositorytest.NewLibraryFacade(t)

	cleanOutput, cleanError := runStatusCommand(t, facade, fixture.Root)
	require.NoError(t, cleanError)
	require.Equal(t, fmt.Sprintf(textCleanExpected, fixture.Root), cleanOutput)

	fixture.SetOrigin(t, "git@github.com:temirov/myproj.git")
	fixture.WriteFile(t, "fresh.txt", "new\n")
	fixture.Stage(t, "fresh.txt")
	fixture.RemoveFile(t, "doomed.txt")

	dirtyOutput, dirtyError := runStatusCommand(t, facade, fixture.Root)
	require.NoError(t, dirtyError)
	require.Equal(t, fmt.Sprintf(textDirtyExpected, fixture.Root), dirtyOutput)
}

func TestStatusCommandRendersStructuredFormats(t *testing.T) {
	fixture := repositorytest.NewCommittedFixture(t, map[string]string{"tracked.txt": "one\n"})
	fixture.WriteFile(t, "tracked.txt", "two\n")
	facade := repositorytest.NewLibraryFacade(t)

	expected := status.Report{
		Repository: fixture.Root,
		Project:    "work",
		Branch:     repositorytest.MainBranchName,
		Added:      []string{},
		Modified:   []string{"tracked.txt"},
		Deleted:    []string{},
	}

	jsonOutput, jsonError := runStatusCommand(t, facade, fixture.Root, "--format", "JSON")
	require.NoError(t, jsonError)
	var decodedJSON status.Report
	require.NoError(t, json.Unmarshal([]byte(jsonOutput), &decodedJSON))
	require.Equal(t, expected, decodedJSON)
	require.NotContains(t, jsonOutput, "remote_url")

	yamlOutput, yamlError := runStatusCommand(t, facade, fixture.Root, "--format", "yaml")
	require.NoError(t, yamlError)
	var decodedYAML status.Report
	require.NoError(t, yaml.Unmarshal([]byte(yamlOutput), &decodedYAML))
	require.Equal(t, expected, decodedYAML)
}

func TestStatusCommandRejectsUnknownFormat(t *testing.T) {
	fixture := repositorytest.NewCommittedFixture(t, map[string]string{"tracked.txt": "one\n"})
	_, executeError := runStatusCommand(t, repositorytest.NewLibraryFacade(t), fixture.Root, "--format", "xml")
	require.ErrorIs(t, executeError, flagutils.ErrInvalidChoice)
}

func TestStatusCommandOutsideRepository(t *testing.T) {
	_, executeError := runStatusCommand(t, repositorytest.NewLibraryFacade(t), t.TempDir())
	require.ErrorIs(t, executeError, repository.ErrNotARepository)
}
