// Package status renders the branch, remote and change summary of a repository.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/repowatch/internal/repository"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

const (
	repositoryLineTemplateConstant = "Repository: %s\n"
	projectLineTemplateConstant    = "Project:    %s\n"
	branchLineTemplateConstant     = "Branch:     %s\n"
	remoteLineTemplateConstant     = "Remote:     %s\n"
	categoryHeaderTemplateConstant = "%s (%d):\n"
	categoryEntryTemplateConstant  = "  %s\n"
	addedCategoryNameConstant      = "Added"
	modifiedCategoryNameConstant   = "Modified"
	deletedCategoryNameConstant    = "Deleted"
	cleanWorkingTreeLineConstant   = "Working tree clean\n"
	jsonIndentConstant             = "  "
	yamlIndentConstant             = 2
	renderErrorTemplateConstant    = "unable to render %s status: %w"
	unknownFormatTemplateConstant  = "unsupported status format %q"
)

// FormatChoices lists the supported output formats, default first.
func FormatChoices() []string {
	return []string{FormatText, FormatYAML, FormatJSON}
}

// Report is a point-in-time summary of one repository.
type Report struct {
	Repository string   `json:"repository" yaml:"repository"`
	Project    string   `json:"project" yaml:"project"`
	Branch     string   `json:"branch" yaml:"branch"`
	RemoteURL  string   `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	Added      []string `json:"added" yaml:"added"`
	Modified   []string `json:"modified" yaml:"modified"`
	Deleted    []string `json:"deleted" yaml:"deleted"`
}

// BuildReport queries the facade afresh for every field.
func BuildReport(executionContext context.Context, facade *repository.Facade, handle repository.Handle) Report {
	snapshot := facade.Status(executionContext, handle)
	remoteURL, _ := facade.RemoteURL(executionContext, handle)
	return Report{
		Repository: handle.Root(),
		Project:    facade.ProjectName(executionContext, handle),
		Branch:     facade.CurrentBranch(executionContext, handle),
		RemoteURL:  remoteURL,
		Added:      nonNil(snapshot.Added),
		Modified:   nonNil(snapshot.Modified),
		Deleted:    nonNil(snapshot.Deleted),
	}
}

// Render writes report in the requested format.
func Render(writer io.Writer, report Report, format string) error {
	switch format {
	case FormatText, "":
		return renderText(writer, report)
	case FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, closeError)
		}
		return nil
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, format, encodeError)
		}
		return nil
	default:
		return fmt.Errorf(unknownFormatTemplateConstant, format)
	}
}

// renderText omits empty categories and the remote line when no origin is configured.
func renderText(writer io.Writer, report Report) error {
	lines := []string{
		fmt.Sprintf(repositoryLineTemplateConstant, report.Repository),
		fmt.Sprintf(projectLineTemplateConstant, report.Project),
		fmt.Sprintf(branchLineTemplateConstant, report.Branch),
	}
	if len(report.RemoteURL) > 0 {
		lines = append(lines, fmt.Sprintf(remoteLineTemplateConstant, report.RemoteURL))
	}

	categories := []struct {
		name  string
		paths []string
	}{
		{name: addedCategoryNameConstant, paths: report.Added},
		{name: modifiedCategoryNameConstant, paths: report.Modified},
		{name: deletedCategoryNameConstant, paths: report.Deleted},
	}
	changesReported := false
	for _, category := range categories {
		if len(category.paths) == 0 {
			continue
		}
		changesReported = true
		lines = append(lines, fmt.Sprintf(categoryHeaderTemplateConstant, category.name, len(category.paths)))
		for _, path := range category.paths {
			lines = append(lines, fmt.Sprintf(categoryEntryTemplateConstant, path))
		}
	}
	if !changesReported {
		lines = append(lines, cleanWorkingTreeLineConstant)
	}

	for _, line := range lines {
		if _, writeError := io.WriteString(writer, line); writeError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, FormatText, writeError)
		}
	}
	return nil
}

func nonNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
