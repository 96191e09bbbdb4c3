package shellgit

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/temirov/repowatch/internal/repository"
)

const (
	porcelainMinimumLineLengthConstant  = 4
	porcelainPathOffsetConstant         = 3
	porcelainRenameSeparatorConstant    = " -> "
	quotedPathDelimiterConstant         = '"'
	quotedPathEscapeConstant            = '\\'
	binaryNumstatMarkerConstant         = "-"
	malformedPorcelainTemplateConstant  = "malformed porcelain line %q"
	unterminatedQuoteTemplateConstant   = "unterminated quoted path %q"
	malformedNumstatTemplateConstant    = "malformed numstat line %q"
	pathUnquoteErrorTemplateConstant    = "unable to unquote path %q: %w"
	invalidNumstatCountTemplateConstant = "invalid numstat count %q: %w"
)

var numstatLinePattern = regexp.MustCompile(`^(\d+|-)\s+(\d+|-)\s`)

// parsePorcelainLine converts one "XY path" line of git status --porcelain=v1. Renames
// and copies ("R  old -> new") report the destination path.
func parsePorcelainLine(line string) (repository.FileState, error) {
	if len(line) < porcelainMinimumLineLengthConstant || line[2] != ' ' {
		return repository.FileState{}, fmt.Errorf(malformedPorcelainTemplateConstant, line)
	}

	stagingCode := repository.StatusCode(line[0])
	worktreeCode := repository.StatusCode(line[1])
	pathField := line[porcelainPathOffsetConstant:]

	firstPath, remainder, scanError := scanPorcelainPath(pathField)
	if scanError != nil {
		return repository.FileState{}, scanError
	}
	resolvedPath := firstPath
	if strings.HasPrefix(remainder, porcelainRenameSeparatorConstant) && isRenameOrCopy(stagingCode, worktreeCode) {
		destinationPath, trailing, destinationError := scanPorcelainPath(strings.TrimPrefix(remainder, porcelainRenameSeparatorConstant))
		if destinationError != nil {
			return repository.FileState{}, destinationError
		}
		if len(trailing) > 0 {
			return repository.FileState{}, fmt.Errorf(malformedPorcelainTemplateConstant, line)
		}
		resolvedPath = destinationPath
	} else if len(remainder) > 0 {
		resolvedPath = firstPath + remainder
	}

	if len(resolvedPath) == 0 {
		return repository.FileState{}, fmt.Errorf(malformedPorcelainTemplateConstant, line)
	}
	return repository.FileState{Path: resolvedPath, Staging: stagingCode, Worktree: worktreeCode}, nil
}

// scanPorcelainPath reads one path token. Quoted tokens end at their closing quote;
// unquoted tokens end at a rename separator or the end of the field.
func scanPorcelainPath(field string) (string, string, error) {
	if len(field) == 0 || field[0] != quotedPathDelimiterConstant {
		if separatorIndex := strings.Index(field, porcelainRenameSeparatorConstant); separatorIndex >= 0 {
			return field[:separatorIndex], field[separatorIndex:], nil
		}
		return field, "", nil
	}

	for index := 1; index < len(field); index++ {
		switch field[index] {
		case quotedPathEscapeConstant:
			index++
		case quotedPathDelimiterConstant:
			unquotedPath, unquoteError := unquotePath(field[:index+1])
			if unquoteError != nil {
				return "", "", unquoteError
			}
			return unquotedPath, field[index+1:], nil
		}
	}
	return "", "", fmt.Errorf(unterminatedQuoteTemplateConstant, field)
}

// unquotePath decodes git's C-style quoting, including octal escapes for non-ASCII bytes.
func unquotePath(path string) (string, error) {
	if len(path) < 2 || path[0] != quotedPathDelimiterConstant || path[len(path)-1] != quotedPathDelimiterConstant {
		return path, nil
	}
	unquotedPath, unquoteError := strconv.Unquote(path)
	if unquoteError != nil {
		return "", fmt.Errorf(pathUnquoteErrorTemplateConstant, path, unquoteError)
	}
	return unquotedPath, nil
}

func isRenameOrCopy(codes ...repository.StatusCode) bool {
	for _, code := range codes {
		if code == repository.StatusRenamed || code == repository.StatusCopied {
			return true
		}
	}
	return false
}

// parseNumstat reads the first line of git diff --numstat. The boolean is false when git
// reports the file as binary; empty output yields zero counts.
func parseNumstat(output string) (repository.DiffStat, bool, error) {
	lines := splitOutputLines(output)
	if len(lines) == 0 {
		return repository.DiffStat{}, true, nil
	}

	matches := numstatLinePattern.FindStringSubmatch(lines[0] + " ")
	if matches == nil {
		return repository.DiffStat{}, false, fmt.Errorf(malformedNumstatTemplateConstant, lines[0])
	}
	if matches[1] == binaryNumstatMarkerConstant || matches[2] == binaryNumstatMarkerConstant {
		return repository.DiffStat{}, false, nil
	}

	insertions, insertionsError := strconv.Atoi(matches[1])
	deletions, deletionsError := strconv.Atoi(matches[2])
	if countError := errors.Join(insertionsError, deletionsError); countError != nil {
		return repository.DiffStat{}, false, fmt.Errorf(invalidNumstatCountTemplateConstant, lines[0], countError)
	}
	return repository.DiffStat{Insertions: insertions, Deletions: deletions}, true, nil
}
