// Package dependencies assembles the repository facade and its collaborators from
// configuration, returning caller-provided instances untouched.
package dependencies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/execshell"
	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/repository/gogit"
	"github.com/temirov/repowatch/internal/repository/shellgit"
)

// Supported backend names.
const (
	BackendShell   = "shell"
	BackendLibrary = "library"
)

const (
	unknownBackendMessageConstant    = "unknown repository backend"
	unknownBackendErrorTemplateConst = "%w %q (expected %s or %s)"
)

// ErrUnknownBackend indicates an unsupported backend name.
var ErrUnknownBackend = errors.New(unknownBackendMessageConstant)

// BackendChoices lists the supported backend names, default first.
func BackendChoices() []string {
	return []string{BackendShell, BackendLibrary}
}

// RepositoryOptions configures how the repository facade reaches git.
type RepositoryOptions struct {
	Backend        string
	CommandTimeout time.Duration
	Logger         *zap.Logger
	EventObserver  execshell.CommandEventObserver
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shellgit.GitExecutor, options RepositoryOptions) (shellgit.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(
		resolveLogger(options.Logger),
		commandRunner,
		execshell.WithCommandTimeout(options.CommandTimeout),
		execshell.WithCommandEventObserver(options.EventObserver),
	)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveBackend returns the provided backend or builds the one named in options.
// The executor is only consulted for the shell backend.
func ResolveBackend(existing repository.Backend, executor shellgit.GitExecutor, options RepositoryOptions) (repository.Backend, error) {
	if existing != nil {
		return existing, nil
	}

	switch strings.ToLower(strings.TrimSpace(options.Backend)) {
	case BackendShell, "":
		resolvedExecutor, executorError := ResolveGitExecutor(executor, options)
		if executorError != nil {
			return nil, executorError
		}
		return shellgit.NewBackend(resolvedExecutor)
	case BackendLibrary:
		return gogit.NewBackend(gogit.WithOperationTimeout(options.CommandTimeout)), nil
	default:
		return nil, fmt.Errorf(unknownBackendErrorTemplateConst, ErrUnknownBackend, options.Backend, BackendShell, BackendLibrary)
	}
}

// ResolveFacade returns the provided facade or builds one over the configured backend.
func ResolveFacade(existing *repository.Facade, backend repository.Backend, executor shellgit.GitExecutor, options RepositoryOptions) (*repository.Facade, error) {
	if existing != nil {
		return existing, nil
	}

	resolvedBackend, backendError := ResolveBackend(backend, executor, options)
	if backendError != nil {
		return nil, backendError
	}
	return repository.NewFacade(resolvedBackend, resolveLogger(options.Logger))
}

func resolveLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
