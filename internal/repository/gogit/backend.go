// Package gogit implements repository.Backend with the go-git library, so no git
// executable is required.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/repowatch/internal/repository"
)

const (
	originRemoteNameConstant          = "origin"
	shortCommitLengthConstant         = 7
	operationTimedOutTemplateConstant = "%w after %s"
	operationTopLevelConstant         = "discover repository"
	operationCurrentBranchConstant    = "read HEAD"
	operationLocalBranchesConstant    = "list branches"
	operationStatusConstant           = "worktree status"
	operationChangedFilesConstant     = "changed files"
	operationDiffConstant             = "diff"
	operationDiffStatConstant         = "diffstat"
	operationRemoteURLConstant        = "read origin"
	operationCheckoutConstant         = "checkout"
)

// BackendOption customizes a Backend.
type BackendOption func(*Backend)

// WithOperationTimeout bounds every read to the provided duration. Non-positive values disable the bound.
func WithOperationTimeout(timeout time.Duration) BackendOption {
	return func(backend *Backend) {
		backend.operationTimeout = timeout
	}
}

// Backend answers repository queries by reading repository storage through go-git.
// The repository is reopened on every call so no state outlives a query.
type Backend struct {
	operationTimeout time.Duration
}

// NewBackend constructs a Backend.
func NewBackend(options ...BackendOption) *Backend {
	backend := &Backend{}
	for _, option := range options {
		if option != nil {
			option(backend)
		}
	}
	return backend
}

// TopLevel implements repository.Backend.
func (backend *Backend) TopLevel(executionContext context.Context, directory string) (string, error) {
	topLevel, discoveryError := runBounded(executionContext, backend.operationTimeout, func() (string, error) {
		return discoverTopLevel(directory)
	})
	if discoveryError != nil {
		if errors.Is(discoveryError, repository.ErrNotARepository) {
			return "", discoveryError
		}
		return "", repository.NewExternalToolError(operationTopLevelConstant, discoveryError)
	}
	return topLevel, nil
}

// CurrentBranch implements repository.Backend. Detached heads report the seven character
// commit id and unborn branches report the branch HEAD points at.
func (backend *Backend) CurrentBranch(executionContext context.Context, root string) (string, error) {
	branchName, branchError := runBounded(executionContext, backend.operationTimeout, func() (string, error) {
		opened, openError := openRepository(root)
		if openError != nil {
			return "", openError
		}
		return readCurrentBranch(opened.repository)
	})
	if branchError != nil {
		return "", repository.NewExternalToolError(operationCurrentBranchConstant, branchError)
	}
	return branchName, nil
}

// LocalBranches implements repository.Backend.
func (backend *Backend) LocalBranches(executionContext context.Context, root string) ([]string, error) {
	branchNames, listError := runBounded(executionContext, backend.operationTimeout, func() ([]string, error) {
		opened, openError := openRepository(root)
		if openError != nil {
			return nil, openError
		}
		references, iteratorError := opened.repository.Branches()
		if iteratorError != nil {
			return nil, iteratorError
		}
		defer references.Close()

		names := make([]string, 0)
		forEachError := references.ForEach(func(reference *plumbing.Reference) error {
			names = append(names, reference.Name().Short())
			return nil
		})
		return names, forEachError
	})
	if listError != nil {
		return nil, repository.NewExternalToolError(operationLocalBranchesConstant, listError)
	}
	return branchNames, nil
}

// FileStates implements repository.Backend. Ignored paths are never reported by go-git.
func (backend *Backend) FileStates(executionContext context.Context, root string) ([]repository.FileState, error) {
	fileStates, statusError := runBounded(executionContext, backend.operationTimeout, func() ([]repository.FileState, error) {
		worktreeStatus, readError := readStatus(root)
		if readError != nil {
			return nil, readError
		}
		return convertStatus(worktreeStatus), nil
	})
	if statusError != nil {
		return nil, repository.NewExternalToolError(operationStatusConstant, statusError)
	}
	return fileStates, nil
}

// ChangedFiles implements repository.Backend.
func (backend *Backend) ChangedFiles(executionContext context.Context, root string, staged bool) ([]string, error) {
	changedPaths, statusError := runBounded(executionContext, backend.operationTimeout, func() ([]string, error) {
		worktreeStatus, readError := readStatus(root)
		if readError != nil {
			return nil, readError
		}
		paths := make([]string, 0)
		for _, fileState := range convertStatus(worktreeStatus) {
			statusCode := fileState.Worktree
			if staged {
				statusCode = fileState.Staging
			}
			if isTrackedChange(statusCode) {
				paths = append(paths, fileState.Path)
			}
		}
		return paths, nil
	})
	if statusError != nil {
		return nil, repository.NewExternalToolError(operationChangedFilesConstant, statusError)
	}
	return changedPaths, nil
}

// Diff implements repository.Backend. The output follows git's unified diff layout.
func (backend *Backend) Diff(executionContext context.Context, root string, file repository.ModifiedFile) (string, error) {
	renderedDiff, diffError := runBounded(executionContext, backend.operationTimeout, func() (string, error) {
		patch, patchError := buildFilePatch(root, file)
		if patchError != nil {
			return "", patchError
		}
		return encodeUnified(patch)
	})
	if diffError != nil {
		return "", repository.NewExternalToolError(operationDiffConstant, diffError)
	}
	return renderedDiff, nil
}

// DiffStat implements repository.Backend.
func (backend *Backend) DiffStat(executionContext context.Context, root string, file repository.ModifiedFile) (repository.DiffStat, bool, error) {
	patch, patchError := runBounded(executionContext, backend.operationTimeout, func() (*filePatch, error) {
		return buildFilePatch(root, file)
	})
	if patchError != nil {
		return repository.DiffStat{}, false, repository.NewExternalToolError(operationDiffStatConstant, patchError)
	}
	if patch.IsBinary() {
		return repository.DiffStat{}, false, nil
	}
	return patch.stat(), true, nil
}

// RemoteURL implements repository.Backend. A missing origin remote is not an error.
func (backend *Backend) RemoteURL(executionContext context.Context, root string) (string, bool, error) {
	remoteURL, remoteError := runBounded(executionContext, backend.operationTimeout, func() (string, error) {
		opened, openError := openRepository(root)
		if openError != nil {
			return "", openError
		}
		remote, lookupError := opened.repository.Remote(originRemoteNameConstant)
		if lookupError != nil {
			return "", lookupError
		}
		remoteURLs := remote.Config().URLs
		if len(remoteURLs) == 0 {
			return "", nil
		}
		return remoteURLs[0], nil
	})
	if remoteError != nil {
		if errors.Is(remoteError, gogit.ErrRemoteNotFound) {
			return "", false, nil
		}
		return "", false, repository.NewExternalToolError(operationRemoteURLConstant, remoteError)
	}
	return remoteURL, len(remoteURL) > 0, nil
}

// Checkout implements repository.Backend. Checkout is not bounded by the operation timeout
// so a switch is never abandoned halfway; tracked changes refuse the switch.
func (backend *Backend) Checkout(executionContext context.Context, root string, branch string, create bool) error {
	if executionContext != nil && executionContext.Err() != nil {
		return repository.NewExternalToolError(operationCheckoutConstant, executionContext.Err())
	}

	opened, openError := openRepository(root)
	if openError != nil {
		return repository.NewExternalToolError(operationCheckoutConstant, openError)
	}

	worktreeStatus, statusError := opened.worktree.Status()
	if statusError != nil {
		return repository.NewExternalToolError(operationCheckoutConstant, statusError)
	}
	for _, fileState := range convertStatus(worktreeStatus) {
		if isTrackedChange(fileState.Staging) || isTrackedChange(fileState.Worktree) {
			return repository.NewExternalToolError(operationCheckoutConstant, gogit.ErrWorktreeNotClean)
		}
	}

	checkoutError := opened.worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	})
	if checkoutError != nil {
		return repository.NewExternalToolError(operationCheckoutConstant, checkoutError)
	}
	return nil
}

func readCurrentBranch(opened *gogit.Repository) (string, error) {
	head, headError := opened.Head()
	if headError != nil {
		if !errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return "", headError
		}
		symbolicHead, referenceError := opened.Storer.Reference(plumbing.HEAD)
		if referenceError != nil {
			return "", referenceError
		}
		if symbolicHead.Type() != plumbing.SymbolicReference {
			return "", headError
		}
		return symbolicHead.Target().Short(), nil
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String()[:shortCommitLengthConstant], nil
}

func readStatus(root string) (gogit.Status, error) {
	opened, openError := openRepository(root)
	if openError != nil {
		return nil, openError
	}
	return opened.worktree.Status()
}

func convertStatus(worktreeStatus gogit.Status) []repository.FileState {
	fileStates := make([]repository.FileState, 0, len(worktreeStatus))
	for path, fileStatus := range worktreeStatus {
		if fileStatus == nil {
			continue
		}
		if fileStatus.Staging == gogit.Unmodified && fileStatus.Worktree == gogit.Unmodified {
			continue
		}
		fileStates = append(fileStates, repository.FileState{
			Path:     path,
			Staging:  repository.StatusCode(fileStatus.Staging),
			Worktree: repository.StatusCode(fileStatus.Worktree),
		})
	}
	sort.Slice(fileStates, func(leftIndex int, rightIndex int) bool {
		return fileStates[leftIndex].Path < fileStates[rightIndex].Path
	})
	return fileStates
}

func isTrackedChange(statusCode repository.StatusCode) bool {
	switch statusCode {
	case repository.StatusUnmodified, repository.StatusUntracked, repository.StatusIgnored:
		return false
	default:
		return true
	}
}

// runBounded runs operation on its own goroutine and abandons it once the timeout or the
// caller's context expires. go-git reads are not cancellable, so an abandoned read finishes
// in the background and its result is discarded.
func runBounded[Result any](executionContext context.Context, timeout time.Duration, operation func() (Result, error)) (Result, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	boundedContext := executionContext
	cancel := func() {}
	if timeout > 0 {
		boundedContext, cancel = context.WithTimeout(executionContext, timeout)
	}
	defer cancel()

	type outcome struct {
		value Result
		err   error
	}
	outcomes := make(chan outcome, 1)
	go func() {
		value, operationError := operation()
		outcomes <- outcome{value: value, err: operationError}
	}()

	select {
	case finished := <-outcomes:
		return finished.value, finished.err
	case <-boundedContext.Done():
		var zero Result
		if errors.Is(boundedContext.Err(), context.DeadlineExceeded) && executionContext.Err() == nil {
			return zero, fmt.Errorf(operationTimedOutTemplateConstant, repository.ErrCommandTimedOut, timeout)
		}
		return zero, boundedContext.Err()
	}
}
