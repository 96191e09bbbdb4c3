package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/repowatch/internal/gitrepo"
	pathutils "github.com/temirov/repowatch/internal/utils/path"
)

const (
	resolveErrorTemplateConstant          = "unable to resolve repository for %s: %w"
	branchExistsLookupErrorTemplateConst  = "unable to list branches before creating %s: %w"
	readDegradedMessageConstant           = "repository query failed; reporting no data"
	logFieldOperationConstant             = "operation"
	logFieldRepositoryConstant            = "repository"
	logFieldPathConstant                  = "path"
	logFieldStagedConstant                = "staged"
	logFieldBranchConstant                = "branch"
	branchSwitchedMessageConstant         = "switched branch"
	branchCreatedMessageConstant          = "created and switched to branch"
	branchAlreadyCurrentMessageConstant   = "branch already checked out"
	operationCurrentBranchConstant        = "current branch"
	operationLocalBranchesConstant        = "local branches"
	operationStatusConstant               = "status"
	operationModifiedFilesConstant        = "modified files"
	operationDiffConstant                 = "diff"
	operationDiffStatConstant             = "diffstat"
	operationRemoteURLConstant            = "remote url"
)

// Backend provides raw repository facts. Implementations run git commands or use a Git
// library; they report failures wrapped in ErrExternalToolFailure and do no sorting or
// classification of their own.
type Backend interface {
	// TopLevel returns the top-level working directory containing directory, or an error
	// matching ErrNotARepository when no repository metadata is found.
	TopLevel(executionContext context.Context, directory string) (string, error)
	// CurrentBranch returns the symbolic short name of HEAD, or the seven character commit id when detached.
	CurrentBranch(executionContext context.Context, root string) (string, error)
	// LocalBranches returns the short names under refs/heads.
	LocalBranches(executionContext context.Context, root string) ([]string, error)
	// FileStates returns the porcelain status of every changed, untracked or ignored path.
	FileStates(executionContext context.Context, root string) ([]FileState, error)
	// ChangedFiles lists paths differing between HEAD and the index (staged) or the index and the working tree.
	ChangedFiles(executionContext context.Context, root string, staged bool) ([]string, error)
	// Diff renders the unified diff of one path.
	Diff(executionContext context.Context, root string, file ModifiedFile) (string, error)
	// DiffStat counts changed lines of one path; the boolean is false for binary content.
	DiffStat(executionContext context.Context, root string, file ModifiedFile) (DiffStat, bool, error)
	// RemoteURL returns the raw origin URL; the boolean is false when origin is not configured.
	RemoteURL(executionContext context.Context, root string) (string, bool, error)
	// Checkout switches to branch, creating it from HEAD first when create is set.
	Checkout(executionContext context.Context, root string, branch string, create bool) error
}

// Facade derives repository facts from a Backend without caching.
type Facade struct {
	backend      Backend
	logger       *zap.Logger
	homeExpander *pathutils.HomeExpander
}

// NewFacade constructs a Facade over the provided backend.
func NewFacade(backend Backend, logger *zap.Logger) (*Facade, error) {
	if backend == nil {
		return nil, ErrBackendNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{backend: backend, logger: logger, homeExpander: pathutils.NewHomeExpander()}, nil
}

// Resolve maps a path inside a working tree to the repository handle. Files resolve through
// their parent directory and every path inside the tree resolves to the same handle.
func (facade *Facade) Resolve(executionContext context.Context, path string) (Handle, error) {
	absolutePath, absoluteError := filepath.Abs(facade.homeExpander.Expand(path))
	if absoluteError != nil {
		return Handle{}, fmt.Errorf(resolveErrorTemplateConstant, path, absoluteError)
	}

	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return Handle{}, NotARepositoryError{Path: absolutePath, Cause: statError}
		}
		return Handle{}, fmt.Errorf(resolveErrorTemplateConstant, absolutePath, statError)
	}

	searchDirectory := absolutePath
	if !fileInfo.IsDir() {
		searchDirectory = filepath.Dir(absolutePath)
	}

	topLevel, topLevelError := facade.backend.TopLevel(executionContext, searchDirectory)
	if topLevelError != nil {
		if errors.Is(topLevelError, ErrNotARepository) {
			return Handle{}, NotARepositoryError{Path: absolutePath, Cause: topLevelError}
		}
		return Handle{}, fmt.Errorf(resolveErrorTemplateConstant, absolutePath, topLevelError)
	}

	canonicalRoot := filepath.Clean(topLevel)
	if resolvedRoot, symlinkError := filepath.EvalSymlinks(canonicalRoot); symlinkError == nil {
		canonicalRoot = resolvedRoot
	}
	return Handle{root: canonicalRoot}, nil
}

// CurrentBranch returns the checked-out branch, the short commit id when HEAD is detached,
// or an empty string when the backend fails.
func (facade *Facade) CurrentBranch(executionContext context.Context, handle Handle) string {
	branchName, branchError := facade.backend.CurrentBranch(executionContext, handle.root)
	if branchError != nil {
		facade.logDegraded(operationCurrentBranchConstant, handle, branchError)
		return ""
	}
	return branchName
}

// LocalBranches returns the sorted, duplicate-free local branch names.
func (facade *Facade) LocalBranches(executionContext context.Context, handle Handle) []string {
	branchNames, branchesError := facade.backend.LocalBranches(executionContext, handle.root)
	if branchesError != nil {
		facade.logDegraded(operationLocalBranchesConstant, handle, branchesError)
		return []string{}
	}
	return normalizeBranchList(branchNames)
}

// Status classifies the current working tree and index changes.
func (facade *Facade) Status(executionContext context.Context, handle Handle) StatusSnapshot {
	fileStates, statusError := facade.backend.FileStates(executionContext, handle.root)
	if statusError != nil {
		facade.logDegraded(operationStatusConstant, handle, statusError)
		return ClassifyFileStates(nil)
	}
	return ClassifyFileStates(fileStates)
}

// ModifiedFiles lists staged and unstaged changes, a path changed on both sides appearing
// twice. Entries are ordered by path with the unstaged entry first.
func (facade *Facade) ModifiedFiles(executionContext context.Context, handle Handle) []ModifiedFile {
	modifiedFiles := make([]ModifiedFile, 0)
	for _, staged := range []bool{true, false} {
		changedPaths, changedError := facade.backend.ChangedFiles(executionContext, handle.root, staged)
		if changedError != nil {
			facade.logDegraded(operationModifiedFilesConstant, handle, changedError, zap.Bool(logFieldStagedConstant, staged))
			return []ModifiedFile{}
		}
		for _, changedPath := range changedPaths {
			if len(changedPath) == 0 {
				continue
			}
			modifiedFiles = append(modifiedFiles, ModifiedFile{Path: changedPath, Staged: staged})
		}
	}
	return sortModifiedFiles(modifiedFiles)
}

// Diff returns the unified diff of a file, or an empty string when there is no difference
// or the backend fails.
func (facade *Facade) Diff(executionContext context.Context, handle Handle, file ModifiedFile) string {
	diffText, diffError := facade.backend.Diff(executionContext, handle.root, file)
	if diffError != nil {
		facade.logDegraded(operationDiffConstant, handle, diffError, zap.String(logFieldPathConstant, file.Path), zap.Bool(logFieldStagedConstant, file.Staged))
		return ""
	}
	return diffText
}

// DiffStat returns the line counts of a file diff. The boolean is false when the diff is
// binary, empty, or could not be computed.
func (facade *Facade) DiffStat(executionContext context.Context, handle Handle, file ModifiedFile) (DiffStat, bool) {
	stat, textual, statError := facade.backend.DiffStat(executionContext, handle.root, file)
	if statError != nil {
		facade.logDegraded(operationDiffStatConstant, handle, statError, zap.String(logFieldPathConstant, file.Path), zap.Bool(logFieldStagedConstant, file.Staged))
		return DiffStat{}, false
	}
	if !textual || (stat.Insertions == 0 && stat.Deletions == 0) {
		return DiffStat{}, false
	}
	return stat, true
}

// RemoteURL returns the normalized origin URL. The boolean is false when origin is missing,
// uses an unrecognized scheme, or could not be read.
func (facade *Facade) RemoteURL(executionContext context.Context, handle Handle) (string, bool) {
	rawRemoteURL, configured, remoteError := facade.backend.RemoteURL(executionContext, handle.root)
	if remoteError != nil {
		facade.logDegraded(operationRemoteURLConstant, handle, remoteError)
		return "", false
	}
	if !configured {
		return "", false
	}
	return gitrepo.NormalizeRemoteURL(rawRemoteURL)
}

// ProjectName returns the last segment of the remote URL, or the root directory name
// when no usable remote exists.
func (facade *Facade) ProjectName(executionContext context.Context, handle Handle) string {
	remoteURL, remoteAvailable := facade.RemoteURL(executionContext, handle)
	return gitrepo.ProjectName(remoteURL, remoteAvailable, handle.root)
}

// SwitchBranch checks out an existing local branch. Missing branches yield
// BranchNotFoundError without touching the repository; switching to the current
// branch succeeds without a checkout.
func (facade *Facade) SwitchBranch(executionContext context.Context, handle Handle, branch string) error {
	if validationError := ValidateBranchName(branch); validationError != nil {
		return validationError
	}

	branchNames, branchesError := facade.backend.LocalBranches(executionContext, handle.root)
	if branchesError != nil {
		return CheckoutFailedError{Branch: branch, Cause: branchesError}
	}
	if !slices.Contains(normalizeBranchList(branchNames), branch) {
		return BranchNotFoundError{Branch: branch}
	}

	currentBranch, currentError := facade.backend.CurrentBranch(executionContext, handle.root)
	if currentError == nil && currentBranch == branch {
		facade.logger.Debug(branchAlreadyCurrentMessageConstant, zap.String(logFieldRepositoryConstant, handle.root), zap.String(logFieldBranchConstant, branch))
		return nil
	}

	if checkoutError := facade.backend.Checkout(executionContext, handle.root, branch, false); checkoutError != nil {
		return CheckoutFailedError{Branch: branch, Cause: checkoutError}
	}
	facade.logger.Info(branchSwitchedMessageConstant, zap.String(logFieldRepositoryConstant, handle.root), zap.String(logFieldBranchConstant, branch))
	return nil
}

// CreateAndSwitch creates branch from the current HEAD and checks it out.
func (facade *Facade) CreateAndSwitch(executionContext context.Context, handle Handle, branch string) error {
	if validationError := ValidateBranchName(branch); validationError != nil {
		return validationError
	}

	branchNames, branchesError := facade.backend.LocalBranches(executionContext, handle.root)
	if branchesError != nil {
		return fmt.Errorf(branchExistsLookupErrorTemplateConst, branch, branchesError)
	}
	if slices.Contains(normalizeBranchList(branchNames), branch) {
		return fmt.Errorf(branchExistsErrorTemplateConstant, ErrBranchExists, branch)
	}

	if checkoutError := facade.backend.Checkout(executionContext, handle.root, branch, true); checkoutError != nil {
		return CheckoutFailedError{Branch: branch, Cause: checkoutError}
	}
	facade.logger.Info(branchCreatedMessageConstant, zap.String(logFieldRepositoryConstant, handle.root), zap.String(logFieldBranchConstant, branch))
	return nil
}

func (facade *Facade) logDegraded(operation string, handle Handle, failure error, additionalFields ...zap.Field) {
	fields := append([]zap.Field{
		zap.String(logFieldOperationConstant, operation),
		zap.String(logFieldRepositoryConstant, handle.root),
		zap.Error(failure),
	}, additionalFields...)
	facade.logger.Warn(readDegradedMessageConstant, fields...)
}
