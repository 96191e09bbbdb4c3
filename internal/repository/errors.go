package repository

import (
	"errors"
	"fmt"

	"github.com/temirov/repowatch/internal/execshell"
)

const (
	notARepositoryMessageConstant        = "not a git repository"
	branchNotFoundMessageConstant        = "branch does not exist"
	checkoutFailedMessageConstant        = "checkout failed"
	branchExistsMessageConstant          = "branch already exists"
	invalidBranchNameMessageConstant     = "invalid branch name"
	externalToolFailureMessageConstant   = "external tool failure"
	backendNotConfiguredMessageConstant  = "repository backend not configured"
	notARepositoryErrorTemplateConstant  = "%s: %s"
	branchNotFoundErrorTemplateConstant  = "%s: %s"
	checkoutFailedErrorTemplateConstant  = "%s %s: %v"
	externalToolErrorTemplateConstant    = "%s: %s: %v"
	branchExistsErrorTemplateConstant    = "%w: %s"
	invalidBranchNameErrorTemplateConst  = "%w %q: %v"
	invalidBranchNameEmptyReasonConstant = "name is empty"
	invalidBranchNameDashReasonConstant  = "name starts with '-'"
)

// ErrNotARepository indicates that no repository metadata was found for a path.
var ErrNotARepository = errors.New(notARepositoryMessageConstant)

// ErrBranchNotFound indicates that a switch target is absent from the local branches.
var ErrBranchNotFound = errors.New(branchNotFoundMessageConstant)

// ErrCheckoutFailed indicates that repository state prevented a branch switch.
var ErrCheckoutFailed = errors.New(checkoutFailedMessageConstant)

// ErrBranchExists indicates that a branch to be created already exists.
var ErrBranchExists = errors.New(branchExistsMessageConstant)

// ErrInvalidBranchName indicates that a branch name is not a valid reference name.
var ErrInvalidBranchName = errors.New(invalidBranchNameMessageConstant)

// ErrExternalToolFailure marks failures of the underlying git executable or library:
// nonzero exits, timeouts and unparsable output.
var ErrExternalToolFailure = errors.New(externalToolFailureMessageConstant)

// ErrCommandTimedOut indicates that a backend call exceeded its configured timeout.
var ErrCommandTimedOut = execshell.ErrCommandTimedOut

// ErrBackendNotConfigured indicates that a Facade was constructed without a backend.
var ErrBackendNotConfigured = errors.New(backendNotConfiguredMessageConstant)

// NotARepositoryError reports the path that could not be resolved to a repository.
type NotARepositoryError struct {
	Path  string
	Cause error
}

// Error describes the failure.
func (resolutionError NotARepositoryError) Error() string {
	return fmt.Sprintf(notARepositoryErrorTemplateConstant, resolutionError.Path, notARepositoryMessageConstant)
}

// Is matches ErrNotARepository.
func (resolutionError NotARepositoryError) Is(target error) bool {
	return target == ErrNotARepository
}

// Unwrap exposes the backend failure, when any.
func (resolutionError NotARepositoryError) Unwrap() error {
	return resolutionError.Cause
}

// BranchNotFoundError reports a switch target missing from the local branches.
type BranchNotFoundError struct {
	Branch string
}

// Error describes the missing branch.
func (notFoundError BranchNotFoundError) Error() string {
	return fmt.Sprintf(branchNotFoundErrorTemplateConstant, notFoundError.Branch, branchNotFoundMessageConstant)
}

// Is matches ErrBranchNotFound.
func (notFoundError BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// CheckoutFailedError reports a branch switch the repository refused.
type CheckoutFailedError struct {
	Branch string
	Cause  error
}

// Error describes the failed checkout.
func (checkoutError CheckoutFailedError) Error() string {
	return fmt.Sprintf(checkoutFailedErrorTemplateConstant, checkoutFailedMessageConstant, checkoutError.Branch, checkoutError.Cause)
}

// Is matches ErrCheckoutFailed.
func (checkoutError CheckoutFailedError) Is(target error) bool {
	return target == ErrCheckoutFailed
}

// Unwrap exposes the backend failure.
func (checkoutError CheckoutFailedError) Unwrap() error {
	return checkoutError.Cause
}

// ExternalToolError wraps a backend failure for a named operation.
type ExternalToolError struct {
	Operation string
	Cause     error
}

// NewExternalToolError constructs an ExternalToolError.
func NewExternalToolError(operation string, cause error) error {
	return ExternalToolError{Operation: operation, Cause: cause}
}

// Error describes the failed operation.
func (toolError ExternalToolError) Error() string {
	return fmt.Sprintf(externalToolErrorTemplateConstant, externalToolFailureMessageConstant, toolError.Operation, toolError.Cause)
}

// Is matches ErrExternalToolFailure.
func (toolError ExternalToolError) Is(target error) bool {
	return target == ErrExternalToolFailure
}

// Unwrap exposes the underlying failure.
func (toolError ExternalToolError) Unwrap() error {
	return toolError.Cause
}
