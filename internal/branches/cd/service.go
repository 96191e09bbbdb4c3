package cd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/repowatch/internal/repository"
	"github.com/temirov/repowatch/internal/ui"
)

const (
	branchNameRequiredMessageConstant   = "branch name must be provided"
	switcherMissingMessageConstant      = "branch switcher not configured"
	createBranchPromptTemplateConstant  = "The '%s' branch does not exist. Create it? [y/N] "
	switchFailureTemplateConstant       = "failed to switch %s to branch %q: %w"
	createFailureTemplateConstant       = "failed to create branch %q in %s: %w"
	confirmationFailureTemplateConstant = "unable to confirm creation of branch %q: %w"
)

// ErrBranchNameRequired indicates that no target branch was supplied.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrSwitcherNotConfigured indicates the service was constructed without a switcher.
var ErrSwitcherNotConfigured = errors.New(switcherMissingMessageConstant)

// BranchSwitcher changes the checked-out branch of a repository.
type BranchSwitcher interface {
	SwitchBranch(executionContext context.Context, handle repository.Handle, branch string) error
	CreateAndSwitch(executionContext context.Context, handle repository.Handle, branch string) error
}

// ServiceDependencies wires collaborators for the switch service.
type ServiceDependencies struct {
	Switcher BranchSwitcher
	Prompter ui.ConfirmationPrompter
}

// Options describes a single branch switch.
type Options struct {
	Repository repository.Handle
	BranchName string
	// CreateIfMissing creates a missing branch without asking.
	CreateIfMissing bool
	// AssumeYes answers the creation prompt affirmatively.
	AssumeYes bool
}

// Result reports the outcome of a switch.
type Result struct {
	RepositoryPath string
	BranchName     string
	BranchCreated  bool
	// Declined is set when the user refused to create a missing branch; HEAD is unchanged.
	Declined bool
}

// Service switches branches and offers to create missing ones.
type Service struct {
	switcher BranchSwitcher
	prompter ui.ConfirmationPrompter
}

// NewService constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Switcher == nil {
		return nil, ErrSwitcherNotConfigured
	}
	return &Service{switcher: dependencies.Switcher, prompter: dependencies.Prompter}, nil
}

// Change switches to the requested branch. A missing branch is created when the options or the
// user allow it; without a prompter and without consent the branch-not-found error is returned.
func (service *Service) Change(executionContext context.Context, options Options) (Result, error) {
	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		return Result{}, ErrBranchNameRequired
	}
	result := Result{RepositoryPath: options.Repository.Root(), BranchName: branchName}

	switchError := service.switcher.SwitchBranch(executionContext, options.Repository, branchName)
	if switchError == nil {
		return result, nil
	}
	if !errors.Is(switchError, repository.ErrBranchNotFound) {
		return Result{}, fmt.Errorf(switchFailureTemplateConstant, result.RepositoryPath, branchName, switchError)
	}

	createConfirmed := options.CreateIfMissing || options.AssumeYes
	if !createConfirmed {
		if service.prompter == nil {
			return Result{}, fmt.Errorf(switchFailureTemplateConstant, result.RepositoryPath, branchName, switchError)
		}
		confirmed, promptError := service.prompter.Confirm(fmt.Sprintf(createBranchPromptTemplateConstant, branchName))
		if promptError != nil {
			return Result{}, fmt.Errorf(confirmationFailureTemplateConstant, branchName, promptError)
		}
		if !confirmed {
			result.Declined = true
			return result, nil
		}
	}

	if createError := service.switcher.CreateAndSwitch(executionContext, options.Repository, branchName); createError != nil {
		return Result{}, fmt.Errorf(createFailureTemplateConstant, branchName, result.RepositoryPath, createError)
	}
	result.BranchCreated = true
	return result, nil
}
