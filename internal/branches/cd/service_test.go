package cd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repowatch/internal/repository"
)

const (
	testBranchNameConstant = "feature/new"
	testPromptConstant     = "The 'feature/new' branch does not exist. Create it? [y/N] "
)

type stubSwitcher struct {
	switchError error
	createError error
	switched    []string
	created     []string
}

func (switcher *stubSwitcher) SwitchBranch(_ context.Context, _ repository.Handle, branch string) error {
	switcher.switched = append(switcher.switched, branch)
	return switcher.switchError
}

func (switcher *stubSwitcher) CreateAndSwitch(_ context.Context, _ repository.Handle, branch string) error {
	switcher.created = append(switcher.created, branch)
	return switcher.createError
}

type stubPrompter struct {
	answer  bool
	err     error
	prompts []string
}

func (prompter *stubPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	return prompter.answer, prompter.err
}

func TestNewServiceRequiresSwitcher(testInstance *testing.T) {
	_, serviceError := NewService(ServiceDependencies{})
	require.ErrorIs(testInstance, serviceError, ErrSwitcherNotConfigured)
}

func TestServiceChange(testInstance *testing.T) {
	branchMissing := repository.BranchNotFoundError{Branch: testBranchNameConstant}
	checkoutFailure := repository.CheckoutFailedError{Branch: testBranchNameConstant, Cause: errors.New("local changes would be overwritten")}

	testCases := []struct {
		name            string
		switchError     error
		createError     error
		prompter        *stubPrompter
		options         Options
		expectedResult  Result
		expectedError   error
		expectedCreated []string
		expectedPrompts int
	}{
		{
			name:           "existing branch",
			prompter:       &stubPrompter{},
			options:        Options{BranchName: testBranchNameConstant},
			expectedResult: Result{BranchName: testBranchNameConstant},
		},
		{
			name:            "missing branch confirmed",
			switchError:     branchMissing,
			prompter:        &stubPrompter{answer: true},
			options:         Options{BranchName: testBranchNameConstant},
			expectedResult:  Result{BranchName: testBranchNameConstant, BranchCreated: true},
			expectedCreated: []string{testBranchNameConstant},
			expectedPrompts: 1,
		},
		{
			name:            "missing branch declined",
			switchError:     branchMissing,
			prompter:        &stubPrompter{answer: false},
			options:         Options{BranchName: testBranchNameConstant},
			expectedResult:  Result{BranchName: testBranchNameConstant, Declined: true},
			expectedPrompts: 1,
		},
		{
			name:            "missing branch with create flag",
			switchError:     branchMissing,
			prompter:        &stubPrompter{},
			options:         Options{BranchName: testBranchNameConstant, CreateIfMissing: true},
			expectedResult:  Result{BranchName: testBranchNameConstant, BranchCreated: true},
			expectedCreated: []string{testBranchNameConstant},
		},
		{
			name:            "missing branch with assume yes",
			switchError:     branchMissing,
			prompter:        &stubPrompter{},
			options:         Options{BranchName: testBranchNameConstant, AssumeYes: true},
			expectedResult:  Result{BranchName: testBranchNameConstant, BranchCreated: true},
			expectedCreated: []string{testBranchNameConstant},
		},
		{
			name:          "checkout failure is not a creation offer",
			switchError:   checkoutFailure,
			prompter:      &stubPrompter{answer: true},
			options:       Options{BranchName: testBranchNameConstant},
			expectedError: repository.ErrCheckoutFailed,
		},
		{
			name:            "creation failure",
			switchError:     branchMissing,
			createError:     repository.CheckoutFailedError{Branch: testBranchNameConstant},
			prompter:        &stubPrompter{},
			options:         Options{BranchName: testBranchNameConstant, AssumeYes: true},
			expectedError:   repository.ErrCheckoutFailed,
			expectedCreated: []string{testBranchNameConstant},
		},
		{
			name:          "empty branch name",
			prompter:      &stubPrompter{},
			options:       Options{BranchName: "  "},
			expectedError: ErrBranchNameRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			switcher := &stubSwitcher{switchError: testCase.switchError, createError: testCase.createError}
			service, serviceError := NewService(ServiceDependencies{Switcher: switcher, Prompter: testCase.prompter})
			require.NoError(testInstance, serviceError)

			result, changeError := service.Change(context.Background(), testCase.options)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, changeError, testCase.expectedError)
			} else {
				require.NoError(testInstance, changeError)
				require.Equal(testInstance, testCase.expectedResult, result)
			}
			require.Equal(testInstance, testCase.expectedCreated, switcher.created)
			require.Len(testInstance, testCase.prompter.prompts, testCase.expectedPrompts)
			if testCase.expectedPrompts > 0 {
				require.Equal(testInstance, testPromptConstant, testCase.prompter.prompts[0])
			}
		})
	}
}

func TestServiceChangeWithoutPrompterReportsMissingBranch(testInstance *testing.T) {
	switcher := &stubSwitcher{switchError: repository.BranchNotFoundError{Branch: testBranchNameConstant}}
	service, serviceError := NewService(ServiceDependencies{Switcher: switcher})
	require.NoError(testInstance, serviceError)

	_, changeError := service.Change(context.Background(), Options{BranchName: testBranchNameConstant})
	require.ErrorIs(testInstance, changeError, repository.ErrBranchNotFound)
	require.Empty(testInstance, switcher.created)
}
