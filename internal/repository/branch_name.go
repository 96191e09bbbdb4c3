package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	branchNameDashPrefixConstant    = "-"
	detachedBranchMarkerPrefixConst = "("
)

// ValidateBranchName checks that name can be used as a local branch name, following
// git check-ref-format rules for refs/heads.
func ValidateBranchName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return fmt.Errorf(invalidBranchNameErrorTemplateConst, ErrInvalidBranchName, name, errors.New(invalidBranchNameEmptyReasonConstant))
	}
	if strings.HasPrefix(name, branchNameDashPrefixConstant) {
		return fmt.Errorf(invalidBranchNameErrorTemplateConst, ErrInvalidBranchName, name, errors.New(invalidBranchNameDashReasonConstant))
	}
	if validationError := plumbing.NewBranchReferenceName(name).Validate(); validationError != nil {
		return fmt.Errorf(invalidBranchNameErrorTemplateConst, ErrInvalidBranchName, name, validationError)
	}
	return nil
}

func isBranchListEntry(name string) bool {
	return len(name) > 0 && !strings.HasPrefix(name, detachedBranchMarkerPrefixConst)
}
