package gogit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/temirov/repowatch/internal/repository"
)

const (
	dotGitDirectoryNameConstant       = ".git"
	openRepositoryErrorTemplateConst  = "unable to open repository at %s: %w"
	openWorktreeErrorTemplateConstant = "unable to open worktree at %s: %w"
	notARepositoryErrorTemplateConst  = "%w: %w"
)

// openedRepository bundles a repository with its worktree for a single call.
type openedRepository struct {
	repository *gogit.Repository
	worktree   *gogit.Worktree
}

// discoverTopLevel walks upward from directory to the enclosing working tree root.
func discoverTopLevel(directory string) (string, error) {
	discovered, openError := gogit.PlainOpenWithOptions(directory, &gogit.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if openError != nil {
		if errors.Is(openError, gogit.ErrRepositoryNotExists) {
			return "", fmt.Errorf(notARepositoryErrorTemplateConst, repository.ErrNotARepository, openError)
		}
		return "", fmt.Errorf(openRepositoryErrorTemplateConst, directory, openError)
	}

	worktree, worktreeError := discovered.Worktree()
	if worktreeError != nil {
		if errors.Is(worktreeError, gogit.ErrIsBareRepository) {
			return "", fmt.Errorf(notARepositoryErrorTemplateConst, repository.ErrNotARepository, worktreeError)
		}
		return "", fmt.Errorf(openWorktreeErrorTemplateConstant, directory, worktreeError)
	}
	return filepath.Clean(worktree.Filesystem.Root()), nil
}

// openRepository opens the repository rooted at root. Standard layouts use osfs-backed
// storage over the .git directory; linked worktrees and submodules whose .git is a file
// go through go-git's own discovery.
func openRepository(root string) (openedRepository, error) {
	var opened *gogit.Repository
	var openError error

	dotGitInfo, statError := os.Stat(filepath.Join(root, dotGitDirectoryNameConstant))
	if statError == nil && dotGitInfo.IsDir() {
		worktreeFilesystem := osfs.New(root)
		dotGitFilesystem, chrootError := worktreeFilesystem.Chroot(dotGitDirectoryNameConstant)
		if chrootError != nil {
			return openedRepository{}, fmt.Errorf(openRepositoryErrorTemplateConst, root, chrootError)
		}
		storage := filesystem.NewStorage(dotGitFilesystem, cache.NewObjectLRUDefault())
		opened, openError = gogit.Open(storage, worktreeFilesystem)
	} else {
		opened, openError = gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{EnableDotGitCommonDir: true})
	}
	if openError != nil {
		return openedRepository{}, fmt.Errorf(openRepositoryErrorTemplateConst, root, openError)
	}

	worktree, worktreeError := opened.Worktree()
	if worktreeError != nil {
		return openedRepository{}, fmt.Errorf(openWorktreeErrorTemplateConstant, root, worktreeError)
	}
	return openedRepository{repository: opened, worktree: worktree}, nil
}
