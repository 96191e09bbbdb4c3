package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	headFileNameConstant                  = "HEAD"
	objectsDirectoryNameConstant          = "objects"
	largeFileStorageDirectoryNameConstant = "lfs"
	dotGitEntryNameConstant               = ".git"
	gitDirectoryPointerPrefixConstant     = "gitdir:"
	watchedPathMissingMessageConstant     = "watched path no longer exists"
	metadataNotFoundMessageConstant       = "repository metadata directory not found"
	unknownGranularityMessageConstant     = "unknown watch granularity"
	watchedPathMissingErrorTemplateConst  = "%w: %s"
	fingerprintErrorTemplateConstant      = "unable to fingerprint %s: %w"
	metadataNotFoundErrorTemplateConstant = "%w: %s"
	metadataPointerErrorTemplateConstant  = "unable to read %s: %w"
	unknownGranularityErrorTemplateConst  = "%w %q (expected %s or %s)"
)

// Supported granularities.
const (
	GranularityHead     Granularity = "head"
	GranularityMetadata Granularity = "metadata"
)

// ErrWatchedPathMissing indicates that the watched metadata location no longer exists.
var ErrWatchedPathMissing = errors.New(watchedPathMissingMessageConstant)

// ErrMetadataDirectoryNotFound indicates that a working tree has no resolvable .git entry.
var ErrMetadataDirectoryNotFound = errors.New(metadataNotFoundMessageConstant)

// ErrUnknownGranularity indicates an unsupported granularity value.
var ErrUnknownGranularity = errors.New(unknownGranularityMessageConstant)

// Granularity selects how much of the metadata directory contributes to a fingerprint.
type Granularity string

// Fingerprinter summarizes the watched location as a modification time. Later states
// compare strictly greater than earlier ones.
type Fingerprinter interface {
	Fingerprint() (time.Time, error)
}

// HeadFingerprinter reports the modification time of the HEAD reference file, so only
// branch switches and commits on the current branch register.
type HeadFingerprinter struct {
	headPath string
}

// NewHeadFingerprinter watches HEAD inside metadataDirectory.
func NewHeadFingerprinter(metadataDirectory string) HeadFingerprinter {
	return HeadFingerprinter{headPath: filepath.Join(metadataDirectory, headFileNameConstant)}
}

// Fingerprint implements Fingerprinter.
func (fingerprinter HeadFingerprinter) Fingerprint() (time.Time, error) {
	fileInfo, statError := os.Stat(fingerprinter.headPath)
	if statError != nil {
		return time.Time{}, classifyStatError(fingerprinter.headPath, statError)
	}
	return fileInfo.ModTime(), nil
}

// MetadataFingerprinter reports the newest modification time across the metadata tree.
// Object and LFS storage are skipped because their contents only change together with refs or the index.
type MetadataFingerprinter struct {
	metadataDirectory string
}

// NewMetadataFingerprinter watches every entry of metadataDirectory outside object storage.
func NewMetadataFingerprinter(metadataDirectory string) MetadataFingerprinter {
	return MetadataFingerprinter{metadataDirectory: metadataDirectory}
}

// Fingerprint implements Fingerprinter.
func (fingerprinter MetadataFingerprinter) Fingerprint() (time.Time, error) {
	rootInfo, statError := os.Stat(fingerprinter.metadataDirectory)
	if statError != nil {
		return time.Time{}, classifyStatError(fingerprinter.metadataDirectory, statError)
	}

	newest := rootInfo.ModTime()
	walkError := filepath.WalkDir(fingerprinter.metadataDirectory, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if errors.Is(entryError, fs.ErrNotExist) && path != fingerprinter.metadataDirectory {
				return nil
			}
			return entryError
		}
		if path == fingerprinter.metadataDirectory {
			return nil
		}
		if entry.IsDir() && isSkippedMetadataDirectory(fingerprinter.metadataDirectory, path) {
			return filepath.SkipDir
		}
		entryInfo, infoError := entry.Info()
		if infoError != nil {
			if errors.Is(infoError, fs.ErrNotExist) {
				return nil
			}
			return infoError
		}
		if entryInfo.ModTime().After(newest) {
			newest = entryInfo.ModTime()
		}
		return nil
	})
	if walkError != nil {
		return time.Time{}, classifyStatError(fingerprinter.metadataDirectory, walkError)
	}
	return newest, nil
}

// NewFingerprinter builds the fingerprinter for granularity over metadataDirectory.
func NewFingerprinter(granularity Granularity, metadataDirectory string) (Fingerprinter, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(string(granularity)))) {
	case GranularityHead:
		return NewHeadFingerprinter(metadataDirectory), nil
	case GranularityMetadata, "":
		return NewMetadataFingerprinter(metadataDirectory), nil
	default:
		return nil, fmt.Errorf(unknownGranularityErrorTemplateConst, ErrUnknownGranularity, granularity, GranularityMetadata, GranularityHead)
	}
}

// ResolveMetadataDirectory locates the metadata directory of the working tree at root,
// following the "gitdir:" pointer used by linked worktrees and submodules.
func ResolveMetadataDirectory(root string) (string, error) {
	dotGitPath := filepath.Join(root, dotGitEntryNameConstant)
	dotGitInfo, statError := os.Stat(dotGitPath)
	if statError != nil {
		return "", fmt.Errorf(metadataNotFoundErrorTemplateConstant, ErrMetadataDirectoryNotFound, dotGitPath)
	}
	if dotGitInfo.IsDir() {
		return dotGitPath, nil
	}

	pointerContent, readError := os.ReadFile(dotGitPath)
	if readError != nil {
		return "", fmt.Errorf(metadataPointerErrorTemplateConstant, dotGitPath, readError)
	}
	pointer := strings.TrimSpace(string(pointerContent))
	if !strings.HasPrefix(pointer, gitDirectoryPointerPrefixConstant) {
		return "", fmt.Errorf(metadataNotFoundErrorTemplateConstant, ErrMetadataDirectoryNotFound, dotGitPath)
	}
	metadataDirectory := strings.TrimSpace(strings.TrimPrefix(pointer, gitDirectoryPointerPrefixConstant))
	if !filepath.IsAbs(metadataDirectory) {
		metadataDirectory = filepath.Join(root, metadataDirectory)
	}
	return filepath.Clean(metadataDirectory), nil
}

func isSkippedMetadataDirectory(metadataDirectory string, path string) bool {
	relativePath, relativeError := filepath.Rel(metadataDirectory, path)
	if relativeError != nil {
		return false
	}
	switch filepath.ToSlash(relativePath) {
	case objectsDirectoryNameConstant, largeFileStorageDirectoryNameConstant:
		return true
	default:
		return false
	}
}

func classifyStatError(path string, statError error) error {
	if errors.Is(statError, fs.ErrNotExist) {
		return fmt.Errorf(watchedPathMissingErrorTemplateConst, ErrWatchedPathMissing, path)
	}
	return fmt.Errorf(fingerprintErrorTemplateConstant, path, statError)
}
