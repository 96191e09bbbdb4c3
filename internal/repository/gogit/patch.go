package gogit

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	godiff "github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/temirov/repowatch/internal/repository"
)

const lineTerminatorConstant = "\n"

// fileVersion is one side of a file comparison. An absent version has a nil content slice.
type fileVersion struct {
	path    string
	hash    plumbing.Hash
	mode    filemode.FileMode
	content []byte
	present bool
}

func (version fileVersion) Hash() plumbing.Hash {
	return version.hash
}

func (version fileVersion) Mode() filemode.FileMode {
	return version.mode
}

func (version fileVersion) Path() string {
	return version.path
}

type chunk struct {
	content   string
	operation fdiff.Operation
}

func (diffChunk chunk) Content() string {
	return diffChunk.content
}

func (diffChunk chunk) Type() fdiff.Operation {
	return diffChunk.operation
}

// filePatch compares two versions of a single path.
type filePatch struct {
	from     fileVersion
	to       fileVersion
	isBinary bool
	chunks   []fdiff.Chunk
}

func (patch *filePatch) IsBinary() bool {
	return patch.isBinary
}

func (patch *filePatch) Files() (fdiff.File, fdiff.File) {
	var from fdiff.File
	var to fdiff.File
	if patch.from.present {
		from = patch.from
	}
	if patch.to.present {
		to = patch.to
	}
	return from, to
}

func (patch *filePatch) Chunks() []fdiff.Chunk {
	return patch.chunks
}

func (patch *filePatch) stat() (stat repository.DiffStat) {
	for _, diffChunk := range patch.chunks {
		switch diffChunk.Type() {
		case fdiff.Add:
			stat.Insertions += countLines(diffChunk.Content())
		case fdiff.Delete:
			stat.Deletions += countLines(diffChunk.Content())
		}
	}
	return stat
}

type singleFilePatch struct {
	patch *filePatch
}

func (single singleFilePatch) FilePatches() []fdiff.FilePatch {
	return []fdiff.FilePatch{single.patch}
}

func (single singleFilePatch) Message() string {
	return ""
}

// buildFilePatch compares HEAD with the index for staged files and the index with the
// working tree otherwise. Unchanged files produce a patch without chunks.
func buildFilePatch(root string, file repository.ModifiedFile) (*filePatch, error) {
	opened, openError := openRepository(root)
	if openError != nil {
		return nil, openError
	}

	repositoryIndex, indexError := opened.repository.Storer.Index()
	if indexError != nil {
		return nil, indexError
	}
	indexVersion, indexVersionError := readIndexVersion(opened.repository, repositoryIndex, file.Path)
	if indexVersionError != nil {
		return nil, indexVersionError
	}

	var from fileVersion
	var to fileVersion
	if file.Staged {
		headVersion, headError := readHeadVersion(opened.repository, file.Path)
		if headError != nil {
			return nil, headError
		}
		from, to = headVersion, indexVersion
	} else {
		worktreeVersion, worktreeError := readWorktreeVersion(opened.worktree, indexVersion, file.Path)
		if worktreeError != nil {
			return nil, worktreeError
		}
		from, to = indexVersion, worktreeVersion
	}

	patch := &filePatch{from: from, to: to}
	if from.present && to.present && from.hash == to.hash && from.mode == to.mode {
		return patch, nil
	}

	fromBinary, fromBinaryError := binary.IsBinary(bytes.NewReader(from.content))
	if fromBinaryError != nil {
		return nil, fromBinaryError
	}
	toBinary, toBinaryError := binary.IsBinary(bytes.NewReader(to.content))
	if toBinaryError != nil {
		return nil, toBinaryError
	}
	if fromBinary || toBinary {
		patch.isBinary = true
		return patch, nil
	}

	for _, difference := range godiff.Do(string(from.content), string(to.content)) {
		patch.chunks = append(patch.chunks, chunk{content: difference.Text, operation: chunkOperation(difference.Type)})
	}
	return patch, nil
}

func encodeUnified(patch *filePatch) (string, error) {
	if !patch.isBinary && len(patch.chunks) == 0 && patch.from.present == patch.to.present {
		return "", nil
	}
	var rendered strings.Builder
	encoder := fdiff.NewUnifiedEncoder(&rendered, fdiff.DefaultContextLines)
	if encodeError := encoder.Encode(singleFilePatch{patch: patch}); encodeError != nil {
		return "", encodeError
	}
	return strings.TrimRight(rendered.String(), lineTerminatorConstant), nil
}

func readHeadVersion(opened *gogit.Repository, path string) (fileVersion, error) {
	head, headError := opened.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return fileVersion{path: path}, nil
		}
		return fileVersion{}, headError
	}
	commit, commitError := opened.CommitObject(head.Hash())
	if commitError != nil {
		return fileVersion{}, commitError
	}
	tree, treeError := commit.Tree()
	if treeError != nil {
		return fileVersion{}, treeError
	}
	treeFile, fileError := tree.File(path)
	if fileError != nil {
		if errors.Is(fileError, object.ErrFileNotFound) {
			return fileVersion{path: path}, nil
		}
		return fileVersion{}, fileError
	}
	content, readError := readBlob(opened, treeFile.Hash)
	if readError != nil {
		return fileVersion{}, readError
	}
	return fileVersion{path: path, hash: treeFile.Hash, mode: treeFile.Mode, content: content, present: true}, nil
}

func readIndexVersion(opened *gogit.Repository, repositoryIndex *index.Index, path string) (fileVersion, error) {
	entry, entryError := repositoryIndex.Entry(path)
	if entryError != nil {
		if errors.Is(entryError, index.ErrEntryNotFound) {
			return fileVersion{path: path}, nil
		}
		return fileVersion{}, entryError
	}
	content, readError := readBlob(opened, entry.Hash)
	if readError != nil {
		return fileVersion{}, readError
	}
	return fileVersion{path: path, hash: entry.Hash, mode: entry.Mode, content: content, present: true}, nil
}

func readWorktreeVersion(worktree *gogit.Worktree, indexVersion fileVersion, path string) (fileVersion, error) {
	content, readError := util.ReadFile(worktree.Filesystem, path)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return fileVersion{path: path}, nil
		}
		return fileVersion{}, readError
	}
	mode := filemode.Regular
	if indexVersion.present {
		mode = indexVersion.mode
	}
	return fileVersion{
		path:    path,
		hash:    plumbing.ComputeHash(plumbing.BlobObject, content),
		mode:    mode,
		content: content,
		present: true,
	}, nil
}

func readBlob(opened *gogit.Repository, hash plumbing.Hash) ([]byte, error) {
	blob, blobError := opened.BlobObject(hash)
	if blobError != nil {
		return nil, blobError
	}
	reader, readerError := blob.Reader()
	if readerError != nil {
		return nil, readerError
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func chunkOperation(operation diffmatchpatch.Operation) fdiff.Operation {
	switch operation {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}

func countLines(content string) int {
	if len(content) == 0 {
		return 0
	}
	lineCount := strings.Count(content, lineTerminatorConstant)
	if !strings.HasSuffix(content, lineTerminatorConstant) {
		lineCount++
	}
	return lineCount
}
