package gitops

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/teranos/gitpulse/errors"
)

// Author identifies the commit author and committer
type Author struct {
	Name  string
	Email string
}

// ChangeSet describes the pending changes the composer writes a message for.
// Paths are sorted; Diff is a textual diff bounded by the caller's byte limit.
// Never persisted.
type ChangeSet struct {
	Paths []string
	Diff  string
}

// Repository wraps a git working tree with the operations the commit
// pipeline needs. All methods operate on the tree the process was pointed
// at; the pipeline guarantees single-flight access.
type Repository struct {
	path   string
	remote string
	branch string
	repo   *git.Repository
	logger *zap.SugaredLogger
}

// Open opens an existing git repository at path
func Open(path, remote, branch string, logger *zap.SugaredLogger) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve repository path %s", path)
	}

	repo, err := git.PlainOpen(abs)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.Wrapf(errors.ErrNotARepository, "%s", abs)
		}
		return nil, errors.Wrapf(err, "open repository %s", abs)
	}

	if logger != nil {
		logger.Infow("Repository opened", "path", abs, "remote", remote)
	}

	return &Repository{
		path:   abs,
		remote: remote,
		branch: branch,
		repo:   repo,
		logger: logger,
	}, nil
}

// Path returns the absolute working tree path
func (r *Repository) Path() string {
	return r.path
}

// CurrentBranch returns the short name of the checked-out branch
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.Wrap(err, "resolve HEAD")
	}
	return head.Name().Short(), nil
}

// HasChanges reports whether the working tree has uncommitted changes,
// including untracked files.
func (r *Repository) HasChanges() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, errors.Wrap(err, "open worktree")
	}

	status, err := wt.Status()
	if err != nil {
		return false, errors.Wrap(err, "read worktree status")
	}

	return !status.IsClean(), nil
}

// StageAll stages every change in the working tree, additions and deletions
// included (the equivalent of `git add -A`).
func (r *Repository) StageAll() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "open worktree")
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, "stage changes")
	}

	return nil
}

// ChangedFilesAndDiff returns the sorted list of changed paths and a textual
// diff of staged content against HEAD, truncated to maxBytes. A truncated
// diff ends with a marker line so the reader knows content was dropped.
func (r *Repository) ChangedFilesAndDiff(maxBytes int) (*ChangeSet, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "open worktree")
	}

	status, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(err, "read worktree status")
	}

	paths := make([]string, 0, len(status))
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	diffText := r.buildDiff(paths, maxBytes)

	return &ChangeSet{Paths: paths, Diff: diffText}, nil
}

// Commit creates a commit with the given message and author identity and
// returns the full commit hash.
func (r *Repository) Commit(message string, author Author) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", errors.Wrap(err, "open worktree")
	}

	sig := &object.Signature{
		Name:  author.Name,
		Email: author.Email,
		When:  time.Now(),
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", errors.Wrap(err, "create commit")
	}

	if r.logger != nil {
		r.logger.Infow("Created commit",
			"hash", hash.String()[:7],
			"message", message,
		)
	}

	return hash.String(), nil
}

// Push pushes the current branch to the configured remote. A single attempt;
// the retry policy belongs to the pipeline. Already-up-to-date is success.
func (r *Repository) Push(ctx context.Context) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.remote,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		if errors.Is(err, git.ErrRemoteNotFound) {
			return errors.Wrapf(errors.ErrNoRemote, "%s", r.remote)
		}
		return errors.Wrapf(err, "push to %s", r.remote)
	}

	return nil
}

// headBlobContent reads the committed content of path from HEAD, or "" when
// the path is new or HEAD does not exist yet (empty repository).
func (r *Repository) headBlobContent(path string) string {
	head, err := r.repo.Head()
	if err != nil {
		return ""
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return ""
	}
	tree, err := commit.Tree()
	if err != nil {
		return ""
	}
	file, err := tree.File(path)
	if err != nil {
		return ""
	}
	content, err := file.Contents()
	if err != nil {
		return ""
	}
	return content
}

// worktreeContent reads the current content of path, or "" when deleted.
// Files beyond 1MB are skipped; their diff would be noise in a prompt anyway.
func (r *Repository) worktreeContent(path string) string {
	full := filepath.Join(r.path, path)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() || info.Size() > 1<<20 {
		return ""
	}
	f, err := os.Open(full)
	if err != nil {
		return ""
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return string(data)
}
