package gitops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gitpulse/errors"
)

var testAuthor = Author{Name: "gitpulse", Email: "gitpulse@localhost"}

// initTestRepo creates a git repository with one committed file
func initTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()

	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	repo, err := Open(dir, "origin", "", nil)
	require.NoError(t, err)

	writeFile(t, dir, "README.md", "# deploy\n")
	require.NoError(t, repo.StageAll())
	_, err = repo.Commit("chore: initial commit", testAuthor)
	require.NoError(t, err)

	return repo
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestOpenRejectsNonRepository(t *testing.T) {
	_, err := Open(t.TempDir(), "origin", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotARepository))
}

func TestHasChanges(t *testing.T) {
	repo := initTestRepo(t)

	clean, err := repo.HasChanges()
	require.NoError(t, err)
	assert.False(t, clean)

	writeFile(t, repo.Path(), "app.go", "package main\n")

	dirty, err := repo.HasChanges()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestHasChangesSeesUntrackedFiles(t *testing.T) {
	repo := initTestRepo(t)

	writeFile(t, repo.Path(), "untracked.txt", "new\n")

	dirty, err := repo.HasChanges()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestStageAllAndCommit(t *testing.T) {
	repo := initTestRepo(t)

	writeFile(t, repo.Path(), "app.go", "package main\n")
	writeFile(t, repo.Path(), "config/values.yaml", "replicas: 2\n")
	require.NoError(t, repo.StageAll())

	hash, err := repo.Commit("feat: add app scaffolding", testAuthor)
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	clean, err := repo.HasChanges()
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestChangedFilesAndDiff(t *testing.T) {
	repo := initTestRepo(t)

	writeFile(t, repo.Path(), "README.md", "# deploy\nnow with docs\n")
	writeFile(t, repo.Path(), "app.go", "package main\n")
	require.NoError(t, repo.StageAll())

	cs, err := repo.ChangedFilesAndDiff(4096)
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "app.go"}, cs.Paths)
	assert.Contains(t, cs.Diff, "+++ b/README.md")
	assert.Contains(t, cs.Diff, "+now with docs")
	assert.Contains(t, cs.Diff, "+++ b/app.go")
}

func TestChangedFilesAndDiffTruncates(t *testing.T) {
	repo := initTestRepo(t)

	big := make([]byte, 8192)
	for i := range big {
		big[i] = 'x'
	}
	writeFile(t, repo.Path(), "large.txt", string(big))
	require.NoError(t, repo.StageAll())

	cs, err := repo.ChangedFilesAndDiff(256)
	require.NoError(t, err)

	assert.Contains(t, cs.Diff, "diff truncated")
	assert.LessOrEqual(t, len(cs.Diff), 256+len("\n"+truncationMarker+"\n"))
}

func TestCommitWithNothingStagedFails(t *testing.T) {
	repo := initTestRepo(t)

	_, err := repo.Commit("feat: nothing here", testAuthor)
	require.Error(t, err)
}

func TestPushWithoutRemote(t *testing.T) {
	repo := initTestRepo(t)

	err := repo.Push(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoRemote))
}

func TestCurrentBranch(t *testing.T) {
	repo := initTestRepo(t)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}
