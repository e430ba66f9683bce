package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

var testOptions = Options{AuthorName: "Test", AuthorEmail: "test@example.com"}

// initRepo creates a repository on branch main with one committed file.
func initRepo(t *testing.T, dir string, bare bool) *git.Repository {
	t.Helper()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
		Bare:        bare,
	})
	require.NoError(t, err)
	if bare {
		return repo
	}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "library"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library", "font.lua"), []byte("---@meta\n"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddGlob("."))
	_, err = wt.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return repo
}

func setOrigin(t *testing.T, repo *git.Repository, url string) {
	t.Helper()
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{url}})
	require.NoError(t, err)
}

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	gitRepo := initRepo(t, dir, false)
	setOrigin(t, gitRepo, "git@github.com:TeXLuaCATS/LuaTeX.git")
	head, err := gitRepo.Head()
	require.NoError(t, err)

	r := Open(dir, testOptions)

	top, err := r.Toplevel()
	require.NoError(t, err)
	assert.Equal(t, dir, top)

	ownerRepo, err := r.OwnerRepo()
	require.NoError(t, err)
	assert.Equal(t, "TeXLuaCATS/LuaTeX", ownerRepo)

	blob, err := r.FileBlobURL("font.lua")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/TeXLuaCATS/LuaTeX/blob/main/library/font.lua", blob)

	blob, err = r.BlobURL(filepath.Join(dir, "library", "node.lua"))
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/TeXLuaCATS/LuaTeX/blob/main/library/node.lua", blob)

	pulls, err := r.PullRequestURL()
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/TeXLuaCATS/LuaTeX/pulls", pulls)

	commitURL, err := r.LatestCommitURL()
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/TeXLuaCATS/LuaTeX/commit/"+head.Hash().String(), commitURL)
}

func TestOwnerRepo_HTTPSRemote(t *testing.T) {
	dir := t.TempDir()
	setOrigin(t, initRepo(t, dir, false), "https://github.com/TeXLuaCATS/LuaMetaTeX.git")

	ownerRepo, err := Open(dir, testOptions).OwnerRepo()
	require.NoError(t, err)
	assert.Equal(t, "TeXLuaCATS/LuaMetaTeX", ownerRepo)
}

func TestRelPath(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, false)
	r := Open(dir, testOptions)

	rel, err := r.RelPath(filepath.Join(dir, "library", "font.lua"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("library", "font.lua"), rel)

	rel, err = r.RelPath("library/font.lua")
	require.NoError(t, err)
	assert.Equal(t, "library/font.lua", rel)
}

func TestOpen_MissingRepository(t *testing.T) {
	r := Open(filepath.Join(t.TempDir(), "absent"), testOptions)
	_, err := r.LatestCommitID()
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryGit))
}

func TestIsCommitted(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, false)
	r := Open(dir, testOptions)

	ok, err := r.IsCommitted()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.lua"), []byte("x"), 0o600))
	ok, err = r.IsCommitted()
	require.NoError(t, err)
	assert.True(t, ok, "untracked files do not count as uncommitted changes")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "library", "font.lua"), []byte("changed\n"), 0o600))
	ok, err = r.IsCommitted()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, false)
	r := Open(dir, testOptions)

	committed, err := r.Commit("Nothing")
	require.NoError(t, err)
	assert.False(t, committed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "library", "node.lua"), []byte("---@meta\n"), 0o600))
	committed, err = r.Commit("Add node")
	require.NoError(t, err)
	assert.True(t, committed)

	ok, err := r.IsCommitted()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSyncToRemoteAndFromRemote(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	remoteDir := filepath.Join(root, "remote.git")
	initRepo(t, remoteDir, true)

	upstreamDir := filepath.Join(root, "upstream")
	setOrigin(t, initRepo(t, upstreamDir, false), remoteDir)
	upstream := Open(upstreamDir, testOptions)
	require.NoError(t, upstream.Push(ctx, "main"))

	downstream, err := Clone(ctx, remoteDir, filepath.Join(root, "downstream"), testOptions)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(upstreamDir, "library", "node.lua"), []byte("---@meta\n"), 0o600))
	require.NoError(t, upstream.SyncToRemote(ctx, "Sync", "main"))

	// Local edits in the downstream checkout are discarded.
	require.NoError(t, os.WriteFile(filepath.Join(downstream.Path, "library", "font.lua"), []byte("dirty\n"), 0o600))
	require.NoError(t, downstream.SyncFromRemote(ctx, "main"))

	content, err := os.ReadFile(filepath.Join(downstream.Path, "library", "font.lua"))
	require.NoError(t, err)
	assert.Equal(t, "---@meta\n", string(content))
	assert.FileExists(t, filepath.Join(downstream.Path, "library", "node.lua"))
}

func TestClone_SkipsExistingCheckout(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, false)

	r, err := Clone(context.Background(), "https://invalid.example/repo.git", dir, testOptions)
	require.NoError(t, err)
	assert.Equal(t, dir, r.Path)
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir, false)
	stray := filepath.Join(dir, "tmp.lua")
	require.NoError(t, os.WriteFile(stray, []byte("print(1)"), 0o600))

	require.NoError(t, Open(dir, testOptions).Clean())
	assert.NoFileExists(t, stray)
}
