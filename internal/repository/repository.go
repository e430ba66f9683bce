// Package repository wraps a git working tree of a subproject. It exposes the
// metadata used by templates (GitHub blob and pull request URLs, the latest
// commit) and the porcelain used to synchronise with the remotes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// DefaultBranch is used when a caller passes an empty branch name.
const DefaultBranch = "main"

var githubPrefix = regexp.MustCompile(`^.*github.com.`)

// Options configure the credentials and commit identity.
type Options struct {
	Auth        transport.AuthMethod
	AuthorName  string
	AuthorEmail string
}

// Repository is a git working tree. Metadata is read once and cached.
type Repository struct {
	Path string
	opts Options

	open           func() (*git.Repository, error)
	toplevel       func() (string, error)
	remote         func() (string, error)
	latestCommitID func() (string, error)
}

// Open returns the repository at path. The path does not need to exist
// until an operation touches it.
func Open(path string, opts Options) *Repository {
	r := &Repository{Path: path, opts: opts}
	r.open = sync.OnceValues(func() (*git.Repository, error) {
		repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, derrors.GitFailed("open", path, err)
		}
		return repo, nil
	})
	r.toplevel = sync.OnceValues(r.readToplevel)
	r.remote = sync.OnceValues(r.readRemote)
	r.latestCommitID = sync.OnceValues(r.readLatestCommitID)
	return r
}

// Clone clones remote into dest with all submodules unless dest already
// contains a .git directory.
func Clone(ctx context.Context, remote, dest string, opts Options) (*Repository, error) {
	if info, err := os.Stat(filepath.Join(dest, ".git")); err == nil && info.IsDir() {
		slog.Debug("Repository already cloned", logfields.Path(dest))
		return Open(dest, opts), nil
	}

	slog.Info("Cloning repository", logfields.URL(remote), logfields.Path(dest))
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:               remote,
		Auth:              opts.Auth,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return nil, derrors.GitFailed("clone", dest, err).WithContext("url", remote)
	}
	return Open(dest, opts), nil
}

func (r *Repository) readToplevel() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", derrors.GitFailed("worktree", r.Path, err)
	}
	return wt.Filesystem.Root(), nil
}

func (r *Repository) readRemote() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	origin, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", derrors.GitFailed("remote", r.Path, err)
	}
	urls := origin.Config().URLs
	if len(urls) == 0 {
		return "", derrors.GitFailed("remote", r.Path, errors.New("origin has no URL"))
	}
	return urls[0], nil
}

func (r *Repository) readLatestCommitID() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", derrors.GitFailed("rev-parse", r.Path, err)
	}
	return head.Hash().String(), nil
}

// Toplevel is the root directory of the working tree.
func (r *Repository) Toplevel() (string, error) { return r.toplevel() }

// Remote is the URL of origin.
func (r *Repository) Remote() (string, error) { return r.remote() }

// LatestCommitID is the full hash of HEAD.
func (r *Repository) LatestCommitID() (string, error) { return r.latestCommitID() }

// RelPath strips the working tree root from path. Paths outside the
// working tree are returned unchanged.
func (r *Repository) RelPath(path string) (string, error) {
	top, err := r.Toplevel()
	if err != nil {
		return "", err
	}
	if rel, ok := strings.CutPrefix(path, top); ok {
		return strings.TrimPrefix(rel, string(filepath.Separator)), nil
	}
	return path, nil
}

// OwnerRepo returns "owner/repo" of a GitHub remote, for example
// TeXLuaCATS/LuaMetaTeX for git@github.com:TeXLuaCATS/LuaMetaTeX.git.
func (r *Repository) OwnerRepo() (string, error) {
	remote, err := r.Remote()
	if err != nil {
		return "", err
	}
	remote = strings.ReplaceAll(remote, ".git", "")
	return githubPrefix.ReplaceAllString(remote, ""), nil
}

// BlobURL links a file on the main branch on GitHub.
func (r *Repository) BlobURL(relpath string) (string, error) {
	ownerRepo, err := r.OwnerRepo()
	if err != nil {
		return "", err
	}
	rel, err := r.RelPath(relpath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/blob/main/%s", ownerRepo, filepath.ToSlash(rel)), nil
}

// FileBlobURL links a file of the library folder.
func (r *Repository) FileBlobURL(filename string) (string, error) {
	return r.BlobURL("library/" + filename)
}

// PullRequestURL links the pull request list on GitHub.
func (r *Repository) PullRequestURL() (string, error) {
	ownerRepo, err := r.OwnerRepo()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/pulls", ownerRepo), nil
}

// LatestCommitURL links HEAD on GitHub.
func (r *Repository) LatestCommitURL() (string, error) {
	ownerRepo, err := r.OwnerRepo()
	if err != nil {
		return "", err
	}
	id, err := r.LatestCommitID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/commit/%s", ownerRepo, id), nil
}

// IsCommitted reports whether tracked files are unchanged against HEAD.
// Untracked files are ignored.
func (r *Repository) IsCommitted() (bool, error) {
	wt, err := r.worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, derrors.GitFailed("status", r.Path, err)
	}
	for _, s := range status {
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) worktree() (*git.Worktree, error) {
	repo, err := r.open()
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, derrors.GitFailed("worktree", r.Path, err)
	}
	return wt, nil
}

func (r *Repository) signature() *object.Signature {
	return &object.Signature{Name: r.opts.AuthorName, Email: r.opts.AuthorEmail, When: time.Now()}
}

func branchOrDefault(branch string) string {
	if branch == "" {
		return DefaultBranch
	}
	return branch
}
