package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// discardChanges stages everything and hard resets to HEAD, dropping
// untracked files as well as modifications.
func (r *Repository) discardChanges(wt *git.Worktree) error {
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return derrors.GitFailed("add", r.Path, err)
	}
	repo, err := r.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return derrors.GitFailed("reset", r.Path, err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: head.Hash(), Mode: git.HardReset}); err != nil {
		return derrors.GitFailed("reset", r.Path, err)
	}
	return nil
}

// checkout switches to branch, creating it from origin when it only exists
// remotely.
func (r *Repository) checkout(wt *git.Worktree, branch string) error {
	repo, err := r.open()
	if err != nil {
		return err
	}
	local := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(local, true); err == nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
			return derrors.GitFailed("checkout", r.Path, err).WithContext("branch", branch)
		}
		return nil
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return derrors.GitFailed("checkout", r.Path, err).WithContext("branch", branch)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Hash: remoteRef.Hash(), Create: true, Force: true}); err != nil {
		return derrors.GitFailed("checkout", r.Path, err).WithContext("branch", branch)
	}
	return nil
}

func (r *Repository) pull(ctx context.Context, wt *git.Worktree, branch string) error {
	err := wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          r.opts.Auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return derrors.GitFailed("pull", r.Path, err).WithContext("branch", branch)
	}
	return nil
}

// SyncFromRemote discards local changes on branch and pulls from origin.
func (r *Repository) SyncFromRemote(ctx context.Context, branch string) error {
	branch = branchOrDefault(branch)
	remote, _ := r.Remote()
	slog.Debug("Synchronize repository from remote", logfields.Path(r.Path), logfields.URL(remote))

	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := r.checkout(wt, branch); err != nil {
		return err
	}
	if err := r.discardChanges(wt); err != nil {
		return err
	}
	return r.pull(ctx, wt, branch)
}

// CheckoutClean discards local changes, switches to branch and pulls.
func (r *Repository) CheckoutClean(ctx context.Context, branch string) error {
	branch = branchOrDefault(branch)
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := r.discardChanges(wt); err != nil {
		return err
	}
	if err := r.checkout(wt, branch); err != nil {
		return err
	}
	if err := r.discardChanges(wt); err != nil {
		return err
	}
	return r.pull(ctx, wt, branch)
}

// Commit stages every change and commits it. It reports false when there
// was nothing to commit.
func (r *Repository) Commit(message string) (bool, error) {
	wt, err := r.worktree()
	if err != nil {
		return false, err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, derrors.GitFailed("add", r.Path, err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, derrors.GitFailed("status", r.Path, err)
	}
	if status.IsClean() {
		slog.Info("Nothing to commit", logfields.Path(r.Path))
		return false, nil
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: r.signature()})
	if err != nil {
		return false, derrors.GitFailed("commit", r.Path, err)
	}
	slog.Info("Committed changes", logfields.Path(r.Path), logfields.Commit(hash.String()[:7]))
	return true, nil
}

// Push pushes branch to origin.
func (r *Repository) Push(ctx context.Context, branch string) error {
	branch = branchOrDefault(branch)
	repo, err := r.open()
	if err != nil {
		return err
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       r.opts.Auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return derrors.GitFailed("push", r.Path, err).WithContext("branch", branch)
	}
	return nil
}

// SyncToRemote commits every change with message and pushes branch. Nothing
// is pushed when there was nothing to commit.
func (r *Repository) SyncToRemote(ctx context.Context, message, branch string) error {
	committed, err := r.Commit(message)
	if err != nil || !committed {
		return err
	}
	return r.Push(ctx, branch)
}

// Clean removes untracked files and directories.
func (r *Repository) Clean() error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return derrors.GitFailed("clean", r.Path, err)
	}
	return nil
}
