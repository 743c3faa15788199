package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"dockhand/internal/logger"
)

var log = logger.PackageLogger("git")

// ErrNoDockerfile means the fetched repository has no container build
// descriptor at its root.
var ErrNoDockerfile = errors.New("no Dockerfile found at repository root")

// Fetcher clones or updates the application repository locally using
// token-based HTTPS authentication.
type Fetcher struct {
	URL   string
	Token string
}

func (f *Fetcher) auth() *http.BasicAuth {
	if f.Token == "" {
		return nil
	}
	// GitHub accepts any username when the password is a PAT.
	return &http.BasicAuth{Username: "x-access-token", Password: f.Token}
}

// CloneOrUpdate ensures dest holds a current checkout of the repository:
// clone when absent, pull when present, re-clone when the existing directory
// is not a usable repository.
func (f *Fetcher) CloneOrUpdate(ctx context.Context, dest string) error {
	repo, err := git.PlainOpen(dest)
	switch {
	case err == nil:
		return f.update(ctx, repo, dest)
	case errors.Is(err, git.ErrRepositoryNotExists):
		return f.clone(ctx, dest)
	default:
		log.Warn("Existing checkout at %s unusable (%v), recloning", dest, err)
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to remove stale checkout: %w", err)
		}
		return f.clone(ctx, dest)
	}
}

func (f *Fetcher) clone(ctx context.Context, dest string) error {
	log.Info("Cloning %s into %s", f.URL, dest)
	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:   f.URL,
		Auth:  f.auth(),
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	log.Success("Repository cloned")
	return nil
}

func (f *Fetcher) update(ctx context.Context, repo *git.Repository, dest string) error {
	log.Info("Updating existing checkout at %s", dest)
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{Auth: f.auth()})
	switch {
	case err == nil:
		log.Success("Repository updated")
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.Info("Repository already up to date")
	default:
		return fmt.Errorf("failed to pull repository: %w", err)
	}
	return nil
}

// VerifyDockerfile checks the build descriptor is present before anything
// touches the remote host.
func VerifyDockerfile(repoPath string) error {
	info, err := os.Stat(filepath.Join(repoPath, "Dockerfile"))
	if err != nil || info.IsDir() {
		return ErrNoDockerfile
	}
	return nil
}
