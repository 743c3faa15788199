package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initUpstream creates a bare-ish local repository with one commit so clone
// and pull paths can run without the network.
func initUpstream(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name := range files {
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestCloneOrUpdateFreshClone(t *testing.T) {
	upstream := initUpstream(t, map[string]string{"Dockerfile": "FROM alpine"})
	dest := filepath.Join(t.TempDir(), "app")

	f := &Fetcher{URL: upstream}
	require.NoError(t, f.CloneOrUpdate(context.Background(), dest))

	assert.FileExists(t, filepath.Join(dest, "Dockerfile"))
}

func TestCloneOrUpdateSecondRunIsIdempotent(t *testing.T) {
	upstream := initUpstream(t, map[string]string{"Dockerfile": "FROM alpine"})
	dest := filepath.Join(t.TempDir(), "app")

	f := &Fetcher{URL: upstream}
	require.NoError(t, f.CloneOrUpdate(context.Background(), dest))
	require.NoError(t, f.CloneOrUpdate(context.Background(), dest))

	assert.FileExists(t, filepath.Join(dest, "Dockerfile"))
}

func TestCloneOrUpdateReclonesCorruptCheckout(t *testing.T) {
	upstream := initUpstream(t, map[string]string{"Dockerfile": "FROM alpine"})
	dest := filepath.Join(t.TempDir(), "app")

	// A directory whose .git is a garbage file is not a usable repository; it
	// must be removed and replaced by a fresh clone.
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, ".git"), []byte("garbage"), 0o644))

	f := &Fetcher{URL: upstream}
	require.NoError(t, f.CloneOrUpdate(context.Background(), dest))
	assert.FileExists(t, filepath.Join(dest, "Dockerfile"))
}

func TestVerifyDockerfile(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, VerifyDockerfile(dir), ErrNoDockerfile)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM alpine"), 0o644))
	assert.NoError(t, VerifyDockerfile(dir))
}

func TestAuthOnlyWithToken(t *testing.T) {
	assert.Nil(t, (&Fetcher{}).auth())

	auth := (&Fetcher{Token: "ghp_x"}).auth()
	require.NotNil(t, auth)
	assert.Equal(t, "ghp_x", auth.Password)
}
