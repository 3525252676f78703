package workspace

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// runTestGit runs a git command in dir and fails the test if it exits with
// a non-zero status.
func runTestGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
}

// setupMonorepo lays out a small monorepo with two apps, a dependency that
// ships its own vite config and an unrelated file.
func setupMonorepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "apps", "host", "vite.config.ts"), "export default {}\n")
	writeFile(t, filepath.Join(dir, "apps", "remote", "vite.config.mjs"), "export default {}\n")
	writeFile(t, filepath.Join(dir, "node_modules", "lib", "vite.config.js"), "export default {}\n")
	writeFile(t, filepath.Join(dir, "apps", "host", "vitest.config.ts"), "export default {}\n")
	return dir
}

// --- Discover tests ---

// TestDiscover_Git lists tracked and untracked config files and skips
// ignored ones.
func TestDiscover_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := setupMonorepo(t)
	writeFile(t, filepath.Join(dir, ".gitignore"), "node_modules/\n")
	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")
	runTestGit(t, dir, "add", "apps/host", ".gitignore")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	files, err := Discover(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "apps", "host", "vite.config.ts"),
		filepath.Join(dir, "apps", "remote", "vite.config.mjs"),
	}, files)
}

// TestDiscover_Walk falls back to walking the tree outside git.
func TestDiscover_Walk(t *testing.T) {
	dir := setupMonorepo(t)

	files, err := walkConfigFiles(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "apps", "host", "vite.config.ts"),
		filepath.Join(dir, "apps", "remote", "vite.config.mjs"),
	}, files)
}

func TestDiscover_WalkCancelled(t *testing.T) {
	dir := setupMonorepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := walkConfigFiles(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepoRoot(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	root := setupMonorepo(t)
	runTestGit(t, root, "init")

	got, err := RepoRoot(context.Background(), filepath.Join(root, "apps"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestRepoRoot_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	dir := t.TempDir()
	if _, err := runGit(context.Background(), dir, "rev-parse", "--git-dir"); err == nil {
		t.Skip("temporary directory is inside a Git repository")
	}

	_, err := RepoRoot(context.Background(), dir)
	assert.Error(t, err)
}

func TestRunGit_Error(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	_, err := runGit(context.Background(), t.TempDir(), "no-such-command")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git no-such-command failed")
}

func TestInSkippedDir(t *testing.T) {
	assert.True(t, inSkippedDir("node_modules/x/vite.config.ts"))
	assert.True(t, inSkippedDir("apps/a/dist/vite.config.js"))
	assert.False(t, inSkippedDir("apps/distribution/vite.config.ts"))
}
