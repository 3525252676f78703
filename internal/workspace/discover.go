package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
)

// skipDirs are never descended into when walking a tree without git.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// Discover returns the absolute paths of all Vite config files under root,
// sorted.
func Discover(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	if files, err := gitConfigFiles(ctx, abs); err == nil {
		return files, nil
	}
	return walkConfigFiles(ctx, abs)
}

// gitConfigFiles lists config files known to git: tracked ones plus
// untracked ones that are not ignored.
func gitConfigFiles(ctx context.Context, root string) ([]string, error) {
	out, err := runGit(ctx, root, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, rel := range strings.Split(out, "\x00") {
		if rel == "" || !viteconfig.IsConfigName(filepath.Base(rel)) || inSkippedDir(rel) {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if seen[path] {
			continue
		}
		// Deleted but still tracked files are listed by --cached.
		if _, err := os.Stat(path); err != nil {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func inSkippedDir(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}

// walkConfigFiles walks root and collects config files.
func walkConfigFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if viteconfig.IsConfigName(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// RepoRoot returns the top-level directory of the Git working tree that
// contains dir. Inside a linked worktree this is the worktree's own root.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// runGit executes a git command in dir and returns its stdout.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	// -C makes git operate in dir regardless of the process working directory.
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}
	return stdout.String(), nil
}
