// Package workspace finds every Vite config in a project tree and applies
// one edit to all of them in parallel.
//
// Discovery asks git for the tracked and untracked-but-not-ignored files, so
// node_modules and build output are skipped for free. Outside a git
// repository it falls back to walking the tree and skipping the usual
// dependency and output directories.
//
// Run bounds the number of files edited at once with an errgroup. A failing
// file is recorded in its Result and does not stop the others; only a
// cancelled context aborts the run.
package workspace
