// Package cli — root_test.go holds shared fixtures for the CLI tests and
// covers the root command wiring and error reporting.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// remoteConfig is a remote app's config with one commented out expose.
const remoteConfig = `import { defineConfig } from "vite";
import react from "@vitejs/plugin-react";
import { federation } from "@module-federation/vite";

export default defineConfig({
  server: { port: 5001 },
  plugins: [
    react(),
    federation({
      name: "cart",
      filename: "remoteEntry.js",
      // exposes: { "./Old": "./src/Old.tsx" },
      exposes: {
        "./Button": "./src/Button.tsx",
      },
      shared: { react: { singleton: true } },
    }),
  ],
});
`

// hostConfig consumes two remotes.
const hostConfig = `import { defineConfig } from "vite";
import { federation } from "@module-federation/vite";

export default defineConfig({
  plugins: [
    federation({
      name: "shell",
      remotes: {
        cart: {
          type: "module",
          name: "cart",
          entry: "http://localhost:5001/remoteEntry.js",
        },
        checkout: {
          type: "module",
          name: "checkout",
          entry: "http://localhost:5002/remoteEntry.js",
        },
      },
      shared: ["react"],
    }),
  ],
});
`

// writeProject creates dir/vite.config.ts with content and returns its path.
func writeProject(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "vite.config.ts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// useGlobals sets the global flags for one test and restores them after.
func useGlobals(t *testing.T, file string, asJSON bool) {
	t.Helper()
	oldFile, oldJSON := configFile, jsonOutput
	configFile, jsonOutput = file, asJSON
	t.Cleanup(func() {
		configFile, jsonOutput = oldFile, oldJSON
	})
}

func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "error should be a *model.CLIError, got %v", err)
	assert.Equal(t, code, cliErr.Code)
}

// executeRoot runs the root command with args and returns stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	useGlobals(t, "", false)
	t.Cleanup(func() {
		verbose = false
		logger = zap.NewNop()
	})

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// --- Root command tests ---

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"role", "show", "scan", "exposes", "remotes", "apply", "generate"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_Role(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, remoteConfig)

	stdout, _, err := executeRoot(t, "role", "--file", dir)
	require.NoError(t, err)
	assert.Equal(t, "remote\n", stdout)
}

// TestRootCommand_VerboseLogsToStderr routes debug logs to the command's
// stderr and keeps stdout clean.
func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, hostConfig)

	stdout, stderr, err := executeRoot(t, "role", "-v", dir)
	require.NoError(t, err)
	assert.Equal(t, "host\n", stdout)
	assert.Contains(t, stderr, "DEBUG")
	assert.Contains(t, stderr, "classified")
}

func TestRootCommand_MissingConfig(t *testing.T) {
	_, _, err := executeRoot(t, "show", t.TempDir())
	requireExitCode(t, err, model.ExitConfigNotFound)
}

// --- Error reporting tests ---

func TestReportError_Text(t *testing.T) {
	useGlobals(t, "", false)
	var buf bytes.Buffer

	code := reportError(&buf, model.WrapCLIError(model.ExitWriteFailed, "failed to write x", errors.New("disk full")))
	assert.Equal(t, model.ExitWriteFailed, code)
	assert.Equal(t, "Error: failed to write x: disk full\n", buf.String())

	buf.Reset()
	code = reportError(&buf, errors.New("boom"))
	assert.Equal(t, model.ExitGeneralError, code)
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestReportError_JSON(t *testing.T) {
	useGlobals(t, "", true)
	var buf bytes.Buffer

	code := reportError(&buf, model.WrapCLIError(model.ExitInvalidPlan, "bad plan", errors.New("line 3")))
	assert.Equal(t, model.ExitInvalidPlan, code)

	var got struct {
		Error struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "bad plan", got.Error.Message)
	assert.Equal(t, "line 3", got.Error.Detail)
}

// TestReportError_Wrapped finds a CLIError inside a joined error.
func TestReportError_Wrapped(t *testing.T) {
	useGlobals(t, "", false)
	var buf bytes.Buffer

	err := errors.Join(errors.New("context"), model.NewCLIError(model.ExitPortAllocationFailed, "no port"))
	assert.Equal(t, model.ExitPortAllocationFailed, reportError(&buf, err))
}

// --- role and show tests ---

func TestRunRole_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, hostConfig)
	useGlobals(t, "", true)

	var out bytes.Buffer
	require.NoError(t, runRole(&out, []string{dir}))

	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]string{"path": path, "role": "host"}, got)
}

func TestRunShow(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runShow(&out, nil))

	text := out.String()
	assert.Contains(t, text, "Role:      remote")
	assert.Contains(t, text, "Name:      cart")
	assert.Contains(t, text, "Filename:  remoteEntry.js")
	assert.Contains(t, text, "./Button  ./src/Button.tsx")
	assert.Contains(t, text, "react")
	assert.Contains(t, text, "singleton")
}

func TestRunShow_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, hostConfig)
	useGlobals(t, dir, true)

	var out bytes.Buffer
	require.NoError(t, runShow(&out, nil))

	var got struct {
		Path string `json:"path"`
		model.FederationConfig
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, path, got.Path)
	assert.Equal(t, "shell", got.Name)
	assert.Equal(t, model.RoleHost, got.Role)
	assert.Len(t, got.Remotes, 2)
	assert.Equal(t, model.SharedMap{"react": {}}, got.Shared)
}
