package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/scan"
	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
)

// --- exposes list tests ---

func TestRunExposesList(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesList(&out))
	assert.Contains(t, out.String(), "PATH")
	assert.Contains(t, out.String(), "./Button")
	assert.NotContains(t, out.String(), "./Old", "commented out exposes are ignored")
}

func TestRunExposesList_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, hostConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesList(&out))
	assert.Equal(t, "No exposes in "+path+"\n", out.String())
}

// --- exposes set tests ---

// TestRunExposesSet_OnlyExposesChange rewrites the exposes block and leaves
// every byte around it as it was.
func TestRunExposesSet_OnlyExposesChange(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./Header", "./src/Header.tsx", writeFlags{}))
	assert.Equal(t, "replaced     "+path+"\n", out.String())

	got := readFile(t, path)
	before, ok := scan.FindNamedBlock(remoteConfig, "exposes")
	require.True(t, ok)
	after, ok := scan.FindNamedBlock(got, "exposes")
	require.True(t, ok)

	assert.Equal(t, remoteConfig[:before.KeyStart], got[:after.KeyStart])
	assert.Equal(t, remoteConfig[before.End:], got[after.End:])
	assert.Equal(t, model.ExposeMap{
		{Path: "./Button", File: "./src/Button.tsx"},
		{Path: "./Header", File: "./src/Header.tsx"},
	}, federation.ParseExposeMap(got))

	assert.Equal(t, remoteConfig, readFile(t, path+viteconfig.BackupSuffix), "backup keeps the old text")
}

func TestRunExposesSet_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./Header", "./src/Header.tsx", writeFlags{noBackup: true}))
	first := readFile(t, path)

	out.Reset()
	require.NoError(t, runExposesSet(&out, "./Header", "./src/Header.tsx", writeFlags{noBackup: true}))
	assert.True(t, strings.HasPrefix(out.String(), "unchanged"))
	assert.Equal(t, first, readFile(t, path))

	_, err := os.Stat(path + viteconfig.BackupSuffix)
	assert.True(t, os.IsNotExist(err), "no backup with --no-backup")
}

func TestRunExposesSet_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./Header", "./src/Header.tsx", writeFlags{dryRun: true}))

	assert.Equal(t, remoteConfig, readFile(t, path), "dry run leaves the file alone")
	assert.Contains(t, out.String(), "--- "+path)
	assert.Contains(t, out.String(), `+        "./Header": "./src/Header.tsx",`)
}

// TestRunExposesSet_HostBecomesRemote injects an exposes block and a
// filename into a host's federation call.
func TestRunExposesSet_HostBecomesRemote(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, hostConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./Nav", "./src/Nav.tsx", writeFlags{}))
	assert.True(t, strings.HasPrefix(out.String(), "injected"))

	got := federation.ParseConfig(readFile(t, path))
	assert.Equal(t, model.RoleRemote, got.Role)
	assert.Equal(t, federation.DefaultFilename, got.Filename)
	assert.Equal(t, model.ExposeMap{{Path: "./Nav", File: "./src/Nav.tsx"}}, got.Exposes)
	assert.Len(t, got.Remotes, 2, "existing remotes are kept")
}

// TestRunExposesSet_NoFederationCall inserts a federation call named after
// the project directory.
func TestRunExposesSet_NoFederationCall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "product-list")
	path := writeProject(t, dir, `import { defineConfig } from "vite";

export default defineConfig({
  plugins: [],
});
`)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./List", "./src/List.tsx", writeFlags{}))

	text := readFile(t, path)
	assert.Contains(t, text, federation.FederationImport)
	got := federation.ParseConfig(text)
	assert.Equal(t, "product_list", got.Name)
	assert.Equal(t, model.ExposeMap{{Path: "./List", File: "./src/List.tsx"}}, got.Exposes)
}

func TestRunExposesSet_InvalidArgs(t *testing.T) {
	var out bytes.Buffer
	requireExitCode(t, runExposesSet(&out, "Button", "./src/Button.tsx", writeFlags{}), model.ExitGeneralError)
	requireExitCode(t, runExposesSet(&out, "./Button", "  ", writeFlags{}), model.ExitGeneralError)
}

// TestRunExposesSet_KeepsUnreadableEntries refuses to rewrite an exposes
// block that holds an entry it cannot carry over.
func TestRunExposesSet_KeepsUnreadableEntries(t *testing.T) {
	const content = `export default defineConfig({
  plugins: [
    federation({
      name: "cart",
      exposes: {
        "./a": "./src/a.ts",
        "./b": resolve("b.ts"),
      },
    }),
  ],
});
`
	dir := t.TempDir()
	path := writeProject(t, dir, content)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	err := runExposesSet(&out, "./c", "./src/c.ts", writeFlags{})
	requireExitCode(t, err, model.ExitWriteFailed)
	assert.Contains(t, err.Error(), "./b")
	assert.Equal(t, content, readFile(t, path))
	assert.NoFileExists(t, path+viteconfig.BackupSuffix)
}

// optionsVariableConfig hands federation() its options through a variable.
const optionsVariableConfig = `import { federation } from "@module-federation/vite";

const options = {
  filename: "remoteEntry.js",
  exposes: {
    "./Button": "./src/Button.tsx",
  },
};

export default defineConfig({
  plugins: [federation(options)],
});
`

// TestRunExposesSet_OptionsVariable edits the exposes block inside the
// options variable and keeps the federation(options) call.
func TestRunExposesSet_OptionsVariable(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, optionsVariableConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesSet(&out, "./Card", "./src/Card.tsx", writeFlags{noBackup: true}))
	assert.Equal(t, "replaced     "+path+"\n", out.String())

	got := readFile(t, path)
	assert.Contains(t, got, "plugins: [federation(options)],")
	assert.NotRegexp(t, `\bname:`, got, "no name is injected into a call without literal options")
	assert.Equal(t, model.ExposeMap{
		{Path: "./Button", File: "./src/Button.tsx"},
		{Path: "./Card", File: "./src/Card.tsx"},
	}, federation.ParseExposeMap(got))
}

// TestRunExposesSet_OptionsVariableWithoutBlock fails when the setting would
// have to be injected into options that are not an object literal.
func TestRunExposesSet_OptionsVariableWithoutBlock(t *testing.T) {
	const content = "const options = { name: \"cart\" };\nexport default { plugins: [federation(options)] };\n"
	dir := t.TempDir()
	path := writeProject(t, dir, content)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	err := runExposesSet(&out, "./Button", "./src/Button.tsx", writeFlags{})
	requireExitCode(t, err, model.ExitBlockNotFound)
	assert.Equal(t, content, readFile(t, path))
}

// --- exposes remove tests ---

func TestRunExposesRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	require.NoError(t, runExposesRemove(&out, "./Button", writeFlags{}))

	text := readFile(t, path)
	assert.Empty(t, federation.ParseExposeMap(text))
	assert.Contains(t, text, "exposes: {}")
	assert.Contains(t, text, `// exposes: { "./Old": "./src/Old.tsx" },`, "comments are untouched")
}

func TestRunExposesRemove_NotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeProject(t, dir, remoteConfig)
	useGlobals(t, dir, false)

	var out bytes.Buffer
	err := runExposesRemove(&out, "./Missing", writeFlags{})
	requireExitCode(t, err, model.ExitBlockNotFound)
	assert.Equal(t, remoteConfig, readFile(t, path))
}
