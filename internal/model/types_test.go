package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRole_String verifies that Role values produce the expected string
// representations for CLI output. RoleUnknown must never print as "".
func TestRole_String(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleRemote, "remote"},
		{RoleHost, "host"},
		{RoleUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.String())
		})
	}
}

// TestRole_IsValid checks that only defined role values pass validation.
func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleRemote.IsValid())
	assert.True(t, RoleHost.IsValid())
	assert.True(t, RoleUnknown.IsValid())
	assert.False(t, Role("consumer").IsValid())
}

// TestParseRole verifies string-to-role conversion, including case
// normalization and error cases.
func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
		hasError bool
	}{
		{"remote", RoleRemote, false},
		{"host", RoleHost, false},
		{"Remote", RoleRemote, false}, // case insensitive
		{" HOST ", RoleHost, false},   // surrounding whitespace
		{"unknown", RoleUnknown, false},
		{"", RoleUnknown, false},
		{"consumer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRole(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestExposeMap_Set verifies that Set keeps the position of an existing key
// and appends new keys, without mutating the receiver.
func TestExposeMap_Set(t *testing.T) {
	original := ExposeMap{
		{Path: "./Button", File: "./src/Button.tsx"},
		{Path: "./Card", File: "./src/Card.tsx"},
	}

	updated := original.Set("./Button", "./src/ui/Button.tsx")
	assert.Equal(t, []string{"./Button", "./Card"}, updated.Paths())
	file, ok := updated.Get("./Button")
	require.True(t, ok)
	assert.Equal(t, "./src/ui/Button.tsx", file)

	// The receiver is untouched.
	file, _ = original.Get("./Button")
	assert.Equal(t, "./src/Button.tsx", file)

	appended := original.Set("./Modal", "./src/Modal.tsx")
	assert.Equal(t, []string{"./Button", "./Card", "./Modal"}, appended.Paths())
	assert.Len(t, original, 2)
}

// TestExposeMap_Remove checks removal of present and absent keys.
func TestExposeMap_Remove(t *testing.T) {
	m := ExposeMap{
		{Path: "./Button", File: "./src/Button.tsx"},
		{Path: "./Card", File: "./src/Card.tsx"},
	}

	out, found := m.Remove("./Button")
	assert.True(t, found)
	assert.Equal(t, []string{"./Card"}, out.Paths())

	out, found = m.Remove("./Missing")
	assert.False(t, found)
	assert.Len(t, out, 2)
}

// TestRemoteMap_IDs verifies deterministic (sorted) iteration order.
func TestRemoteMap_IDs(t *testing.T) {
	m := RemoteMap{
		"remote2": {Name: "remote2"},
		"cart":    {Name: "cart"},
		"remote1": {Name: "remote1"},
	}
	assert.Equal(t, []string{"cart", "remote1", "remote2"}, m.IDs())
	assert.Empty(t, RemoteMap(nil).IDs())
}

// TestSharedMap_Names verifies deterministic (sorted) iteration order.
func TestSharedMap_Names(t *testing.T) {
	m := SharedMap{"react-dom": {}, "react": {Singleton: true}}
	assert.Equal(t, []string{"react", "react-dom"}, m.Names())
}

// TestValidateName verifies federation name validation rules.
func TestValidateName(t *testing.T) {
	valid := []string{"host", "remote_app", "$shell", "app-1", "_x"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "1app", "my app", "a\"b", "./x"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitConfigNotFound, "vite config not found")
		assert.Equal(t, ExitConfigNotFound, err.Code)
		assert.Equal(t, "vite config not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitWriteFailed, "failed to write vite.config.ts", inner)
		assert.Equal(t, ExitWriteFailed, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
	})

	// Verify errors.Is works with unwrapped errors (Go 1.13+ error chain).
	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitWriteFailed, "failed to write vite.config.ts", inner)
		assert.True(t, errors.Is(err, inner))
	})
}
