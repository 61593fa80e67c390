package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShortcut(t *testing.T) {
	tests := map[string]string{
		"ctrl+shift+k":     "Ctrl+Shift+K",
		"Shift + Ctrl + K": "Ctrl+Shift+K",
		"cmd+option+p":     "Alt+Meta+P",
		"control+f5":       "Ctrl+F5",
		"alt+shift+enter":  "Alt+Shift+Enter",
		"ctrl+ctrl+1":      "Ctrl+1",
		"":                 "",
	}
	for in, want := range tests {
		got, err := NormalizeShortcut(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeShortcutRejects(t *testing.T) {
	for _, in := range []string{"k", "ctrl+a+b", "ctrl+shift", "ctrl++k", "ctrl+bogus"} {
		_, err := NormalizeShortcut(in)
		assert.ErrorIs(t, err, ErrInvalidShortcut, in)
	}
}

func TestValidateShortcutReserved(t *testing.T) {
	for _, in := range []string{"ctrl+c", "Ctrl+Shift+T", "alt+f4", "cmd+q"} {
		_, err := ValidateShortcut(in)
		assert.ErrorIs(t, err, ErrReservedShortcut, in)
	}
	got, err := ValidateShortcut("ctrl+shift+9")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+9", got)
}
