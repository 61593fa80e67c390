package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/templates"
)

func TestCommandTree(t *testing.T) {
	root := New()
	want := map[string][]string{
		"category": {"list", "add", "rename", "delete", "shortcut"},
		"message":  {"list", "add", "update", "remove", "move", "use"},
		"reminder": {"list", "show", "add", "delete", "complete", "snooze", "cleanup"},
		"note":     {"list", "add", "delete", "pin"},
		"settings": {"get", "set-retention", "set-snooze"},
	}
	for noun, verbs := range want {
		for _, verb := range verbs {
			cmd, _, err := root.Find([]string{noun, verb})
			require.NoError(t, err, "%s %s", noun, verb)
			assert.Equal(t, verb, cmd.Name())
		}
	}
	for _, name := range []string{"export", "import", "reset", "serve", "mcp", "info", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	root := New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--json"))
	require.NoError(t, root.Execute(), "%v", args)
	return out.Bytes()
}

func TestCategoryAndMessageFlow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUICKMSG_CONFIG_PATH", dir)
	t.Setenv("QUICKMSG_PATH", dir)
	t.Setenv("QUICKMSG_LOG_LEVEL", "error")

	run(t, "category", "add", "Escalations")

	var added templates.Message
	require.NoError(t, json.Unmarshal(run(t, "message", "add", "--category", "escalations", "--title", "Hand off", "Passing", "you", "on"), &added))
	assert.Equal(t, "Passing you on", added.Message)

	var listed []templates.Message
	require.NoError(t, json.Unmarshal(run(t, "message", "list", "Escalations"), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, added.ID, listed[0].ID)

	run(t, "message", "remove", added.ID)
	listed = nil
	require.NoError(t, json.Unmarshal(run(t, "message", "list", "Escalations"), &listed))
	assert.Empty(t, listed)
}

func TestResetNeedsConfirmation(t *testing.T) {
	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"reset"})
	assert.Error(t, root.Execute())
}
