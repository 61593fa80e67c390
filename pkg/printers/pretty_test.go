package printers

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"tableflip.dev/quickmsg/pkg/templates"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "Hi there thanks", Preview("<p>Hi there</p><p>thanks</p>", 0))
	assert.Equal(t, "abcd…", Preview("abcdefgh", 5))
	assert.Equal(t, "", Preview("<br/>", 10))
}

func TestCategories(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	pp := PrettyPrint{ShowID: true, Out: &buf}
	pp.Categories(templates.DefaultDocument())

	out := buf.String()
	assert.Contains(t, out, "Categories - 3 categories")
	assert.Contains(t, out, "cat_general")
	assert.Contains(t, out, "Ctrl+Shift+1")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	o := Output{JSON: true, Out: &buf}
	called := false
	err := o.Emit(map[string]int{"count": 2}, func(*PrettyPrint) { called = true })
	assert.NoError(t, err)
	assert.False(t, called)
	assert.JSONEq(t, `{"count":2}`, buf.String())
}

func TestOutputDone(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	o := Output{Out: &buf}
	assert.NoError(t, o.Done(nil, "removed %s", "msg_1"))
	assert.Equal(t, "✓ removed msg_1\n", buf.String())
}
