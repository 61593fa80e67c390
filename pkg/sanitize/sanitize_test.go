package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	assert.Equal(t, "<p>Hello <strong>there</strong></p>", HTML("<p>Hello <strong>there</strong></p>"))
	assert.Equal(t, "<p>Hi</p>", HTML(`<p>Hi</p><script>alert(1)</script>`))
	link := HTML(`<a href="https://example.com" onclick="steal()">x</a>`)
	assert.Contains(t, link, `href="https://example.com"`)
	assert.NotContains(t, link, "onclick")
	assert.Equal(t, "plain text", HTML("plain text"))
}
