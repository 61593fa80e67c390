// Package sanitize cleans user-authored rich text before it is stored.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// HTML strips markup that is unsafe to insert into a host page.
func HTML(s string) string {
	return policy.Sanitize(s)
}
