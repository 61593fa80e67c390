package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropPosition(t *testing.T) {
	assert.Equal(t, Before, DropPosition(105, 100, 40))
	assert.Equal(t, Before, DropPosition(119.9, 100, 40))
	assert.Equal(t, After, DropPosition(120, 100, 40))
	assert.Equal(t, After, DropPosition(139, 100, 40))
	assert.Equal(t, After, DropPosition(10, 0, 0))
}

func TestComputeNewOrder(t *testing.T) {
	tests := map[string]struct {
		dragged string
		dest    []string
		target  string
		pos     Position
		want    []string
	}{
		"before first": {
			dragged: "c", dest: []string{"a", "b", "c"}, target: "a", pos: Before,
			want: []string{"c", "a", "b"},
		},
		"after middle": {
			dragged: "a", dest: []string{"a", "b", "c"}, target: "b", pos: After,
			want: []string{"b", "a", "c"},
		},
		"append": {
			dragged: "x", dest: []string{"a", "b"}, pos: Append,
			want: []string{"a", "b", "x"},
		},
		"append ignores target": {
			dragged: "a", dest: []string{"a", "b", "c"}, target: "c", pos: Append,
			want: []string{"b", "c", "a"},
		},
		"unknown target appends": {
			dragged: "x", dest: []string{"a", "b"}, target: "zz", pos: Before,
			want: []string{"a", "b", "x"},
		},
		"from another list": {
			dragged: "x", dest: []string{"a", "b"}, target: "b", pos: Before,
			want: []string{"a", "x", "b"},
		},
		"onto itself": {
			dragged: "b", dest: []string{"a", "b", "c"}, target: "b", pos: Before,
			want: []string{"a", "b", "c"},
		},
		"empty list": {
			dragged: "x", dest: nil, target: "", pos: Before,
			want: []string{"x"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeNewOrder(tc.dragged, tc.dest, tc.target, tc.pos))
		})
	}
}

func TestParsePosition(t *testing.T) {
	p, ok := ParsePosition("before")
	assert.True(t, ok)
	assert.Equal(t, Before, p)

	_, ok = ParsePosition("sideways")
	assert.False(t, ok)
}
