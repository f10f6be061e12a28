package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntime_Indentation(t *testing.T) {
	rt := NewRuntime(FormatHTML5)

	rt.EmitIndent()
	rt.WriteLiteral("<a>")
	rt.EnterBlock()
	rt.EmitIndent()
	rt.WriteEscaped("x & y")
	rt.EnterBlock()
	assert.Equal(t, 2, rt.Depth())
	rt.LeaveBlock()
	rt.LeaveBlock()
	rt.EmitIndent()
	rt.WriteLiteral("</a>")

	assert.Equal(t, "<a>\n  x &amp; y\n</a>\n", rt.Result())
}

func TestRuntime_LeaveBlockAtZero(t *testing.T) {
	rt := NewRuntime(FormatHTML5)
	rt.LeaveBlock()
	assert.Equal(t, 0, rt.Depth())
}

func TestRuntime_Result(t *testing.T) {
	rt := NewRuntime(FormatHTML5)
	assert.Equal(t, "\n", rt.Result())

	rt.WriteLiteral("  \n body \n\n")
	assert.Equal(t, "body\n", rt.Result())
}

func TestRuntime_MergeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		dynamic  map[string]any
		static   []Attr
		expected string
	}{
		{
			name:     "static only",
			format:   FormatHTML5,
			static:   []Attr{{Name: AttrID, Value: "main"}, {Name: AttrClass, Value: "a b"}},
			expected: ` id="main" class="a b"`,
		},
		{
			name:     "dynamic sorted before static",
			format:   FormatHTML5,
			dynamic:  map[string]any{"title": "t", "alt": "a"},
			static:   []Attr{{Name: AttrID, Value: "x"}},
			expected: ` alt="a" title="t" id="x"`,
		},
		{
			name:     "classes accumulate",
			format:   FormatHTML5,
			dynamic:  map[string]any{"class": []any{"one", nil, "two"}},
			static:   []Attr{{Name: AttrClass, Value: "three"}},
			expected: ` class="one two three"`,
		},
		{
			name:     "false class dropped",
			format:   FormatHTML5,
			dynamic:  map[string]any{"class": false},
			expected: "",
		},
		{
			name:     "static replaces dynamic id",
			format:   FormatHTML5,
			dynamic:  map[string]any{"id": "dyn"},
			static:   []Attr{{Name: AttrID, Value: "static"}},
			expected: ` id="static"`,
		},
		{
			name:     "booleans in html5",
			format:   FormatHTML5,
			dynamic:  map[string]any{"disabled": true, "hidden": false},
			expected: " disabled",
		},
		{
			name:     "booleans in xhtml",
			format:   FormatXHTML,
			dynamic:  map[string]any{"disabled": true},
			expected: ` disabled="disabled"`,
		},
		{
			name:     "values escaped and stringified",
			format:   FormatHTML5,
			dynamic:  map[string]any{"data": `"q"`, "n": 2.0, "none": nil},
			expected: ` data="&quot;q&quot;" n="2"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntime(tt.format)
			rt.MergeAttributes(tt.dynamic, tt.static)
			assert.Equal(t, tt.expected, rt.buf.String())
		})
	}
}
