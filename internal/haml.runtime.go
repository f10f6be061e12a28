package internal

import (
	"sort"
	"strings"
)

// Runtime collects the output of one program execution. It is not safe for
// concurrent use; each render gets its own Runtime.
type Runtime struct {
	buf    strings.Builder
	depth  int
	format string
}

// NewRuntime creates a runtime for the given output format
func NewRuntime(format string) *Runtime {
	return &Runtime{format: format}
}

// WriteLiteral appends text unchanged
func (r *Runtime) WriteLiteral(text string) {
	r.buf.WriteString(text)
}

// WriteEscaped appends text with & < > " replaced by entities
func (r *Runtime) WriteEscaped(text string) {
	r.buf.WriteString(EscapeHTML(text))
}

// EmitIndent starts a new line indented to the current depth
func (r *Runtime) EmitIndent() {
	r.buf.WriteString(OutputNewline)
	for i := 0; i < r.depth; i++ {
		r.buf.WriteString(OutputIndentUnit)
	}
}

// EnterBlock increases the indentation depth
func (r *Runtime) EnterBlock() {
	r.depth++
}

// LeaveBlock decreases the indentation depth
func (r *Runtime) LeaveBlock() {
	if r.depth > 0 {
		r.depth--
	}
}

// Depth returns the current indentation depth
func (r *Runtime) Depth() int {
	return r.depth
}

// Result returns the output stripped of surrounding whitespace with one
// trailing newline.
func (r *Runtime) Result() string {
	return strings.TrimSpace(r.buf.String()) + OutputNewline
}

// MergeAttributes renders the dynamic dictionary and the static shorthand
// attributes as ` name="value"` pairs. Dynamic keys come first in sorted
// order. A static value replaces a dynamic one except for class, whose
// values accumulate. None and False omit the attribute; True renders a
// boolean attribute.
func (r *Runtime) MergeAttributes(dynamic map[string]any, static []Attr) {
	var names []string
	values := make(map[string]any, len(dynamic)+len(static))
	var classes []string

	set := func(name string, value any) {
		if _, seen := values[name]; !seen {
			names = append(names, name)
		}
		values[name] = value
	}

	keys := make([]string, 0, len(dynamic))
	for k := range dynamic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := dynamic[k]
		if k == AttrClass {
			classes = append(classes, classValues(v)...)
			set(k, nil)
			continue
		}
		set(k, v)
	}
	for _, a := range static {
		if a.Name == AttrClass {
			classes = append(classes, a.Value)
			set(a.Name, nil)
			continue
		}
		set(a.Name, a.Value)
	}
	if len(classes) > 0 {
		values[AttrClass] = strings.Join(classes, ClassSeparator)
	}

	for _, name := range names {
		r.writeAttr(name, values[name])
	}
}

func (r *Runtime) writeAttr(name string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if !v {
			return
		}
		r.buf.WriteString(" " + name)
		if r.format == FormatXHTML {
			r.buf.WriteString(`="` + EscapeHTML(name) + `"`)
		}
		return
	}
	r.buf.WriteString(" " + name + `="` + EscapeHTML(ToString(value)) + `"`)
}

// classValues flattens a dynamic class value; lists contribute each item
func classValues(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		if !val {
			return nil
		}
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	}
	if _, isMap := asMap(v); !isMap {
		if items, err := toSlice(v, "", 0); err == nil {
			var out []string
			for _, item := range items {
				out = append(out, classValues(item)...)
			}
			return out
		}
	}
	return []string{ToString(v)}
}
