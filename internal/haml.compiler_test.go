package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func renderWithConfig(t *testing.T, source string, config CompilerConfig, data map[string]any) string {
	t.Helper()
	program, _, err := Compile(source, config, zap.NewNop())
	require.NoError(t, err)

	rt := NewRuntime(config.Format)
	interp := NewInterpreter(nil, nil, DefaultInterpreterConfig(), nil)
	require.NoError(t, interp.Execute(context.Background(), program, rt, NewScope(data)))
	return rt.Result()
}

func renderTemplate(t *testing.T, source string, data map[string]any) string {
	t.Helper()
	return renderWithConfig(t, source, DefaultCompilerConfig(), data)
}

func TestCompiler_Render(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"class shorthand with dict", ".atlantis{'style' : 'ugly'}", "<div style=\"ugly\" class=\"atlantis\"></div>\n"},
		{"inline value", "%p foo", "<p>foo</p>\n"},
		{"value whitespace stripped", "%p       strip     ", "<p>strip</p>\n"},
		{"siblings", "%p\n%p", "<p></p>\n<p></p>\n"},
		{"other tag", "%strong foo", "<strong>foo</strong>\n"},
		{"dict across lines", "%p{'a' : 'b',\n   'c':'d'} foo", "<p a=\"b\" c=\"d\">foo</p>\n"},
		{"dict across lines self closed", "%p{'a' : 'b',\n    'c' : 'd'}/", "<p a=\"b\" c=\"d\"/>\n"},
		{"outer trim between void tags", "%img\n%img>\n%img", "<img/><img/><img/>\n"},
		{"explicit self close", "%sandwich/", "<sandwich/>\n"},
		{"closing brace in string", "%p{'foo':'bar}'}", "<p foo=\"bar}\"></p>\n"},
		{"opening brace in string", "%p{'foo':'{bar'}", "<p foo=\"{bar\"></p>\n"},
		{"triple quoted attribute", "%p{'foo':'''bar'''}", "<p foo=\"bar\"></p>\n"},
		{"dict with padding", "%p{  \n   'foo'  :  \n  'bar'  \n } val", "<p foo=\"bar\">val</p>\n"},
		{"computed attribute", "%p{ 'foo': 1+2 }", "<p foo=\"3\"></p>\n"},
		{"dict valued attribute", "%p{'foo':{'foo':'bar'}} val", "<p foo=\"{'foo': 'bar'}\">val</p>\n"},
		{"inline script", "%p= 'foo'", "<p>foo</p>\n"},
		{"inline script then sibling", "%p= 'foo'\n%p", "<p>foo</p>\n<p></p>\n"},
		{"multiline script string", "%p='''foo\nbar'''", "<p>foo\nbar</p>\n"},
		{"id and class", "#foo.bar", "<div id=\"foo\" class=\"bar\"></div>\n"},
		{"multiple classes", "%span.a.b", "<span class=\"a b\"></span>\n"},
		{"nested block", "%div\n  %p foo\n%p", "<div>\n  <p>foo</p>\n</div>\n<p></p>\n"},
		{"void tag", "%br", "<br/>\n"},
		{"plain content", "hello world", "hello world\n"},
		{"escaped content", "\\%p not a tag", "%p not a tag\n"},
		{"script line", "= 1 + 1", "2\n"},
		{"script under tag", "%p\n  = 'x'", "<p>\n  x\n</p>\n"},
		{"multiline content", "%p\n  one |\n  two |", "<p>\n  one two\n</p>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(t, tt.source, nil))
		})
	}
}

func TestCompiler_FlexibleIndentation(t *testing.T) {
	expected := "<p>\n  foo\n</p>\n<q>\n  bar\n  <a>\n    baz\n  </a>\n</q>\n"

	tests := []struct {
		name   string
		source string
	}{
		{"two spaces", "%p\n  foo\n%q\n  bar\n  %a\n    baz"},
		{"one space", "%p\n foo\n%q\n bar\n %a\n  baz"},
		{"tabs", "%p\n\tfoo\n%q\n\tbar\n\t%a\n\t\tbaz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, expected, renderTemplate(t, tt.source, nil))
		})
	}
}

func TestCompiler_Doctypes(t *testing.T) {
	xhtml := DefaultCompilerConfig()
	xhtml.Format = FormatXHTML
	html4 := DefaultCompilerConfig()
	html4.Format = FormatHTML4

	tests := []struct {
		name     string
		source   string
		config   CompilerConfig
		expected string
	}{
		{"html5", "!!!", DefaultCompilerConfig(), "<!doctype html>\n"},
		{"html5 ignores variant", "!!! strict", DefaultCompilerConfig(), "<!doctype html>\n"},
		{"xml declaration", "!!! XML", DefaultCompilerConfig(), "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"},
		{"xml charset", "!!! xml iso-8859-1", DefaultCompilerConfig(), "<?xml version=\"1.0\" encoding=\"iso-8859-1\"?>\n"},
		{"xhtml default", "!!!", xhtml, DefaultDoctypes()[FormatXHTML][DoctypeVariantTransitional] + "\n"},
		{"xhtml strict", "!!! Strict", xhtml, DefaultDoctypes()[FormatXHTML][DoctypeVariantStrict] + "\n"},
		{"html4 frameset", "!!! frameset", html4, DefaultDoctypes()[FormatHTML4][DoctypeVariantFrameset] + "\n"},
		{"html4 unknown variant", "!!! mobile", html4, DefaultDoctypes()[FormatHTML4][DoctypeVariantDefault] + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderWithConfig(t, tt.source, tt.config, nil))
		})
	}
}

func TestCompiler_Comments(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"inline", "/ hello", "<!-- hello -->\n"},
		{"block", "/\n  %p x", "<!--\n  <p>x</p>\n-->\n"},
		{"conditional inline", "/[if IE] foo", "<!--[if IE]> foo <![endif]-->\n"},
		{"conditional block", "/[if IE]\n  %p x", "<!--[if IE]>\n  <p>x</p>\n<![endif]-->\n"},
		{"silent comment", "-# hidden\n%p shown", "<p>shown</p>\n"},
		{"silent comment block", "-# hidden\n  %p gone\n    deeper\n%p shown", "<p>shown</p>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(t, tt.source, nil))
		})
	}
}

func TestCompiler_Trim(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"inner trim", "%p<\n  hello", "<p>hello</p>\n"},
		{"outer trim", "%p a\n%p> b", "<p>a</p><p>b</p>\n"},
		{"outer trim inside block", "%div\n  %span a\n  %span> b\n  %span c", "<div>\n  <span>a</span><span>b</span><span>c</span>\n</div>\n"},
		{"both trims", "%div\n  %p<> x\n  %p y", "<div><p>x</p><p>y</p>\n</div>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(t, tt.source, nil))
		})
	}
}

func TestCompiler_Attributes(t *testing.T) {
	xhtml := DefaultCompilerConfig()
	xhtml.Format = FormatXHTML

	data := map[string]any{"href": "/a?b=1&c=2", "classes": []any{"x", "y"}}

	tests := []struct {
		name     string
		source   string
		config   CompilerConfig
		expected string
	}{
		{"boolean html5", "%input{'checked': True}", DefaultCompilerConfig(), "<input checked/>\n"},
		{"boolean xhtml", "%input{'checked': True}", xhtml, "<input checked=\"checked\"/>\n"},
		{"false omitted", "%input{'checked': False}", DefaultCompilerConfig(), "<input/>\n"},
		{"none omitted", "%a{'href': None} x", DefaultCompilerConfig(), "<a>x</a>\n"},
		{"class merge", "%div.a{'class': 'b'}", DefaultCompilerConfig(), "<div class=\"b a\"></div>\n"},
		{"class list", "%div{'class': classes}", DefaultCompilerConfig(), "<div class=\"x y\"></div>\n"},
		{"static id wins", "%div#s{'id': 'd'}", DefaultCompilerConfig(), "<div id=\"s\"></div>\n"},
		{"value escaped", "%a{'href': href} go", DefaultCompilerConfig(), "<a href=\"/a?b=1&amp;c=2\">go</a>\n"},
		{"keys sorted", "%p{'z': 1, 'a': 2}", DefaultCompilerConfig(), "<p a=\"2\" z=\"1\"></p>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderWithConfig(t, tt.source, tt.config, data))
		})
	}
}

func TestCompiler_Escaping(t *testing.T) {
	escaping := DefaultCompilerConfig()
	escaping.Escape = true

	data := map[string]any{"html": "<b>&</b>"}

	tests := []struct {
		name     string
		source   string
		config   CompilerConfig
		expected string
	}{
		{"default raw", "%p= html", DefaultCompilerConfig(), "<p><b>&</b></p>\n"},
		{"explicit escape", "%p&= html", DefaultCompilerConfig(), "<p>&lt;b&gt;&amp;&lt;/b&gt;</p>\n"},
		{"escape line", "&= html", DefaultCompilerConfig(), "&lt;b&gt;&amp;&lt;/b&gt;\n"},
		{"escape by default", "%p= html", escaping, "<p>&lt;b&gt;&amp;&lt;/b&gt;</p>\n"},
		{"raw overrides default", "%p!= html", escaping, "<p><b>&</b></p>\n"},
		{"literal content untouched", "<em>raw</em>", escaping, "<em>raw</em>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderWithConfig(t, tt.source, tt.config, data))
		})
	}
}

func TestCompiler_AutoClosingScript(t *testing.T) {
	assert.Equal(t, "<script></script>\n", renderTemplate(t, "%script", nil))
	assert.Equal(t, "<script>\n  alert(1)\n</script>\n", renderTemplate(t, "%script\n  alert(1)", nil))
}

func TestCompiler_Statements(t *testing.T) {
	data := map[string]any{
		"items": []any{"a", "b"},
		"user":  map[string]any{"name": "Ann", "admin": false},
	}

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			"for loop",
			"%ul\n  - for item in items\n    %li= item",
			"<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>\n",
		},
		{
			"for with unpacking",
			"- for i, item in enumerate(items)\n  %p= str(i) + item",
			"<p>0a</p>\n<p>1b</p>\n",
		},
		{
			"if chain",
			"- for x in [1, 2, 3]\n  - if x == 1\n    %p one\n  - elif x == 2\n    %p two\n  - else\n    %p many",
			"<p>one</p>\n<p>two</p>\n<p>many</p>\n",
		},
		{
			"if false without else",
			"- if user.admin\n  %p admin\n%p done",
			"<p>done</p>\n",
		},
		{
			"assignment",
			"- greeting = 'Hi ' + user.name\n%p= greeting",
			"<p>Hi Ann</p>\n",
		},
		{
			"augmented assignment",
			"- total = 0\n- for n in [1, 2, 3]\n  - total += n\n%p= total",
			"<p>6</p>\n",
		},
		{
			"def and call",
			"- def greet(name)\n  %p= 'hi ' + name\n- greet('x')\n- greet('y')",
			"<p>hi x</p>\n<p>hi y</p>\n",
		},
		{
			"def inside element",
			"- def item(label)\n  %li= label\n%ul\n  - item('one')",
			"<ul>\n  <li>one</li>\n</ul>\n",
		},
		{
			"pass",
			"- if True\n  - pass\n%p ok",
			"<p>ok</p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderTemplate(t, tt.source, data))
		})
	}
}

func TestCompiler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		target  any
		message string
	}{
		{"content under valued tag", "%p foo\n  bar", new(*NestingError), ErrMsgIllegalNesting},
		{"content under content", "hello\n  %p", new(*NestingError), ErrMsgIllegalNesting},
		{"content under self closed tag", "%p/\n  x", new(*NestingError), ErrMsgIllegalNesting},
		{"self close with value", "%br/ foo", new(*NestingError), ErrMsgSelfCloseContent},
		{"orphan else", "- else\n  %p", new(*SyntaxError), ErrMsgOrphanElse},
		{"else after interrupted chain", "- if False\n  %p a\n%p b\n- else\n  %p c", new(*SyntaxError), ErrMsgOrphanElse},
		{"simple statement with block", "- x = 1\n  %p", new(*SyntaxError), ErrMsgStatementNoBlock},
		{"invalid statement", "- for in", new(*SyntaxError), ErrMsgInvalidStatement},
		{"invalid script", "%p= 1 +", new(*SyntaxError), ErrMsgInvalidExpression},
		{"invalid dict", "%p{'a' 1}", new(*SyntaxError), ErrMsgInvalidExpression},
		{"unterminated dict", "%p{'a': 1", new(*SyntaxError), ErrMsgUnterminatedDict},
		{"indent jump", "%p\n  %a\n      %b", new(*IndentError), ErrMsgIndentJump},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.source, DefaultCompilerConfig(), nil)

			require.Error(t, err)
			assert.True(t, errors.As(err, tt.target), "unexpected error type %T", err)
			assert.Contains(t, err.Error(), tt.message)

			_, ok := ErrorPosition(err)
			assert.True(t, ok)
		})
	}
}

func TestCompile_Diagnostics(t *testing.T) {
	program, diagnostics, err := Compile("%p}", DefaultCompilerConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, program)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, ErrMsgIllegalCharacter, diagnostics[0].Message)
}

func TestProgram_String(t *testing.T) {
	program, _, err := Compile("%p foo", DefaultCompilerConfig(), nil)
	require.NoError(t, err)

	expected := "indent()\n" +
		"write('<p>foo')\n" +
		"entab()\n" +
		"detab()\n" +
		"write('</p>')\n"
	assert.Equal(t, expected, program.String())
	assert.Equal(t, 5, program.Len())
}

func TestProgram_String_Statements(t *testing.T) {
	program, _, err := Compile("- for x in xs\n  %p.a{'b': x}= x\n- if y\n  - pass", DefaultCompilerConfig(), nil)
	require.NoError(t, err)

	listing := program.String()
	assert.Contains(t, listing, "for x in xs:\n    indent()\n")
	assert.Contains(t, listing, "    attrs({'b': x}, {'class': 'a'})\n")
	assert.Contains(t, listing, "    write_expr(x)\n")
	assert.Contains(t, listing, "if y:\n    pass\n")
	assert.Greater(t, program.Len(), len(program.Body))
}

func TestProgram_String_EmptyBlock(t *testing.T) {
	program, _, err := Compile("- if y", DefaultCompilerConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "if y:\n    pass\n", program.String())
}

func TestDoctypeTable_Lookup(t *testing.T) {
	table := DefaultDoctypes()

	assert.Equal(t, "<!doctype html>", table.Lookup("unknown", DoctypeVariantStrict))
	assert.Equal(t, table[FormatXHTML][DoctypeVariantBasic], table.Lookup(FormatXHTML, DoctypeVariantBasic))
}

func TestCompiler_BlockDepth(t *testing.T) {
	compiler := NewCompiler(DefaultCompilerConfig(), nil)
	stmt, err := ParseStatement("if x")
	require.NoError(t, err)

	require.NoError(t, compiler.Open(&SilentScriptNode{Source: "if x", Stmt: stmt}, 0))
	assert.Equal(t, 1, compiler.BlockDepth())

	require.NoError(t, compiler.CloseAll())
	assert.Equal(t, 0, compiler.BlockDepth())
}
