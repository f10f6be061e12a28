package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "%p= user"
	testDataJSON        = `{"user": "Alice"}`
	testDataYAML        = "user: Bob\n"
	testExpectedOutput  = "<p>Alice</p>\n"
	testInvalidContent  = "%p foo\n  bar"
	testListing         = "indent()\nwrite('<p>foo')\nentab()\ndetab()\nwrite('</p>')\n"
)

// setupTestData creates test files in a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	files := map[string]string{
		"template.haml":     testTemplateContent,
		"data.json":         testDataJSON,
		"data.yaml":         testDataYAML,
		"invalid.haml":      testInvalidContent,
		"page.haml":         "- import partials.nav\n%ul\n  - nav.item(user)",
		"partials/nav.haml": "- def item(label)\n  %li= label",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))
	}

	return tmpDir
}

// runCLI runs the CLI with the given stdin and returns exit code and output
func runCLI(stdin string, args ...string) (int, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI("")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
	assert.Contains(t, stdout, CmdNameCompile)
}

func TestRun_Help(t *testing.T) {
	tests := []struct {
		command  string
		expected string
	}{
		{CmdNameRender, HelpRenderUsage},
		{CmdNameCompile, HelpCompileUsage},
		{CmdNameValidate, HelpValidateUsage},
		{CmdNameVersion, HelpVersionUsage},
		{CmdNameHelp, HelpHelpUsage},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			code, stdout, _ := runCLI("", CmdNameHelp, tt.command)
			assert.Equal(t, ExitCodeSuccess, code)
			assert.Equal(t, tt.expected+"\n", stdout)
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, stdout, _ := runCLI("", "frobnicate")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stdout, ErrMsgUnknownCommand)
	assert.Contains(t, stdout, "frobnicate")
}

// ==================== render tests ====================

func TestRender(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name     string
		stdin    string
		args     []string
		expected string
	}{
		{
			"file with json data",
			"",
			[]string{"-t", filepath.Join(dir, "template.haml"), "-d", testDataJSON},
			testExpectedOutput,
		},
		{
			"stdin with yaml data file",
			testTemplateContent,
			[]string{"--data-file", filepath.Join(dir, "data.yaml")},
			"<p>Bob</p>\n",
		},
		{
			"inline yaml data",
			"%p= items[1]",
			[]string{"-d", "items: [a, b]"},
			"<p>b</p>\n",
		},
		{
			"no data",
			"%p foo",
			nil,
			"<p>foo</p>\n",
		},
		{
			"xhtml format",
			"%br",
			[]string{"-F", "xhtml"},
			"<br/>\n",
		},
		{
			"escape",
			"%p= html",
			[]string{"-e", "-d", `{"html": "<b>"}`},
			"<p>&lt;b&gt;</p>\n",
		},
		{
			"imports from path",
			"",
			[]string{"-t", filepath.Join(dir, "page.haml"), "-p", dir, "-d", "user: ann"},
			"<ul>\n  <li>ann</li>\n</ul>\n",
		},
		{
			"imports next to the template file",
			"",
			[]string{"-t", filepath.Join(dir, "page.haml"), "-d", "user: ann"},
			"<ul>\n  <li>ann</li>\n</ul>\n",
		},
		{
			"imports from storage driver",
			"- import partials.nav\n- nav.item('x')",
			[]string{"--storage", "filesystem", "--dsn", dir},
			"<li>x</li>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.stdin, append([]string{CmdNameRender}, tt.args...)...)
			require.Equal(t, ExitCodeSuccess, code, stderr)
			assert.Equal(t, tt.expected, stdout)
		})
	}
}

func TestParseRenderFlags_ImportPath(t *testing.T) {
	page := filepath.Join("site", "pages", "home.haml")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"defaults to template directory", []string{"-t", page}, filepath.Join("site", "pages")},
		{"explicit path wins", []string{"-t", page, "-p", "lib"}, "lib"},
		{"storage driver leaves path unset", []string{"-t", page, "--storage", "memory"}, ""},
		{"stdin has no directory", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseRenderFlags(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.engine.importPath)
		})
	}
}

func TestRender_OutputFile(t *testing.T) {
	dir := setupTestData(t)
	out := filepath.Join(dir, "out.html")

	code, stdout, _ := runCLI(testTemplateContent, CmdNameRender, "-d", testDataJSON, "-o", out)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stdout)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, testExpectedOutput, string(written))
}

func TestRender_Debug(t *testing.T) {
	code, stdout, stderr := runCLI("%p foo", CmdNameRender, "--debug")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "<p>foo</p>\n", stdout)
	assert.Contains(t, stderr, "haml engine created")
	assert.Contains(t, stderr, "write('<p>foo')")
}

func TestRender_Errors(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name   string
		stdin  string
		args   []string
		code   int
		stderr string
	}{
		{"invalid markup format", "%p", []string{"-F", "svg"}, ExitCodeUsageError, ErrMsgInvalidFlags},
		{"unknown flag", "%p", []string{"--nope"}, ExitCodeUsageError, ErrMsgInvalidFlags},
		{"stray argument", "%p", []string{"extra"}, ExitCodeUsageError, ErrMsgUnexpectedArguments},
		{"path and storage", "%p", []string{"-p", dir, "--storage", "memory"}, ExitCodeUsageError, ErrMsgStorageConflict},
		{"missing template", "", []string{"-t", filepath.Join(dir, "missing.haml")}, ExitCodeInputError, ErrMsgReadFileFailed},
		{"malformed data", "%p", []string{"-d", "{unclosed"}, ExitCodeInputError, ErrMsgInvalidData},
		{"scalar data", "%p", []string{"-d", "42"}, ExitCodeInputError, ErrMsgDataNotMapping},
		{"unknown storage driver", "%p", []string{"--storage", "nope"}, ExitCodeInputError, ErrMsgStorageFailed},
		{"compile error", testInvalidContent, nil, ExitCodeValidationError, "line 2"},
		{"runtime error", "%p\n- raise 'boom'", nil, ExitCodeError, ErrMsgRenderFailed},
		{"import without storage", "- import partials.nav", nil, ExitCodeError, ErrMsgRenderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.stdin, append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

func TestRender_DiagnosticsGoToStderr(t *testing.T) {
	code, stdout, stderr := runCLI("%p}", CmdNameRender)
	require.Equal(t, ExitCodeSuccess, code)
	assert.NotContains(t, stdout, "warning")
	assert.Contains(t, stderr, "line 1, column 3")
}

// ==================== compile tests ====================

func TestCompile(t *testing.T) {
	code, stdout, _ := runCLI("%p foo", CmdNameCompile)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, testListing, stdout)
}

func TestCompile_Errors(t *testing.T) {
	code, _, stderr := runCLI(testInvalidContent, CmdNameCompile)
	assert.Equal(t, ExitCodeValidationError, code)
	assert.Contains(t, stderr, ErrMsgCompileFailed)

	// import flags belong to render only
	code, _, _ = runCLI("%p", CmdNameCompile, "-p", ".")
	assert.Equal(t, ExitCodeUsageError, code)
}

// ==================== validate tests ====================

func TestValidate_Text(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		code     int
		contains []string
	}{
		{"valid", "%p foo", nil, ExitCodeSuccess, []string{ValidationTextSuccess}},
		{"diagnostic", "%p}", nil, ExitCodeSuccess, []string{SeverityNameWarning, "0 error(s), 1 warning(s)"}},
		{"diagnostic strict", "%p}", []string{"--strict"}, ExitCodeValidationError, []string{SeverityNameWarning}},
		{"compile error", testInvalidContent, nil, ExitCodeValidationError, []string{SeverityNameError, "at line 2", "1 error(s), 0 warning(s)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(tt.stdin, append([]string{CmdNameValidate}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			for _, s := range tt.contains {
				assert.Contains(t, stdout, s)
			}
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		code, stdout, _ := runCLI("%p foo", CmdNameValidate, "-F", OutputFormatJSON)
		require.Equal(t, ExitCodeSuccess, code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.True(t, out.Valid)
		assert.Equal(t, 5, out.Instructions)
		assert.Empty(t, out.Issues)
	})

	t.Run("nesting error", func(t *testing.T) {
		code, stdout, _ := runCLI(testInvalidContent, CmdNameValidate, "--format", OutputFormatJSON)
		require.Equal(t, ExitCodeValidationError, code)

		var out validationOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.False(t, out.Valid)
		require.Len(t, out.Issues, 1)
		assert.Equal(t, SeverityNameError, out.Issues[0].Severity)
		assert.Equal(t, "nesting", out.Issues[0].Kind)
		assert.Equal(t, 2, out.Issues[0].Line)
	})

	t.Run("invalid output format", func(t *testing.T) {
		code, _, _ := runCLI("%p", CmdNameValidate, "-F", "xml")
		assert.Equal(t, ExitCodeUsageError, code)
	})
}

// ==================== version tests ====================

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI("", CmdNameVersion)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "go-haml version")

	code, stdout, _ = runCLI("", CmdNameVersion, "-F", OutputFormatJSON)
	require.Equal(t, ExitCodeSuccess, code)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.NotEmpty(t, info.GoVersion)

	code, _, _ = runCLI("", CmdNameVersion, "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, code)
}

func TestGetVersionInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "versions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project:\n  version: 1.2.3\ngit:\n  commit: abc123\n  branch: main\n"), FilePermissions))

	info := getVersionInfo([]string{filepath.Join(dir, "missing.yaml"), path})
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "main", info.Branch)
	assert.Equal(t, VersionUnknown, info.BuildTime)

	info = getVersionInfo(nil)
	assert.Equal(t, VersionUnknown, info.Version)
}

// ==================== input tests ====================

func TestLoadData(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name     string
		doc      string
		file     string
		expected map[string]any
		wantErr  bool
	}{
		{"empty", "", "", map[string]any{}, false},
		{"blank document", "  \n", "", map[string]any{}, false},
		{"json", `{"n": 1, "tags": ["a"]}`, "", map[string]any{"n": 1, "tags": []any{"a"}}, false},
		{"yaml nested", "user:\n  name: ann\n", "", map[string]any{"user": map[string]any{"name": "ann"}}, false},
		{"file wins over doc", `{"user": "ignored"}`, filepath.Join(dir, "data.json"), map[string]any{"user": "Alice"}, false},
		{"sequence", "- a\n- b", "", nil, true},
		{"missing file", "", filepath.Join(dir, "nope.json"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := loadData(tt.doc, tt.file)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data)
		})
	}
}
