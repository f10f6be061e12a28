package haml

import (
	"context"

	"go.uber.org/zap"

	"github.com/itsatony/go-haml/internal"
)

// Template is a compiled template that can be executed multiple times,
// concurrently, with different data.
type Template struct {
	source      string
	program     *internal.Program
	diagnostics []Diagnostic
	engine      *Engine
	empty       bool
}

// Diagnostic is a non-fatal finding recorded while compiling, such as an
// illegal character the lexer skipped.
type Diagnostic struct {
	Message string
	Char    string
	Line    int
	Column  int
}

// Execute renders the template with the given data. Engine globals are
// visible to the template; data shadows them.
func (t *Template) Execute(ctx context.Context, data map[string]any) (string, error) {
	if t.empty {
		return "", nil
	}

	e := t.engine
	e.logger.Debug(LogMsgRenderStart, zap.Int(LogFieldInstructions, t.program.Len()))

	rt := internal.NewRuntime(string(e.config.format))
	scope := internal.NewScope(t.bindings(data))
	if err := e.interp.Execute(ctx, t.program, rt, scope); err != nil {
		return "", NewRuntimeError(err)
	}

	out := rt.Result()
	e.logger.Debug(LogMsgRenderEnd, zap.Int(LogFieldOutputLength, len(out)))
	return out, nil
}

// bindings merges engine globals with render data
func (t *Template) bindings(data map[string]any) map[string]any {
	globals := t.engine.config.globals
	merged := make(map[string]any, len(globals)+len(data))
	for k, v := range globals {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}

// Source returns the normalized template source.
func (t *Template) Source() string {
	return t.source
}

// Program returns a readable listing of the compiled instructions.
func (t *Template) Program() string {
	if t.empty {
		return ""
	}
	return t.program.String()
}

// InstructionCount returns the number of compiled instructions.
func (t *Template) InstructionCount() int {
	if t.empty {
		return 0
	}
	return t.program.Len()
}

// Diagnostics returns the non-fatal findings recorded while compiling.
func (t *Template) Diagnostics() []Diagnostic {
	return t.diagnostics
}

func toDiagnostics(lexErrs []*internal.LexError) []Diagnostic {
	if len(lexErrs) == 0 {
		return nil
	}
	diags := make([]Diagnostic, 0, len(lexErrs))
	for _, le := range lexErrs {
		diags = append(diags, Diagnostic{
			Message: le.Message,
			Char:    le.Char,
			Line:    le.Position.Line,
			Column:  le.Position.Column,
		})
	}
	return diags
}
