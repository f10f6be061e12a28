package haml

import (
	"go.uber.org/zap"
)

// ValidationResult contains the results of template validation.
type ValidationResult struct {
	// Diagnostics are the non-fatal findings, in source order.
	Diagnostics []Diagnostic
	// Err is the compile error that stopped validation, or nil.
	Err error
	// Instructions is the size of the compiled program when Err is nil.
	Instructions int
}

// IsValid returns true if the template compiled.
func (r *ValidationResult) IsValid() bool {
	return r.Err == nil
}

// HasDiagnostics returns true if any non-fatal finding was recorded.
func (r *ValidationResult) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// IsClean returns true if the template compiled without diagnostics.
func (r *ValidationResult) IsClean() bool {
	return r.IsValid() && !r.HasDiagnostics()
}

// Validate compiles a template without executing it. The returned error is
// the compile error, also recorded on the result; diagnostics alone do not
// make a template invalid.
func (e *Engine) Validate(source string) (*ValidationResult, error) {
	result := &ValidationResult{}

	tmpl, err := e.Compile(source)
	if err != nil {
		result.Err = err
		return result, err
	}

	result.Diagnostics = tmpl.Diagnostics()
	result.Instructions = tmpl.InstructionCount()
	for _, d := range result.Diagnostics {
		e.logger.Warn(LogMsgDiagnosticFound,
			zap.String(LogFieldMessage, d.Message),
			zap.Int(LogFieldLine, d.Line),
			zap.Int(LogFieldColumn, d.Column))
	}
	return result, nil
}
