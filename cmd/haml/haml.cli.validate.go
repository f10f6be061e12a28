package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-haml"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	format       string
	strict       bool
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid        bool                    `json:"valid"`
	Instructions int                     `json:"instructions,omitempty"`
	Issues       []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind,omitempty"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	// the compile error is carried on the result
	engine := haml.MustNew()
	result, _ := engine.Validate(string(source))

	issues, errCount := collectIssues(result)
	valid := errCount == 0 && (!cfg.strict || !result.HasDiagnostics())

	if cfg.format == OutputFormatJSON {
		outputValidationJSON(result, issues, valid, stdout)
	} else {
		outputValidationText(issues, errCount, stdout)
	}

	if !valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, FlagDefaultTemplate, "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, FlagDefaultTemplate, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// collectIssues flattens the compile error and diagnostics into issues,
// errors first.
func collectIssues(result *haml.ValidationResult) ([]validationIssueOutput, int) {
	var issues []validationIssueOutput
	errCount := 0

	if result.Err != nil {
		pos, _ := haml.ErrorPosition(result.Err)
		issues = append(issues, validationIssueOutput{
			Severity: SeverityNameError,
			Kind:     haml.ErrorKind(result.Err),
			Message:  result.Err.Error(),
			Line:     pos.Line,
			Column:   pos.Column,
		})
		errCount++
	}

	for _, d := range result.Diagnostics {
		issues = append(issues, validationIssueOutput{
			Severity: SeverityNameWarning,
			Message:  fmt.Sprintf(FmtWrapped, d.Message, d.Char),
			Line:     d.Line,
			Column:   d.Column,
		})
	}
	return issues, errCount
}

func outputValidationText(issues []validationIssueOutput, errCount int, stdout io.Writer) {
	if len(issues) == 0 {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return
	}

	fmt.Fprintln(stdout, ValidationTextIssueHeader)
	for _, issue := range issues {
		fmt.Fprintf(stdout, ValidationTextIssueFormat+FmtNewline,
			issue.Severity, issue.Message, issue.Line, issue.Column)
	}
	fmt.Fprintf(stdout, ValidationTextSummary+FmtNewline, errCount, len(issues)-errCount)
}

func outputValidationJSON(result *haml.ValidationResult, issues []validationIssueOutput, valid bool, stdout io.Writer) {
	output := validationOutput{
		Valid:        valid,
		Instructions: result.Instructions,
		Issues:       issues,
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))
}
