package main

import (
	"flag"
	"fmt"
	"io"
)

// compileConfig holds parsed compile command configuration
type compileConfig struct {
	templatePath string
	engine       engineFlags
}

func runCompile(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCompileFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	engine, err := cfg.engine.newEngine(nil, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeUsageError
	}

	tmpl, err := engine.Compile(string(source))
	if err != nil {
		printError(stderr, ErrMsgCompileFailed, err)
		return ExitCodeValidationError
	}
	printDiagnostics(stderr, tmpl.Diagnostics())

	if _, err := io.WriteString(stdout, tmpl.Program()); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseCompileFlags(args []string) (*compileConfig, error) {
	fs := flag.NewFlagSet(CmdNameCompile, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &compileConfig{}
	fs.StringVar(&cfg.templatePath, FlagTemplate, FlagDefaultTemplate, "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, FlagDefaultTemplate, "")
	cfg.engine.register(fs, false)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf(FmtWrapped, ErrMsgUnexpectedArguments, fs.Args())
	}
	if err := cfg.engine.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
