package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/itsatony/go-haml"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	dataDoc      string
	dataFilePath string
	outputPath   string
	engine       engineFlags
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	data, err := loadData(cfg.dataDoc, cfg.dataFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidData, err)
		return ExitCodeInputError
	}

	storage, err := cfg.engine.openStorage()
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStorageFailed, err)
		return ExitCodeInputError
	}
	if storage != nil {
		defer storage.Close()
	}

	engine, err := cfg.engine.newEngine(storage, stderr)
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

	result, err := tmpl.Execute(context.Background(), data)
	if err != nil {
		printError(stderr, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &renderConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, FlagDefaultTemplate, "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, FlagDefaultTemplate, "")
	fs.StringVar(&cfg.dataDoc, FlagData, "", "")
	fs.StringVar(&cfg.dataDoc, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	cfg.engine.register(fs, true)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf(FmtWrapped, ErrMsgUnexpectedArguments, fs.Args())
	}
	if err := cfg.engine.validate(); err != nil {
		return nil, err
	}
	// imports resolve next to a template file unless a source was chosen
	if cfg.templatePath != InputSourceStdin && cfg.engine.importPath == "" && cfg.engine.storage == "" {
		cfg.engine.importPath = filepath.Dir(cfg.templatePath)
	}

	return cfg, nil
}

// printError writes err to w, with its source position when known
func printError(w io.Writer, msg string, err error) {
	if pos, ok := haml.ErrorPosition(err); ok {
		fmt.Fprintf(w, FmtErrorAtPosition, msg, err, pos)
		return
	}
	fmt.Fprintf(w, FmtErrorWithCause, msg, err)
}

func printDiagnostics(w io.Writer, diags []haml.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, FmtDiagnostic, d.Message, d.Char, d.Line, d.Column)
	}
}
