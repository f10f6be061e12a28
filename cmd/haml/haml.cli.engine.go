package main

import (
	"errors"
	"flag"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-haml"
)

// engineFlags are the engine options shared by render and compile
type engineFlags struct {
	format     string
	escape     bool
	importPath string
	storage    string
	dsn        string
	debug      bool
}

// register binds the markup flags; withStorage adds the import and debug flags
func (f *engineFlags) register(fs *flag.FlagSet, withStorage bool) {
	fs.StringVar(&f.format, FlagFormat, FlagDefaultMarkupFormat, "")
	fs.StringVar(&f.format, FlagFormatShort, FlagDefaultMarkupFormat, "")
	fs.BoolVar(&f.escape, FlagEscape, false, "")
	fs.BoolVar(&f.escape, FlagEscapeShort, false, "")
	if !withStorage {
		return
	}
	fs.StringVar(&f.importPath, FlagImportPath, "", "")
	fs.StringVar(&f.importPath, FlagImportPathShort, "", "")
	fs.StringVar(&f.storage, FlagStorage, "", "")
	fs.StringVar(&f.dsn, FlagDSN, "", "")
	fs.BoolVar(&f.debug, FlagDebug, false, "")
}

// validate checks flag combinations after parsing
func (f *engineFlags) validate() error {
	if _, err := haml.ParseFormat(f.format); err != nil {
		return err
	}
	if f.importPath != "" && f.storage != "" {
		return errors.New(ErrMsgStorageConflict)
	}
	return nil
}

// openStorage returns the import storage selected by the flags, or nil.
// A template directory is wrapped in a read cache.
func (f *engineFlags) openStorage() (haml.TemplateStorage, error) {
	switch {
	case f.importPath != "":
		storage, err := haml.NewFilesystemStorage(f.importPath)
		if err != nil {
			return nil, err
		}
		return haml.NewCachedStorage(storage, haml.DefaultCacheConfig()), nil
	case f.storage != "":
		return haml.OpenStorage(f.storage, f.dsn)
	}
	return nil, nil
}

// newEngine builds an engine from the flags on top of storage, which may be nil
func (f *engineFlags) newEngine(storage haml.TemplateStorage, stderr io.Writer) (*haml.Engine, error) {
	format, err := haml.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}

	opts := []haml.Option{
		haml.WithFormat(format),
		haml.WithEscape(f.escape),
	}
	if storage != nil {
		opts = append(opts, haml.WithStorage(storage))
	}
	if f.debug {
		opts = append(opts, haml.WithDebug(true), haml.WithLogger(newDebugLogger(stderr)))
	}
	return haml.New(opts...)
}

// newDebugLogger writes development-formatted logs to w
func newDebugLogger(w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
