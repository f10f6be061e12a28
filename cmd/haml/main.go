package main

import (
	"io"
	"os"
)

// commandFunc runs one subcommand and returns its exit code
type commandFunc func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

// command pairs a subcommand with its help text
type command struct {
	run   commandFunc
	usage string
}

// commands lists the dispatchable subcommands. help is handled by run.
var commands = map[string]command{
	CmdNameRender:   {runRender, HelpRenderUsage},
	CmdNameCompile:  {runCompile, HelpCompileUsage},
	CmdNameValidate: {runValidate, HelpValidateUsage},
	CmdNameVersion:  {runVersion, HelpVersionUsage},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches args[0] to a subcommand. Unknown commands print help
// and fail with a usage error.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return runHelp(nil, stdout)
	}
	if args[0] == CmdNameHelp {
		return runHelp(args[1:], stdout)
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd.run(args[1:], stdin, stdout, stderr)
	}
	return runHelp(args[:1], stdout)
}
