package main

import (
	"fmt"
	"io"
)

// runHelp prints the overview, or the usage of the named command
func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}

	name := args[0]
	if name == CmdNameHelp {
		fmt.Fprintln(stdout, HelpHelpUsage)
		return ExitCodeSuccess
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, name)
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeUsageError
	}
	fmt.Fprintln(stdout, cmd.usage)
	return ExitCodeSuccess
}
