package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fmueller/voxd/internal/cli"
	"github.com/fmueller/voxd/internal/config"
	"github.com/spf13/cobra"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "voxd:", err)
	switch {
	case shouldPrintUsageHint(err):
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", helpHintTarget(cmd, args))
		return exitUsage
	case errors.Is(err, config.ErrInvalid):
		fmt.Fprintf(stderr, "Settings come from flags, %s_* environment variables and --config; run '%s --help' to list them.\n", config.EnvPrefix, helpHintTarget(cmd, nil))
		return exitUsage
	default:
		return exitFailure
	}
}

func shouldPrintUsageHint(err error) bool {
	if err == nil {
		return false
	}

	message := strings.ToLower(strings.TrimSpace(err.Error()))
	for _, pattern := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"accepts ",
		"requires at least",
		"requires at most",
		"requires between",
		"required flag",
	} {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// helpHintTarget names the deepest command args resolve to.
func helpHintTarget(root *cobra.Command, args []string) string {
	if root == nil {
		return "voxd"
	}

	target := root.CommandPath()
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return target
	}

	if found, _, err := root.Find(args); err == nil && found != nil {
		return found.CommandPath()
	}
	return target
}
