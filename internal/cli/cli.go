// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing for aurora.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdStatus:
		return "status"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "tui"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// ConfigPath overrides the config file location.
	ConfigPath string
	// Email pre-fills the login prompt or form.
	Email string
	// JSON switches status and login output to JSON.
	JSON bool
	// Ephemeral keeps credentials in memory for this process only.
	Ephemeral bool

	// Raw args remaining after the command word.
	Raw []string
}

const usageText = `aurora - terminal client for the Aurora record service

Usage:
  aurora                     Start the TUI (default)
  aurora login [--email E]   Sign in from the command line
  aurora logout              Remove stored credentials
  aurora status, s           Check whether the stored session is usable
  aurora version             Show version information

Flags:
`

// newFlagSet binds the global flags to args.
func newFlagSet(args *Args) *pflag.FlagSet {
	fs := pflag.NewFlagSet("aurora", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&args.ConfigPath, "config", "", "path to config.toml or config.json")
	fs.StringVarP(&args.Email, "email", "e", "", "email address to sign in with")
	fs.BoolVar(&args.JSON, "json", false, "print machine-readable JSON")
	fs.BoolVar(&args.Ephemeral, "ephemeral", false, "keep credentials in memory only")
	fs.BoolP("help", "h", false, "show help")
	fs.BoolP("version", "v", false, "show version")
	return fs
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args, error) {
	var args Args
	fs := newFlagSet(&args)
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return CmdHelp, args, nil
		}
		return CmdHelp, args, &UsageError{Msg: err.Error()}
	}

	if help, _ := fs.GetBool("help"); help {
		return CmdHelp, args, nil
	}
	if version, _ := fs.GetBool("version"); version {
		return CmdVersion, args, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return CmdTUI, args, nil
	}

	word := strings.ToLower(rest[0])
	args.Raw = rest[1:]

	var cmd Command
	switch word {
	case "tui":
		cmd = CmdTUI
	case "login", "signin":
		cmd = CmdLogin
	case "logout", "signout":
		cmd = CmdLogout
	case "status", "s":
		cmd = CmdStatus
	case "version":
		cmd = CmdVersion
	case "help":
		cmd = CmdHelp
	default:
		return CmdHelp, args, &UsageError{Msg: fmt.Sprintf("unknown command %q", rest[0])}
	}

	if len(args.Raw) > 0 && cmd != CmdHelp {
		return cmd, args, &UsageError{Msg: fmt.Sprintf("unexpected argument %q", args.Raw[0])}
	}
	return cmd, args, nil
}

// Usage writes the help text.
func Usage(w io.Writer) {
	var args Args
	fs := newFlagSet(&args)
	fmt.Fprint(w, usageText)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		}).Write(w)
	}
	fmt.Fprintf(w, "aurora %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	return nil
}
