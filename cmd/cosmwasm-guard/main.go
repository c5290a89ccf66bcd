// Copyright 2026 The cosmwasm-guard Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the cosmwasm-guard CLI: a thin front end (out of
// scope per spec §1) that discovers, caches, extracts, lowers, detects, and
// renders — nothing more.
//
// Usage:
//
//	cosmwasm-guard scan [path]     Analyze a CosmWasm crate
//	cosmwasm-guard init            Write a default .cosmwasm-guard.toml
//	cosmwasm-guard config          Show resolved configuration
//	cosmwasm-guard version         Print version information
package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cosmwasm-guard/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags every subcommand inherits.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Debug   bool
	Quiet   bool
}

func newLogger(g GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if g.Debug {
		level = slog.LevelDebug
	}
	if g.JSON || g.Quiet {
		// JSON output mode implies quiet: log lines would corrupt machine
		// output sharing stdout, so route logs to a no-op handler instead
		// of interleaving them with the JSON/SARIF payload.
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output findings as JSON")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cosmwasm-guard - static analysis for CosmWasm smart contracts

cosmwasm-guard parses a CosmWasm/Rust contract crate, lowers it to an
intermediate representation, and runs a registry of detectors over it to
find missing address validation, missing access control, and unbounded
storage iteration.

Usage:
  cosmwasm-guard <command> [options]

Commands:
  scan     Analyze a crate and report findings
  init     Write a default .cosmwasm-guard.toml
  config   Show the resolved configuration
  version  Print version information

Global Options:
  --json         Output findings as JSON instead of colored text
  --no-color     Disable color output (respects NO_COLOR env var)
  --debug        Enable debug logging
  -q, --quiet    Suppress non-essential output
  -V, --version  Show version and exit

Examples:
  cosmwasm-guard scan .
  cosmwasm-guard scan . --sarif
  cosmwasm-guard --json scan . --min-severity high
  cosmwasm-guard init

For detailed command help: cosmwasm-guard <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cosmwasm-guard version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Debug: *debug, Quiet: *quiet}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]
	logger := newLogger(globals)

	switch command {
	case "scan":
		os.Exit(runScan(cmdArgs, globals, logger))
	case "init":
		os.Exit(runInit(cmdArgs, globals))
	case "config":
		os.Exit(runConfig(cmdArgs, globals))
	case "version":
		fmt.Printf("cosmwasm-guard version %s\n", version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
}
