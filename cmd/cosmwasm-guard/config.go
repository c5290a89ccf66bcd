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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/pkg/suppress"
)

func runConfig(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	_ = fs.Parse(args)

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		errors.FatalError(errors.NewIOError("failed to resolve crate root", root, err), globals.JSON)
		return 2
	}

	fileConfig, err := suppress.LoadFileConfig(filepath.Join(absRoot, configFileName))
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return 2
	}
	resolved, err := suppress.Resolve(fileConfig, suppress.CLIOverrides{})
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return 2
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return boolToExit(enc.Encode(resolved) == nil)
	}

	fmt.Printf("enable:         %v\n", resolved.Enable)
	fmt.Printf("disable:        %v\n", resolved.Disable)
	fmt.Printf("exclude_files:  %v\n", resolved.ExcludeFiles)
	fmt.Printf("min_severity:   %s\n", resolved.MinSeverity)
	fmt.Printf("min_confidence: %s\n", resolved.MinConfidence)
	fmt.Printf("audit_mode:     %v\n", resolved.AuditMode)
	return 0
}

func boolToExit(ok bool) int {
	if ok {
		return 0
	}
	return 2
}
