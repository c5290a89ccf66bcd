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
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
)

const defaultConfigTemplate = `# cosmwasm-guard configuration
# See: cosmwasm-guard --json config for the resolved view of this file.

[detectors]
# enable = ["missing-addr-validate"]
# disable = ["unbounded-iteration"]

exclude_files = []
min_severity = "low"
min_confidence = "low"
audit_mode = false
`

func runInit(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing configuration file")
	_ = fs.Parse(args)

	path := configFileName
	if fs.NArg() > 0 {
		path = filepath.Join(fs.Arg(0), configFileName)
	}

	if !*force {
		if _, err := os.Stat(path); err == nil {
			errors.FatalError(errors.NewIOError(
				"Configuration file already exists",
				path,
				fmt.Errorf("use --force to overwrite"),
			), globals.JSON)
			return 2
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		errors.FatalError(errors.NewIOError("failed to write configuration file", path, err), globals.JSON)
		return 2
	}

	if !globals.Quiet {
		fmt.Printf("Wrote %s\n", path)
	}
	return 0
}
