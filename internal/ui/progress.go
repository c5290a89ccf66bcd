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

package ui

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// NewScanProgressBar returns a progress bar over total source files, the
// same schollz/progressbar/v3 idiom cmd/cie/index.go uses for its
// parsing/embedding phases. A scan is single-phase, so one bar tracks the
// whole discover-extract-lower loop rather than swapping bars per phase.
//
// quiet suppresses the bar entirely (JSON/SARIF output and -q both route
// here) so it never corrupts machine-readable stdout.
func NewScanProgressBar(total int, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
