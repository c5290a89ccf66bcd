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

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/kraklabs/cosmwasm-guard/internal/ui"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

// WriteTerminal renders findings as colored human-readable text, per
// finding: severity tag, detector name, title, path:line:col, the source
// snippet, and the description (spec §6 "Output — human terminal").
// fileCount and elapsed feed the trailing summary line (spec §7 "exactly
// one summary line plus per-finding output").
func WriteTerminal(w io.Writer, findings []finding.Finding, fileCount int, elapsed time.Duration) {
	for _, f := range findings {
		fmt.Fprintf(w, "%s %s: %s\n", ui.SeverityTag(f.Severity.String()), ui.Bold(f.DetectorName), f.Title)
		fmt.Fprintf(w, "  %s\n", ui.Dim(fmt.Sprintf("%s:%d:%d", f.Location.File, f.Location.StartLine, f.Location.StartCol)))
		if f.Snippet != "" {
			fmt.Fprintf(w, "  %s\n", f.Snippet)
		}
		fmt.Fprintf(w, "  %s\n\n", f.Description)
	}
	fmt.Fprintln(w, SummaryLine(findings, fileCount, elapsed))
}

// SummaryLine renders the one mandatory trailing summary (spec §7):
// "N findings (H high, M medium, L low, I info) across F files in T".
func SummaryLine(findings []finding.Finding, fileCount int, elapsed time.Duration) string {
	var high, med, low, info int
	for _, f := range findings {
		switch f.Severity {
		case finding.High:
			high++
		case finding.Medium:
			med++
		case finding.Low:
			low++
		default:
			info++
		}
	}
	return fmt.Sprintf("%d findings (%d high, %d medium, %d low, %d info) across %d files in %s",
		len(findings), high, med, low, info, fileCount, elapsed.Round(time.Millisecond))
}
