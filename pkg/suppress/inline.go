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

package suppress

import (
	"strings"

	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

const ignoreMarker = "cosmwasm-guard-ignore:"

// isInlineSuppressed implements spec §4.8's inline suppression: a comment
// "cosmwasm-guard-ignore: <name>" (or "cosmwasm-guard-ignore: *") on the
// finding's own line, or the line immediately preceding it, drops the
// finding.
func isInlineSuppressed(f finding.Finding, lineAt SourceLineLookup) bool {
	for _, line := range []int{f.Location.StartLine, f.Location.StartLine - 1} {
		if line < 1 {
			continue
		}
		text := lineAt(f.Location.File, line)
		if names, ok := parseIgnoreComment(text); ok {
			if names["*"] || names[f.DetectorName] {
				return true
			}
		}
	}
	return false
}

// parseIgnoreComment extracts the detector-name set from one ignore
// comment, e.g. "// cosmwasm-guard-ignore: missing-access-control, missing-addr-validate".
func parseIgnoreComment(line string) (map[string]bool, bool) {
	idx := strings.Index(line, ignoreMarker)
	if idx < 0 {
		return nil, false
	}
	rest := line[idx+len(ignoreMarker):]
	names := make(map[string]bool)
	for _, part := range strings.Split(rest, ",") {
		name := strings.TrimSpace(part)
		if name == "*" {
			names["*"] = true
			continue
		}
		// Strip a trailing "*/" block-comment closer if present.
		name = strings.TrimSpace(strings.TrimSuffix(name, "*/"))
		if name == "" {
			continue
		}
		names[name] = true
	}
	return names, true
}
