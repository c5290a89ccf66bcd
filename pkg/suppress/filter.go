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
	"path/filepath"

	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

// SourceLineLookup resolves a file path to its source lines, for inline
// suppression comment lookups. Implemented by the caller (typically backed
// by the same source map the render/detect stages use).
type SourceLineLookup func(file string, line int) string

// Filter applies the post-detection filters of spec §4.8's table
// (exclude_files, min_severity, min_confidence) and inline suppression
// comments, in that order. audit_mode's effect on min_confidence is already
// baked into rc by Resolve.
func Filter(findings []finding.Finding, rc *ResolvedConfig, lineAt SourceLineLookup) []finding.Finding {
	out := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		if matchesAnyGlob(f.Location.File, rc.ExcludeFiles) {
			continue
		}
		if f.Severity < rc.MinSeverity {
			continue
		}
		if f.Confidence < rc.MinConfidence {
			continue
		}
		if lineAt != nil && isInlineSuppressed(f, lineAt) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func matchesAnyGlob(file string, globs []string) bool {
	for _, g := range globs {
		if globMatch(g, file) {
			return true
		}
	}
	return false
}

// globMatch supports "*", "?", and a trailing "/**" (matching any path
// beneath a prefix) — the glob vocabulary spec §4.8 expects for
// exclude_files. filepath.Match alone doesn't cross path separators, hence
// the "/**" special case.
func globMatch(pattern, name string) bool {
	const doubleStarSuffix = "/**"
	if len(pattern) > len(doubleStarSuffix) && pattern[len(pattern)-len(doubleStarSuffix):] == doubleStarSuffix {
		prefix := pattern[:len(pattern)-len(doubleStarSuffix)]
		return len(name) > len(prefix) && name[:len(prefix)+1] == prefix+"/"
	}
	if ok, err := filepath.Match(pattern, name); err == nil && ok {
		return true
	}
	if ok, err := filepath.Match(pattern, filepath.Base(name)); err == nil && ok {
		return true
	}
	return false
}
