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

// Package ui renders the human-terminal output described in spec §6: a
// colored [SEVERITY] tag, the detector name and title, path:line:col, the
// source snippet, and the description.
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	severityColors = map[string]*color.Color{
		"high":          color.New(color.FgRed, color.Bold),
		"medium":        color.New(color.FgYellow, color.Bold),
		"low":           color.New(color.FgCyan),
		"informational": color.New(color.FgWhite),
	}
	dimColor  = color.New(color.Faint)
	boldColor = color.New(color.Bold)
)

// InitColors enables or disables color output globally. It is called once
// from main() after flags are parsed, mirroring cmd/cie's InitColors(noColor).
// Color is disabled automatically when stdout is not a terminal or NO_COLOR
// is set, even if noColor is false.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
		return
	}
	color.NoColor = false
}

// SeverityTag renders "[HIGH]" etc. in the severity's color.
func SeverityTag(severity string) string {
	c, ok := severityColors[severity]
	if !ok {
		c = color.New(color.Reset)
	}
	return c.Sprintf("[%s]", upper(severity))
}

// Dim renders muted text (used for snippet line numbers, file paths).
func Dim(s string) string { return dimColor.Sprint(s) }

// Bold renders emphasized text (used for detector titles).
func Bold(s string) string { return boldColor.Sprint(s) }

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
