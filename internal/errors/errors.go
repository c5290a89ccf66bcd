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

// Package errors implements the error taxonomy from spec §7: Io, Parse,
// Config, CacheCorrupted (always recovered silently upstream, never
// constructed as fatal here), and Internal (a violated invariant — a bug,
// not a user error). Fatal kinds propagate to FatalError, which prints one
// structured message and exits the process with code 2.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies a UserError for rendering and exit-code purposes.
type Kind string

const (
	KindIO       Kind = "io"
	KindParse    Kind = "parse"
	KindConfig   Kind = "config"
	KindInternal Kind = "internal"
)

// UserError is a fatal, user-facing error: a short Title, a longer Detail,
// an actionable Hint, and the underlying Cause (if any).
type UserError struct {
	Kind   Kind
	Title  string
	Detail string
	Hint   string
	Cause  error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *UserError) Unwrap() error { return e.Cause }

// NewConfigError builds a Config-kind UserError, matching the error shape
// spec §7 requires for malformed configuration: fatal, identified by path.
func NewConfigError(title, detail, hint string, cause error) *UserError {
	return &UserError{Kind: KindConfig, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewParseError builds a Parse-kind UserError for a source file the AST
// provider rejected, identified by path and position per spec §4.1's
// failure semantics.
func NewParseError(path string, line, col int, cause error) *UserError {
	return &UserError{
		Kind:   KindParse,
		Title:  "Failed to parse source file",
		Detail: fmt.Sprintf("%s:%d:%d", path, line, col),
		Hint:   "Fix the syntax error and re-run, or exclude the file via exclude_files",
		Cause:  cause,
	}
}

// NewIOError builds an Io-kind UserError.
func NewIOError(title, detail string, cause error) *UserError {
	return &UserError{Kind: KindIO, Title: title, Detail: detail, Cause: cause}
}

// NewInternalError builds an Internal-kind UserError for a violated
// invariant. Callers should treat this as a bug report, not a recoverable
// condition.
func NewInternalError(detail string, cause error) *UserError {
	return &UserError{Kind: KindInternal, Title: "Internal invariant violated", Detail: detail, Cause: cause}
}

// ExitCode maps a UserError's Kind to the process exit code spec §6 defines:
// fatal parse/config/io/internal errors all exit 2.
func (e *UserError) ExitCode() int { return 2 }

// FatalError prints err (as JSON if asJSON, else as plain text) to
// stderr and exits the process. Only UserError carries a clean exit code and
// message; any other error is wrapped as an internal error first.
func FatalError(err error, asJSON bool) {
	ue, ok := err.(*UserError)
	if !ok {
		ue = NewInternalError(err.Error(), err)
	}

	if asJSON {
		payload := map[string]any{
			"error": map[string]any{
				"kind":   ue.Kind,
				"title":  ue.Title,
				"detail": ue.Detail,
			},
		}
		if ue.Hint != "" {
			payload["error"].(map[string]any)["hint"] = ue.Hint
		}
		enc, _ := json.Marshal(payload)
		fmt.Fprintln(os.Stderr, string(enc))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ue.Error())
		if ue.Hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", ue.Hint)
		}
	}
	os.Exit(ue.ExitCode())
}
