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

// Package typesig normalizes Rust type-expression text into a comparable
// form. Adapted from the Go function-signature parser used elsewhere in
// this family of tools (bracket matching, top-level comma splitting) but
// retargeted at Rust syntax: '&'/'&mut' references, angle-bracket generics,
// and '::' path separators, rather than Go's '*'/'[]'/'.'
package typesig

import "strings"

// Normalize strips reference sigils and whitespace from a Rust type
// expression, leaving a path plus its generic arguments intact, e.g.:
//
//	"&str"              -> "str"
//	"&mut DepsMut"       -> "DepsMut"
//	"Addr"               -> "Addr"
//	"cosmwasm_std::Addr" -> "cosmwasm_std::Addr"
//	"Option<String>"     -> "Option<String>"
//	"Into<String>"       -> "Into<String>"
func Normalize(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "&")
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "mut")
	t = strings.TrimSpace(t)
	// Strip a single level of parens from tuple-wrapped single types,
	// e.g. "(String)" -> "String". Leaves real tuples like "(A, B)" alone.
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		inner := t[1 : len(t)-1]
		if len(splitTopLevel(inner, ',')) == 1 {
			t = strings.TrimSpace(inner)
		}
	}
	return t
}

// BaseName returns the unqualified, un-generic-ed name of a normalized type:
//
//	"cosmwasm_std::Addr" -> "Addr"
//	"Option<String>"     -> "Option"
//	"String"             -> "String"
func BaseName(normalized string) string {
	base := normalized
	if i := strings.IndexByte(base, '<'); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndex(base, "::"); i >= 0 {
		base = base[i+2:]
	}
	return strings.TrimSpace(base)
}

// GenericArgs returns the comma-separated top-level type arguments of a
// normalized generic type, e.g. "Option<String>" -> ["String"],
// "Map<&str, u64>" -> ["&str", "u64"]. Returns nil if t has no generics.
func GenericArgs(normalized string) []string {
	start := strings.IndexByte(normalized, '<')
	if start < 0 || !strings.HasSuffix(normalized, ">") {
		return nil
	}
	inner := normalized[start+1 : len(normalized)-1]
	parts := splitTopLevel(inner, ',')
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// EndsWithSuffix reports whether the normalized type's base path ends in
// suffix after the last "::", matching spec §4.1's "textually ends with"
// entry-point heuristic (e.g. both "DepsMut" and "cosmwasm_std::DepsMut"
// end with "DepsMut").
func EndsWithSuffix(normalized, suffix string) bool {
	return BaseName(normalized) == suffix
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// <...>, (...), or [...].
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
