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

// Package detect implements the Analysis Context, Detector contract, and the
// sequential Detector Registry (spec §4.3, §4.7, §5).
package detect

import (
	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
	"github.com/kraklabs/cosmwasm-guard/pkg/suppress"
)

// SourceFile is one crate-relative source file's metadata, for Context's
// source_map (spec §4.3): resolving a span back to a path and its lines for
// snippet extraction.
type SourceFile struct {
	ID    int
	Path  string
	Lines []string
}

// RawAst pairs a parsed file's ID with its retained root node, for
// pattern-level matches not expressible over the IR (spec §4.3).
type RawAst struct {
	FileID int
	Root   *astmodel.Node
}

// Context is the read-only bundle every detector receives. Detectors must
// not mutate any field (spec §4.3: "pure functions of ctx").
type Context struct {
	Contract  *contract.ContractInfo
	Ir        *ir.ContractIr
	RawAsts   []RawAst
	SourceMap map[int]*SourceFile
	Config    *suppress.ResolvedConfig
}

// Snippet returns the whole source lines covering s (one line without a
// trailing newline, several lines each newline-terminated), or "" if the
// file or lines are unknown.
func (c *Context) Snippet(s astmodel.Span) string {
	sf, ok := c.SourceMap[s.FileID]
	if !ok {
		return ""
	}
	if s.Start.Line < 1 || s.Start.Line > len(sf.Lines) {
		return ""
	}
	if s.Start.Line == s.End.Line {
		return sf.Lines[s.Start.Line-1]
	}
	var out string
	for l := s.Start.Line; l <= s.End.Line && l <= len(sf.Lines); l++ {
		out += sf.Lines[l-1] + "\n"
	}
	return out
}

// LocationOf resolves a span to a finding.Location using SourceMap's paths.
func (c *Context) LocationOf(s astmodel.Span) finding.Location {
	path := ""
	if sf, ok := c.SourceMap[s.FileID]; ok {
		path = sf.Path
	}
	return finding.Location{
		File:      path,
		StartLine: s.Start.Line,
		StartCol:  s.Start.Col,
		EndLine:   s.End.Line,
		EndCol:    s.End.Col,
	}
}

// RawAstFor returns the retained root node for fileID, or nil.
func (c *Context) RawAstFor(fileID int) *astmodel.Node {
	for _, ra := range c.RawAsts {
		if ra.FileID == fileID {
			return ra.Root
		}
	}
	return nil
}
