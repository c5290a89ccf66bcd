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

package detectors

import (
	"fmt"
	"strings"

	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/detect"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
)

// UnboundedIterationDetector flags Range results over storage containers
// that are never narrowed by a Take (spec §4.6).
type UnboundedIterationDetector struct{}

func NewUnboundedIterationDetector() *UnboundedIterationDetector {
	return &UnboundedIterationDetector{}
}

func (d *UnboundedIterationDetector) Name() string { return "unbounded-iteration" }
func (d *UnboundedIterationDetector) Description() string {
	return "flags storage range iteration with no take() limit, which can exhaust gas on large stores"
}
func (d *UnboundedIterationDetector) Severity() finding.Severity     { return finding.Medium }
func (d *UnboundedIterationDetector) Confidence() finding.Confidence { return finding.ConfMedium }

func (d *UnboundedIterationDetector) Detect(ctx *detect.Context) []finding.Finding {
	var out []finding.Finding
	for _, fn := range ctx.Contract.Functions {
		if fn.TestOnly {
			continue
		}
		fnIr := ctx.Ir.Functions[fn.QualifiedName]
		if fnIr == nil {
			continue
		}
		fnIr.Cfg.Walk(func(blk *ir.BasicBlock) {
			for _, instr := range blk.Instructions {
				if instr.Op != ir.OpRange {
					continue
				}
				if !looksLikeStorageContainer(ctx.Contract, instr.ReceiverType) {
					continue
				}
				if !instr.Result.Valid() {
					continue
				}
				if hasTakeConsumer(fnIr, instr.Result.ID) {
					continue
				}
				out = append(out, finding.Finding{
					Title:       fmt.Sprintf("unbounded range() iteration in %s", fn.Name),
					Description: fmt.Sprintf("%s calls .range() on %s with no .take(n) narrowing the result, so iteration cost grows with store size", fn.QualifiedName, instr.ReceiverType),
					Severity:    finding.Medium,
					Confidence:  finding.ConfMedium,
					Location:    ctx.LocationOf(instr.Span),
					Snippet:     ctx.Snippet(instr.Span),
					FixSuggestion: &finding.FixSuggestion{
						ReplacementText: ctx.Snippet(instr.Span) + ".take(30)",
						Location:        ctx.LocationOf(instr.Span),
					},
				})
			}
		})
	}
	return out
}

// looksLikeStorageContainer implements spec §4.6's "receiver's
// inferred/textual type references Map, IndexedMap, or SnapshotMap" check by
// resolving the receiver identifier to its declared const/static type (the
// same syntactic type-annotation lookup extractFunction already does for
// parameters — not type inference). Falls back to the crate's ALL_CAPS
// naming convention only when the receiver can't be resolved to a recorded
// declaration (e.g. a field access, a local alias, or a generic parameter).
func looksLikeStorageContainer(info *contract.ContractInfo, receiverType string) bool {
	name := receiverType
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if name == "" {
		return false
	}
	if typ, ok := info.StaticType(name); ok {
		switch typ.BaseName() {
		case "Map", "IndexedMap", "SnapshotMap":
			return true
		default:
			return false
		}
	}
	return looksAllCaps(name)
}

func looksAllCaps(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// hasTakeConsumer reports whether any direct use of rangeResultVar is a
// Take instruction (spec §4.6: "forward CFG walk ... first consuming
// operation", reused here as a def-use lookup over the already-built
// chains rather than a second manual walk).
func hasTakeConsumer(fnIr *ir.FunctionIr, rangeResultVar int) bool {
	for _, use := range fnIr.VarUses(rangeResultVar) {
		if use.Op == ir.OpTake {
			return true
		}
	}
	return false
}
