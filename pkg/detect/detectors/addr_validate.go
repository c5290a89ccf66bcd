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

// Package detectors holds the three MVP detectors of spec §4.4–§4.6.
package detectors

import (
	"fmt"
	"strings"

	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/detect"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
)

var addressNameTokens = []string{
	"addr", "address", "owner", "recipient", "admin", "sender",
	"receiver", "to", "from", "beneficiary", "operator",
}

var addressNameExclusions = []string{"timestamp", "block_hash"}

// looksLikeAddressName implements spec §4.4's address-name heuristic.
func looksLikeAddressName(name string) bool {
	lower := strings.ToLower(name)
	for _, excl := range addressNameExclusions {
		if lower == excl {
			return false
		}
	}
	if strings.HasSuffix(lower, "_id") {
		return false
	}
	for _, tok := range addressNameTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// isStringType implements spec §4.4's string-type heuristic.
func isStringType(t contract.TypeRef) bool {
	switch t.Normalized {
	case "String", "str":
		return true
	}
	if t.BaseName() == "Into" {
		for _, a := range t.Args {
			if a.Normalized == "String" {
				return true
			}
		}
	}
	return false
}

// AddrValidateDetector flags function parameters that look like addresses,
// are string-typed, and are never run through addr_validate before they
// could escape (spec §4.4).
type AddrValidateDetector struct{}

func NewAddrValidateDetector() *AddrValidateDetector { return &AddrValidateDetector{} }

func (d *AddrValidateDetector) Name() string        { return "missing-addr-validate" }
func (d *AddrValidateDetector) Description() string {
	return "flags string-typed address-like parameters that are never passed through addr_validate"
}
func (d *AddrValidateDetector) Severity() finding.Severity     { return finding.Medium }
func (d *AddrValidateDetector) Confidence() finding.Confidence { return finding.ConfMedium }

func (d *AddrValidateDetector) Detect(ctx *detect.Context) []finding.Finding {
	var out []finding.Finding
	for _, fn := range ctx.Contract.Functions {
		if fn.TestOnly {
			continue
		}
		fnIr := ctx.Ir.Functions[fn.QualifiedName]
		if fnIr == nil {
			continue
		}
		for _, p := range fn.Params {
			if !looksLikeAddressName(p.Name) || !isStringType(p.Type) {
				continue
			}
			entryVar, ok := fnIr.ParamVars[p.Name]
			if !ok {
				continue
			}
			if validatedBefore(fnIr, entryVar) {
				continue
			}
			out = append(out, finding.Finding{
				Title:       fmt.Sprintf("parameter %q looks like an address but is never validated", p.Name),
				Description: fmt.Sprintf("%q in %s is string-typed and named like an address, but no addr_validate call consumes it (directly or through clone/to_string) before the function returns", p.Name, fn.QualifiedName),
				Severity:    finding.Medium,
				Confidence:  finding.ConfMedium,
				Location:    ctx.LocationOf(fn.Span),
				Snippet:     ctx.Snippet(fn.Span),
			})
		}
	}
	return out
}

// validatedBefore computes the variable-equivalence class reachable from
// entryVar through single-step to_string/clone rebinds (spec §4.4's
// "walk forward ... through single-step data dependencies") and reports
// whether any member is ever consumed by an AddrValidate instruction.
func validatedBefore(fnIr *ir.FunctionIr, entryVar ir.SsaVar) bool {
	taint := map[int]bool{entryVar.ID: true}
	changed := true
	for changed {
		changed = false
		fnIr.Cfg.Walk(func(blk *ir.BasicBlock) {
			for _, instr := range blk.Instructions {
				if instr.Op != ir.OpMethodCall || len(instr.Operands) == 0 {
					continue
				}
				if instr.Callee != "to_string" && instr.Callee != "clone" && instr.Callee != "as_str" && instr.Callee != "into" {
					continue
				}
				if taint[instr.Operands[0].ID] && instr.Result.Valid() && !taint[instr.Result.ID] {
					taint[instr.Result.ID] = true
					changed = true
				}
			}
		})
	}

	validated := false
	fnIr.Cfg.Walk(func(blk *ir.BasicBlock) {
		for _, instr := range blk.Instructions {
			if instr.Op != ir.OpAddrValidate {
				continue
			}
			for _, op := range instr.Operands {
				if taint[op.ID] {
					validated = true
				}
			}
		}
	})
	return validated
}
