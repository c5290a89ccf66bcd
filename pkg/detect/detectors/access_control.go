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

var assertOwnerCallNames = []string{"assert_owner", "is_owner", "assert_admin", "only_owner"}

// AccessControlDetector flags execute-entry-point handlers that mutate
// state without first running one of the recognized authorization idioms
// (spec §4.5).
type AccessControlDetector struct{}

func NewAccessControlDetector() *AccessControlDetector { return &AccessControlDetector{} }

func (d *AccessControlDetector) Name() string { return "missing-access-control" }
func (d *AccessControlDetector) Description() string {
	return "flags execute handlers that mutate state without a recognized owner/admin check"
}
func (d *AccessControlDetector) Severity() finding.Severity     { return finding.High }
func (d *AccessControlDetector) Confidence() finding.Confidence { return finding.ConfMedium }

func (d *AccessControlDetector) Detect(ctx *detect.Context) []finding.Finding {
	var out []finding.Finding
	reported := make(map[string]bool)

	for _, ep := range ctx.Contract.EntryPoints(contract.Execute) {
		for _, h := range collectHandlers(ep, ctx) {
			if reported[h.QualifiedName] {
				continue
			}
			hIr := ctx.Ir.Functions[h.QualifiedName]
			if hIr == nil || h.AST == nil || hIr.Cfg == nil {
				continue
			}
			mutation := firstUnguardedMutation(ctx, hIr)
			if mutation == nil {
				continue
			}
			reported[h.QualifiedName] = true
			out = append(out, finding.Finding{
				Title:       fmt.Sprintf("%s mutates state without a recognized access-control check", h.Name),
				Description: fmt.Sprintf("%s stores or sends but no info.sender/owner comparison, ensure!/ensure_eq! guard, or assert_owner-family call dominates the mutation", h.QualifiedName),
				Severity:    finding.High,
				Confidence:  finding.ConfMedium,
				Location:    ctx.LocationOf(h.Span),
				Snippet:     ctx.Snippet(h.Span),
				FixSuggestion: &finding.FixSuggestion{
					ReplacementText: "ensure_eq!(info.sender, OWNER.load(deps.storage)?, ContractError::Unauthorized {});",
					Location:        ctx.LocationOf(mutation.Span),
				},
			})
		}
	}
	return out
}

// collectHandlers returns ep plus every function in the crate that ep's IR
// calls by name (spec §4.5 step 2: dispatch other than a top-level match is
// treated conservatively as "may reach any handler named in the crate" —
// here approximated by resolving every direct Call's callee name against
// the crate's function table, regardless of how ep actually dispatches).
func collectHandlers(ep *contract.Function, ctx *detect.Context) []*contract.Function {
	handlers := []*contract.Function{ep}
	fnIr := ctx.Ir.Functions[ep.QualifiedName]
	if fnIr == nil {
		return handlers
	}

	called := make(map[string]bool)
	fnIr.Cfg.Walk(func(blk *ir.BasicBlock) {
		for _, instr := range blk.Instructions {
			if instr.Op != ir.OpCall || instr.Callee == "" || instr.Callee == "__unknown" {
				continue
			}
			called[lastPathSegment(instr.Callee)] = true
		}
	})

	for _, fn := range ctx.Contract.Functions {
		if fn.QualifiedName == ep.QualifiedName {
			continue
		}
		if called[fn.Name] {
			handlers = append(handlers, fn)
		}
	}
	return handlers
}

func lastPathSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

// firstUnguardedMutation returns the first StorageStore/Send instruction
// (in Cfg.Order, then in-block order) for which no recognized authorization
// idiom dominates it in the control-flow graph, or nil if every mutation is
// guarded. "Dominates" means: the idiom either appears earlier in the same
// block, or appears in a block that control-flow necessarily passes through
// on every path from the function's entry to the mutating block (spec
// §4.5's "every path to a StorageStore/Send passes through a recognized
// authorization idiom").
func firstUnguardedMutation(ctx *detect.Context, fnIr *ir.FunctionIr) *ir.Instruction {
	cfg := fnIr.Cfg
	dom := dominatorsOf(cfg)

	idiomBlocks := make(map[int]bool, len(cfg.Order))
	cfg.Walk(func(blk *ir.BasicBlock) {
		if blockHasAuthorizationIdiom(ctx, blk, len(blk.Instructions)) {
			idiomBlocks[blk.ID] = true
		}
	})

	var found *ir.Instruction
	cfg.Walk(func(blk *ir.BasicBlock) {
		if found != nil {
			return
		}
		for idx, instr := range blk.Instructions {
			if instr.Op != ir.OpStorageStore && instr.Op != ir.OpSend {
				continue
			}
			if mutationIsGuarded(ctx, blk, idx, dom[blk.ID], idiomBlocks) {
				continue
			}
			found = instr
			return
		}
	})
	return found
}

// mutationIsGuarded checks the same-block prefix up to (not including) idx
// for an idiom, then checks every strict dominator block in full.
func mutationIsGuarded(ctx *detect.Context, blk *ir.BasicBlock, idx int, blockDominators map[int]bool, idiomBlocks map[int]bool) bool {
	if blockHasAuthorizationIdiom(ctx, blk, idx) {
		return true
	}
	for domID := range blockDominators {
		if domID == blk.ID {
			continue
		}
		if idiomBlocks[domID] {
			return true
		}
	}
	return false
}

// blockHasAuthorizationIdiom reports whether the first `limit` instructions
// of blk (text-concatenated via their source spans) contain a recognized
// authorization idiom. raw_asts/source snippets are used rather than IR
// def-use chains here because the idioms themselves are syntactic (spec
// §4.3 exists precisely for pattern-level matches like this one).
func blockHasAuthorizationIdiom(ctx *detect.Context, blk *ir.BasicBlock, limit int) bool {
	var text strings.Builder
	for i, instr := range blk.Instructions {
		if i >= limit {
			break
		}
		text.WriteString(ctx.Snippet(instr.Span))
		text.WriteByte('\n')
	}
	return hasAuthorizationIdiom(text.String())
}

// hasAuthorizationIdiom implements spec §4.5's recognized-idiom allowlist
// textually, since raw_asts exists precisely for pattern-level checks like
// this one (spec §4.3) rather than ones IR def-use chains can express well.
func hasAuthorizationIdiom(text string) bool {
	lower := strings.ToLower(text)

	if strings.Contains(text, "Ownable::") {
		return true
	}
	for _, name := range assertOwnerCallNames {
		if strings.Contains(text, name) {
			return true
		}
	}
	mentionsSender := strings.Contains(lower, "sender")
	mentionsOwnerOrAdmin := strings.Contains(lower, "owner") || strings.Contains(lower, "admin")
	if !mentionsSender || !mentionsOwnerOrAdmin {
		return false
	}
	if strings.Contains(lower, "ensure_eq!") || strings.Contains(lower, "ensure!") {
		return true
	}
	// Any remaining co-occurrence of sender with owner/admin is treated as a
	// (possibly hand-rolled) comparison idiom — spec §4.5's first allowlist
	// entry, "any comparison involving info.sender against ... owner/admin".
	return true
}

// dominatorsOf computes, for every block in cfg, the set of block IDs
// (including itself) that dominate it, via the standard iterative dataflow
// fixpoint (Cfg.Order need not be a reverse-postorder for correctness, only
// for fewer iterations to converge).
func dominatorsOf(cfg *ir.Cfg) map[int]map[int]bool {
	all := make(map[int]bool, len(cfg.Order))
	for _, id := range cfg.Order {
		all[id] = true
	}

	dom := make(map[int]map[int]bool, len(cfg.Order))
	for _, id := range cfg.Order {
		if id == cfg.Entry {
			dom[id] = map[int]bool{id: true}
			continue
		}
		set := make(map[int]bool, len(all))
		for k := range all {
			set[k] = true
		}
		dom[id] = set
	}

	for changed := true; changed; {
		changed = false
		for _, id := range cfg.Order {
			if id == cfg.Entry {
				continue
			}
			blk := cfg.Blocks[id]
			var inter map[int]bool
			for _, predID := range blk.Preds {
				predDom, ok := dom[predID]
				if !ok {
					continue
				}
				if inter == nil {
					inter = make(map[int]bool, len(predDom))
					for k := range predDom {
						inter[k] = true
					}
					continue
				}
				for k := range inter {
					if !predDom[k] {
						delete(inter, k)
					}
				}
			}
			if inter == nil {
				inter = make(map[int]bool)
			}
			inter[id] = true
			if !domSetsEqual(inter, dom[id]) {
				dom[id] = inter
				changed = true
			}
		}
	}
	return dom
}

func domSetsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
