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

package ir

import (
	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
)

// builder lowers one function body to IR. Its field-name assumptions about
// expression nodes (receiver/name/arguments/condition/consequence/
// alternative/value/left/right/pattern) describe a grammar shape consistent
// with tree-sitter-rust; the AST Provider itself stays opaque per spec, so
// any provider producing this shape can be swapped in without touching the
// lowering rules below.
type builder struct {
	cfg     *Cfg
	current *BasicBlock
	nextVar int
	nextBlk int
	nextIns int
	scope   map[string]SsaVar
	defUse  map[int]*DefUseEntry

	breakStack    []int
	continueStack []int
}

func newBuilder() *builder {
	return &builder{
		cfg:    &Cfg{Blocks: make(map[int]*BasicBlock)},
		scope:  make(map[string]SsaVar),
		defUse: make(map[int]*DefUseEntry),
	}
}

// Build lowers fn's retained AST to a FunctionIr. A function with no
// retained body (declaration-only, or a parse gap) still gets a single
// empty-entry-block IR so downstream detectors can treat every function
// uniformly.
func Build(fn *contract.Function) *FunctionIr {
	b := newBuilder()
	entry := b.newBlock("entry")
	b.cfg.Entry = entry.ID
	b.current = entry

	paramVars := make(map[string]SsaVar, len(fn.Params))
	for _, p := range fn.Params {
		if p.Name == "" {
			continue
		}
		v := b.newVar(p.Name)
		b.emit(&Instruction{Op: OpConst, Result: v, Callee: "__param"})
		b.scope[p.Name] = v
		paramVars[p.Name] = v
	}

	if fn.AST != nil {
		if body := fn.AST.Child("body"); body != nil {
			b.lowerBlock(body)
		}
	}
	if !blockTerminated(b.current) {
		b.emit(&Instruction{Op: OpRet})
	}

	return &FunctionIr{Function: fn, Cfg: b.cfg, DefUse: b.defUse, ParamVars: paramVars}
}

// BuildContract lowers every function in info that retained an AST.
func BuildContract(info *contract.ContractInfo) *ContractIr {
	out := &ContractIr{Functions: make(map[string]*FunctionIr)}
	for _, fn := range info.Functions {
		if fn.AST == nil {
			continue
		}
		out.Functions[fn.QualifiedName] = Build(fn)
	}
	return out
}

func blockTerminated(blk *BasicBlock) bool {
	if len(blk.Instructions) == 0 {
		return false
	}
	switch blk.Instructions[len(blk.Instructions)-1].Op {
	case OpRet, OpBr, OpCondBr, OpMatch:
		return true
	default:
		return false
	}
}

func operandsOf(v SsaVar) []SsaVar {
	if v.Valid() {
		return []SsaVar{v}
	}
	return nil
}

func (b *builder) newBlock(label string) *BasicBlock {
	b.nextBlk++
	blk := &BasicBlock{ID: b.nextBlk, Label: label}
	b.cfg.Blocks[blk.ID] = blk
	b.cfg.Order = append(b.cfg.Order, blk.ID)
	return blk
}

func (b *builder) newVar(name string) SsaVar {
	b.nextVar++
	return SsaVar{ID: b.nextVar, Name: name}
}

func (b *builder) link(from, to int) {
	fb := b.cfg.Blocks[from]
	tb := b.cfg.Blocks[to]
	fb.Succs = append(fb.Succs, to)
	tb.Preds = append(tb.Preds, from)
}

func (b *builder) emit(instr *Instruction) *Instruction {
	b.nextIns++
	instr.ID = b.nextIns
	instr.Block = b.current.ID
	b.current.Instructions = append(b.current.Instructions, instr)

	if instr.Result.Valid() {
		b.defUse[instr.Result.ID] = &DefUseEntry{Def: instr}
	}
	for _, op := range instr.Operands {
		if !op.Valid() {
			continue
		}
		e := b.defUse[op.ID]
		if e == nil {
			e = &DefUseEntry{}
			b.defUse[op.ID] = e
		}
		e.Uses = append(e.Uses, instr)
	}
	return instr
}

// firstPositional returns the first child with no field name (a bare
// operand slot, as opposed to a named field like "condition").
func firstPositional(n *astmodel.Node) *astmodel.Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.FieldName == "" {
			return c
		}
	}
	if len(n.Children) > 0 {
		return n.Children[0]
	}
	return nil
}

func textOf(n *astmodel.Node) string {
	if n == nil {
		return ""
	}
	return n.Text
}

// lowerBlock lowers a block expression (spec §4.2: "yielded value becomes
// the last SsaVar of the block").
func (b *builder) lowerBlock(node *astmodel.Node) SsaVar {
	var result SsaVar
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		switch child.Kind {
		case "let_declaration":
			b.lowerLet(child)
		case "expression_statement":
			if inner := firstPositional(child); inner != nil {
				b.lowerExpr(inner)
			}
		case "line_comment", "block_comment", "attribute_item", "inner_attribute_item",
			"function_item", "struct_item", "enum_item", "mod_item", "impl_item", "use_declaration":
			continue
		default:
			v := b.lowerExpr(child)
			if last {
				result = v
			}
		}
	}
	return result
}

func (b *builder) lowerLet(node *astmodel.Node) {
	pattern := node.Child("pattern")
	value := node.Child("value")
	name := textOf(pattern)

	var v SsaVar
	if value != nil {
		v = b.lowerExpr(value)
	}
	if !v.Valid() {
		v = b.newVar(name)
		b.emit(&Instruction{Op: OpConst, Result: v, Span: node.Span})
	}
	if name != "" {
		b.scope[name] = v
	}
}

func (b *builder) lowerExpr(node *astmodel.Node) SsaVar {
	if node == nil {
		return SsaVar{}
	}

	switch node.Kind {
	case "identifier", "self", "self_parameter":
		if v, ok := b.scope[node.Text]; ok {
			return v
		}
		return SsaVar{}

	case "scoped_identifier", "scoped_type_identifier", "type_identifier", "generic_type":
		return SsaVar{}

	case "reference_expression", "parenthesized_expression", "unsafe_block", "try_expression":
		return b.lowerExpr(firstPositional(node))

	case "unary_expression":
		operand := b.lowerExpr(firstPositional(node))
		res := b.newVar("")
		b.emit(&Instruction{Op: OpUnOp, Result: res, Operands: operandsOf(operand), Span: node.Span})
		return res

	case "binary_expression":
		lv := b.lowerExpr(node.Child("left"))
		rv := b.lowerExpr(node.Child("right"))
		res := b.newVar("")
		var ops []SsaVar
		ops = append(ops, operandsOf(lv)...)
		ops = append(ops, operandsOf(rv)...)
		b.emit(&Instruction{Op: OpBinOp, Result: res, Operands: ops, Span: node.Span})
		return res

	case "assignment_expression", "compound_assignment_expr":
		left := node.Child("left")
		rv := b.lowerExpr(node.Child("right"))
		res := b.newVar("")
		b.emit(&Instruction{Op: OpStore, Result: res, Operands: operandsOf(rv), Span: node.Span})
		if left != nil && left.Kind == "identifier" {
			b.scope[left.Text] = res
		}
		return res

	case "field_expression":
		base := b.lowerExpr(node.Child("value"))
		field := textOf(node.Child("field"))
		res := b.newVar(field)
		b.emit(&Instruction{Op: OpLoad, Result: res, Operands: operandsOf(base), Callee: field, Span: node.Span})
		return res

	case "call_expression":
		return b.lowerCall(node)

	case "method_call_expression":
		return b.lowerMethodCall(node)

	case "macro_invocation":
		return b.lowerMacro(node)

	case "if_expression", "if_let_expression":
		return b.lowerIf(node)

	case "match_expression":
		return b.lowerMatch(node)

	case "block":
		return b.lowerBlock(node)

	case "return_expression":
		v := b.lowerExpr(firstPositional(node))
		b.emit(&Instruction{Op: OpRet, Operands: operandsOf(v), Span: node.Span})
		return SsaVar{}

	case "loop_expression", "while_expression", "for_expression":
		return b.lowerLoop(node)

	case "break_expression":
		if n := len(b.breakStack); n > 0 {
			tgt := b.breakStack[n-1]
			b.emit(&Instruction{Op: OpBr, Targets: []int{tgt}, Span: node.Span})
			b.link(b.current.ID, tgt)
			// Anything syntactically following a break in the same source
			// block is unreachable, but it still needs somewhere to land
			// that isn't past this block's terminator.
			b.current = b.newBlock("break.unreachable")
		}
		return SsaVar{}

	case "continue_expression":
		if n := len(b.continueStack); n > 0 {
			tgt := b.continueStack[n-1]
			b.emit(&Instruction{Op: OpBr, Targets: []int{tgt}, Span: node.Span})
			b.link(b.current.ID, tgt)
			b.current = b.newBlock("continue.unreachable")
		}
		return SsaVar{}

	case "integer_literal", "string_literal", "boolean_literal", "char_literal", "float_literal":
		res := b.newVar("")
		b.emit(&Instruction{Op: OpConst, Result: res, Callee: node.Text, Span: node.Span})
		return res

	case "struct_expression", "tuple_expression", "array_expression":
		var ops []SsaVar
		for _, c := range node.Children {
			if v := b.lowerExpr(c); v.Valid() {
				ops = append(ops, v)
			}
		}
		res := b.newVar("")
		b.emit(&Instruction{Op: OpConst, Result: res, Operands: ops, Span: node.Span})
		return res

	default:
		// Unsupported syntactic form: lower to an opaque placeholder rather
		// than abort (spec §4.2 error conditions), preserving the span.
		res := b.newVar("")
		b.emit(&Instruction{Op: OpCall, Result: res, Callee: "__unknown", Span: node.Span})
		return res
	}
}

func (b *builder) lowerCall(node *astmodel.Node) SsaVar {
	callee := textOf(node.Child("function"))
	var args []SsaVar
	if argsNode := node.Child("arguments"); argsNode != nil {
		for _, a := range argsNode.Children {
			if v := b.lowerExpr(a); v.Valid() {
				args = append(args, v)
			}
		}
	}
	res := b.newVar("")
	b.emit(&Instruction{Op: OpCall, Result: res, Operands: args, Callee: callee, Span: node.Span})
	return res
}

// lowerMethodCall recognizes the domain opcodes of spec §4.2's last bullet
// from the method's name: addr_validate, range-family calls, take, storage
// save/load verbs, and send.
func (b *builder) lowerMethodCall(node *astmodel.Node) SsaVar {
	receiverNode := node.Child("receiver")
	nameNode := node.Child("name")
	if nameNode == nil {
		nameNode = node.Child("method")
	}
	rv := b.lowerExpr(receiverNode)
	methodName := textOf(nameNode)

	var args []SsaVar
	if argsNode := node.Child("arguments"); argsNode != nil {
		for _, a := range argsNode.Children {
			if v := b.lowerExpr(a); v.Valid() {
				args = append(args, v)
			}
		}
	}

	operands := append(operandsOf(rv), args...)

	op := OpMethodCall
	switch methodName {
	case "addr_validate":
		op = OpAddrValidate
	case "range", "range_raw", "range_de", "prefix_range", "prefix", "keys", "values":
		op = OpRange
	case "take":
		op = OpTake
	case "send", "send_tokens":
		op = OpSend
	case "save", "update", "replace":
		op = OpStorageStore
	case "load", "may_load", "load_raw":
		op = OpStorageLoad
	}

	res := b.newVar("")
	b.emit(&Instruction{
		Op:           op,
		Result:       res,
		Operands:     operands,
		Callee:       methodName,
		ReceiverType: textOf(receiverNode),
		Span:         node.Span,
	})
	return res
}

func (b *builder) lowerMacro(node *astmodel.Node) SsaVar {
	name := textOf(node.Child("macro"))
	// Walk every argument for def-use completeness even though the access-
	// control detector matches macro arguments textually against raw_asts
	// (spec §4.3's raw_asts exists precisely for that pattern-level case).
	var ops []SsaVar
	if argsNode := node.Child("arguments"); argsNode != nil {
		for _, a := range argsNode.Children {
			if v := b.lowerExpr(a); v.Valid() {
				ops = append(ops, v)
			}
		}
	}
	res := b.newVar("")
	b.emit(&Instruction{Op: OpCall, Result: res, Operands: ops, Callee: name + "!", Span: node.Span})
	return res
}

func (b *builder) lowerIf(node *astmodel.Node) SsaVar {
	condVar := b.lowerExpr(node.Child("condition"))
	condBlockID := b.current.ID

	thenBlk := b.newBlock("if.then")
	elseBlk := b.newBlock("if.else")
	joinBlk := b.newBlock("if.join")

	b.emit(&Instruction{Op: OpCondBr, Operands: operandsOf(condVar), Targets: []int{thenBlk.ID, elseBlk.ID}, Span: node.Span})
	b.link(condBlockID, thenBlk.ID)
	b.link(condBlockID, elseBlk.ID)

	b.current = thenBlk
	thenVal := b.lowerExpr(node.Child("consequence"))
	thenEnd := b.current.ID
	if !blockTerminated(b.current) {
		b.emit(&Instruction{Op: OpBr, Targets: []int{joinBlk.ID}})
		b.link(thenEnd, joinBlk.ID)
	}

	b.current = elseBlk
	var elseVal SsaVar
	if alt := node.Child("alternative"); alt != nil {
		elseVal = b.lowerExpr(alt)
	}
	elseEnd := b.current.ID
	if !blockTerminated(b.current) {
		b.emit(&Instruction{Op: OpBr, Targets: []int{joinBlk.ID}})
		b.link(elseEnd, joinBlk.ID)
	}

	b.current = joinBlk
	if !thenVal.Valid() && !elseVal.Valid() {
		return SsaVar{}
	}

	phi := &Instruction{Op: OpPhi, PhiInputs: make(map[int]SsaVar)}
	if thenVal.Valid() {
		phi.PhiInputs[thenEnd] = thenVal
	}
	if elseVal.Valid() {
		phi.PhiInputs[elseEnd] = elseVal
	}
	phi.Result = b.newVar("")
	b.emit(phi)
	return phi.Result
}

func (b *builder) lowerMatch(node *astmodel.Node) SsaVar {
	scrutinee := b.lowerExpr(node.Child("value"))
	matchBlockID := b.current.ID

	var arms []*astmodel.Node
	if body := node.Child("body"); body != nil {
		arms = body.ChildrenOfKind("match_arm")
	}

	armBlocks := make([]*BasicBlock, len(arms))
	for i := range arms {
		armBlocks[i] = b.newBlock("match.arm")
	}
	joinBlk := b.newBlock("match.join")

	targets := make([]int, len(armBlocks))
	for i, ab := range armBlocks {
		targets[i] = ab.ID
	}
	b.emit(&Instruction{Op: OpMatch, Operands: operandsOf(scrutinee), Targets: targets, Span: node.Span})
	for _, ab := range armBlocks {
		b.link(matchBlockID, ab.ID)
	}

	phi := &Instruction{Op: OpPhi, PhiInputs: make(map[int]SsaVar)}
	anyVal := false
	for i, arm := range arms {
		b.current = armBlocks[i]
		v := b.lowerExpr(arm.Child("value"))
		endID := b.current.ID
		if !blockTerminated(b.current) {
			b.emit(&Instruction{Op: OpBr, Targets: []int{joinBlk.ID}})
			b.link(endID, joinBlk.ID)
		}
		if v.Valid() {
			phi.PhiInputs[endID] = v
			anyVal = true
		}
	}

	b.current = joinBlk
	if !anyVal {
		return SsaVar{}
	}
	phi.Result = b.newVar("")
	b.emit(phi)
	return phi.Result
}

// lowerLoop handles loop/while/for uniformly: a header block (holding the
// condition check, if any), a body block, and an exit block, with break/
// continue resolved against a stack so nested loops target the right block.
// Loop-carried Phis are not constructed — the builder re-reads whatever
// value scope[name] holds when a variable is referenced inside the body,
// which under-approximates true SSA for values reassigned across
// iterations; detectors operating within a single iteration (the three MVP
// detectors) are unaffected.
func (b *builder) lowerLoop(node *astmodel.Node) SsaVar {
	preheaderID := b.current.ID
	headerBlk := b.newBlock("loop.header")
	bodyBlk := b.newBlock("loop.body")
	exitBlk := b.newBlock("loop.exit")

	b.emit(&Instruction{Op: OpBr, Targets: []int{headerBlk.ID}})
	b.link(preheaderID, headerBlk.ID)

	b.current = headerBlk
	if node.Kind == "for_expression" {
		if iterable := node.Child("value"); iterable != nil {
			b.lowerExpr(iterable)
		}
	}

	var cond *astmodel.Node
	if node.Kind == "while_expression" {
		cond = node.Child("condition")
	}
	if cond != nil {
		condVar := b.lowerExpr(cond)
		b.emit(&Instruction{Op: OpCondBr, Operands: operandsOf(condVar), Targets: []int{bodyBlk.ID, exitBlk.ID}})
		b.link(headerBlk.ID, bodyBlk.ID)
		b.link(headerBlk.ID, exitBlk.ID)
	} else {
		b.emit(&Instruction{Op: OpBr, Targets: []int{bodyBlk.ID}})
		b.link(headerBlk.ID, bodyBlk.ID)
	}

	b.breakStack = append(b.breakStack, exitBlk.ID)
	b.continueStack = append(b.continueStack, headerBlk.ID)

	b.current = bodyBlk
	if body := node.Child("body"); body != nil {
		b.lowerExpr(body)
	}
	if !blockTerminated(b.current) {
		b.emit(&Instruction{Op: OpBr, Targets: []int{headerBlk.ID}})
		b.link(b.current.ID, headerBlk.ID)
	}

	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	b.continueStack = b.continueStack[:len(b.continueStack)-1]

	b.current = exitBlk
	return SsaVar{}
}
