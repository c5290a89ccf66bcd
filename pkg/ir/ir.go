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

// Package ir implements the SSA IR Builder (spec §4.2): lowering a function's
// retained AST into a control-flow graph of straight-line instructions with
// def-use chains, at statement granularity.
package ir

import (
	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
)

// Opcode names an instruction's operation. Domain opcodes (AddrValidate,
// Range, Take, StorageLoad, StorageStore, Send) are recognized at lowering
// time from method-call shape, per spec §4.2's last bullet.
type Opcode string

const (
	OpBinOp        Opcode = "bin_op"
	OpUnOp         Opcode = "un_op"
	OpCall         Opcode = "call"
	OpMethodCall   Opcode = "method_call"
	OpLoad         Opcode = "load"
	OpStore        Opcode = "store"
	OpConst        Opcode = "const"
	OpPhi          Opcode = "phi"
	OpBr           Opcode = "br"
	OpCondBr       Opcode = "cond_br"
	OpRet          Opcode = "ret"
	OpMatch        Opcode = "match"
	OpAddrValidate Opcode = "addr_validate"
	OpStorageLoad  Opcode = "storage_load"
	OpStorageStore Opcode = "storage_store"
	OpRange        Opcode = "range"
	OpTake         Opcode = "take"
	OpSend         Opcode = "send"
)

// SsaVar is a single static-assignment value. The zero value (ID 0) denotes
// "no value" — e.g. the result of a Br, or an unresolved bare-path reference
// (spec §4.2's path-resolver contract: paths don't allocate unless used).
type SsaVar struct {
	ID   int
	Name string
}

// Valid reports whether v denotes a real, defined value.
func (v SsaVar) Valid() bool { return v.ID != 0 }

// Instruction is one IR instruction within a BasicBlock.
type Instruction struct {
	ID       int
	Block    int
	Op       Opcode
	Result   SsaVar
	Operands []SsaVar // for MethodCall, Operands[0] is the receiver when it resolves to a value

	Callee       string // Call: resolved or textual callee path; MethodCall: method name
	ReceiverType string // MethodCall: source text of the receiver expression (e.g. "BALANCES")

	PhiInputs map[int]SsaVar // Phi: predecessor block ID -> incoming value
	Targets   []int          // Br: [target]; CondBr: [then, else]; Match: one per arm

	Span astmodel.Span
}

// BasicBlock is a maximal straight-line instruction sequence.
type BasicBlock struct {
	ID           int
	Label        string
	Instructions []*Instruction
	Preds        []int
	Succs        []int
}

// Cfg is one function's control-flow graph.
type Cfg struct {
	Blocks map[int]*BasicBlock
	Order  []int // block IDs in creation order — the Cfg's deterministic iteration order
	Entry  int
}

// Block returns the block with the given ID, or nil.
func (c *Cfg) Block(id int) *BasicBlock { return c.Blocks[id] }

// Walk visits every block in creation order.
func (c *Cfg) Walk(fn func(*BasicBlock)) {
	for _, id := range c.Order {
		fn(c.Blocks[id])
	}
}

// DefUseEntry records one SsaVar's defining instruction and its uses.
type DefUseEntry struct {
	Def  *Instruction
	Uses []*Instruction
}

// FunctionIr is the lowered form of one contract.Function.
type FunctionIr struct {
	Function  *contract.Function
	Cfg       *Cfg
	DefUse    map[int]*DefUseEntry // keyed by SsaVar.ID
	ParamVars map[string]SsaVar    // parameter name -> its entry-block SsaVar
}

// VarDef returns the instruction that defines varID, or nil.
func (f *FunctionIr) VarDef(varID int) *Instruction {
	if e := f.DefUse[varID]; e != nil {
		return e.Def
	}
	return nil
}

// VarUses returns every instruction that references varID as an operand.
func (f *FunctionIr) VarUses(varID int) []*Instruction {
	if e := f.DefUse[varID]; e != nil {
		return e.Uses
	}
	return nil
}

// ContractIr is the crate-wide lowered form, keyed by function qualified name.
type ContractIr struct {
	Functions map[string]*FunctionIr
}
