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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
)

func ident(name string) *astmodel.Node { return &astmodel.Node{Kind: "identifier", Text: name} }

func TestBuild_StraightLineLetAndCall(t *testing.T) {
	// let addr = info.sender; addr_validate(deps, addr)
	letStmt := &astmodel.Node{
		Kind: "let_declaration",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "pattern", Text: "addr"},
			{Kind: "field_expression", FieldName: "value", Children: []*astmodel.Node{
				{Kind: "identifier", FieldName: "value", Text: "info"},
				{Kind: "identifier", FieldName: "field", Text: "sender"},
			}},
		},
	}
	callStmt := &astmodel.Node{
		Kind: "method_call_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "deps"},
			{Kind: "identifier", FieldName: "name", Text: "addr_validate"},
			{Kind: "arguments", FieldName: "arguments", Children: []*astmodel.Node{ident("addr")}},
		},
	}
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{letStmt, callStmt}}
	fn := &contract.Function{QualifiedName: "crate::execute", AST: &astmodel.Node{Kind: "function_item", Children: []*astmodel.Node{
		{Kind: "identifier", FieldName: "name", Text: "execute"},
		{Kind: "parameters", FieldName: "parameters"},
		{Kind: "block", FieldName: "body", Children: body.Children},
	}}}

	fnIr := Build(fn)
	require.NotNil(t, fnIr.Cfg)
	entry := fnIr.Cfg.Block(fnIr.Cfg.Entry)
	require.NotNil(t, entry)

	var sawAddrValidate bool
	for _, instr := range entry.Instructions {
		if instr.Op == OpAddrValidate {
			sawAddrValidate = true
			assert.Equal(t, "addr_validate", instr.Callee)
		}
	}
	assert.True(t, sawAddrValidate, "expected an AddrValidate instruction")
}

func TestBuild_IfElseProducesJoinPhi(t *testing.T) {
	ifExpr := &astmodel.Node{
		Kind: "if_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "condition", Text: "flag"},
			{Kind: "block", FieldName: "consequence", Children: []*astmodel.Node{
				{Kind: "integer_literal", Text: "1"},
			}},
			{Kind: "block", FieldName: "alternative", Children: []*astmodel.Node{
				{Kind: "integer_literal", Text: "2"},
			}},
		},
	}
	fn := &contract.Function{QualifiedName: "crate::pick", AST: &astmodel.Node{Kind: "function_item", Children: []*astmodel.Node{
		{Kind: "identifier", FieldName: "name", Text: "pick"},
		{Kind: "block", FieldName: "body", Children: []*astmodel.Node{ifExpr}},
	}}}

	fnIr := Build(fn)
	var sawPhi, sawCondBr bool
	fnIr.Cfg.Walk(func(blk *BasicBlock) {
		for _, instr := range blk.Instructions {
			if instr.Op == OpPhi {
				sawPhi = true
				assert.Len(t, instr.PhiInputs, 2)
			}
			if instr.Op == OpCondBr {
				sawCondBr = true
				assert.Len(t, instr.Targets, 2)
			}
		}
	})
	assert.True(t, sawPhi)
	assert.True(t, sawCondBr)
}

func TestBuild_UnsupportedFormLowersToUnknownCall(t *testing.T) {
	fn := &contract.Function{QualifiedName: "crate::weird", AST: &astmodel.Node{Kind: "function_item", Children: []*astmodel.Node{
		{Kind: "block", FieldName: "body", Children: []*astmodel.Node{
			{Kind: "async_block", Text: "async { }"},
		}},
	}}}

	fnIr := Build(fn)
	entry := fnIr.Cfg.Block(fnIr.Cfg.Entry)
	require.NotEmpty(t, entry.Instructions)
	assert.Equal(t, OpCall, entry.Instructions[0].Op)
	assert.Equal(t, "__unknown", entry.Instructions[0].Callee)
}

func TestBuild_RangeWithoutTakeIsObservableInIr(t *testing.T) {
	rangeCall := &astmodel.Node{
		Kind: "method_call_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "BALANCES"},
			{Kind: "identifier", FieldName: "name", Text: "range"},
			{Kind: "arguments", FieldName: "arguments"},
		},
	}
	fn := &contract.Function{QualifiedName: "crate::query_all", AST: &astmodel.Node{Kind: "function_item", Children: []*astmodel.Node{
		{Kind: "block", FieldName: "body", Children: []*astmodel.Node{rangeCall}},
	}}}

	fnIr := Build(fn)
	var foundRange bool
	fnIr.Cfg.Walk(func(blk *BasicBlock) {
		for _, instr := range blk.Instructions {
			if instr.Op == OpRange {
				foundRange = true
			}
			assert.NotEqual(t, OpTake, instr.Op)
		}
	})
	assert.True(t, foundRange)
}
