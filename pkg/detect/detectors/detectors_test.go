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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/detect"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
	"github.com/kraklabs/cosmwasm-guard/pkg/suppress"
)

func ident(name string) *astmodel.Node { return &astmodel.Node{Kind: "identifier", Text: name} }

func defaultConfig() *suppress.ResolvedConfig { return &suppress.ResolvedConfig{} }

func newContext(info *contract.ContractInfo, crateIr *ir.ContractIr) *detect.Context {
	return &detect.Context{
		Contract:  info,
		Ir:        crateIr,
		SourceMap: map[int]*detect.SourceFile{0: {ID: 0, Path: "contract.rs", Lines: []string{"// line"}}},
		Config:    defaultConfig(),
	}
}

func buildFn(name string, params []contract.Param, body *astmodel.Node) (*contract.Function, *ir.FunctionIr) {
	paramNodes := make([]*astmodel.Node, 0, len(params))
	for _, p := range params {
		paramNodes = append(paramNodes, &astmodel.Node{Kind: "parameter", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "pattern", Text: p.Name},
		}})
	}
	astNode := &astmodel.Node{Kind: "function_item", Text: "fn " + name + "() {}", Children: []*astmodel.Node{
		{Kind: "identifier", FieldName: "name", Text: name},
		{Kind: "parameters", FieldName: "parameters", Children: paramNodes},
		{Kind: "block", FieldName: "body", Children: body.Children},
	}}
	fn := &contract.Function{
		QualifiedName: "contract::" + name,
		ModulePath:    "contract",
		Name:          name,
		Params:        params,
		Kind:          contract.Execute,
		AST:           astNode,
	}
	return fn, ir.Build(fn)
}

func TestAddrValidateDetector_FlagsUnvalidatedAddressParam(t *testing.T) {
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "expression_statement", Children: []*astmodel.Node{
			{Kind: "call_expression", Children: []*astmodel.Node{
				{Kind: "identifier", FieldName: "function", Text: "noop"},
				{Kind: "arguments", FieldName: "arguments"},
			}},
		}},
	}}
	fn, fnIr := buildFn("execute", []contract.Param{{Name: "recipient", Type: contract.NewTypeRef("String")}}, body)

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&AddrValidateDetector{}).Detect(ctx)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "recipient")
}

func TestAddrValidateDetector_SkipsValidatedAddressParam(t *testing.T) {
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "deps"},
			{Kind: "identifier", FieldName: "name", Text: "addr_validate"},
			{Kind: "arguments", FieldName: "arguments", Children: []*astmodel.Node{ident("recipient")}},
		}},
	}}
	fn, fnIr := buildFn("execute", []contract.Param{{Name: "recipient", Type: contract.NewTypeRef("String")}}, body)

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&AddrValidateDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestAddrValidateDetector_SkipsNonAddressOrNonStringParams(t *testing.T) {
	body := &astmodel.Node{Kind: "block"}
	fn, fnIr := buildFn("execute", []contract.Param{
		{Name: "count", Type: contract.NewTypeRef("u64")},
		{Name: "owner_id", Type: contract.NewTypeRef("String")},
	}, body)

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&AddrValidateDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestAccessControlDetector_FlagsStorageWriteWithoutAuthCheck(t *testing.T) {
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "CONFIG"},
			{Kind: "identifier", FieldName: "name", Text: "save"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("execute_set_config", nil, body)
	fn.Kind = contract.Execute

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&AccessControlDetector{}).Detect(ctx)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "execute_set_config")
}

func TestAccessControlDetector_SkipsHandlerWithOwnerCheck(t *testing.T) {
	// if info.sender != config.owner { return Err(...); }
	// CONFIG.save(deps.storage, &cfg)?;
	//
	// The comparison lives in the entry block, which dominates the join
	// block the save() lands in after the if, regardless of which branch is
	// taken — a real control-flow guard, not just nearby text.
	guardSpan := astmodel.Span{FileID: 0, Start: astmodel.Position{Line: 1, Col: 1}, End: astmodel.Position{Line: 1, Col: 35}}
	condition := &astmodel.Node{
		Kind:      "binary_expression",
		FieldName: "condition",
		Span:      guardSpan,
		Children: []*astmodel.Node{
			{Kind: "field_expression", FieldName: "left", Span: guardSpan, Children: []*astmodel.Node{
				{Kind: "identifier", FieldName: "value", Text: "info"},
				{Kind: "identifier", FieldName: "field", Text: "sender"},
			}},
			{Kind: "field_expression", FieldName: "right", Span: guardSpan, Children: []*astmodel.Node{
				{Kind: "identifier", FieldName: "value", Text: "config"},
				{Kind: "identifier", FieldName: "field", Text: "owner"},
			}},
		},
	}
	ifExpr := &astmodel.Node{
		Kind: "if_expression",
		Children: []*astmodel.Node{
			condition,
			{Kind: "block", FieldName: "consequence"},
		},
	}
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		ifExpr,
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "CONFIG"},
			{Kind: "identifier", FieldName: "name", Text: "save"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("execute_set_config", nil, body)
	fn.Kind = contract.Execute

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)
	ctx.SourceMap[0].Lines = []string{"if info.sender != config.owner { return Err(Unauthorized {}); }"}

	findings := (&AccessControlDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestAccessControlDetector_FlagsGuardThatDoesNotDominateMutation(t *testing.T) {
	// The owner check sits only in the "then" branch of an unrelated flag,
	// and CONFIG.save happens unconditionally in the join block regardless
	// of which branch is taken — the guard never dominates the mutation.
	guardSpan := astmodel.Span{FileID: 0, Start: astmodel.Position{Line: 1, Col: 26}, End: astmodel.Position{Line: 1, Col: 62}}
	ifExpr := &astmodel.Node{
		Kind: "if_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "condition", Text: "some_unrelated_flag"},
			{Kind: "block", FieldName: "consequence", Children: []*astmodel.Node{
				{Kind: "call_expression", Span: guardSpan, Children: []*astmodel.Node{
					{Kind: "identifier", FieldName: "function", Text: "assert_owner"},
					{Kind: "arguments", FieldName: "arguments"},
				}},
			}},
		},
	}
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		ifExpr,
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "CONFIG"},
			{Kind: "identifier", FieldName: "name", Text: "save"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("execute_set_config", nil, body)
	fn.Kind = contract.Execute

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)
	ctx.SourceMap[0].Lines = []string{"if some_unrelated_flag { assert_owner(deps.as_ref(), &info)?; }"}

	findings := (&AccessControlDetector{}).Detect(ctx)
	require.Len(t, findings, 1)
	assert.NotNil(t, findings[0].FixSuggestion)
}

func TestAccessControlDetector_SkipsHandlerWithNoStateMutation(t *testing.T) {
	body := &astmodel.Node{Kind: "block"}
	fn, fnIr := buildFn("query_config", nil, body)
	fn.Kind = contract.Execute

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&AccessControlDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestUnboundedIterationDetector_FlagsRangeWithoutTake(t *testing.T) {
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "BALANCES"},
			{Kind: "identifier", FieldName: "name", Text: "range"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("query_all_balances", nil, body)
	fn.Kind = contract.Query

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&UnboundedIterationDetector{}).Detect(ctx)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "range")
}

func TestUnboundedIterationDetector_SkipsRangeNarrowedByTake(t *testing.T) {
	rangeCall := &astmodel.Node{
		Kind: "method_call_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "BALANCES"},
			{Kind: "identifier", FieldName: "name", Text: "range"},
			{Kind: "arguments", FieldName: "arguments"},
		},
	}
	takeCall := &astmodel.Node{
		Kind: "method_call_expression",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "__prev"},
			{Kind: "identifier", FieldName: "name", Text: "take"},
			{Kind: "arguments", FieldName: "arguments", Children: []*astmodel.Node{ident("10")}},
		},
	}
	letStmt := &astmodel.Node{
		Kind: "let_declaration",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "pattern", Text: "entries"},
			rangeChainedWithTake(rangeCall, takeCall),
		},
	}
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{letStmt}}
	fn, fnIr := buildFn("query_all_balances", nil, body)
	fn.Kind = contract.Query

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&UnboundedIterationDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestUnboundedIterationDetector_SkipsRangeOnNonStorageReceiver(t *testing.T) {
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "some_vec"},
			{Kind: "identifier", FieldName: "name", Text: "range"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("query_all_balances", nil, body)
	fn.Kind = contract.Query

	info := &contract.ContractInfo{Functions: []*contract.Function{fn}}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&UnboundedIterationDetector{}).Detect(ctx)
	assert.Empty(t, findings)
}

func TestUnboundedIterationDetector_UsesDeclaredStaticTypeOverNaming(t *testing.T) {
	// lowercase receiver, but recorded as a Map<Addr, Uint128> static: the
	// declared-type lookup must win over the ALL_CAPS naming fallback.
	body := &astmodel.Node{Kind: "block", Children: []*astmodel.Node{
		{Kind: "method_call_expression", Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "receiver", Text: "balances"},
			{Kind: "identifier", FieldName: "name", Text: "range"},
			{Kind: "arguments", FieldName: "arguments"},
		}},
	}}
	fn, fnIr := buildFn("query_all_balances", nil, body)
	fn.Kind = contract.Query

	info := &contract.ContractInfo{
		Functions: []*contract.Function{fn},
		Statics:   []*contract.StaticDecl{{Name: "balances", Type: contract.NewTypeRef("Map<Addr, Uint128>")}},
	}
	crateIr := &ir.ContractIr{Functions: map[string]*ir.FunctionIr{fn.QualifiedName: fnIr}}
	ctx := newContext(info, crateIr)

	findings := (&UnboundedIterationDetector{}).Detect(ctx)
	require.Len(t, findings, 1)
	assert.NotNil(t, findings[0].FixSuggestion)
}

// rangeChainedWithTake wires take's receiver to the already-built range
// expression, producing ".range(...).take(10)" as a single method-call chain.
func rangeChainedWithTake(rangeCall, takeCall *astmodel.Node) *astmodel.Node {
	takeCall.Children[0] = &astmodel.Node{Kind: "method_call_expression", FieldName: "receiver", Children: rangeCall.Children}
	takeCall.FieldName = "value"
	return takeCall
}
