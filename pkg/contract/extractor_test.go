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

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
)

func param(name, typ string) *astmodel.Node {
	return &astmodel.Node{
		Kind: "parameter",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "pattern", Text: name},
			{Kind: "type_identifier", FieldName: "type", Text: typ},
		},
	}
}

func fnItem(name string, params []*astmodel.Node, ret string) *astmodel.Node {
	children := []*astmodel.Node{
		{Kind: "identifier", FieldName: "name", Text: name},
		{Kind: "parameters", FieldName: "parameters", Children: params},
	}
	if ret != "" {
		children = append(children, &astmodel.Node{Kind: "type_identifier", FieldName: "return_type", Text: ret})
	}
	return &astmodel.Node{Kind: "function_item", Children: children}
}

func TestExtractFile_InfersEntryPointByExactName(t *testing.T) {
	root := &astmodel.Node{
		Kind: "source_file",
		Children: []*astmodel.Node{
			fnItem("execute", []*astmodel.Node{
				param("deps", "DepsMut"),
				param("env", "Env"),
				param("info", "MessageInfo"),
				param("msg", "ExecuteMsg"),
			}, "Result<Response>"),
		},
	}

	slice := NewExtractor().ExtractFile(root, 1, "crate")
	require.Len(t, slice.Functions, 1)
	fn := slice.Functions[0]
	assert.Equal(t, "crate::execute", fn.QualifiedName)
	assert.Equal(t, Execute, fn.Kind)
	assert.False(t, fn.TestOnly)
}

func TestExtractFile_InfersEntryPointByShapeWhenNameUnrecognized(t *testing.T) {
	root := &astmodel.Node{
		Kind: "source_file",
		Children: []*astmodel.Node{
			fnItem("handle_transfer", []*astmodel.Node{
				param("deps", "DepsMut"),
				param("info", "MessageInfo"),
			}, ""),
			fnItem("get_balance", []*astmodel.Node{
				param("deps", "Deps"),
			}, ""),
			fnItem("helper", []*astmodel.Node{
				param("x", "u64"),
			}, ""),
		},
	}

	slice := NewExtractor().ExtractFile(root, 1, "crate")
	require.Len(t, slice.Functions, 3)
	assert.Equal(t, Execute, slice.Functions[0].Kind)
	assert.Equal(t, Query, slice.Functions[1].Kind)
	assert.Equal(t, None, slice.Functions[2].Kind)
}

func TestExtractFile_MarksCfgTestFunctionsTestOnly(t *testing.T) {
	attr := &astmodel.Node{Kind: "attribute_item", Text: "#[cfg(test)]"}
	fn := fnItem("proper_length_validation", nil, "")
	root := &astmodel.Node{
		Kind:     "source_file",
		Children: []*astmodel.Node{attr, fn},
	}

	slice := NewExtractor().ExtractFile(root, 1, "crate::tests")
	require.Len(t, slice.Functions, 1)
	assert.True(t, slice.Functions[0].TestOnly)
}

func TestExtractFile_StructAndEnumFields(t *testing.T) {
	structNode := &astmodel.Node{
		Kind: "struct_item",
		Children: []*astmodel.Node{
			{Kind: "type_identifier", FieldName: "name", Text: "State"},
			{Kind: "field_declaration_list", FieldName: "body", Children: []*astmodel.Node{
				{Kind: "field_declaration", Children: []*astmodel.Node{
					{Kind: "identifier", FieldName: "name", Text: "owner"},
					{Kind: "type_identifier", FieldName: "type", Text: "Addr"},
				}},
			}},
		},
	}
	enumNode := &astmodel.Node{
		Kind: "enum_item",
		Children: []*astmodel.Node{
			{Kind: "type_identifier", FieldName: "name", Text: "ExecuteMsg"},
			{Kind: "enum_variant_list", FieldName: "body", Children: []*astmodel.Node{
				{Kind: "enum_variant", Children: []*astmodel.Node{
					{Kind: "identifier", FieldName: "name", Text: "Transfer"},
				}},
			}},
		},
	}
	root := &astmodel.Node{Kind: "source_file", Children: []*astmodel.Node{structNode, enumNode}}

	slice := NewExtractor().ExtractFile(root, 1, "crate::msg")
	require.Len(t, slice.Types, 2)
	assert.Equal(t, StructKind, slice.Types[0].Kind)
	assert.Equal(t, "Addr", slice.Types[0].Fields[0].Type.BaseName())
	assert.Equal(t, EnumKind, slice.Types[1].Kind)
	assert.Equal(t, "Transfer", slice.Types[1].Variants[0].Name)
}

func TestExtractFile_ModAndImplQualifyNames(t *testing.T) {
	implFn := fnItem("load", nil, "")
	implBlock := &astmodel.Node{
		Kind: "impl_item",
		Children: []*astmodel.Node{
			{Kind: "type_identifier", FieldName: "type", Text: "State"},
			{Kind: "declaration_list", FieldName: "body", Children: []*astmodel.Node{implFn}},
		},
	}
	modFn := fnItem("helper", nil, "")
	modBlock := &astmodel.Node{
		Kind: "mod_item",
		Children: []*astmodel.Node{
			{Kind: "identifier", FieldName: "name", Text: "util"},
			{Kind: "declaration_list", FieldName: "body", Children: []*astmodel.Node{modFn}},
		},
	}
	root := &astmodel.Node{Kind: "source_file", Children: []*astmodel.Node{implBlock, modBlock}}

	slice := NewExtractor().ExtractFile(root, 1, "crate")
	require.Len(t, slice.Functions, 2)
	assert.Equal(t, "crate::State::load", slice.Functions[0].QualifiedName)
	assert.Equal(t, "crate::util::helper", slice.Functions[1].QualifiedName)
	assert.Contains(t, slice.Modules, "crate::util")
}

func TestMerge_DetectsDuplicateQualifiedNames(t *testing.T) {
	a := &ContractSlice{FileID: 1, Functions: []*Function{{QualifiedName: "crate::execute"}}}
	b := &ContractSlice{FileID: 2, Functions: []*Function{{QualifiedName: "crate::execute"}}}

	_, err := Merge([]*ContractSlice{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crate::execute")
}

func TestMerge_ConcatenatesDisjointSlices(t *testing.T) {
	a := &ContractSlice{FileID: 1, Functions: []*Function{{QualifiedName: "crate::execute"}}, Modules: []string{"crate"}}
	b := &ContractSlice{FileID: 2, Functions: []*Function{{QualifiedName: "crate::query"}}, Modules: []string{"crate"}}

	info, err := Merge([]*ContractSlice{a, b})
	require.NoError(t, err)
	assert.Len(t, info.Functions, 2)
	assert.Equal(t, []string{"crate"}, info.ModulePaths)
	assert.NotNil(t, info.FunctionByName("crate::execute"))
}
