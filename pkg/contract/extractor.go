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
	"strconv"
	"strings"

	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
)

// ContractSlice is the per-file output of the Contract Extractor (spec §4.1).
type ContractSlice struct {
	FileID    int
	Functions []*Function
	Types     []*TypeDef
	Statics   []*StaticDecl
	Modules   []string
}

// Extractor visits one file's AST and produces a ContractSlice.
type Extractor struct{}

// NewExtractor constructs a Contract Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// ExtractFile walks root (the source_file node for one parsed .rs file) and
// produces its ContractSlice. modulePath is the file's logical module path
// inferred by the caller from its location in the crate (e.g. "crate" for
// src/lib.rs, "crate::state" for src/state.rs).
func (e *Extractor) ExtractFile(root *astmodel.Node, fileID int, modulePath string) *ContractSlice {
	slice := &ContractSlice{FileID: fileID, Modules: []string{modulePath}}
	e.visitBlock(root.Children, modulePath, slice)
	return slice
}

// visitBlock walks a flat list of sibling items (a source_file's children or
// a mod_item/impl_item body's children), tracking #[cfg(test)] attributes
// that precede an item as plain siblings (Tree-sitter's Rust grammar attaches
// attributes as preceding siblings, not as a field of the decorated item).
func (e *Extractor) visitBlock(children []*astmodel.Node, modulePath string, slice *ContractSlice) {
	testOnlyPending := false
	implTarget := ""
	for _, child := range children {
		switch child.Kind {
		case "attribute_item", "inner_attribute_item":
			if isTestCfg(child.Text) {
				testOnlyPending = true
			}
			continue
		case "line_comment", "block_comment":
			continue
		case "function_item":
			fn := e.extractFunction(child, modulePath, implTarget, testOnlyPending)
			slice.Functions = append(slice.Functions, fn)
		case "struct_item":
			slice.Types = append(slice.Types, e.extractStruct(child, modulePath))
		case "enum_item":
			slice.Types = append(slice.Types, e.extractEnum(child, modulePath))
		case "static_item", "const_item":
			slice.Statics = append(slice.Statics, e.extractStatic(child, modulePath))
		case "mod_item":
			e.visitMod(child, modulePath, slice)
		case "impl_item":
			e.visitImpl(child, modulePath, slice)
		}
		testOnlyPending = false
	}
}

func (e *Extractor) visitMod(n *astmodel.Node, modulePath string, slice *ContractSlice) {
	nameNode := n.Child("name")
	name := "anon"
	if nameNode != nil {
		name = nameNode.Text
	}
	childPath := joinModule(modulePath, name)
	slice.Modules = append(slice.Modules, childPath)
	body := n.Child("body")
	if body != nil {
		e.visitBlock(body.Children, childPath, slice)
	}
}

func (e *Extractor) visitImpl(n *astmodel.Node, modulePath string, slice *ContractSlice) {
	typeNode := n.Child("type")
	target := ""
	if typeNode != nil {
		target = NewTypeRef(typeNode.Text).BaseName()
	}
	body := n.Child("body")
	if body == nil {
		return
	}
	testOnlyPending := false
	for _, child := range body.Children {
		switch child.Kind {
		case "attribute_item", "inner_attribute_item":
			if isTestCfg(child.Text) {
				testOnlyPending = true
			}
			continue
		case "function_item":
			fn := e.extractFunction(child, modulePath, target, testOnlyPending)
			slice.Functions = append(slice.Functions, fn)
		}
		testOnlyPending = false
	}
}

func (e *Extractor) extractFunction(n *astmodel.Node, modulePath, implTarget string, testOnly bool) *Function {
	nameNode := n.Child("name")
	name := "anon"
	if nameNode != nil {
		name = nameNode.Text
	}

	qualBase := modulePath
	if implTarget != "" {
		qualBase = joinModule(modulePath, implTarget)
	}

	var params []Param
	if pl := n.Child("parameters"); pl != nil {
		for _, p := range pl.Children {
			switch p.Kind {
			case "parameter":
				pat := p.Child("pattern")
				typ := p.Child("type")
				pname := ""
				if pat != nil {
					pname = pat.Text
				}
				ptype := TypeRef{}
				if typ != nil {
					ptype = NewTypeRef(typ.Text)
				}
				params = append(params, Param{Name: pname, Type: ptype})
			case "self_parameter":
				params = append(params, Param{Name: "self", Type: NewTypeRef(implTarget)})
			}
		}
	}

	ret := TypeRef{}
	if rt := n.Child("return_type"); rt != nil {
		ret = NewTypeRef(rt.Text)
	}

	fn := &Function{
		QualifiedName: joinModule(qualBase, name),
		ModulePath:    qualBase,
		Name:          name,
		Params:        params,
		Return:        ret,
		TestOnly:      testOnly,
		AST:           n,
		Span:          n.Span,
	}
	fn.Kind = inferEntryPointKind(name, params)
	return fn
}

func (e *Extractor) extractStruct(n *astmodel.Node, modulePath string) *TypeDef {
	nameNode := n.Child("name")
	name := "anon"
	if nameNode != nil {
		name = nameNode.Text
	}
	td := &TypeDef{
		Kind:          StructKind,
		QualifiedName: joinModule(modulePath, name),
		ModulePath:    modulePath,
		Name:          name,
		Span:          n.Span,
	}
	if body := n.Child("body"); body != nil {
		for _, f := range body.ChildrenOfKind("field_declaration") {
			fname := ""
			if fn := f.Child("name"); fn != nil {
				fname = fn.Text
			}
			ftype := TypeRef{}
			if ft := f.Child("type"); ft != nil {
				ftype = NewTypeRef(ft.Text)
			}
			td.Fields = append(td.Fields, Param{Name: fname, Type: ftype})
		}
	}
	return td
}

func (e *Extractor) extractEnum(n *astmodel.Node, modulePath string) *TypeDef {
	nameNode := n.Child("name")
	name := "anon"
	if nameNode != nil {
		name = nameNode.Text
	}
	td := &TypeDef{
		Kind:          EnumKind,
		QualifiedName: joinModule(modulePath, name),
		ModulePath:    modulePath,
		Name:          name,
		Span:          n.Span,
	}
	if body := n.Child("body"); body != nil {
		for _, v := range body.ChildrenOfKind("enum_variant") {
			variant := Variant{}
			if vn := v.Child("name"); vn != nil {
				variant.Name = vn.Text
			}
			if vb := v.Child("body"); vb != nil {
				for i, f := range vb.ChildrenOfKind("field_declaration") {
					fname := ""
					if fn := f.Child("name"); fn != nil {
						fname = fn.Text
					} else {
						fname = strconv.Itoa(i)
					}
					ftype := TypeRef{}
					if ft := f.Child("type"); ft != nil {
						ftype = NewTypeRef(ft.Text)
					}
					variant.Fields = append(variant.Fields, Param{Name: fname, Type: ftype})
				}
			}
			td.Variants = append(td.Variants, variant)
		}
	}
	return td
}

// extractStatic records a top-level `const`/`static` item's declared type
// against its name (e.g. "CONFIG" -> Item<State>), the same syntactic
// type-annotation lookup extractFunction does for parameters, applied at
// module scope. Detectors use this to resolve a storage identifier to its
// real generic type instead of guessing from its naming convention.
func (e *Extractor) extractStatic(n *astmodel.Node, modulePath string) *StaticDecl {
	nameNode := n.Child("name")
	name := "anon"
	if nameNode != nil {
		name = nameNode.Text
	}
	typ := TypeRef{}
	if t := n.Child("type"); t != nil {
		typ = NewTypeRef(t.Text)
	}
	return &StaticDecl{Name: name, Type: typ, Span: n.Span}
}

// inferEntryPointKind implements spec §4.1's two-step inference: exact name
// match first, then the parameter-type shape heuristic.
func inferEntryPointKind(name string, params []Param) EntryPointKind {
	switch name {
	case "instantiate":
		return Instantiate
	case "execute":
		return Execute
	case "query":
		return Query
	case "reply":
		return Reply
	case "migrate":
		return Migrate
	case "sudo":
		return Sudo
	}

	var hasReply, hasDepsMut, hasDeps, hasMessageInfo bool
	for _, p := range params {
		switch {
		case p.Type.EndsWith("Reply"):
			hasReply = true
		case p.Type.EndsWith("DepsMut"):
			hasDepsMut = true
		case p.Type.EndsWith("Deps"):
			hasDeps = true
		case p.Type.EndsWith("MessageInfo"):
			hasMessageInfo = true
		}
	}

	switch {
	case hasReply:
		return Reply
	case hasDepsMut && hasMessageInfo:
		return Execute
	case hasDeps && !hasMessageInfo:
		return Query
	default:
		return None
	}
}

func isTestCfg(attrText string) bool {
	t := strings.ReplaceAll(attrText, " ", "")
	return strings.Contains(t, "cfg(test)") || strings.Contains(t, "cfg(test,")
}

func joinModule(base, name string) string {
	if base == "" {
		return name
	}
	return base + "::" + name
}

