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

// Package contract implements the Contract Model (spec §3) and the Contract
// Extractor (spec §4.1): visiting one file's AST to produce a ContractSlice,
// then merging per-file slices into a crate-wide, immutable ContractInfo.
package contract

import (
	"github.com/kraklabs/cosmwasm-guard/internal/typesig"
	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
)

// EntryPointKind classifies a function as a CosmWasm execution-environment
// entry point, or None.
type EntryPointKind int

const (
	None EntryPointKind = iota
	Instantiate
	Execute
	Query
	Reply
	Migrate
	Sudo
)

func (k EntryPointKind) String() string {
	switch k {
	case Instantiate:
		return "instantiate"
	case Execute:
		return "execute"
	case Query:
		return "query"
	case Reply:
		return "reply"
	case Migrate:
		return "migrate"
	case Sudo:
		return "sudo"
	default:
		return "none"
	}
}

// TypeRef is a normalized type reference: a path (possibly module-qualified
// with "::") plus generic arguments. Two TypeRefs are equal iff their
// Normalized text is textually equal (spec §3 invariant).
type TypeRef struct {
	Normalized string
	Args       []TypeRef
}

// NewTypeRef normalizes raw Rust type text into a TypeRef.
func NewTypeRef(raw string) TypeRef {
	norm := typesig.Normalize(raw)
	var args []TypeRef
	for _, a := range typesig.GenericArgs(norm) {
		args = append(args, NewTypeRef(a))
	}
	return TypeRef{Normalized: norm, Args: args}
}

// Equal reports textual equality after normalization.
func (t TypeRef) Equal(o TypeRef) bool { return t.Normalized == o.Normalized }

// BaseName returns the type's unqualified, un-generic-ed name.
func (t TypeRef) BaseName() string { return typesig.BaseName(t.Normalized) }

// EndsWith reports whether the type's base name matches suffix exactly,
// the heuristic spec §4.1 item 2 uses to recognize DepsMut/Deps/
// MessageInfo/Env/Reply parameters regardless of module qualification.
func (t TypeRef) EndsWith(suffix string) bool { return typesig.EndsWithSuffix(t.Normalized, suffix) }

// Param is one function parameter or struct field: a name plus its type.
type Param struct {
	Name string
	Type TypeRef
}

// Function is one fn item (free function or inherent/trait impl method).
type Function struct {
	QualifiedName string // module_path::name, e.g. "contract::execute"
	ModulePath    string
	Name          string
	Params        []Param
	Return        TypeRef
	Kind          EntryPointKind
	TestOnly      bool
	AST           *astmodel.Node
	Span          astmodel.Span
}

// TypeDefKind distinguishes struct and enum definitions.
type TypeDefKind int

const (
	StructKind TypeDefKind = iota
	EnumKind
)

// Variant is one enum variant: a name plus its fields (empty for unit
// variants, positional fields get numeric names "0", "1", ...).
type Variant struct {
	Name   string
	Fields []Param
}

// TypeDef is one struct or enum item.
type TypeDef struct {
	Kind          TypeDefKind
	QualifiedName string
	ModulePath    string
	Name          string
	Fields        []Param   // populated for StructKind
	Variants      []Variant // populated for EnumKind
	Span          astmodel.Span
}

// StaticDecl is one top-level `const`/`static` item, most commonly a
// cw-storage-plus container (`pub const CONFIG: Item<State> = ...;`). Its
// declared type is recorded so detectors can resolve a storage identifier
// to its real generic type (spec §4.6) instead of guessing from naming
// convention — the same syntactic type-annotation lookup extractFunction
// already does for parameters, applied to module-level declarations.
type StaticDecl struct {
	Name string
	Type TypeRef
	Span astmodel.Span
}

// ContractInfo is the crate-wide, immutable merged model (spec §3).
type ContractInfo struct {
	Functions   []*Function
	Types       []*TypeDef
	Statics     []*StaticDecl
	ModulePaths []string // every distinct module path seen, sorted
}

// StaticType returns the declared type of the const/static named name, or
// false if no such declaration was recorded. name is matched unqualified
// (a bare receiver identifier, not a module path) since that's all a
// method-call receiver's textual type ever carries.
func (c *ContractInfo) StaticType(name string) (TypeRef, bool) {
	for _, s := range c.Statics {
		if s.Name == name {
			return s.Type, true
		}
	}
	return TypeRef{}, false
}

// FunctionByName returns the function with the given qualified name, or nil.
func (c *ContractInfo) FunctionByName(qualifiedName string) *Function {
	for _, f := range c.Functions {
		if f.QualifiedName == qualifiedName {
			return f
		}
	}
	return nil
}

// EntryPoints returns every non-test-only function whose Kind matches.
func (c *ContractInfo) EntryPoints(kind EntryPointKind) []*Function {
	var out []*Function
	for _, f := range c.Functions {
		if f.Kind == kind && !f.TestOnly {
			out = append(out, f)
		}
	}
	return out
}
