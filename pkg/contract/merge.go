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
	"fmt"
	"sort"
)

// Merge combines every file's ContractSlice into a single crate-wide
// ContractInfo by disjoint-namespace concatenation (spec §3): qualified
// names are expected to already be distinct across files because each
// slice's module path is derived from the file's own position in the
// crate. A duplicate qualified name is a hard error — it means either a
// genuine name collision in the crate, or the caller mis-derived module
// paths — either way downstream stages cannot disambiguate and must stop.
func Merge(slices []*ContractSlice) (*ContractInfo, error) {
	info := &ContractInfo{}
	seenFn := make(map[string]string)  // qualified name -> source file description
	seenTy := make(map[string]string)
	moduleSet := make(map[string]struct{})

	for _, s := range slices {
		for _, fn := range s.Functions {
			if prior, dup := seenFn[fn.QualifiedName]; dup {
				return nil, fmt.Errorf("duplicate function %q (already defined in %s)", fn.QualifiedName, prior)
			}
			seenFn[fn.QualifiedName] = fmt.Sprintf("file %d", s.FileID)
			info.Functions = append(info.Functions, fn)
		}
		for _, ty := range s.Types {
			if prior, dup := seenTy[ty.QualifiedName]; dup {
				return nil, fmt.Errorf("duplicate type %q (already defined in %s)", ty.QualifiedName, prior)
			}
			seenTy[ty.QualifiedName] = fmt.Sprintf("file %d", s.FileID)
			info.Types = append(info.Types, ty)
		}
		info.Statics = append(info.Statics, s.Statics...)
		for _, m := range s.Modules {
			moduleSet[m] = struct{}{}
		}
	}

	for m := range moduleSet {
		info.ModulePaths = append(info.ModulePaths, m)
	}
	sort.Strings(info.ModulePaths)

	return info, nil
}
