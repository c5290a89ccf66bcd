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

package detect

import (
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

// Detector is the uniform contract every check implements (spec §4.3).
// Implementations must be pure functions of ctx: no mutation of ctx's
// fields, deterministic output, and findings in stable order.
type Detector interface {
	Name() string
	Description() string
	Severity() finding.Severity
	Confidence() finding.Confidence
	Detect(ctx *Context) []finding.Finding
}

// Registry holds detectors in declaration order (spec §4.7: "registry order
// affects only tie-breaking"). It is not safe for concurrent registration,
// but registration happens once at startup before any Run call.
type Registry struct {
	detectors []Detector
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends d to the registry. Panics on a duplicate name: that is
// a programming error in wiring, not a runtime condition to recover from.
func (r *Registry) Register(d Detector) {
	for _, existing := range r.detectors {
		if existing.Name() == d.Name() {
			panic("detect: duplicate detector name " + d.Name())
		}
	}
	r.detectors = append(r.detectors, d)
}

// All returns the registered detectors in declaration order.
func (r *Registry) All() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Names returns every registered detector's name, in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.detectors))
	for i, d := range r.detectors {
		out[i] = d.Name()
	}
	return out
}
