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
	"github.com/kraklabs/cosmwasm-guard/pkg/suppress"
)

// Run executes every enabled detector in registry order against ctx,
// sequentially and single-threaded (spec §5: Tree-sitter's process-local
// span interning is not safe for concurrent use, so detector concurrency is
// intentionally out of scope rather than worked around). Each detector's
// findings are filtered by suppress.Filter before joining the aggregate, so
// a detector disabled or fully excluded never runs a filter pass over
// findings it never produced.
func Run(r *Registry, ctx *Context, lineAt suppress.SourceLineLookup) []finding.Finding {
	agg := finding.NewAggregator()
	for _, d := range r.All() {
		if !ctx.Config.DetectorEnabled(d.Name()) {
			continue
		}
		raw := d.Detect(ctx)
		for i := range raw {
			raw[i].DetectorName = d.Name()
			if raw[i].Severity == 0 && d.Severity() != 0 {
				raw[i].Severity = d.Severity()
			}
			if raw[i].Confidence == 0 && d.Confidence() != 0 {
				raw[i].Confidence = d.Confidence()
			}
		}
		filtered := suppress.Filter(raw, ctx.Config, lineAt)
		agg.Add(filtered)
	}
	return agg.Report()
}
