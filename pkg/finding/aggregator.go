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

package finding

import "sort"

// Aggregator merges detector outputs, de-duplicates, and produces the final,
// deterministically sorted report (spec §4.7, §8 invariant 1).
type Aggregator struct {
	findings []Finding
	seen     map[string]struct{}
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add appends the survivors of one detector's run (after suppression) to the
// aggregate. Exact duplicates — same detector, location, and title — are
// dropped; two distinct detectors may legitimately report the same span.
func (a *Aggregator) Add(findings []Finding) {
	for i := range findings {
		f := &findings[i]
		if f.StableID == "" {
			f.ComputeStableID()
		}
		key := f.DetectorName + "\x00" + f.StableID
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.findings = append(a.findings, *f)
	}
}

// Report returns the final findings, sorted per spec §4.7:
// (file_path, start_line, start_col, detector_name, title). Ties beyond that
// key are broken by the order findings were Added, i.e. registry order,
// per spec §5 ("registry order affects only tie-breaking").
func (a *Aggregator) Report() []Finding {
	out := make([]Finding, len(a.findings))
	copy(out, a.findings)
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i], out[j]
		if fi.Location.File != fj.Location.File {
			return fi.Location.File < fj.Location.File
		}
		if fi.Location.StartLine != fj.Location.StartLine {
			return fi.Location.StartLine < fj.Location.StartLine
		}
		if fi.Location.StartCol != fj.Location.StartCol {
			return fi.Location.StartCol < fj.Location.StartCol
		}
		if fi.DetectorName != fj.DetectorName {
			return fi.DetectorName < fj.DetectorName
		}
		return fi.Title < fj.Title
	})
	return out
}

// MaxSeverity returns the highest severity among findings, or
// Informational if findings is empty.
func MaxSeverity(findings []Finding) Severity {
	max := Informational
	for _, f := range findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}
