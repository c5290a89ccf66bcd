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

package suppress

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

// Baseline records previously-accepted findings by their StableID, so a
// second run against the same (or lightly modified) crate reports only new
// findings. This supplements spec §4.8's inline/config suppression with the
// baseline-file idiom other Go lint tools in this family ship, keyed on the
// content-derived finding.StableID. That ID includes the finding's file,
// start line and start column, so an edit that moves a finding makes it
// new again. Baseline files are YAML, not
// TOML like the project config, so a baseline committed alongside
// .cosmwasm-guard.toml is visually distinct from it in a diff.
type Baseline struct {
	Entries map[string]BaselineEntry `yaml:"entries"`
}

// BaselineEntry is one accepted finding, kept for human review of the
// baseline file and for hygiene reporting.
type BaselineEntry struct {
	Detector string `yaml:"detector"`
	Title    string `yaml:"title"`
	File     string `yaml:"file"`
}

// LoadBaseline reads path. A missing file yields an empty Baseline, not an
// error — baselines are opt-in.
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from CLI flag
	if os.IsNotExist(err) {
		return &Baseline{Entries: map[string]BaselineEntry{}}, nil
	}
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read baseline file",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions and ensure the file exists",
			err,
		)
	}
	var bl Baseline
	if err := yaml.Unmarshal(data, &bl); err != nil {
		return nil, errors.NewConfigError(
			"Invalid baseline format",
			"YAML parsing failed - the baseline file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or regenerate it", path),
			err,
		)
	}
	if bl.Entries == nil {
		bl.Entries = map[string]BaselineEntry{}
	}
	return &bl, nil
}

// Suppresses reports whether f was already accepted into the baseline.
func (b *Baseline) Suppresses(f finding.Finding) bool {
	if b == nil {
		return false
	}
	_, ok := b.Entries[f.StableID]
	return ok
}

// FilterNew drops every finding already present in the baseline.
func FilterNew(findings []finding.Finding, bl *Baseline) []finding.Finding {
	if bl == nil {
		return findings
	}
	out := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		if bl.Suppresses(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FromFindings builds a fresh Baseline snapshotting every given finding —
// the shape written out by a "record current findings as accepted" command.
func FromFindings(findings []finding.Finding) *Baseline {
	bl := &Baseline{Entries: make(map[string]BaselineEntry, len(findings))}
	for _, f := range findings {
		bl.Entries[f.StableID] = BaselineEntry{
			Detector: f.DetectorName,
			Title:    f.Title,
			File:     f.Location.File,
		}
	}
	return bl
}

// Hygiene reports an informational finding for every baseline entry that no
// longer matches any current finding ("stale baseline entry") — these
// either got fixed (good) or the code moved enough that the detector can no
// longer see them (worth re-checking by hand).
func Hygiene(bl *Baseline, current []finding.Finding) []finding.Finding {
	if bl == nil {
		return nil
	}
	seen := make(map[string]bool, len(current))
	for _, f := range current {
		seen[f.StableID] = true
	}
	var out []finding.Finding
	for id, entry := range bl.Entries {
		if seen[id] {
			continue
		}
		out = append(out, finding.Finding{
			DetectorName: "suppression-hygiene",
			Title:        "stale baseline entry",
			Description:  fmt.Sprintf("baseline entry for %s (%s) no longer matches any finding", entry.Detector, entry.Title),
			Severity:     finding.Informational,
			Confidence:   finding.ConfHigh,
			Location:     finding.Location{File: entry.File},
			StableID:     id,
		})
	}
	return out
}
