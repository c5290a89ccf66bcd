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

// Package report implements the three output renderers of spec §6: human
// terminal, machine JSON, and SARIF 2.1.0.
package report

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

// SchemaVersion is the JSON report's schema_version field (spec §6
// "Output — machine record").
const SchemaVersion = 1

type jsonLocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

type jsonFixSuggestion struct {
	ReplacementText string       `json:"replacement_text"`
	Location        jsonLocation `json:"location"`
}

type jsonFinding struct {
	DetectorName  string             `json:"detector_name"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Severity      string             `json:"severity"`
	Confidence    string             `json:"confidence"`
	Location      jsonLocation       `json:"location"`
	Snippet       string             `json:"snippet"`
	FixSuggestion *jsonFixSuggestion `json:"fix_suggestion,omitempty"`
}

type jsonReport struct {
	SchemaVersion int           `json:"schema_version"`
	RunID         string        `json:"run_id"`
	Findings      []jsonFinding `json:"findings"`
}

// WriteJSON renders findings as the spec §6 JSON object to w. runID
// identifies this analysis run (a supplemental field, see SPEC_FULL.md's
// stamped run-id feature) so repeated CI invocations can be correlated.
func WriteJSON(w io.Writer, findings []finding.Finding, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}

	rep := jsonReport{SchemaVersion: SchemaVersion, RunID: runID, Findings: make([]jsonFinding, len(findings))}
	for i, f := range findings {
		rep.Findings[i] = toJSONFinding(f)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func toJSONFinding(f finding.Finding) jsonFinding {
	jf := jsonFinding{
		DetectorName: f.DetectorName,
		Title:        f.Title,
		Description:  f.Description,
		Severity:     f.Severity.String(),
		Confidence:   f.Confidence.String(),
		Location:     toJSONLocation(f.Location),
		Snippet:      f.Snippet,
	}
	if f.FixSuggestion != nil {
		jf.FixSuggestion = &jsonFixSuggestion{
			ReplacementText: f.FixSuggestion.ReplacementText,
			Location:        toJSONLocation(f.FixSuggestion.Location),
		}
	}
	return jf
}

func toJSONLocation(l finding.Location) jsonLocation {
	return jsonLocation{File: l.File, StartLine: l.StartLine, StartCol: l.StartCol, EndLine: l.EndLine, EndCol: l.EndCol}
}
