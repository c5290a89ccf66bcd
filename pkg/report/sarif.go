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

package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

const sarifVersion = "2.1.0"
const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                    string                   `json:"id"`
	ShortDescription      sarifMessage             `json:"shortDescription"`
	DefaultConfiguration  sarifRuleConfig          `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string           `json:"ruleId"`
	Level     string           `json:"level"`
	Message   sarifMessage     `json:"message"`
	Locations []sarifLocation  `json:"locations"`
	Fixes     []sarifFix       `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion    sarifRegion         `json:"deletedRegion"`
	InsertedContent  sarifInsertedContent `json:"insertedContent"`
}

type sarifInsertedContent struct {
	Text string `json:"text"`
}

// WriteSARIF renders findings as a single-run SARIF 2.1.0 log (spec §6
// "Output — SARIF 2.1.0"): tool.driver.name is "cosmwasm-guard", rules
// enumerates every detector that produced at least one result, and each
// result's level is the detector's severity mapped High→error,
// Medium→warning, Low|Informational→note.
func WriteSARIF(w io.Writer, findings []finding.Finding) error {
	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{{Tool: sarifTool{Driver: sarifDriver{Name: "cosmwasm-guard", Rules: buildRules(findings)}}}},
	}

	for _, f := range findings {
		result := sarifResult{
			RuleID:  f.DetectorName,
			Level:   sarifLevel(f.Severity),
			Message: sarifMessage{Text: f.Description},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: f.Location.File},
					Region:           toSarifRegion(f.Location.StartLine, f.Location.StartCol, f.Location.EndLine, f.Location.EndCol),
				},
			}},
		}
		if f.FixSuggestion != nil {
			result.Fixes = []sarifFix{{
				Description: sarifMessage{Text: f.Title},
				ArtifactChanges: []sarifArtifactChange{{
					ArtifactLocation: sarifArtifactLocation{URI: f.FixSuggestion.Location.File},
					Replacements: []sarifReplacement{{
						DeletedRegion: toSarifRegion(
							f.FixSuggestion.Location.StartLine, f.FixSuggestion.Location.StartCol,
							f.FixSuggestion.Location.EndLine, f.FixSuggestion.Location.EndCol,
						),
						InsertedContent: sarifInsertedContent{Text: f.FixSuggestion.ReplacementText},
					}},
				}},
			}}
		}
		log.Runs[0].Results = append(log.Runs[0].Results, result)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func toSarifRegion(startLine, startCol, endLine, endCol int) sarifRegion {
	return sarifRegion{StartLine: startLine, StartColumn: startCol, EndLine: endLine, EndColumn: endCol}
}

func buildRules(findings []finding.Finding) []sarifRule {
	seen := make(map[string]finding.Severity)
	var names []string
	for _, f := range findings {
		if _, ok := seen[f.DetectorName]; !ok {
			names = append(names, f.DetectorName)
		}
		if f.Severity > seen[f.DetectorName] {
			seen[f.DetectorName] = f.Severity
		}
	}
	sort.Strings(names)

	rules := make([]sarifRule, 0, len(names))
	for _, name := range names {
		rules = append(rules, sarifRule{
			ID:                   name,
			ShortDescription:     sarifMessage{Text: name},
			DefaultConfiguration: sarifRuleConfig{Level: sarifLevel(seen[name])},
		})
	}
	return rules
}

func sarifLevel(s finding.Severity) string {
	switch s {
	case finding.High:
		return "error"
	case finding.Medium:
		return "warning"
	default:
		return "note"
	}
}
