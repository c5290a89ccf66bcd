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
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

func sampleFindings() []finding.Finding {
	return []finding.Finding{
		{
			DetectorName: "missing-addr-validate",
			Title:        "parameter \"recipient\" looks like an address but is never validated",
			Description:  "recipient is string-typed and never passed through addr_validate",
			Severity:     finding.Medium,
			Confidence:   finding.ConfMedium,
			Location:     finding.Location{File: "src/contract.rs", StartLine: 10, StartCol: 5, EndLine: 10, EndCol: 20},
			Snippet:      "STATE.save(deps.storage, &recipient)?;",
		},
		{
			DetectorName: "missing-access-control",
			Title:        "execute mutates state without a recognized access-control check",
			Description:  "execute stores but has no sender/owner comparison",
			Severity:     finding.High,
			Confidence:   finding.ConfMedium,
			Location:     finding.Location{File: "src/contract.rs", StartLine: 20, StartCol: 1, EndLine: 25, EndCol: 2},
			Snippet:      "fn execute(...) { ... }",
			FixSuggestion: &finding.FixSuggestion{
				ReplacementText: "ensure_eq!(info.sender, OWNER.load(deps.storage)?, ContractError::Unauthorized {});",
				Location:        finding.Location{File: "src/contract.rs", StartLine: 21, StartCol: 1, EndLine: 21, EndCol: 1},
			},
		},
	}
}

func TestWriteJSON_RoundTripsSchemaAndFindings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleFindings(), "run-1"))

	var rep jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, SchemaVersion, rep.SchemaVersion)
	assert.Equal(t, "run-1", rep.RunID)
	require.Len(t, rep.Findings, 2)
	assert.Equal(t, "medium", rep.Findings[0].Severity)
	assert.Equal(t, "high", rep.Findings[1].Severity)
	require.NotNil(t, rep.Findings[1].FixSuggestion)
}

func TestWriteJSON_GeneratesRunIDWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, ""))

	var rep jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.NotEmpty(t, rep.RunID)
}

func TestWriteSARIF_OneRuleAndResultPerFinding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sampleFindings()))

	var log sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	require.Len(t, log.Runs, 1)
	assert.Equal(t, "cosmwasm-guard", log.Runs[0].Tool.Driver.Name)
	require.Len(t, log.Runs[0].Tool.Driver.Rules, 2)
	require.Len(t, log.Runs[0].Results, 2)
	assert.Equal(t, "warning", log.Runs[0].Results[0].Level)
	assert.Equal(t, "error", log.Runs[0].Results[1].Level)
	require.Len(t, log.Runs[0].Results[1].Fixes, 1)
}

func TestSummaryLine_CountsEachSeverity(t *testing.T) {
	line := SummaryLine(sampleFindings(), 3, 150*time.Millisecond)
	assert.Contains(t, line, "2 findings")
	assert.Contains(t, line, "1 high")
	assert.Contains(t, line, "1 medium")
	assert.Contains(t, line, "across 3 files")
}
