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

// Package suppress implements configuration resolution, finding filters, and
// inline/baseline suppression (spec §4.8).
package suppress

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/pkg/finding"
)

const configFileName = ".cosmwasm-guard.toml"

// FileConfig mirrors the on-disk .cosmwasm-guard.toml schema (spec §4.8's
// recognized options table).
type FileConfig struct {
	Detectors struct {
		Enable  []string `toml:"enable"`
		Disable []string `toml:"disable"`
	} `toml:"detectors"`
	ExcludeFiles  []string `toml:"exclude_files"`
	MinSeverity   string   `toml:"min_severity"`
	MinConfidence string   `toml:"min_confidence"`
	AuditMode     bool     `toml:"audit_mode"`
}

// LoadFileConfig reads and parses path. A missing file is not an error: the
// caller gets an empty FileConfig and defaults apply.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from CLI flag or crate-root discovery
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"TOML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors", path),
			err,
		)
	}
	return &cfg, nil
}

// FindConfigFile walks up from dir looking for .cosmwasm-guard.toml and
// returns the first one found, or "" if none is found. The scan command
// does not use it: it reads .cosmwasm-guard.toml from the crate root only.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// CLIOverrides carries flag values plus whether each was actually set by the
// user, since an unset flag must not shadow the config file (spec §4.8
// precedence: CLI flags, then config file, then built-in defaults).
type CLIOverrides struct {
	Enable           []string
	Disable          []string
	ExcludeFiles     []string
	MinSeverity      string
	MinConfidence    string
	AuditMode        bool
	AuditModeIsSet   bool
	MinSeverityIsSet bool
	MinConfIsSet     bool
}

// ResolvedConfig is the final, immutable configuration detectors and the
// suppression engine operate against.
type ResolvedConfig struct {
	Enable        []string
	Disable       []string
	ExcludeFiles  []string
	MinSeverity   finding.Severity
	MinConfidence finding.Confidence
	AuditMode     bool
}

// Resolve merges file config and CLI overrides per spec §4.8's precedence,
// then applies audit_mode's effect (forces min_confidence = Low, enables
// all detectors) last, since it is defined as an override of the other
// options rather than one more option among equals.
func Resolve(file *FileConfig, cli CLIOverrides) (*ResolvedConfig, error) {
	rc := &ResolvedConfig{
		MinSeverity:   finding.Informational,
		MinConfidence: finding.ConfLow,
	}

	if file != nil {
		rc.Enable = file.Detectors.Enable
		rc.Disable = file.Detectors.Disable
		rc.ExcludeFiles = file.ExcludeFiles
		if file.MinSeverity != "" {
			sev, ok := finding.ParseSeverity(file.MinSeverity)
			if !ok {
				return nil, errors.NewConfigError(
					"Invalid min_severity",
					fmt.Sprintf("%q is not a recognized severity", file.MinSeverity),
					"Use one of: informational, low, medium, high",
					nil,
				)
			}
			rc.MinSeverity = sev
		}
		if file.MinConfidence != "" {
			conf, ok := finding.ParseConfidence(file.MinConfidence)
			if !ok {
				return nil, errors.NewConfigError(
					"Invalid min_confidence",
					fmt.Sprintf("%q is not a recognized confidence", file.MinConfidence),
					"Use one of: low, medium, high",
					nil,
				)
			}
			rc.MinConfidence = conf
		}
		rc.AuditMode = file.AuditMode
	}

	if len(cli.Enable) > 0 {
		rc.Enable = cli.Enable
	}
	if len(cli.Disable) > 0 {
		rc.Disable = cli.Disable
	}
	if len(cli.ExcludeFiles) > 0 {
		rc.ExcludeFiles = cli.ExcludeFiles
	}
	if cli.MinSeverityIsSet {
		sev, ok := finding.ParseSeverity(cli.MinSeverity)
		if !ok {
			return nil, errors.NewConfigError(
				"Invalid --min-severity",
				fmt.Sprintf("%q is not a recognized severity", cli.MinSeverity),
				"Use one of: informational, low, medium, high",
				nil,
			)
		}
		rc.MinSeverity = sev
	}
	if cli.MinConfIsSet {
		conf, ok := finding.ParseConfidence(cli.MinConfidence)
		if !ok {
			return nil, errors.NewConfigError(
				"Invalid --min-confidence",
				fmt.Sprintf("%q is not a recognized confidence", cli.MinConfidence),
				"Use one of: low, medium, high",
				nil,
			)
		}
		rc.MinConfidence = conf
	}
	if cli.AuditModeIsSet {
		rc.AuditMode = cli.AuditMode
	}

	if rc.AuditMode {
		rc.MinConfidence = finding.ConfLow
		rc.Enable = nil
		rc.Disable = nil
	}

	return rc, nil
}

// DetectorEnabled reports whether name should run under rc.
func (rc *ResolvedConfig) DetectorEnabled(name string) bool {
	if rc.AuditMode {
		return true
	}
	if len(rc.Enable) > 0 && !contains(rc.Enable, name) {
		return false
	}
	return !contains(rc.Disable, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
