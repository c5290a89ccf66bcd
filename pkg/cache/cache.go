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

// Package cache implements the incremental, content-addressed cache of
// spec §4.9: one manifest tracking every file's digest plus one artifact
// file per cached (ContractSlice, []FunctionIr) pair. Grounded on
// pkg/ingestion/manifest.go's ProjectManifest/ManifestManager — narrowed
// from that file's function/calls-edge diffing (this cache only needs
// whole-file hit/miss, since extraction and IR lowering are both
// file-granular per spec §4.1/§4.2) to a flat digest map plus atomic
// per-file artifact persistence.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
)

// SchemaVersion is bumped whenever the Artifact shape (or anything it's
// derived from: astmodel.Node, contract.Function, ir.Instruction) changes
// in a way that would make a previously-cached artifact unsafe to reuse.
const SchemaVersion = 1

const manifestFileName = "manifest.json"

// ManifestEntry is one file's cached state.
type ManifestEntry struct {
	Digest      string `json:"digest"`       // sha256(content) XORed with SchemaVersion, hex
	ArtifactKey string `json:"artifact_key"` // artifact file name under the cache dir
}

// Manifest is the on-disk cache index: schema version plus a per-file
// digest map (spec §4.9 "Layout").
type Manifest struct {
	SchemaVersion int                       `json:"schema_version"`
	Files         map[string]*ManifestEntry `json:"files"`
}

// Artifact is the cached unit of work for one source file: its contract
// slice plus the lowered IR for every function it declares (spec §4.9
// "Value").
type Artifact struct {
	Slice     *contract.ContractSlice `json:"slice"`
	Functions []*ir.FunctionIr        `json:"functions"`
}

// Cache is a single analysis run's view of the on-disk cache directory.
type Cache struct {
	dir      string
	manifest *Manifest
}

// Open loads (or initializes) the cache directory's manifest. A
// schema-version mismatch discards the existing manifest rather than
// erroring, per spec §4.9 ("if schema_version differs, discard all").
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.NewIOError("failed to create cache directory", dir, err)
	}

	m, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}
	if m == nil || m.SchemaVersion != SchemaVersion {
		m = &Manifest{SchemaVersion: SchemaVersion, Files: make(map[string]*ManifestEntry)}
	}
	return &Cache{dir: dir, manifest: m}, nil
}

func loadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the cache dir we control
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError("failed to read cache manifest", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupted manifest is a cache miss for the whole run, not a
		// fatal error (spec §7: CacheCorrupted is always recovered).
		return nil, nil
	}
	if m.Files == nil {
		m.Files = make(map[string]*ManifestEntry)
	}
	return &m, nil
}

// Digest computes a file's cache key from its content bytes (spec §4.9
// "Key"). It is deliberately not a pure sha256 hex digest: XORing the
// schema version into the first byte means bumping SchemaVersion alone
// (with unchanged file content) is enough to invalidate every entry,
// without needing a separate comparison.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	sum[0] ^= byte(SchemaVersion)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached Artifact for path if its content digest
// matches the manifest entry, else (nil, false). A corrupted or unreadable
// artifact file is treated as a cache miss rather than an error.
func (c *Cache) Lookup(path string, content []byte) (*Artifact, bool) {
	entry := c.manifest.Files[path]
	if entry == nil {
		return nil, false
	}
	if entry.Digest != Digest(content) {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(c.dir, entry.ArtifactKey)) //nolint:gosec // G304: artifact key is cache-internal
	if err != nil {
		return nil, false
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, false
	}
	return &art, true
}

// Store persists art for path, keyed by content's digest, and updates the
// in-memory manifest. The artifact write is atomic (temp file + rename),
// per spec §4.9 ("Writes are atomic per file").
func (c *Cache) Store(path string, content []byte, art *Artifact) error {
	digest := Digest(content)
	artifactKey := digest + ".json"

	data, err := json.Marshal(art)
	if err != nil {
		return errors.NewInternalError("failed to marshal cache artifact", err)
	}

	finalPath := filepath.Join(c.dir, artifactKey)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return errors.NewIOError("failed to write cache artifact", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.NewIOError("failed to finalize cache artifact", finalPath, err)
	}

	c.manifest.Files[path] = &ManifestEntry{Digest: digest, ArtifactKey: artifactKey}
	return nil
}

// Flush writes the manifest back to disk atomically.
func (c *Cache) Flush() error {
	data, err := json.MarshalIndent(c.manifest, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to marshal cache manifest", err)
	}

	finalPath := filepath.Join(c.dir, manifestFileName)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return errors.NewIOError("failed to write cache manifest", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.NewIOError("failed to finalize cache manifest", finalPath, err)
	}
	return nil
}

// Stats summarizes the manifest for --debug logging.
type Stats struct {
	FileCount int
}

func (c *Cache) Stats() Stats { return Stats{FileCount: len(c.manifest.Files)} }

// DirName is the well-known cache directory name under a crate root
// (spec §6 "Persisted state").
const DirName = ".cosmwasm-guard-cache"
