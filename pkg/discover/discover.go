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

// Package discover implements the filesystem traversal contract of spec §6
// "Input": recursive discovery of `.rs` files under a crate root, symlinks
// not followed, hidden directories skipped, the cache directory skipped.
// Grounded on cmd/cie/watch.go's addDirs walker (filepath.Walk, SkipDir on
// hidden/excluded directories) — narrowed from a directory watcher to a
// one-shot file lister, and from the teacher's own skip-list to the single
// cache-directory exclusion spec §6 names.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/pkg/cache"
)

// Files walks root and returns every ".rs" file path (relative to root,
// slash-separated), sorted. Symlinked directories and files are skipped
// outright rather than followed, since filepath.Walk itself never follows
// symlinks — a symlink is reported as a non-directory regardless of what
// it points to, and this walker additionally excludes any entry whose mode
// has the symlink bit set so a symlinked .rs file is not silently scanned.
func Files(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return errors.NewIOError("failed to walk crate directory", path, err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(path)
		if info.IsDir() {
			if path != root && (isHidden(base) || base == cache.DirName) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ".rs") {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

func isHidden(base string) bool {
	return base != "." && strings.HasPrefix(base, ".")
}
