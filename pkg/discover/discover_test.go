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

package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cosmwasm-guard/pkg/cache"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("fn f() {}"), 0600))
}

func TestFiles_FindsRsFilesRecursivelySorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "contract.rs"))
	writeFile(t, filepath.Join(root, "src", "state.rs"))
	writeFile(t, filepath.Join(root, "Cargo.toml"))

	got, err := Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/contract.rs", "src/state.rs"}, got)
}

func TestFiles_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "contract.rs"))
	writeFile(t, filepath.Join(root, ".git", "hooks", "precommit.rs"))

	got, err := Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/contract.rs"}, got)
}

func TestFiles_SkipsCacheDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "contract.rs"))
	writeFile(t, filepath.Join(root, cache.DirName, "artifact.rs"))

	got, err := Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/contract.rs"}, got)
}
