// Copyright 2025 ETH Zurich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xtest

import (
	"flag"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenFiles registers the '-update' flag for the test.
//
// This flag should be checked by golden file tests to see whether the golden
// files should be updated or not.
//
// To update the golden files of a package, run:
//
//	go test ./path/to/package -update
//
// The flag should be registered as a package global variable:
//
//	var update = xtest.UpdateGoldenFiles()
func UpdateGoldenFiles() *bool {
	return flag.Bool("update", false, "set to regenerate the golden files")
}

// AssertGolden compares got with the content of testdata/baseName. If update
// is set, the golden file is rewritten instead.
func AssertGolden(t testing.TB, update bool, baseName string, got []byte) {
	t.Helper()

	if update {
		MustWriteToFile(t, got, baseName)
		return
	}
	assert.Equal(t, string(MustReadFromFile(t, baseName)), string(got))
}

// SanitizedName sanitizes the test name such that it can be used as a file name.
func SanitizedName(t testing.TB) string {
	return strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_").Replace(t.Name())
}

// TempFile returns a path named after the test inside a directory that is
// removed when the test finishes. The file itself is not created.
func TempFile(t testing.TB, ext string) string {
	return filepath.Join(t.TempDir(), SanitizedName(t)+ext)
}

// CopyFile copies the file.
func CopyFile(t testing.TB, src, dst string) {
	t.Helper()

	raw, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, raw, 0666))
}

// MustWriteToFile writes b to file testdata/baseName. If the file exists, it
// is truncated; if it doesn't exist, it is created. On errors, t.Fatal() is
// called.
func MustWriteToFile(t testing.TB, b []byte, baseName string) {
	t.Helper()

	if err := os.WriteFile(ExpandPath(baseName), b, 0644); err != nil {
		t.Fatal(err)
	}
}

// MustReadFromFile reads testdata/baseName and returns the raw content. On
// errors, t.Fatal() is called.
func MustReadFromFile(t testing.TB, baseName string) []byte {
	t.Helper()

	b, err := os.ReadFile(ExpandPath(baseName))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// ExpandPath returns testdata/file.
func ExpandPath(file string) string {
	return filepath.Join("testdata", file)
}

// MustParseAddrs parses the whitespace separated list of addresses.
func MustParseAddrs(t testing.TB, list string) []netip.Addr {
	t.Helper()

	var addrs []netip.Addr
	for _, s := range strings.Fields(list) {
		a, err := netip.ParseAddr(s)
		require.NoError(t, err)
		addrs = append(addrs, a)
	}
	return addrs
}
