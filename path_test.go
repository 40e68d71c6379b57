// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		in        string
		delimiter string
		want      []string
	}{
		{name: "backslash", in: `data\sub\a.txt`, delimiter: `\`, want: []string{"data", "sub", "a.txt"}},
		{name: "no delimiter", in: "a.txt", delimiter: `\`, want: []string{"a.txt"}},
		{name: "trailing remainder", in: `a\b\`, delimiter: `\`, want: []string{"a", "b", ""}},
		{name: "leading delimiter", in: `\a`, delimiter: `\`, want: []string{"", "a"}},
		{name: "empty input", in: "", delimiter: "/", want: []string{""}},
		{name: "multi-byte delimiter", in: "a::b", delimiter: "::", want: []string{"a", "b"}},
		{name: "empty delimiter", in: "a/b", delimiter: "", want: []string{"a/b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, SplitPath(tc.in, tc.delimiter))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "slash", in: "/", want: ""},
		{name: "clean", in: "data/scripts/main.lua", want: "data/scripts/main.lua"},
		{name: "windows", in: `.\data\scripts\`, want: "data/scripts"},
		{name: "leading backslash", in: `\data\a.txt`, want: "data/a.txt"},
		{name: "dot segments", in: "./a/../b//c.txt", want: "b/c.txt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, NormalizePath(tc.in))
		})
	}
}

func TestArchiveEntryName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		in           string
		sep          string
		leadingSlash bool
		want         string
	}{
		{name: "backslash default", in: "data/sub/a.txt", sep: `\`, want: `data\sub\a.txt`},
		{name: "forward slash kept", in: `data\sub\a.txt`, sep: "/", want: "data/sub/a.txt"},
		{name: "leading slash", in: "a.txt", sep: `\`, leadingSlash: true, want: `\a.txt`},
		{name: "cleaned", in: "./x/../a.txt", sep: `\`, want: "a.txt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := archiveEntryName(tc.in, tc.sep, tc.leadingSlash)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := archiveEntryName("  ", `\`, false)
	require.ErrorIs(t, err, ErrInvalidEntryPath)

	_, err = archiveEntryName("a\x00b", `\`, false)
	require.ErrorIs(t, err, ErrInvalidEntryPath)
}

func TestNormalizeExtractEntryPath(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		`data\a.txt`:   "data/a.txt",
		`\data\a.txt`:  "data/a.txt",
		"a.txt":        "a.txt",
		`data\.\b.txt`: "data/b.txt",
	}
	for in, want := range valid {
		got, err := normalizeExtractEntryPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{
		"",
		`\`,
		`\\server\share`,
		"/etc/passwd",
		`..\escape.txt`,
		`data\..\..\escape.txt`,
		`C:\windows\a.txt`,
		"a\x00b",
	}
	for _, in := range invalid {
		_, err := normalizeExtractEntryPath(in)
		require.ErrorIs(t, err, ErrInvalidExtractPath, "%q", in)
	}
}

func TestEntryPathKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, entryPathKey(`\Data\A.txt`), entryPathKey("data/a.TXT"))
	assert.NotEqual(t, entryPathKey("data/a.txt"), entryPathKey("data/b.txt"))
}
