// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memInput builds an in-memory pack input.
func memInput(path string, data string) Input {
	return Input{
		Path:     path,
		SizeHint: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(data)), nil
		},
	}
}

// fixedNow returns a PackOptions.Now func stamping every entry with unix.
func fixedNow(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

// writeTree creates files under root from a relative path to content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestPackRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		memInput("b.txt", "world!"),
		memInput("data/sub/c.bin", "\x00\x01\x02"),
		memInput("a.txt", "hello"),
		memInput("empty.dat", ""),
	}

	var progress []string
	var out bytes.Buffer
	res, err := Pack(context.Background(), &out, inputs, PackOptions{
		Now: fixedNow(1700000000),
		OnEntryDone: func(p PackEntryProgress) {
			progress = append(progress, p.Path)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.WrittenEntries)
	assert.Equal(t, int64(out.Len()), res.ArchiveSize)
	assert.Equal(t, int64(14), res.DataSize)
	assert.Equal(t, int64(48), res.EntryTableSize)
	assert.Equal(t, digest.FromBytes(out.Bytes()), res.Digest)
	assert.Empty(t, res.Collisions)
	assert.Equal(t, []string{"b.txt", `data\sub\c.bin`, "a.txt", "empty.dat"}, progress)

	a, err := Decode(out.Bytes())
	require.NoError(t, err)

	var names []string
	for _, m := range a.Metadata {
		names = append(names, m.Filename)
		assert.Equal(t, uint32(1700000000), m.Timestamp)
	}
	assert.Equal(t, []string{"b.txt", `data\sub\c.bin`, "a.txt", "empty.dat"}, names, "metadata keeps input order")

	for i := 1; i < len(a.Entries); i++ {
		assert.Less(t, a.Entries[i-1].Hash, a.Entries[i].Hash, "entries ascend by hash")
	}

	want := map[string]string{
		"a.txt":          "hello",
		"b.txt":          "world!",
		`data\sub\c.bin`: "\x00\x01\x02",
		"empty.dat":      "",
	}
	for i := range a.Entries {
		name := a.Filename(i)
		require.Contains(t, want, name)
		assert.Equal(t, want[name], string(a.Entries[i].Data), name)
	}

	// Re-encoding a decoded archive reproduces the same bytes.
	again, err := a.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, out.Bytes(), again)
}

func TestPackSeparatorAndLeadingSlash(t *testing.T) {
	t.Parallel()

	inputs := []Input{memInput(`dir\a.txt`, "a")}

	var slashOut bytes.Buffer
	_, err := Pack(context.Background(), &slashOut, inputs, PackOptions{Separator: "/"})
	require.NoError(t, err)
	a, err := Decode(slashOut.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "dir/a.txt", a.Metadata[0].Filename)

	var leadOut bytes.Buffer
	_, err = Pack(context.Background(), &leadOut, inputs, PackOptions{LeadingSlash: true})
	require.NoError(t, err)
	a, err = Decode(leadOut.Bytes())
	require.NoError(t, err)
	assert.Equal(t, `\dir\a.txt`, a.Metadata[0].Filename)
	assert.Equal(t, FilenameHash(`dir\a.txt`), a.Entries[0].Hash, "leading backslash does not change hash")
}

func TestPackUseModTime(t *testing.T) {
	t.Parallel()

	in := memInput("a.txt", "a")
	in.ModTime = time.Unix(123456, 0)

	var out bytes.Buffer
	_, err := Pack(context.Background(), &out, []Input{in}, PackOptions{Now: fixedNow(999), UseModTime: true})
	require.NoError(t, err)

	a, err := Decode(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(123456), a.Metadata[0].Timestamp)
}

func TestPackIncludeRules(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		memInput("keep/a.txt", "a"),
		memInput("keep/b.bak", "b"),
		memInput("drop/c.txt", "c"),
	}

	rules := IncludeRules("keep/**")
	rules = append(rules, ExcludeRules("*.bak")...)

	var out bytes.Buffer
	res, err := Pack(context.Background(), &out, inputs, PackOptions{Include: rules})
	require.NoError(t, err)
	assert.Equal(t, 1, res.WrittenEntries)

	a, err := Decode(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, `keep\a.txt`, a.Metadata[0].Filename)
}

func TestPackErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Pack(ctx, nil, nil, PackOptions{})
	require.ErrorIs(t, err, ErrNilWriter)

	_, err = Pack(ctx, io.Discard, []Input{memInput("dir/A.txt", "1"), memInput(`\dir\A.txt`, "2")}, PackOptions{})
	require.ErrorIs(t, err, ErrDuplicateEntryPath)

	_, err = Pack(ctx, io.Discard, []Input{memInput("./", "1")}, PackOptions{})
	require.ErrorIs(t, err, ErrInvalidEntryPath)

	_, err = Pack(ctx, io.Discard, []Input{{Path: "a.txt"}}, PackOptions{})
	require.ErrorIs(t, err, ErrIO)

	failing := Input{Path: "a.txt", Open: func() (io.ReadCloser, error) { return nil, errors.New("denied") }}
	_, err = Pack(ctx, io.Discard, []Input{failing}, PackOptions{})
	require.ErrorIs(t, err, ErrIO)
}

func TestPackCollisions(t *testing.T) {
	t.Parallel()

	inputs := []Input{memInput("aao.txt", "first"), memInput("ab0.txt", "second")}

	var out bytes.Buffer
	res, err := Pack(context.Background(), &out, inputs, PackOptions{})
	require.NoError(t, err)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, []string{"aao.txt", "ab0.txt"}, res.Collisions[0].Filenames)

	// Both entries resolve to the first record on decode.
	a, err := Decode(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "aao.txt", a.Filename(0))
	assert.Equal(t, "aao.txt", a.Filename(1))

	_, err = Pack(context.Background(), io.Discard, inputs, PackOptions{RejectCollisions: true})
	require.ErrorIs(t, err, ErrHashCollision)
}

func TestPackCaseOnlyNamesCollide(t *testing.T) {
	t.Parallel()

	inputs := []Input{memInput("a.txt", "lower"), memInput("A.txt", "upper")}

	var out bytes.Buffer
	res, err := Pack(context.Background(), &out, inputs, PackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.WrittenEntries)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, []string{"a.txt", "A.txt"}, res.Collisions[0].Filenames)

	a, err := Decode(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "a.txt", a.Metadata[0].Filename)
	assert.Equal(t, "A.txt", a.Metadata[1].Filename)

	_, err = Pack(context.Background(), io.Discard, inputs, PackOptions{RejectCollisions: true})
	require.ErrorIs(t, err, ErrHashCollision)
}

func TestPackFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.rcf")
	require.NoError(t, os.WriteFile(outPath, []byte("previous"), 0o644))

	failing := Input{Path: "a.txt", Open: func() (io.ReadCloser, error) { return nil, errors.New("denied") }}
	_, err := PackFile(context.Background(), outPath, []Input{failing}, PackOptions{})
	require.Error(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), got, "failed pack leaves destination untouched")

	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, leftovers, 1, "temp file is removed")

	res, err := PackFile(context.Background(), outPath, []Input{memInput("a.txt", "a")}, PackOptions{})
	require.NoError(t, err)
	require.NoError(t, VerifyDigest(outPath, res.Digest))
	require.ErrorIs(t, VerifyDigest(outPath, digest.FromString("other")), ErrDigestMismatch)
}

func TestPackDir(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "Pack")
	writeTree(t, src, map[string]string{
		"z.txt":           "zz",
		"a/b.txt":         "bb",
		"a/nested/c.txt":  "cc",
		"b.txt":           "b",
		"a/nested/d.skip": "d",
	})

	outPath := filepath.Join(t.TempDir(), "Pack.rcf")
	res, err := PackDir(context.Background(), outPath, src, PackOptions{Include: ExcludeRules("*.skip")})
	require.NoError(t, err)
	assert.Equal(t, 4, res.WrittenEntries)

	r, err := Open(outPath)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var names []string
	for _, m := range r.Archive().Metadata {
		names = append(names, m.Filename)
	}
	assert.Equal(t, []string{`a\b.txt`, `a\nested\c.txt`, "b.txt", "z.txt"}, names, "lexical walk order")

	got, err := r.ReadEntry(`a\nested\c.txt`)
	require.NoError(t, err)
	assert.Equal(t, []byte("cc"), got)
}

func TestCollectInputs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"b/x.txt": "x", "a.txt": "aa"})

	inputs, err := CollectInputs(root)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "a.txt", inputs[0].Path)
	assert.Equal(t, int64(2), inputs[0].SizeHint)
	assert.Equal(t, "b/x.txt", inputs[1].Path)

	data, err := readInput(&inputs[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	_, err = CollectInputs(filepath.Join(root, "a.txt"))
	require.ErrorIs(t, err, ErrIO)
}
