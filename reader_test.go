// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSynthetic writes a synthetic archive to a temp file and returns its path.
func writeSynthetic(t *testing.T, files []syntheticFile) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.rcf")
	require.NoError(t, os.WriteFile(path, buildSyntheticArchive(t, files), 0o644))

	return path
}

func TestDecodeSyntheticTwoFiles(t *testing.T) {
	t.Parallel()

	raw := buildSyntheticArchive(t, []syntheticFile{
		{name: "a.txt", data: []byte("hello"), date: 1000},
		{name: "b.txt", data: []byte("world!"), date: 2000},
	})

	a, err := Decode(raw)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	assert.Equal(t, DefaultArchiveName, a.Header.Label())
	assert.Equal(t, [2]byte{2, 1}, a.Header.Version)
	require.Len(t, a.Metadata, 2)
	require.Len(t, a.Entries, 2)

	assert.Equal(t, "a.txt", a.Filename(0))
	assert.Equal(t, []byte("hello"), a.Entries[0].Data)
	assert.Equal(t, uint32(4096), a.Entries[0].DataOffset)
	assert.Equal(t, "b.txt", a.Filename(1))
	assert.Equal(t, []byte("world!"), a.Entries[1].Data)
	assert.Equal(t, uint32(1000), a.Metadata[0].Timestamp)
}

func TestDecodeEmptyArchive(t *testing.T) {
	t.Parallel()

	raw, err := NewArchive().MarshalBinary()
	require.NoError(t, err)

	a, err := Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, a.Entries)
	assert.Empty(t, a.Metadata)
}

func TestDecodeUnresolvedEntry(t *testing.T) {
	t.Parallel()

	raw := buildSyntheticArchive(t, []syntheticFile{
		{name: "a.txt", data: []byte("aaa")},
		{name: "b.txt", data: []byte("bbb"), hash: 0x12345678},
	})

	a, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, a.Entries[0].HasMetadata())
	assert.False(t, a.Entries[1].HasMetadata())
	assert.Equal(t, []byte("bbb"), a.Entries[1].Data, "payload is still loaded")
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	valid := buildSyntheticArchive(t, []syntheticFile{
		{name: "a.txt", data: []byte("hello")},
		{name: "b.txt", data: []byte("world")},
	})

	badMetadataLength := bytes.Clone(valid)
	copy(badMetadataLength[0x30:], WriteLE32(1<<20))

	badMetadataCount := bytes.Clone(valid)
	copy(badMetadataCount[0x38:], WriteLE32(50))

	badEntryOffset := bytes.Clone(valid)
	copy(badEntryOffset[0x3C+4:], WriteLE32(uint32(len(valid))))

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrTruncatedHeader},
		{name: "short header", data: valid[:HeaderSize-1], want: ErrTruncatedHeader},
		{name: "metadata past end", data: badMetadataLength, want: ErrCorruptMetadata},
		{name: "count larger than tables", data: badMetadataCount, want: ErrCorruptMetadata},
		{name: "payload past end", data: badEntryOffset, want: ErrCorruptEntryTable},
		{name: "truncated payload", data: valid[:len(valid)-1], want: ErrCorruptEntryTable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tc.data)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOpenAndReadEntry(t *testing.T) {
	t.Parallel()

	path := writeSynthetic(t, []syntheticFile{
		{name: `data\a.txt`, data: []byte("hello")},
		{name: `data\b.txt`, data: []byte("world")},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	entries := r.Entries()
	require.Len(t, entries, 2)

	got, err := r.ReadEntry("data/A.TXT")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = r.ReadEntryAt(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)

	_, err = r.ReadEntry("missing.txt")
	require.ErrorIs(t, err, ErrEntryNotFound)

	_, err = r.OpenEntryAt(9)
	require.ErrorIs(t, err, ErrEntryNotFound)

	assert.Nil(t, r.Archive().Entries[0].Data, "payloads are lazy")
	require.NoError(t, r.LoadPayloads(context.Background()))
	assert.Equal(t, []byte("hello"), r.Archive().Entries[0].Data)

	rc, err := r.OpenEntry(`data\b.txt`)
	require.NoError(t, err)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("world"), streamed)
}

func TestReaderClose(t *testing.T) {
	t.Parallel()

	path := writeSynthetic(t, []syntheticFile{{name: "a.txt", data: []byte("x")}})

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "second close is a no-op")

	_, err = r.ReadEntry("a.txt")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, r.LoadPayloads(context.Background()), ErrClosed)
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.rcf"))
	require.ErrorIs(t, err, ErrIO)

	_, err = NewReaderFromReaderAt(nil, 0)
	require.ErrorIs(t, err, ErrNilReader)
}

func TestReadHeaderAndListEntries(t *testing.T) {
	t.Parallel()

	path := writeSynthetic(t, []syntheticFile{
		{name: "a.txt", data: []byte("hello"), date: 42},
		{name: "b.txt", data: []byte("world!"), hash: 1},
	})

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h.NumberOfFiles)

	entries, err := ListEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EntryInfo{
		Path:      "a.txt",
		Hash:      0x057c1f43,
		Offset:    4096,
		DataSize:  5,
		TimeStamp: 42,
		Index:     0,
		Resolved:  true,
	}, entries[0])
	assert.False(t, entries[1].Resolved)
	assert.Empty(t, entries[1].Path)

	short := filepath.Join(t.TempDir(), "short.rcf")
	require.NoError(t, os.WriteFile(short, []byte("RCF"), 0o644))
	_, err = ReadHeader(short)
	require.ErrorIs(t, err, ErrTruncatedHeader)
}
