// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"encoding/binary"
	"fmt"
)

// noMetadata marks an entry whose hash matches no metadata record.
const noMetadata = -1

// Entry is one fixed 12-byte entry table record plus its payload.
type Entry struct {
	// Data is the payload; nil until loaded for entries read from an archive.
	Data []byte `json:"-" yaml:"-"`
	// Hash is FilenameHash of the associated metadata filename.
	Hash uint32 `json:"hash" yaml:"hash"`
	// DataOffset is absolute payload offset in the archive.
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
	// DataLength is payload length in bytes.
	DataLength uint32 `json:"data_length" yaml:"data_length"`
	// MetadataIndex is the index of the resolved record in Archive.Metadata, or -1.
	MetadataIndex int `json:"metadata_index" yaml:"metadata_index"`
}

// HasMetadata reports whether the entry resolved to a metadata record.
func (e *Entry) HasMetadata() bool {
	return e.MetadataIndex >= 0
}

// Loaded reports whether the payload is present in memory.
func (e *Entry) Loaded() bool {
	return e.DataLength == 0 || e.Data != nil
}

// decodeEntryTable decodes count records from the entry table
// and validates payload ranges against archiveSize.
func decodeEntryTable(table []byte, count uint32, archiveSize int64) ([]Entry, error) {
	if count == 0 {
		return nil, nil
	}

	need := uint64(count) * EntryRecordSize
	if need > uint64(len(table)) {
		return nil, fmt.Errorf("%w: %d records need %d bytes, table has %d", ErrCorruptEntryTable, count, need, len(table))
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < int(count); i++ {
		e, err := decodeEntryRecord(table, i*EntryRecordSize)
		if err != nil {
			return nil, fmt.Errorf("entry record %d: %w", i, err)
		}

		end := int64(e.DataOffset) + int64(e.DataLength)
		if end > archiveSize {
			return nil, fmt.Errorf(
				"%w: entry %d payload [%d, %d) exceeds archive size %d",
				ErrCorruptEntryTable, i, e.DataOffset, end, archiveSize,
			)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// decodeEntryRecord decodes one 12-byte record at base.
func decodeEntryRecord(table []byte, base int) (Entry, error) {
	e := Entry{MetadataIndex: noMetadata}

	var err error
	if e.Hash, err = readField(table, base, entryHash); err != nil {
		return e, fmt.Errorf("%w: %w", ErrCorruptEntryTable, err)
	}
	if e.DataOffset, err = readField(table, base, entryOffset); err != nil {
		return e, fmt.Errorf("%w: %w", ErrCorruptEntryTable, err)
	}
	if e.DataLength, err = readField(table, base, entryLength); err != nil {
		return e, fmt.Errorf("%w: %w", ErrCorruptEntryTable, err)
	}

	return e, nil
}

// appendEntryRecord appends one record with a zero offset placeholder.
// The offset is back-patched once payload placement is known.
func appendEntryRecord(dst []byte, e *Entry) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, e.Hash)
	dst = append(dst, 0, 0, 0, 0)
	return binary.LittleEndian.AppendUint32(dst, e.DataLength)
}
