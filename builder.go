// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import "fmt"

// layoutBuilder owns the output buffer while the archive layout is assembled:
// header stub, entry table, metadata table, payload blocks, then back-patch.
type layoutBuilder struct {
	buf     []byte
	offsets []uint32
	header  Header
}

// newLayoutBuilder prepares a builder seeded from base header label and version.
func newLayoutBuilder(base Header) *layoutBuilder {
	h := NewHeader()
	if base.Label() != "" {
		h.Name = base.Name
	}
	if base.Version != ([2]byte{}) {
		h.Version = base.Version
	}

	return &layoutBuilder{header: h}
}

// build lays out entries (already in final order) and metadata.
func (b *layoutBuilder) build(entries []Entry, metadata []Metadata) error {
	if len(entries) != len(metadata) {
		return fmt.Errorf("%w: %d entries vs %d metadata records", ErrCorruptEntryTable, len(entries), len(metadata))
	}

	for i := range entries {
		if !entries[i].Loaded() {
			return fmt.Errorf("%w: entry %d (hash %#08x)", ErrPayloadNotLoaded, i, entries[i].Hash)
		}
		if uint64(len(entries[i].Data)) != uint64(entries[i].DataLength) {
			return fmt.Errorf(
				"%w: entry %d declares %d bytes, holds %d",
				ErrCorruptEntryTable, i, entries[i].DataLength, len(entries[i].Data),
			)
		}
	}

	b.buf = make([]byte, HeaderSize, max(b.estimateSize(entries, metadata), HeaderSize))
	b.writeEntryTable(entries)
	b.buf = padToBlock(b.buf)

	metadataOffset := uint64(len(b.buf))
	var (
		metadataLength uint64
		err            error
	)
	b.buf, metadataLength, err = appendMetadataTable(b.buf, metadata)
	if err != nil {
		return err
	}
	b.buf = padToBlock(b.buf)

	if err := b.writePayloads(entries); err != nil {
		return err
	}

	if uint64(len(b.buf)) > maxArchiveSize {
		return fmt.Errorf("%w: archive of %d bytes", ErrSizeOverflow, len(b.buf))
	}

	b.header.NumberOfFiles = uint32(len(entries))                //nolint:gosec // bounded by archive size
	b.header.EntryLength = uint32(len(entries) * EntryRecordSize) //nolint:gosec // bounded by archive size
	b.header.MetadataOffset = uint32(metadataOffset)              //nolint:gosec // bounded by archive size
	b.header.MetadataLength = uint32(metadataLength)              //nolint:gosec // bounded by archive size

	return b.header.EncodeTo(b.buf)
}

// writeEntryTable appends entry records right after the header.
func (b *layoutBuilder) writeEntryTable(entries []Entry) {
	for i := range entries {
		b.buf = appendEntryRecord(b.buf, &entries[i])
	}
}

// writePayloads appends payload blocks and back-patches entry offsets.
// Every block except the last is padded to BlockSize.
func (b *layoutBuilder) writePayloads(entries []Entry) error {
	b.offsets = make([]uint32, len(entries))
	for i := range entries {
		offset := uint64(len(b.buf))
		if offset+uint64(len(entries[i].Data)) > maxArchiveSize {
			return fmt.Errorf("%w: payload %d at offset %d", ErrSizeOverflow, i, offset)
		}

		b.offsets[i] = uint32(offset) //nolint:gosec // bounded above
		if err := PutLE32(b.buf, entryDataOffsetField(i), b.offsets[i]); err != nil {
			return fmt.Errorf("patch entry %d offset: %w", i, err)
		}

		b.buf = append(b.buf, entries[i].Data...)
		if i < len(entries)-1 {
			b.buf = padToBlock(b.buf)
		}
	}

	return nil
}

// estimateSize returns an upper bound of the archive size used as buffer capacity.
func (b *layoutBuilder) estimateSize(entries []Entry, metadata []Metadata) int {
	size := uint64(HeaderSize) + uint64(len(entries))*EntryRecordSize + BlockSize
	size += metadataFolderSlot + BlockSize
	for i := range metadata {
		size += metadataRecordFixed + uint64(len(metadata[i].Filename)) + 1 + metadataRecordPad
	}
	for i := range entries {
		size += uint64(len(entries[i].Data)) + BlockSize
	}

	if size > maxArchiveSize+BlockSize {
		return 0
	}

	return int(size) //nolint:gosec // bounded above
}
