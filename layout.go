// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import "golang.org/x/exp/constraints"

// Internal binary layout and format limits.
const (
	// HeaderSize is the fixed RCF header size in bytes.
	HeaderSize = 0x3C
	// EntryTableOffset is the absolute offset of the entry table in every archive.
	EntryTableOffset = 0x3C
	// EntryRecordSize is the size of one entry table record.
	EntryRecordSize = 12
	// BlockSize is the alignment boundary of tables and payload blocks.
	BlockSize = 2048

	nameSize            = 32 // fixed archive label size
	metadataFolderSlot  = 8  // reserved bytes before the first metadata record
	metadataRecordFixed = 16 // date + padding + zero + stored length
	metadataRecordPad   = 3  // inter-record padding
	maxArchiveSize      = 1 << 32
)

// DefaultArchiveName is the label written into every packed header.
const DefaultArchiveName = "ATG CORE CEMENT LIBRARY"

// DefaultVersion is the major/minor version pair written into packed headers.
var DefaultVersion = [2]byte{2, 1}

// field describes one fixed-width field inside a record.
type field struct {
	offset int
	width  int
}

// end returns the exclusive end offset of the field.
func (f field) end() int {
	return f.offset + f.width
}

// Header field layout.
var (
	headerName           = field{offset: 0x00, width: nameSize}
	headerVersion        = field{offset: 0x20, width: 2}
	headerEndianFlag     = field{offset: 0x22, width: 1}
	headerLibraryValid   = field{offset: 0x23, width: 1}
	headerEntryOffset    = field{offset: 0x24, width: 4}
	headerEntryLength    = field{offset: 0x28, width: 4}
	headerMetadataOffset = field{offset: 0x2C, width: 4}
	headerMetadataLength = field{offset: 0x30, width: 4}
	headerReserved       = field{offset: 0x34, width: 4}
	headerNumberOfFiles  = field{offset: 0x38, width: 4}
)

// Metadata record field layout, relative to record start.
var (
	metadataDate           = field{offset: 0x0, width: 4}
	metadataPadding        = field{offset: 0x4, width: 4}
	metadataReserved       = field{offset: 0x8, width: 4}
	metadataFilenameLength = field{offset: 0xC, width: 4}
	metadataFilename       = 0x10
)

// Entry record field layout, relative to record start.
var (
	entryHash   = field{offset: 0x0, width: 4}
	entryOffset = field{offset: 0x4, width: 4}
	entryLength = field{offset: 0x8, width: 4}
)

// metadataFixedPadding is the constant padding stored in the folder slot and every record.
var metadataFixedPadding = [4]byte{0, 8, 0, 0}

// alignUp rounds n up to the next multiple of align.
func alignUp[T constraints.Unsigned](n T, align T) T {
	if align == 0 {
		return n
	}

	if rem := n % align; rem != 0 {
		return n + align - rem
	}

	return n
}

// padToBlock appends zero bytes until len(buf) is a multiple of BlockSize.
func padToBlock(buf []byte) []byte {
	size := uint64(len(buf))
	return append(buf, make([]byte, alignUp(size, BlockSize)-size)...)
}

// entryRecordOffset returns absolute offset of i-th entry record.
func entryRecordOffset(i int) int {
	return EntryTableOffset + EntryRecordSize*i
}

// entryDataOffsetField returns absolute offset of i-th entry data offset field.
func entryDataOffsetField(i int) int {
	return entryRecordOffset(i) + entryOffset.offset
}

// metadataRecordSize returns the encoded size of one metadata record
// given its stored filename length (filename bytes plus NUL).
func metadataRecordSize(storedLength uint32) uint64 {
	return metadataRecordFixed + uint64(storedLength) + metadataRecordPad
}

// nextMetadataRecord returns the start offset of the record following one at start.
func nextMetadataRecord(start uint64, storedLength uint32) uint64 {
	return start + metadataRecordSize(storedLength)
}
