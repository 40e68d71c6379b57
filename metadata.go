// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Metadata is one variable-size metadata record: timestamp and filename.
type Metadata struct {
	// Filename is the stored relative path, without the NUL terminator.
	Filename string `json:"filename" yaml:"filename"`
	// Timestamp is Unix time of the record.
	Timestamp uint32 `json:"timestamp" yaml:"timestamp"`
	// Padding is the fixed padding as read from the archive.
	Padding [4]byte `json:"-" yaml:"-"`
	// Reserved holds the zero bytes as read from the archive.
	Reserved [4]byte `json:"-" yaml:"-"`
}

// NewMetadata builds a metadata record for filename stamped with ts.
func NewMetadata(filename string, ts time.Time) Metadata {
	return Metadata{
		Filename:  filename,
		Timestamp: timeToUint32(ts),
		Padding:   metadataFixedPadding,
	}
}

// Time returns the record timestamp as time.Time.
func (m *Metadata) Time() time.Time {
	return time.Unix(int64(m.Timestamp), 0)
}

// Hash returns FilenameHash of the record filename.
func (m *Metadata) Hash() uint32 {
	return FilenameHash(m.Filename)
}

// StoredLength returns the filename length field as written: bytes plus NUL.
func (m *Metadata) StoredLength() (uint32, error) {
	if uint64(len(m.Filename)) >= math.MaxUint32 {
		return 0, fmt.Errorf("%w: filename of %d bytes", ErrSizeOverflow, len(m.Filename))
	}

	return uint32(len(m.Filename)) + 1, nil //nolint:gosec // bounded above
}

// decodeMetadataTable decodes count records from a metadata table.
// The first record starts after the reserved folder slot.
func decodeMetadataTable(table []byte, count uint32) ([]Metadata, error) {
	if count == 0 {
		return nil, nil
	}

	// Every record needs at least its fixed part, which bounds a bogus count.
	if uint64(count)*metadataRecordFixed > uint64(len(table)) {
		return nil, fmt.Errorf("%w: %d records cannot fit %d bytes", ErrCorruptMetadata, count, len(table))
	}

	list := make([]Metadata, 0, count)
	start := uint64(metadataFolderSlot)
	for i := uint32(0); i < count; i++ {
		m, storedLength, err := decodeMetadataRecord(table, start)
		if err != nil {
			return nil, fmt.Errorf("metadata record %d: %w", i, err)
		}

		list = append(list, m)
		start = nextMetadataRecord(start, storedLength)
	}

	return list, nil
}

// decodeMetadataRecord decodes one record at start and returns its stored filename length.
func decodeMetadataRecord(table []byte, start uint64) (Metadata, uint32, error) {
	var m Metadata
	fixedEnd := start + metadataRecordFixed
	if fixedEnd > uint64(len(table)) {
		return m, 0, fmt.Errorf("%w: record at %d exceeds table length %d", ErrCorruptMetadata, start, len(table))
	}

	base := int(start) //nolint:gosec // bounded by table length above
	date, err := readField(table, base, metadataDate)
	if err != nil {
		return m, 0, fmt.Errorf("%w: %w", ErrCorruptMetadata, err)
	}

	storedLength, err := readField(table, base, metadataFilenameLength)
	if err != nil {
		return m, 0, fmt.Errorf("%w: %w", ErrCorruptMetadata, err)
	}

	nameEnd := fixedEnd + uint64(storedLength)
	if nameEnd > uint64(len(table)) {
		return m, 0, fmt.Errorf(
			"%w: filename of %d bytes at %d exceeds table length %d",
			ErrCorruptMetadata, storedLength, start, len(table),
		)
	}

	m.Timestamp = date
	copy(m.Padding[:], table[base+metadataPadding.offset:base+metadataPadding.end()])
	copy(m.Reserved[:], table[base+metadataReserved.offset:base+metadataReserved.end()])

	name := table[fixedEnd:nameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	m.Filename = string(name)

	return m, storedLength, nil
}

// appendMetadataTable appends the folder slot and all records to dst.
// It returns the extended buffer and the table length for the header.
func appendMetadataTable(dst []byte, list []Metadata) ([]byte, uint64, error) {
	dst = append(dst, metadataFixedPadding[:]...)
	dst = append(dst, 0, 0, 0, 0)
	size := uint64(metadataFolderSlot)

	for i := range list {
		var (
			n   uint64
			err error
		)
		dst, n, err = appendMetadataRecord(dst, &list[i])
		if err != nil {
			return nil, 0, fmt.Errorf("metadata record %d: %w", i, err)
		}

		size += n
	}

	return dst, size, nil
}

// appendMetadataRecord appends one record and returns the number of bytes written.
func appendMetadataRecord(dst []byte, m *Metadata) ([]byte, uint64, error) {
	storedLength, err := m.StoredLength()
	if err != nil {
		return nil, 0, err
	}

	dst = binary.LittleEndian.AppendUint32(dst, m.Timestamp)
	dst = append(dst, metadataFixedPadding[:]...)
	dst = append(dst, 0, 0, 0, 0)
	dst = binary.LittleEndian.AppendUint32(dst, storedLength)
	dst = append(dst, m.Filename...)
	dst = append(dst, 0)
	dst = append(dst, make([]byte, metadataRecordPad)...)

	return dst, metadataRecordSize(storedLength), nil
}

// timeToUint32 converts time to Unix uint32 (zero when unset or out of range).
func timeToUint32(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}

	sec := t.Unix()
	if sec < 0 || sec > math.MaxUint32 {
		return 0
	}

	return uint32(sec)
}
