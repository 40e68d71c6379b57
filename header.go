// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"fmt"
)

// Header is the fixed 60-byte RCF header.
type Header struct {
	// Name is the zero-padded archive label.
	Name [nameSize]byte `json:"-" yaml:"-"`
	// Version holds major and minor version bytes; not interpreted.
	Version [2]byte `json:"version" yaml:"version"`
	// BigEndian is the endianness flag; packed archives are always little-endian.
	BigEndian bool `json:"big_endian,omitempty" yaml:"big_endian,omitempty"`
	// LibraryValid must be set for archives consumed by the game.
	LibraryValid bool `json:"library_valid" yaml:"library_valid"`
	// EntryOffset is absolute offset of the entry table.
	EntryOffset uint32 `json:"entry_offset" yaml:"entry_offset"`
	// EntryLength is byte length of the entry table.
	EntryLength uint32 `json:"entry_length" yaml:"entry_length"`
	// MetadataOffset is absolute offset of the metadata table.
	MetadataOffset uint32 `json:"metadata_offset" yaml:"metadata_offset"`
	// MetadataLength is byte length of the metadata table.
	MetadataLength uint32 `json:"metadata_length" yaml:"metadata_length"`
	// Reserved is always zero in packed archives.
	Reserved [4]byte `json:"-" yaml:"-"`
	// NumberOfFiles is the count of entries and metadata records.
	NumberOfFiles uint32 `json:"number_of_files" yaml:"number_of_files"`
}

// NewHeader returns the stub header written before table sizes are known.
func NewHeader() Header {
	h := Header{
		Version:      DefaultVersion,
		LibraryValid: true,
		EntryOffset:  EntryTableOffset,
	}
	h.SetLabel(DefaultArchiveName)

	return h
}

// Label returns the archive name without trailing NUL padding.
func (h *Header) Label() string {
	if i := bytes.IndexByte(h.Name[:], 0); i >= 0 {
		return string(h.Name[:i])
	}

	return string(h.Name[:])
}

// SetLabel stores name zero-padded (or truncated) to 32 bytes.
func (h *Header) SetLabel(name string) {
	h.Name = [nameSize]byte{}
	copy(h.Name[:], name)
}

// DecodeHeader parses the fixed header from the first 60 bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedHeader, len(b), HeaderSize)
	}

	copy(h.Name[:], b[headerName.offset:headerName.end()])
	copy(h.Version[:], b[headerVersion.offset:headerVersion.end()])
	h.BigEndian = b[headerEndianFlag.offset] != 0
	h.LibraryValid = b[headerLibraryValid.offset] != 0
	copy(h.Reserved[:], b[headerReserved.offset:headerReserved.end()])

	// Bounds are guaranteed by the length check above.
	h.EntryOffset, _ = readField(b, 0, headerEntryOffset)
	h.EntryLength, _ = readField(b, 0, headerEntryLength)
	h.MetadataOffset, _ = readField(b, 0, headerMetadataOffset)
	h.MetadataLength, _ = readField(b, 0, headerMetadataLength)
	h.NumberOfFiles, _ = readField(b, 0, headerNumberOfFiles)

	return h, nil
}

// EncodeTo writes the header into buf, which must hold at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header buffer of %d bytes", ErrOutOfBounds, len(buf))
	}

	copy(buf[headerName.offset:headerName.end()], h.Name[:])
	copy(buf[headerVersion.offset:headerVersion.end()], h.Version[:])
	buf[headerEndianFlag.offset] = boolByte(h.BigEndian)
	buf[headerLibraryValid.offset] = boolByte(h.LibraryValid)
	copy(buf[headerReserved.offset:headerReserved.end()], h.Reserved[:])

	for _, f := range []struct {
		field field
		value uint32
	}{
		{headerEntryOffset, h.EntryOffset},
		{headerEntryLength, h.EntryLength},
		{headerMetadataOffset, h.MetadataOffset},
		{headerMetadataLength, h.MetadataLength},
		{headerNumberOfFiles, h.NumberOfFiles},
	} {
		if err := PutLE32(buf, f.field.offset, f.value); err != nil {
			return err
		}
	}

	return nil
}

// MarshalBinary encodes the header to its 60-byte form.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	if err := h.EncodeTo(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// UnmarshalBinary decodes the header from data.
func (h *Header) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeHeader(data)
	if err != nil {
		return err
	}

	*h = decoded
	return nil
}

// boolByte converts a flag to its on-disk byte.
func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
