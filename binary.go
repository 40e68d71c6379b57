// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ReadLE32 decodes a little-endian uint32 from b at offset.
func ReadLE32(b []byte, offset int) (uint32, error) {
	if offset < 0 || offset > len(b)-4 {
		return 0, fmt.Errorf("%w: uint32 at %d in %d bytes", ErrOutOfBounds, offset, len(b))
	}

	return binary.LittleEndian.Uint32(b[offset : offset+4]), nil
}

// WriteLE32 encodes v as exactly 4 little-endian bytes.
func WriteLE32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), v)
}

// PutLE32 overwrites 4 bytes of b at offset with little-endian v.
func PutLE32(b []byte, offset int, v uint32) error {
	if offset < 0 || offset > len(b)-4 {
		return fmt.Errorf("%w: uint32 at %d in %d bytes", ErrOutOfBounds, offset, len(b))
	}

	binary.LittleEndian.PutUint32(b[offset:offset+4], v)
	return nil
}

// readField decodes a 4-byte field at base+f.offset.
func readField(b []byte, base int, f field) (uint32, error) {
	return ReadLE32(b, base+f.offset)
}

// readRange reads exactly n bytes at absolute offset off from ra.
// size is the total source size used for bounds checking.
func readRange(ra io.ReaderAt, size int64, off int64, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off > size || n > size-off {
		return nil, fmt.Errorf("%w: %d bytes at %d in %d-byte source", ErrOutOfBounds, n, off, size)
	}

	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}

	// ReaderAt may report io.EOF together with a full read at the source end.
	if read, err := ra.ReadAt(buf, off); err != nil && int64(read) != n {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %d bytes at %d: %w", ErrOutOfBounds, n, off, err)
		}

		return nil, fmt.Errorf("%w: read %d bytes at %d: %w", ErrIO, n, off, err)
	}

	return buf, nil
}
