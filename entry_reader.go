// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// openEntryAt opens payload stream for entry i; loaded payloads are served from memory.
func (r *Reader) openEntryAt(i int, name string) (io.ReadCloser, error) {
	if i < 0 || i >= len(r.archive.Entries) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	e := &r.archive.Entries[i]
	if e.Data != nil {
		return nopCloser{Reader: bytes.NewReader(e.Data)}, nil
	}

	end := int64(e.DataOffset) + int64(e.DataLength)
	if end > r.size {
		return nil, fmt.Errorf("%w: entry %s payload ends at %d, source has %d", ErrOutOfBounds, name, end, r.size)
	}

	return nopCloser{Reader: io.NewSectionReader(r.ra, int64(e.DataOffset), int64(e.DataLength))}, nil
}

// OpenEntry opens the entry whose resolved filename matches name.
// Matching ignores case and accepts either separator.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	return r.openEntryAt(r.archive.FindEntry(name), name)
}

// OpenEntryAt opens entry i of the entry table, including unresolved entries.
func (r *Reader) OpenEntryAt(i int) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	return r.openEntryAt(i, fmt.Sprintf("#%d", i))
}

// ReadEntry reads full content of the named entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	rc, err := r.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return readAllEntry(rc, name)
}

// ReadEntryAt reads full content of entry i.
func (r *Reader) ReadEntryAt(i int) ([]byte, error) {
	rc, err := r.OpenEntryAt(i)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return readAllEntry(rc, fmt.Sprintf("#%d", i))
}

// readAllEntry drains one entry stream, tagging failures with ErrIO.
func readAllEntry(rc io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %s: %w", ErrIO, name, err)
	}

	return data, nil
}
