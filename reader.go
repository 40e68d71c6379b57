// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Reader provides read-only access to a parsed RCF file.
type Reader struct {
	// ra is the underlying random-access reader used for table and payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// archive is the decoded model; payloads stay nil until loaded.
	archive *Archive
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens an RCF file by path and decodes header and tables.
func Open(path string) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAt(f, size)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt decodes an RCF from an existing ReaderAt of known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	a, err := decodeArchive(ra, size)
	if err != nil {
		return nil, err
	}

	return &Reader{ra: ra, size: size, archive: a}, nil
}

// Decode parses a complete in-memory archive and loads every payload.
func Decode(data []byte) (*Archive, error) {
	r, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	if err := r.LoadPayloads(context.Background()); err != nil {
		return nil, err
	}

	return r.archive, nil
}

// Header returns the decoded header.
func (r *Reader) Header() Header {
	if r == nil || r.archive == nil {
		return Header{}
	}

	return r.archive.Header
}

// Archive returns the decoded model owned by the reader.
// Entry payloads are nil until LoadPayloads is called.
func (r *Reader) Archive() *Archive {
	if r == nil {
		return nil
	}

	return r.archive
}

// Entries returns parsed entries with resolved metadata.
func (r *Reader) Entries() []EntryInfo {
	if r == nil || r.archive == nil {
		return nil
	}

	return r.archive.EntryInfos()
}

// Size returns total source size in bytes.
func (r *Reader) Size() int64 {
	if r == nil {
		return 0
	}

	return r.size
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// LoadPayloads reads every entry payload into the archive model.
// Payload ranges are disjoint, so reads run in parallel.
func (r *Reader) LoadPayloads(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	entries := r.archive.Entries
	for i := range entries {
		if entries[i].Loaded() {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := r.readPayload(&entries[i])
			if err != nil {
				return fmt.Errorf("load entry %d: %w", i, err)
			}

			entries[i].Data = data
			return nil
		})
	}

	return g.Wait()
}

// checkOpen reports ErrNilReader or ErrClosed for unusable readers.
func (r *Reader) checkOpen() error {
	if r == nil || r.ra == nil || r.archive == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// readPayload reads one entry payload through the byte-range accessor.
func (r *Reader) readPayload(e *Entry) ([]byte, error) {
	return readRange(r.ra, r.size, int64(e.DataOffset), int64(e.DataLength))
}

// decodeArchive runs the decode pipeline: header, metadata table, entry table.
func decodeArchive(ra io.ReaderAt, size int64) (*Archive, error) {
	raw, err := readRange(ra, size, 0, HeaderSize)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			return nil, fmt.Errorf("%w: %w", ErrTruncatedHeader, err)
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	a := &Archive{Header: header}
	if header.NumberOfFiles == 0 {
		return a, nil
	}

	metadataTable, err := readRange(ra, size, int64(header.MetadataOffset), int64(header.MetadataLength))
	if err != nil {
		return nil, fmt.Errorf("%w: read table: %w", ErrCorruptMetadata, err)
	}

	a.Metadata, err = decodeMetadataTable(metadataTable, header.NumberOfFiles)
	if err != nil {
		return nil, err
	}

	entryTable, err := readRange(ra, size, int64(header.EntryOffset), int64(header.EntryLength))
	if err != nil {
		return nil, fmt.Errorf("%w: read table: %w", ErrCorruptEntryTable, err)
	}

	a.Entries, err = decodeEntryTable(entryTable, header.NumberOfFiles, size)
	if err != nil {
		return nil, err
	}

	a.ResolveMetadata()
	return a, nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open RCF: %w", ErrIO, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat: %w", ErrIO, err)
	}

	return f, fi.Size(), nil
}
