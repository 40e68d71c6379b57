// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import "errors"

// Sentinel errors for RCF operations. Use errors.Is in callers.
var (
	// ErrTruncatedHeader means the source is shorter than the fixed 60-byte header.
	ErrTruncatedHeader = errors.New("truncated RCF header")
	// ErrCorruptMetadata means a metadata record runs past the declared metadata table.
	ErrCorruptMetadata = errors.New("corrupt RCF metadata table")
	// ErrCorruptEntryTable means entry table or payload ranges disagree with archive size.
	ErrCorruptEntryTable = errors.New("corrupt RCF entry table")
	// ErrOutOfBounds means a read exceeds the declared or available length.
	ErrOutOfBounds = errors.New("read out of bounds")
	// ErrIO means an underlying filesystem or stream operation failed.
	ErrIO = errors.New("i/o error")
	// ErrHashCollision means two distinct filenames produce the same filename hash.
	ErrHashCollision = errors.New("filename hash collision")
	// ErrExtractionSkipped means an entry has no resolvable metadata and cannot be extracted.
	ErrExtractionSkipped = errors.New("extraction skipped: no metadata for entry")
	// ErrWrite means one extracted file could not be written.
	ErrWrite = errors.New("write extracted file")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrNilEditor means the editor is nil.
	ErrNilEditor = errors.New("editor is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrSizeOverflow means an offset or size exceeds the uint32 RCF limit.
	ErrSizeOverflow = errors.New("size exceeds uint32 RCF limit")
	// ErrInvalidEntryPath means one of input entry paths is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrDuplicateEntryPath means two inputs resolve to the same path (case-insensitive).
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrPayloadNotLoaded means an entry payload must be loaded before serialization.
	ErrPayloadNotLoaded = errors.New("entry payload not loaded")
	// ErrDigestMismatch means archive content does not match the expected digest.
	ErrDigestMismatch = errors.New("archive digest mismatch")
	// ErrInvalidRules means one or more include/exclude path rules are invalid.
	ErrInvalidRules = errors.New("invalid path rules")
)
