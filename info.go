// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"errors"
	"fmt"
	"io"

	digest "github.com/opencontainers/go-digest"
)

// ReadHeader reads only the fixed header of an RCF file.
func ReadHeader(path string) (Header, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	raw, err := readRange(f, size, 0, HeaderSize)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			return Header{}, fmt.Errorf("%w: %w", ErrTruncatedHeader, err)
		}

		return Header{}, err
	}

	return DecodeHeader(raw)
}

// ListEntries reads header and tables of an RCF file without payloads.
func ListEntries(path string) ([]EntryInfo, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	a, err := decodeArchive(f, size)
	if err != nil {
		return nil, err
	}

	return a.EntryInfos(), nil
}

// VerifyDigest checks that the file at path matches expected,
// typically PackResult.Digest of an earlier pack.
func VerifyDigest(path string, expected digest.Digest) error {
	if err := expected.Validate(); err != nil {
		return fmt.Errorf("invalid digest %q: %w", expected, err)
	}

	f, _, err := openFileWithSize(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	verifier := expected.Verifier()
	if _, err := io.Copy(verifier, f); err != nil {
		return fmt.Errorf("%w: hash %s: %w", ErrIO, path, err)
	}

	if !verifier.Verified() {
		return fmt.Errorf("%w: %s does not match %s", ErrDigestMismatch, path, expected)
	}

	return nil
}
