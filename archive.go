// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// Archive is the in-memory RCF model: header, metadata in discovery order
// and entries bound to metadata by filename hash.
type Archive struct {
	// Header is the decoded or back-patched archive header.
	Header Header `json:"header" yaml:"header"`
	// Metadata holds records in table order; never re-sorted.
	Metadata []Metadata `json:"metadata" yaml:"metadata"`
	// Entries holds entry records; sorted by hash on serialization.
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Collision describes distinct filenames sharing one filename hash.
type Collision struct {
	// Filenames are the colliding names in metadata order.
	Filenames []string `json:"filenames" yaml:"filenames"`
	// Hash is the shared filename hash.
	Hash uint32 `json:"hash" yaml:"hash"`
}

// NewArchive returns an empty archive with a stub header.
func NewArchive() *Archive {
	return &Archive{Header: NewHeader()}
}

// Add appends one metadata record and its entry carrying data.
func (a *Archive) Add(filename string, ts time.Time, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: entry %s has %d bytes", ErrSizeOverflow, filename, len(data))
	}

	m := NewMetadata(filename, ts)
	a.Metadata = append(a.Metadata, m)
	a.Entries = append(a.Entries, Entry{
		Hash:          m.Hash(),
		DataLength:    uint32(len(data)), //nolint:gosec // bounded above
		Data:          data,
		MetadataIndex: len(a.Metadata) - 1,
	})

	return nil
}

// MetadataFor returns the metadata record bound to entry i.
func (a *Archive) MetadataFor(i int) (*Metadata, bool) {
	if i < 0 || i >= len(a.Entries) {
		return nil, false
	}

	idx := a.Entries[i].MetadataIndex
	if idx < 0 || idx >= len(a.Metadata) {
		return nil, false
	}

	return &a.Metadata[idx], true
}

// Filename returns the resolved filename of entry i, or "" when unresolved.
func (a *Archive) Filename(i int) string {
	m, ok := a.MetadataFor(i)
	if !ok {
		return ""
	}

	return m.Filename
}

// EntryInfos returns one EntryInfo per entry in entry table order.
func (a *Archive) EntryInfos() []EntryInfo {
	out := make([]EntryInfo, len(a.Entries))
	for i := range a.Entries {
		e := &a.Entries[i]
		out[i] = EntryInfo{
			Hash:     e.Hash,
			Offset:   e.DataOffset,
			DataSize: e.DataLength,
			Index:    i,
		}
		if m, ok := a.MetadataFor(i); ok {
			out[i].Path = m.Filename
			out[i].TimeStamp = m.Timestamp
			out[i].Resolved = true
		}
	}

	return out
}

// FindEntry returns index of the entry whose resolved filename matches name
// (case-insensitive, either separator), or -1.
func (a *Archive) FindEntry(name string) int {
	key := entryPathKey(name)
	for i := range a.Entries {
		m, ok := a.MetadataFor(i)
		if ok && entryPathKey(m.Filename) == key {
			return i
		}
	}

	return -1
}

// ResolveMetadata binds every entry to the first metadata record with an equal
// filename hash. Entries without a match get MetadataIndex -1.
func (a *Archive) ResolveMetadata() {
	index := a.metadataIndex()
	for i := range a.Entries {
		idx, ok := index[a.Entries[i].Hash]
		if !ok {
			idx = noMetadata
		}

		a.Entries[i].MetadataIndex = idx
	}
}

// metadataIndex maps filename hash to the first metadata index carrying it.
func (a *Archive) metadataIndex() map[uint32]int {
	index := make(map[uint32]int, len(a.Metadata))
	for i := range a.Metadata {
		h := a.Metadata[i].Hash()
		if _, exists := index[h]; !exists {
			index[h] = i
		}
	}

	return index
}

// Collisions reports groups of distinct filenames that share a hash.
// The decode-side resolver binds all of them to the first name.
func (a *Archive) Collisions() []Collision {
	groups := make(map[uint32][]string, len(a.Metadata))
	order := make([]uint32, 0)
	for i := range a.Metadata {
		h := a.Metadata[i].Hash()
		names := groups[h]
		if len(names) == 0 {
			order = append(order, h)
		}
		if !slices.Contains(names, a.Metadata[i].Filename) {
			groups[h] = append(names, a.Metadata[i].Filename)
		}
	}

	var out []Collision
	for _, h := range order {
		if len(groups[h]) > 1 {
			out = append(out, Collision{Hash: h, Filenames: groups[h]})
		}
	}

	return out
}

// SortEntries orders entries by hash ascending; ties keep their relative order.
func (a *Archive) SortEntries() {
	slices.SortStableFunc(a.Entries, func(x, y Entry) int {
		return cmp.Compare(x.Hash, y.Hash)
	})
}

// MarshalBinary sorts entries by hash and serializes the archive.
// Header sizes and entry data offsets are updated to the written layout.
func (a *Archive) MarshalBinary() ([]byte, error) {
	a.SortEntries()

	b := newLayoutBuilder(a.Header)
	if err := b.build(a.Entries, a.Metadata); err != nil {
		return nil, err
	}

	a.Header = b.header
	for i := range a.Entries {
		a.Entries[i].DataOffset = b.offsets[i]
	}

	return b.buf, nil
}

// Validate checks the count invariant between header, entries and metadata.
func (a *Archive) Validate() error {
	n := uint64(a.Header.NumberOfFiles)
	if n != uint64(len(a.Entries)) || n != uint64(len(a.Metadata)) {
		return fmt.Errorf(
			"%w: header declares %d files, have %d entries and %d metadata records",
			ErrCorruptEntryTable, n, len(a.Entries), len(a.Metadata),
		)
	}

	return nil
}
