// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// packItem describes one payload source for the archive assembly core.
// Exactly one of input or source is set.
type packItem struct {
	input  *Input
	source *sourceEntry
	path   string
}

// sourceEntry is an entry carried over from an existing archive.
type sourceEntry struct {
	data     []byte
	metadata Metadata
}

// Pack writes an RCF to out from the given inputs.
// Metadata records follow input order; entries are sorted by filename hash.
func Pack(ctx context.Context, out io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	start := time.Now()
	opts.applyDefaults()

	plan, err := preparePackPlan(inputs, opts)
	if err != nil {
		return nil, err
	}

	a, err := assembleArchive(ctx, NewHeader(), plan, opts)
	if err != nil {
		return nil, err
	}

	return writeArchive(out, a, start)
}

// PackFile writes an RCF to outPath. The file is replaced atomically,
// so a failed pack never leaves a partial archive behind.
func PackFile(ctx context.Context, outPath string, inputs []Input, opts PackOptions) (*PackResult, error) {
	return writeFileAtomic(outPath, func(w io.Writer) (*PackResult, error) {
		return Pack(ctx, w, inputs, opts)
	})
}

// PackDir packs every regular file below srcDir into outPath.
func PackDir(ctx context.Context, outPath string, srcDir string, opts PackOptions) (*PackResult, error) {
	inputs, err := CollectInputs(srcDir)
	if err != nil {
		return nil, err
	}

	return PackFile(ctx, outPath, inputs, opts)
}

// preparePackPlan filters, names and validates pack inputs, keeping input order.
func preparePackPlan(inputs []Input, opts PackOptions) ([]packItem, error) {
	matcher, err := newPathMatcher(opts.Include, opts.IncludeMatcherOptions)
	if err != nil {
		return nil, err
	}

	plan := make([]packItem, 0, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i := range inputs {
		if !matcher.Match(inputs[i].Path) {
			opts.Logger.WithField("path", inputs[i].Path).Debug("input excluded by rules")
			continue
		}

		name, err := archiveEntryName(inputs[i].Path, opts.Separator, opts.LeadingSlash)
		if err != nil {
			return nil, err
		}

		// Names differing only in case share a hash and are reported as collisions.
		key := NormalizePath(name)
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryPath, name, existing)
		}
		seen[key] = name

		plan = append(plan, packItem{path: name, input: &inputs[i]})
	}

	var total int64
	for i := range plan {
		if plan[i].input.SizeHint > 0 {
			total += plan[i].input.SizeHint
		}
	}
	if total > maxArchiveSize {
		return nil, fmt.Errorf("%w: estimated data %d exceeds 4 GiB", ErrSizeOverflow, total)
	}

	return plan, nil
}

// assembleArchive reads payloads of the plan in parallel and adds them to a new
// archive in plan order. It is shared by Pack and editor commit flows.
func assembleArchive(ctx context.Context, base Header, plan []packItem, opts PackOptions) (*Archive, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	payloads := make([][]byte, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for i := range plan {
		if plan[i].input == nil {
			payloads[i] = plan[i].source.data
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := readInput(plan[i].input)
			if err != nil {
				return err
			}

			payloads[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &Archive{Header: base}
	now := opts.Now()
	for i := range plan {
		var err error
		if plan[i].input != nil {
			ts := now
			if opts.UseModTime && !plan[i].input.ModTime.IsZero() {
				ts = plan[i].input.ModTime
			}
			err = a.Add(plan[i].path, ts, payloads[i])
		} else {
			err = a.addSource(plan[i].source)
		}
		if err != nil {
			return nil, err
		}

		last := &a.Entries[len(a.Entries)-1]
		opts.Logger.WithFields(logrus.Fields{
			"path": plan[i].path,
			"hash": fmt.Sprintf("%#08x", last.Hash),
			"size": last.DataLength,
		}).Debug("entry added")

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{Path: plan[i].path, Hash: last.Hash, DataSize: last.DataLength})
		}
	}

	collisions := a.Collisions()
	for _, c := range collisions {
		opts.Logger.WithFields(logrus.Fields{
			"hash":      fmt.Sprintf("%#08x", c.Hash),
			"filenames": c.Filenames,
		}).Warn("filename hash collision")
	}
	if len(collisions) > 0 && opts.RejectCollisions {
		return nil, fmt.Errorf("%w: %d colliding hash groups, first %v", ErrHashCollision, len(collisions), collisions[0].Filenames)
	}

	return a, nil
}

// addSource appends an entry carried over from another archive, keeping its metadata record.
func (a *Archive) addSource(src *sourceEntry) error {
	if uint64(len(src.data)) > math.MaxUint32 {
		return fmt.Errorf("%w: entry %s has %d bytes", ErrSizeOverflow, src.metadata.Filename, len(src.data))
	}

	a.Metadata = append(a.Metadata, src.metadata)
	a.Entries = append(a.Entries, Entry{
		Hash:          src.metadata.Hash(),
		DataLength:    uint32(len(src.data)), //nolint:gosec // bounded above
		Data:          src.data,
		MetadataIndex: len(a.Metadata) - 1,
	})

	return nil
}

// writeArchive serializes a and writes it to out in one call.
func writeArchive(out io.Writer, a *Archive, start time.Time) (*PackResult, error) {
	data, err := a.MarshalBinary()
	if err != nil {
		return nil, err
	}

	if _, err := out.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write archive: %w", ErrIO, err)
	}

	res := &PackResult{
		Digest:            digest.FromBytes(data),
		Collisions:        a.Collisions(),
		WrittenEntries:    len(a.Entries),
		ArchiveSize:       int64(len(data)),
		EntryTableSize:    int64(a.Header.EntryLength),
		MetadataTableSize: int64(a.Header.MetadataLength),
		Duration:          time.Since(start),
	}
	for i := range a.Entries {
		res.DataSize += int64(a.Entries[i].DataLength)
	}

	return res, nil
}

// writeFileAtomic writes through a temp file in the destination directory and renames it into place.
func writeFileAtomic(outPath string, write func(w io.Writer) (*PackResult, error)) (*PackResult, error) {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp archive: %w", ErrIO, err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	res, err := write(tmp)
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("%w: sync archive: %w", ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close archive: %w", ErrIO, err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return nil, fmt.Errorf("%w: chmod archive: %w", ErrIO, err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return nil, fmt.Errorf("%w: rename archive: %w", ErrIO, err)
	}

	committed = true
	return res, nil
}

// openInputReader opens source stream for one input.
func openInputReader(in *Input) (io.ReadCloser, error) {
	if in.Open == nil {
		return nil, fmt.Errorf("%w: input %s: Open is nil", ErrIO, in.Path)
	}

	rc, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open input %s: %w", ErrIO, in.Path, err)
	}

	return rc, nil
}

// readInput reads one input fully, rejecting payloads over the uint32 limit.
func readInput(in *Input) ([]byte, error) {
	rc, err := openInputReader(in)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var buf bytes.Buffer
	if in.SizeHint > 0 && in.SizeHint <= math.MaxUint32 {
		buf.Grow(int(in.SizeHint))
	}

	n, err := buf.ReadFrom(io.LimitReader(rc, math.MaxUint32+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read input %s: %w", ErrIO, in.Path, err)
	}
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("%w: input %s exceeds 4 GiB", ErrSizeOverflow, in.Path)
	}

	return buf.Bytes(), nil
}
