// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// extractCopyBufferSize defines per-task buffer size for file copy during extraction.
const extractCopyBufferSize = 64 * 1024

// extractWorkItem stores one selected entry with prepared output relative paths.
type extractWorkItem struct {
	relPath string
	relDir  string
	entry   EntryInfo
}

// extractTask groups work items sharing one output path; they run in entry order.
type extractTask struct {
	items []extractWorkItem
}

// extractState collects per-entry outcomes from concurrent tasks.
type extractState struct {
	mu       sync.Mutex
	failures []ExtractFailure
	result   ExtractResult
}

// Extract writes entries from the archive to dstDir, each to dstDir joined
// with its metadata filename. Entries without metadata and failed writes are
// reported in ExtractResult.Failures; with StopOnError the first one aborts.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (*ExtractResult, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	matcher, err := newPathMatcher(opts.Rules, opts.RulesMatcherOptions)
	if err != nil {
		return nil, err
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve output dir: %w", ErrIO, err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %w", ErrIO, err)
	}

	state := &extractState{}
	tasks, err := prepareExtractTasks(r.Entries(), matcher, state, opts)
	if err != nil {
		return state.finish(), err
	}

	tasks, err = prepareExtractDirs(dstRootAbs, tasks, state, opts)
	if err != nil {
		return state.finish(), err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for _, task := range tasks {
		g.Go(func() error {
			copyBuf := make([]byte, extractCopyBufferSize)
			for _, item := range task.items {
				if err := gctx.Err(); err != nil {
					return err
				}

				written, outPath, err := r.extractPreparedEntry(dstRootAbs, item, opts.FileMode, copyBuf)
				if err != nil {
					failure := ExtractFailure{Entry: item.entry, Err: err}
					state.fail(failure, opts.Logger)
					if opts.StopOnError {
						return err
					}

					continue
				}

				state.done(written)
				if opts.OnEntryDone != nil {
					opts.OnEntryDone(item.entry, written, outPath)
				}
			}

			return nil
		})
	}

	err = g.Wait()
	return state.finish(), err
}

// prepareExtractTasks selects entries, records skipped ones and groups the rest by output path.
func prepareExtractTasks(
	entries []EntryInfo,
	matcher *pathMatcher,
	state *extractState,
	opts ExtractOptions,
) ([]extractTask, error) {
	tasks := make([]extractTask, 0, len(entries))
	byPath := make(map[string]int, len(entries))
	for _, entry := range entries {
		if !entry.Resolved {
			err := fmt.Errorf("%w: entry %d hash %#08x", ErrExtractionSkipped, entry.Index, entry.Hash)
			state.fail(ExtractFailure{Entry: entry, Err: err}, opts.Logger)
			if opts.StopOnError {
				return nil, err
			}

			continue
		}

		if !matcher.Match(entry.Path) {
			state.filter()
			continue
		}

		normalizedPath, err := normalizeExtractEntryPath(entry.Path)
		if err != nil {
			err = fmt.Errorf("%w: %q", err, entry.Path)
			state.fail(ExtractFailure{Entry: entry, Err: err}, opts.Logger)
			if opts.StopOnError {
				return nil, err
			}

			continue
		}

		relPath := filepath.FromSlash(normalizedPath)
		relDir := filepath.Dir(relPath)
		if relDir == "." {
			relDir = ""
		}

		item := extractWorkItem{entry: entry, relPath: relPath, relDir: relDir}
		key := strings.ToLower(relPath)
		if idx, ok := byPath[key]; ok {
			tasks[idx].items = append(tasks[idx].items, item)
			continue
		}

		byPath[key] = len(tasks)
		tasks = append(tasks, extractTask{items: []extractWorkItem{item}})
	}

	return tasks, nil
}

// prepareExtractDirs creates the parent directories of tasks. A task whose
// directory cannot be created fails all of its items and is dropped.
func prepareExtractDirs(
	dstRootAbs string,
	tasks []extractTask,
	state *extractState,
	opts ExtractOptions,
) ([]extractTask, error) {
	dirErrs := make(map[string]error, len(tasks))
	kept := tasks[:0]
	for _, task := range tasks {
		relDir := task.items[0].relDir
		if relDir == "" {
			kept = append(kept, task)
			continue
		}

		dirPath := filepath.Join(dstRootAbs, relDir)
		dirErr, seen := dirErrs[dirPath]
		if !seen {
			if err := os.MkdirAll(dirPath, 0o750); err != nil {
				dirErr = fmt.Errorf("%w: create output directory %s: %w", ErrWrite, dirPath, err)
			}
			dirErrs[dirPath] = dirErr
		}

		if dirErr == nil {
			kept = append(kept, task)
			continue
		}

		for _, item := range task.items {
			state.fail(ExtractFailure{Entry: item.entry, Err: dirErr}, opts.Logger)
		}
		if opts.StopOnError {
			return nil, dirErr
		}
	}

	return kept, nil
}

// extractPreparedEntry writes one prepared work item below destination root.
func (r *Reader) extractPreparedEntry(
	dstRootAbs string,
	item extractWorkItem,
	fileMode ExtractFileMode,
	copyBuf []byte,
) (int64, string, error) {
	outPath := filepath.Join(dstRootAbs, item.relPath)

	rc, err := r.openEntryAt(item.entry.Index, item.entry.Path)
	if err != nil {
		return 0, outPath, err
	}
	defer func() { _ = rc.Close() }()

	file, err := openExtractFile(outPath, fileMode)
	if err != nil {
		return 0, outPath, fmt.Errorf("%w: open %s: %w", ErrWrite, outPath, err)
	}

	written, copyErr := copyExtractData(file, rc, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return written, outPath, fmt.Errorf("%w: %s: %w", ErrWrite, outPath, copyErr)
	}

	if closeErr != nil {
		return written, outPath, fmt.Errorf("%w: close %s: %w", ErrWrite, outPath, closeErr)
	}

	if written != int64(item.entry.DataSize) {
		return written, outPath, fmt.Errorf(
			"%w: %s: wrote %d of %d bytes", ErrWrite, outPath, written, item.entry.DataSize,
		)
	}

	return written, outPath, nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}

// copyExtractData copies one entry stream to output file using fixed task buffer.
func copyExtractData(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}

// fail records one failed entry.
func (s *extractState) fail(f ExtractFailure, log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{
		"index": f.Entry.Index,
		"hash":  fmt.Sprintf("%#08x", f.Entry.Hash),
		"path":  f.Entry.Path,
	}).WithError(f.Err).Warn("entry not extracted")

	s.mu.Lock()
	s.failures = append(s.failures, f)
	s.mu.Unlock()
}

// done records one extracted entry.
func (s *extractState) done(written int64) {
	s.mu.Lock()
	s.result.Extracted++
	s.result.Bytes += written
	s.mu.Unlock()
}

// filter records one entry excluded by rules.
func (s *extractState) filter() {
	s.mu.Lock()
	s.result.Filtered++
	s.mu.Unlock()
}

// finish returns the collected result with failures in entry table order.
func (s *extractState) finish() *ExtractResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.result
	res.Failures = append([]ExtractFailure(nil), s.failures...)
	slices.SortStableFunc(res.Failures, func(a, b ExtractFailure) int {
		return cmp.Compare(a.Entry.Index, b.Entry.Index)
	})

	return &res
}
