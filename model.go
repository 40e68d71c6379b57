// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"errors"
	"io"
	"runtime"
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"github.com/woozymasta/pathrules"
)

// EntryInfo describes a single parsed RCF entry with its resolved metadata.
type EntryInfo struct {
	// Path is the resolved metadata filename; empty when unresolved.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Hash is the stored filename hash.
	Hash uint32 `json:"hash" yaml:"hash"`
	// Offset is absolute byte offset of entry payload.
	Offset uint32 `json:"offset" yaml:"offset"`
	// DataSize is stored payload size in bytes.
	DataSize uint32 `json:"data_size" yaml:"data_size"`
	// TimeStamp is Unix timestamp from the metadata record.
	TimeStamp uint32 `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	// Index is the entry position in the entry table.
	Index int `json:"index" yaml:"index"`
	// Resolved reports whether a metadata record matched the hash.
	Resolved bool `json:"resolved" yaml:"resolved"`
}

// Input describes one source stream to be packed into an RCF entry.
type Input struct {
	// ModTime is optional entry timestamp, used when PackOptions.UseModTime is set.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Path is the relative path below the pack root, either separator.
	Path string `json:"path" yaml:"path"`
	// SizeHint is expected size in bytes (zero when unknown).
	SizeHint int64 `json:"size_hint,omitempty" yaml:"size_hint,omitempty"`
}

// PackEntryProgress contains one completed entry event from pack flow.
type PackEntryProgress struct {
	// Path is the stored filename.
	Path string `json:"path" yaml:"path"`
	// Hash is the filename hash.
	Hash uint32 `json:"hash" yaml:"hash"`
	// DataSize is payload size in bytes.
	DataSize uint32 `json:"data_size" yaml:"data_size"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one input is read, in input order.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// Now returns the pack timestamp; defaults to time.Now.
	Now func() time.Time `json:"-" yaml:"-"`
	// Logger receives diagnostics; nil discards.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
	// Separator is the stored path separator: "\" (default) or "/".
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
	// Include selects source files by ordered path rules; empty means all files.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// IncludeMatcherOptions control include rule matching.
	IncludeMatcherOptions pathrules.MatcherOptions `json:"include_matcher_options,omitzero" yaml:"include_matcher_options,omitempty"`
	// MaxWorkers bounds concurrent input reads (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// LeadingSlash prepends "\" to every stored filename.
	LeadingSlash bool `json:"leading_slash,omitempty" yaml:"leading_slash,omitempty"`
	// UseModTime stamps metadata with Input.ModTime instead of pack time.
	UseModTime bool `json:"use_mod_time,omitempty" yaml:"use_mod_time,omitempty"`
	// RejectCollisions fails pack when distinct filenames share a hash.
	RejectCollisions bool `json:"reject_collisions,omitempty" yaml:"reject_collisions,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// Digest is the sha256 digest of the written archive.
	Digest digest.Digest `json:"digest" yaml:"digest"`
	// Collisions lists filename hash collisions among packed entries.
	Collisions []Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	// WrittenEntries is number of entries written to archive.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// ArchiveSize is total archive size in bytes.
	ArchiveSize int64 `json:"archive_size" yaml:"archive_size"`
	// DataSize is total payload bytes written, excluding padding.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// EntryTableSize is entry table length in bytes.
	EntryTableSize int64 `json:"entry_table_size" yaml:"entry_table_size"`
	// MetadataTableSize is metadata table length in bytes.
	MetadataTableSize int64 `json:"metadata_table_size" yaml:"metadata_table_size"`
	// Duration is end-to-end pack duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// EditOptions configures file-based archive edit flow.
type EditOptions struct {
	// PackOptions are applied for added/replaced entries during commit.
	PackOptions PackOptions `json:"pack_options,omitzero" yaml:"pack_options,omitempty"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means remove backup, 1 keeps only `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// Logger receives per-entry diagnostics; nil discards.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Rules limit extraction to matching resolved filenames; empty means all.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// RulesMatcherOptions control extraction rule matching.
	RulesMatcherOptions pathrules.MatcherOptions `json:"rules_matcher_options,omitzero" yaml:"rules_matcher_options,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// StopOnError aborts the batch on the first failed entry.
	// By default extraction continues and reports failures in ExtractResult.
	StopOnError bool `json:"stop_on_error,omitempty" yaml:"stop_on_error,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// ExtractFailure describes one entry that was not extracted.
type ExtractFailure struct {
	// Err wraps ErrExtractionSkipped, ErrWrite or ErrInvalidExtractPath.
	Err error `json:"-" yaml:"-"`
	// Entry is the failed entry.
	Entry EntryInfo `json:"entry" yaml:"entry"`
}

// ExtractResult contains extraction statistics.
type ExtractResult struct {
	// Failures lists entries that were skipped or failed, in entry table order.
	Failures []ExtractFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	// Extracted is number of files written.
	Extracted int `json:"extracted" yaml:"extracted"`
	// Filtered is number of entries excluded by Rules.
	Filtered int `json:"filtered,omitempty" yaml:"filtered,omitempty"`
	// Bytes is total payload bytes written.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Separator != "/" {
		opts.Separator = `\`
	}

	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}

	opts.IncludeMatcherOptions = matcherOptionsWithDefaults(opts.IncludeMatcherOptions)
	opts.Logger = loggerOrDiscard(opts.Logger)
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}

	opts.RulesMatcherOptions = matcherOptionsWithDefaults(opts.RulesMatcherOptions)
	opts.Logger = loggerOrDiscard(opts.Logger)
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	opts.PackOptions.applyDefaults()

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}

// loggerOrDiscard returns l, falling back to a logger that drops everything.
func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)
	discard.SetLevel(logrus.PanicLevel)

	return discard
}

// Error returns the failure message.
func (f ExtractFailure) Error() string {
	return f.Err.Error()
}

// Unwrap returns the underlying failure cause.
func (f ExtractFailure) Unwrap() error {
	return f.Err
}

// Err joins all failures into one error, or returns nil when every entry was extracted.
func (r *ExtractResult) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}

	errs := make([]error, len(r.Failures))
	for i := range r.Failures {
		errs[i] = r.Failures[i]
	}

	return errors.Join(errs...)
}
