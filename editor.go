// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Editor accumulates archive edit operations and applies them on Commit.
type Editor struct {
	path string
	ops  []editOperation
	opts EditOptions
}

// editOperation stores one staged editor operation.
type editOperation struct {
	inputs []Input
	paths  []string
	kind   editOperationKind
}

// editOperationKind identifies staged edit action type.
type editOperationKind uint8

const (
	// editOperationAdd appends new entries and fails on existing path.
	editOperationAdd editOperationKind = iota + 1
	// editOperationReplace rewrites existing entries.
	editOperationReplace
	// editOperationDelete removes exact paths.
	editOperationDelete
	// editOperationDeleteDir removes entries by directory prefix.
	editOperationDeleteDir
)

// editPlan is the ordered entry list of the edited archive.
// Removed items stay as nil slots so positions remain stable.
type editPlan struct {
	items []*packItem
	index map[string][]int
}

// OpenEditor creates staged editor for file-based archive rewrite workflow.
func OpenEditor(path string, opts EditOptions) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, ErrInvalidEntryPath
	}

	opts.applyDefaults()

	return &Editor{
		path: trimmedPath,
		opts: opts,
		ops:  make([]editOperation, 0, 8),
	}, nil
}

// Add schedules adding new entries and fails on path collision during commit.
func (e *Editor) Add(inputs ...Input) error {
	return e.stageInputs(editOperationAdd, inputs)
}

// Replace schedules replacing existing entries.
func (e *Editor) Replace(inputs ...Input) error {
	return e.stageInputs(editOperationReplace, inputs)
}

// Delete schedules exact-path removal.
func (e *Editor) Delete(paths ...string) error {
	return e.stagePaths(editOperationDelete, paths)
}

// DeleteDir schedules directory-prefix removal.
func (e *Editor) DeleteDir(prefixes ...string) error {
	return e.stagePaths(editOperationDeleteDir, prefixes)
}

// stageInputs validates inputs and stores them as stored-form filenames.
func (e *Editor) stageInputs(kind editOperationKind, inputs []Input) error {
	if e == nil {
		return ErrNilEditor
	}

	if len(inputs) == 0 {
		return nil
	}

	normalized := make([]Input, 0, len(inputs))
	for i := range inputs {
		name, err := archiveEntryName(inputs[i].Path, e.opts.PackOptions.Separator, e.opts.PackOptions.LeadingSlash)
		if err != nil {
			return err
		}

		item := inputs[i]
		item.Path = name
		normalized = append(normalized, item)
	}

	e.ops = append(e.ops, editOperation{kind: kind, inputs: normalized})
	return nil
}

// stagePaths validates archive paths for delete operations.
func (e *Editor) stagePaths(kind editOperationKind, paths []string) error {
	if e == nil {
		return ErrNilEditor
	}

	if len(paths) == 0 {
		return nil
	}

	out := make([]string, 0, len(paths))
	for _, raw := range paths {
		if NormalizePath(raw) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
		}

		out = append(out, raw)
	}

	e.ops = append(e.ops, editOperation{kind: kind, paths: out})
	return nil
}

// Commit applies all staged operations in one rewrite transaction.
// The previous archive is kept as backup until the new one is in place.
func (e *Editor) Commit(ctx context.Context) (*PackResult, error) {
	if e == nil {
		return nil, ErrNilEditor
	}

	if ctx == nil {
		ctx = context.Background()
	}

	backupPath := e.path + ".bak"
	if err := prepareBackupSlot(backupPath, e.opts.BackupKeep); err != nil {
		return nil, err
	}

	if err := os.Rename(e.path, backupPath); err != nil {
		return nil, fmt.Errorf("%w: move archive to backup: %w", ErrIO, err)
	}

	res, err := e.commitFromBackup(ctx, backupPath)
	if err != nil {
		if rollbackErr := rollbackFromBackup(e.path, backupPath); rollbackErr != nil {
			return nil, errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}

		return nil, err
	}

	if e.opts.BackupKeep == 0 {
		if err := removeIfExists(backupPath); err != nil {
			return nil, err
		}
	}

	e.ops = e.ops[:0]
	return res, nil
}

// commitFromBackup writes edited archive from backup source.
func (e *Editor) commitFromBackup(ctx context.Context, backupPath string) (*PackResult, error) {
	start := time.Now()
	src, err := Open(backupPath)
	if err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	if err := src.LoadPayloads(ctx); err != nil {
		return nil, err
	}

	plan := newEditPlan(src.Archive(), e.opts.PackOptions.Logger)
	if err := plan.apply(e.ops); err != nil {
		return nil, err
	}

	a, err := assembleArchive(ctx, src.Header(), plan.list(), e.opts.PackOptions)
	if err != nil {
		return nil, err
	}

	return writeFileAtomic(e.path, func(w io.Writer) (*PackResult, error) {
		return writeArchive(w, a, start)
	})
}

// newEditPlan seeds the plan with source entries in metadata order.
// Records sharing a hash are paired with entries of that hash in table order,
// matching how Pack lays them out, so colliding files keep their own payloads.
func newEditPlan(src *Archive, log logrus.FieldLogger) *editPlan {
	byHash := make(map[uint32][]int, len(src.Entries))
	for i := range src.Entries {
		byHash[src.Entries[i].Hash] = append(byHash[src.Entries[i].Hash], i)
	}

	p := &editPlan{
		items: make([]*packItem, 0, len(src.Metadata)),
		index: make(map[string][]int, len(src.Metadata)),
	}
	for i := range src.Metadata {
		hash := src.Metadata[i].Hash()
		queue := byHash[hash]
		if len(queue) == 0 {
			log.WithField("path", src.Metadata[i].Filename).Warn("dropping metadata without entry")
			continue
		}
		byHash[hash] = queue[1:]

		p.push(&packItem{
			path: src.Metadata[i].Filename,
			source: &sourceEntry{
				metadata: src.Metadata[i],
				data:     src.Entries[queue[0]].Data,
			},
		})
	}

	for hash, queue := range byHash {
		for range queue {
			log.WithField("hash", fmt.Sprintf("%#08x", hash)).Warn("dropping entry without metadata")
		}
	}

	return p
}

// push adds item at the end of the plan and indexes it.
func (p *editPlan) push(item *packItem) {
	key := entryPathKey(item.path)
	p.index[key] = append(p.index[key], len(p.items))
	p.items = append(p.items, item)
}

// apply runs staged operations in order.
func (p *editPlan) apply(ops []editOperation) error {
	for _, op := range ops {
		switch op.kind {
		case editOperationAdd:
			if err := p.add(op.inputs); err != nil {
				return err
			}
		case editOperationReplace:
			if err := p.replace(op.inputs); err != nil {
				return err
			}
		case editOperationDelete:
			for _, path := range op.paths {
				p.remove(entryPathKey(path))
			}
		case editOperationDeleteDir:
			p.removeDirs(op.paths)
		default:
			return fmt.Errorf("unknown edit operation kind: %d", op.kind)
		}
	}

	return nil
}

// add appends new entries and fails on existing paths.
func (p *editPlan) add(inputs []Input) error {
	for i := range inputs {
		if _, exists := p.index[entryPathKey(inputs[i].Path)]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateEntryPath, inputs[i].Path)
		}

		p.push(&packItem{path: inputs[i].Path, input: &inputs[i]})
	}

	return nil
}

// replace swaps payload sources in place and fails on missing paths.
// Among names differing only in case, the exact name is preferred.
func (p *editPlan) replace(inputs []Input) error {
	for i := range inputs {
		slots, exists := p.index[entryPathKey(inputs[i].Path)]
		if !exists {
			return fmt.Errorf("%w: %q", ErrEntryNotFound, inputs[i].Path)
		}

		idx := slots[0]
		for _, slot := range slots {
			if p.items[slot].path == inputs[i].Path {
				idx = slot
				break
			}
		}

		p.items[idx] = &packItem{path: p.items[idx].path, input: &inputs[i]}
	}

	return nil
}

// remove drops every entry with key; missing keys are ignored.
func (p *editPlan) remove(key string) {
	for _, idx := range p.index[key] {
		p.items[idx] = nil
	}

	delete(p.index, key)
}

// removeDirs drops entries equal to or below any of prefixes.
func (p *editPlan) removeDirs(prefixes []string) {
	for _, prefix := range prefixes {
		prefixKey := entryPathKey(prefix)
		for key := range p.index {
			if key == prefixKey || strings.HasPrefix(key, prefixKey+"/") {
				p.remove(key)
			}
		}
	}
}

// list returns the remaining items in plan order.
func (p *editPlan) list() []packItem {
	out := make([]packItem, 0, len(p.items))
	for _, item := range p.items {
		if item != nil {
			out = append(out, *item)
		}
	}

	return out
}

// prepareBackupSlot rotates/removes existing backup generations before new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("%w: remove %s: %w", ErrIO, path, err)
}

// rollbackFromBackup restores backup on failed commit.
func rollbackFromBackup(path string, backupPath string) error {
	_ = os.Remove(path)

	if err := os.Rename(backupPath, path); err != nil {
		return fmt.Errorf("%w: restore backup: %w", ErrIO, err)
	}

	return nil
}
