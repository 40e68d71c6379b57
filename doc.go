// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

/*
Package rcf provides read, extract, pack and edit operations for RCF
("ATG CORE CEMENT LIBRARY") archives.

An archive is a 60-byte header, a hash-sorted table of 12-byte entry records,
a metadata table of filename records in discovery order, and payload blocks
aligned to 2048 bytes. Entries reference metadata only through FilenameHash,
a case-folding 31-multiplier hash over the stored filename.

# Reading

Open an archive and list or read entries:

	r, err := rcf.Open("game.rcf")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    if !e.Resolved {
	        continue
	    }
	    data, _ := r.ReadEntry(e.Path)
	    // use data
	}

For table-only scans, use fast helpers without creating a full reader:

	header, err := rcf.ReadHeader("game.rcf")
	if err != nil {
	    return err
	}
	entries, err := rcf.ListEntries("game.rcf")
	if err != nil {
	    return err
	}
	_, _ = header, entries

To decode an archive held in memory, including every payload:

	a, err := rcf.Decode(data)

# Extracting

Extract all entries to a directory (parallel workers). Entries without
metadata are reported, not fatal, unless StopOnError is set:

	res, err := r.Extract(ctx, "extracted/", rcf.ExtractOptions{MaxWorkers: 4})
	if err != nil {
	    return err
	}
	for _, f := range res.Failures {
	    log.Println(f.Entry.Index, f.Err)
	}

# Packing

Pack a directory; stored names use "\" unless Separator is "/":

	res, err := rcf.PackDir(ctx, "Pack.rcf", "Pack", rcf.PackOptions{
	    Include: rcf.ExcludeRules("*.bak", "tmp/**"),
	})
	_ = res.Digest

Or pack caller-provided streams:

	inputs := []rcf.Input{
	    {Path: "data/a.txt", Open: func() (io.ReadCloser, error) { return os.Open("src/a.txt") }},
	}
	res, err := rcf.Pack(ctx, outFile, inputs, rcf.PackOptions{LeadingSlash: true})

To edit an existing archive in one transaction:

	editor, err := rcf.OpenEditor("game.rcf", rcf.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	if err := editor.Delete(`data\old.txt`); err != nil {
	    return err
	}
	if _, err := editor.Commit(ctx); err != nil {
	    return err
	}
*/
package rcf
