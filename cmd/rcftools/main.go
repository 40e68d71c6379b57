// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

// Command rcftools packs and unpacks RCF archives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/woozymasta/rcf"
)

// defaultPackDir is the source directory of the -p shortcut.
const defaultPackDir = "Pack"

const usageText = `Usage:
  rcftools [flags] unpack <archive.rcf>
  rcftools [flags] pack <dir>
  rcftools -u <archive.rcf>
  rcftools -p <archive.rcf>      pack ./Pack into <archive.rcf>
  rcftools <archive.rcf>         same as unpack

Flags:
`

// cliFlags holds parsed command-line flags.
type cliFlags struct {
	unpack  string
	pack    string
	output  string
	dir     string
	config  string
	workers int
	slash   bool
	strict  bool
	verbose bool
}

// command is the resolved action of one invocation.
type command struct {
	kind   string
	source string
	output string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs, flags := newFlagSet(stdout)
	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stdout, "No valid arguments were given.")
		}

		return 0
	}

	cfg, err := loadConfig(flags.config)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	log := newLogger(stderr, cfg.LogLevel, flags.verbose)

	cmd, ok := resolveCommand(flags, fs.Args())
	if !ok {
		if len(args) == 0 {
			_, _ = fmt.Fprintln(stdout, "No arguments were given.")
		} else {
			_, _ = fmt.Fprintln(stdout, "No valid arguments were given.")
		}
		fs.Usage()
		return 0
	}

	switch cmd.kind {
	case "unpack":
		opts := cfg.Extract.extractOptions()
		applyExtractFlags(&opts, flags, fs)
		outDir := cfg.Extract.Dir
		if outDir == "" || isFlagSet(fs, "d") {
			outDir = flags.dir
		}
		err = unpack(ctx, cmd.source, outDir, opts, log, stdout)
	case "pack":
		opts := cfg.Pack.packOptions()
		applyPackFlags(&opts, flags, fs)
		err = pack(ctx, cmd.source, cmd.output, opts, log, stdout)
	}

	if err != nil {
		log.WithError(err).Error(cmd.kind + " failed")
		return 1
	}

	return 0
}

// newFlagSet declares CLI flags on a fresh set printing usage to out.
func newFlagSet(out io.Writer) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("rcftools", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.unpack, "u", "", "unpack `archive` into the extract directory")
	fs.StringVar(&f.pack, "p", "", "pack ./"+defaultPackDir+" into `archive`")
	fs.StringVar(&f.output, "o", "", "output archive path for pack (default <dir>.rcf)")
	fs.StringVar(&f.dir, "d", "extracted", "extract `directory`")
	fs.StringVar(&f.config, "config", "", "YAML config `file`")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	fs.BoolVar(&f.slash, "slash", false, "prefix stored filenames with a backslash")
	fs.BoolVar(&f.strict, "strict", false, "stop on first extraction error")
	fs.BoolVar(&f.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		_, _ = fmt.Fprint(out, usageText)
		fs.PrintDefaults()
	}

	return fs, f
}

// resolveCommand maps flags and positional arguments to one action.
func resolveCommand(f *cliFlags, args []string) (command, bool) {
	switch {
	case f.unpack != "":
		return command{kind: "unpack", source: f.unpack}, true
	case f.pack != "":
		return command{kind: "pack", source: defaultPackDir, output: f.pack}, true
	}

	switch {
	case len(args) >= 2 && args[0] == "unpack":
		return command{kind: "unpack", source: args[1]}, true
	case len(args) >= 2 && args[0] == "pack":
		src := strings.TrimRight(args[1], `/\`)
		if src == "" {
			return command{}, false
		}

		out := f.output
		if out == "" {
			out = src + ".rcf"
		}

		return command{kind: "pack", source: src, output: out}, true
	case len(args) == 1 && strings.Contains(strings.ToLower(args[0]), ".rcf"):
		return command{kind: "unpack", source: args[0]}, true
	}

	return command{}, false
}

// applyPackFlags lets explicitly set flags override config values.
func applyPackFlags(opts *rcf.PackOptions, f *cliFlags, fs *flag.FlagSet) {
	if isFlagSet(fs, "slash") {
		opts.LeadingSlash = f.slash
	}
	if isFlagSet(fs, "workers") {
		opts.MaxWorkers = f.workers
	}
}

// applyExtractFlags lets explicitly set flags override config values.
func applyExtractFlags(opts *rcf.ExtractOptions, f *cliFlags, fs *flag.FlagSet) {
	if isFlagSet(fs, "strict") {
		opts.StopOnError = f.strict
	}
	if isFlagSet(fs, "workers") {
		opts.MaxWorkers = f.workers
	}
}

// isFlagSet reports whether name was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})

	return set
}

// unpack extracts archive into dir and prints one summary line.
func unpack(
	ctx context.Context,
	archive string,
	dir string,
	opts rcf.ExtractOptions,
	log *logrus.Logger,
	stdout io.Writer,
) error {
	r, err := rcf.Open(archive)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	log.WithFields(logrus.Fields{
		"archive": archive,
		"entries": r.Header().NumberOfFiles,
		"dir":     dir,
	}).Info("unpacking")

	opts.Logger = log
	opts.OnEntryDone = func(entry rcf.EntryInfo, written int64, _ string) {
		log.WithFields(logrus.Fields{"path": entry.Path, "size": written}).Debug("extracted")
	}

	res, err := r.Extract(ctx, dir, opts)
	if res != nil {
		_, _ = fmt.Fprintf(stdout, "%d files unpacked\n", res.Extracted)
		if len(res.Failures) > 0 {
			log.WithField("failed", len(res.Failures)).Warn("some entries were not extracted")
		}
	}

	return err
}

// pack writes srcDir to output and prints one summary line.
func pack(
	ctx context.Context,
	srcDir string,
	output string,
	opts rcf.PackOptions,
	log *logrus.Logger,
	stdout io.Writer,
) error {
	log.WithFields(logrus.Fields{"source": srcDir, "output": output}).Info("packing")

	opts.Logger = log
	res, err := rcf.PackDir(ctx, output, srcDir, opts)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"size":   res.ArchiveSize,
		"digest": res.Digest.String(),
	}).Debug("archive written")

	_, _ = fmt.Fprintf(stdout, "%d files packed\n", res.WrittenEntries)
	return nil
}
