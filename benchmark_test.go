// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 8192
)

var (
	// benchHashSink prevents compiler elimination in hash benchmark loops.
	benchHashSink uint32
)

func BenchmarkFilenameHash(b *testing.B) {
	name := `\data\textures\environment\rock_large_01.dds`

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchHashSink += FilenameHash(name)
	}
}

func BenchmarkOpenParse(b *testing.B) {
	path := createBenchRCF(b, benchDefaultEntries, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}
		_ = r.Entries()
		_ = r.Close()
	}
}

func BenchmarkOpenParseLargeIndex(b *testing.B) {
	path := createBenchRCF(b, benchLargeIndexEntries, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}

		if len(r.Entries()) == 0 {
			b.Fatal("empty entries")
		}

		_ = r.Close()
	}
}

func BenchmarkDecode(b *testing.B) {
	var buf bytes.Buffer
	if _, err := Pack(context.Background(), &buf, benchInputs(benchDefaultEntries, 4096), PackOptions{}); err != nil {
		b.Fatal(err)
	}
	raw := buf.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(raw); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	path := createBenchRCF(b, benchDefaultEntries, 4096)
	r, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst := filepath.Join(b.TempDir(), fmt.Sprintf("out-%d", i))
		res, err := r.Extract(context.Background(), dst, ExtractOptions{})
		if err != nil {
			b.Fatal(err)
		}
		if res.Extracted != benchDefaultEntries {
			b.Fatalf("extracted %d entries", res.Extracted)
		}
	}
}

func BenchmarkPack(b *testing.B) {
	inputs := benchInputs(benchDefaultEntries, 4096)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pack(context.Background(), io.Discard, inputs, PackOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEditReplace(b *testing.B) {
	path := createBenchRCF(b, benchDefaultEntries, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		editor, err := OpenEditor(path, EditOptions{})
		if err != nil {
			b.Fatal(err)
		}

		if err := editor.Replace(memInput("dir/file_0000.bin", fmt.Sprintf("v%d", i))); err != nil {
			b.Fatal(err)
		}

		if _, err := editor.Commit(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// benchInputs builds numEntries in-memory inputs of size bytes each.
func benchInputs(numEntries int, size int) []Input {
	payload := string(bytes.Repeat([]byte{'x'}, size))
	inputs := make([]Input, 0, numEntries)
	for i := 0; i < numEntries; i++ {
		inputs = append(inputs, memInput(fmt.Sprintf("dir/file_%04d.bin", i), payload))
	}

	return inputs
}

// createBenchRCF packs a benchmark archive into a temp dir.
func createBenchRCF(b *testing.B, numEntries int, size int) string {
	b.Helper()

	path := filepath.Join(b.TempDir(), "bench.rcf")
	if _, err := PackFile(context.Background(), path, benchInputs(numEntries, size), PackOptions{}); err != nil {
		b.Fatal(err)
	}

	return path
}
