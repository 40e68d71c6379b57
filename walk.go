// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CollectInputs walks root and returns one Input per regular file in lexical
// order. Paths are relative to root and use "/".
func CollectInputs(root string) ([]Input, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat pack root: %w", ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: pack root %s is not a directory", ErrIO, root)
	}

	var inputs []Input
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		inputs = append(inputs, Input{
			Path:     filepath.ToSlash(rel),
			ModTime:  fi.ModTime(),
			SizeHint: fi.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", ErrIO, root, err)
	}

	return inputs, nil
}
