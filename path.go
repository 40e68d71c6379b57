// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

import (
	"fmt"
	"path"
	"strings"
)

// SplitPath splits p on every occurrence of delimiter.
// The trailing remainder is always the last element, so SplitPath("a\\b\\", "\\")
// returns ["a", "b", ""]. An empty delimiter returns p as a single segment.
func SplitPath(p string, delimiter string) []string {
	if delimiter == "" {
		return []string{p}
	}

	return strings.Split(p, delimiter)
}

// NormalizePath converts an archive/internal path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.TrimPrefix(p, "./")
	return p
}

// archiveEntryName converts an input path to the stored filename form.
// The separator is "\" unless sep is "/"; leadingSlash prepends one "\".
func archiveEntryName(raw string, sep string, leadingSlash bool) (string, error) {
	normalized := NormalizePath(raw)
	if normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	if strings.ContainsRune(normalized, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidEntryPath, raw)
	}

	name := normalized
	if sep != "/" {
		name = strings.ReplaceAll(normalized, "/", `\`)
	}

	if leadingSlash {
		name = `\` + name
	}

	return name, nil
}

// entryPathKey returns case-insensitive lookup key for an archive filename.
func entryPathKey(name string) string {
	return strings.ToLower(NormalizePath(name))
}

// normalizeExtractEntryPath normalizes a stored filename for extraction
// and rejects absolute/traversal inputs. A single leading "\" is accepted.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	raw = strings.TrimPrefix(raw, `\`)
	if raw == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := SplitPath(raw, "/")
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(p string) bool {
	if len(p) < 3 {
		return false
	}

	return isASCIIAlpha(p[0]) && p[1] == ':' && p[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
