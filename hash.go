// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package rcf

// caseShift is added to every byte below 'a'.
const caseShift = 'a' - 'A'

// FilenameHash computes the 32-bit filename hash that binds entries to metadata.
//
// Every byte below 'a' (as a signed char) is shifted up by 'a'-'A', which folds
// ASCII uppercase letters but also moves digits, punctuation and bytes >= 0x80.
// Backslashes are skipped while the accumulator is still zero, so a leading
// backslash does not change the hash. Hashing stops at the first NUL byte.
func FilenameHash(name string) uint32 {
	var res uint32
	for i := 0; i < len(name); i++ {
		ch := int8(name[i])
		if ch == 0 {
			break
		}

		if res == 0 && ch == '\\' {
			continue
		}

		c := int32(ch)
		if ch < 'a' {
			c += caseShift
		}

		res = (res << 5) - res + uint32(c)
	}

	return res
}
