// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to size the live
spectrum FFT.

	fftSize := bitint.NextPowerOfTwo(1500) // 2048
	ok := bitint.IsPowerOfTwo(fftSize)

NextPowerOfTwo works on size-1 so that exact powers of two are preserved:
bits.Len(7) is 3 and 1<<3 is 8, whereas bits.Len(8) would give 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Non-positive
// sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
