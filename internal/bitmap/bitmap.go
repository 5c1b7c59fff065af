// Package bitmap implements the growable bit vector used to hand out flag
// bits within a trace context.
package bitmap

import (
	"math/bits"

	"nsntrace/internal/errors"
)

const wordBits = 64

// Bitmap is a growable set of bits backed by 64-bit words.
// The zero value holds no bits; Grow or New make room.
type Bitmap struct {
	words []uint64
	size  int // capacity in bits, always a multiple of wordBits
}

// New returns a bitmap able to hold at least n bits, rounded up to a whole
// word. It never holds fewer than one word.
func New(n int) *Bitmap {
	b := &Bitmap{}
	b.resize(roundUp(n))
	return b
}

func roundUp(n int) int {
	if n <= 0 {
		return wordBits
	}
	return (n + wordBits - 1) / wordBits * wordBits
}

func (b *Bitmap) resize(n int) {
	words := make([]uint64, n/wordBits)
	copy(words, b.words)
	b.words = words
	b.size = n
}

// Len returns the capacity in bits.
func (b *Bitmap) Len() int { return b.size }

// Set sets bit i. Indexes beyond capacity fail with ErrOverflow.
func (b *Bitmap) Set(i int) error {
	if i < 0 || i >= b.size {
		return errors.Wrapf(errors.ErrOverflow, "bit %d outside bitmap of %d bits", i, b.size)
	}
	b.words[i/wordBits] |= 1 << uint(i%wordBits)
	return nil
}

// Clear clears bit i. Out of range indexes are ignored.
func (b *Bitmap) Clear(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/wordBits] &^= 1 << uint(i%wordBits)
}

// Test reports whether bit i is set. Out of range reads as not set.
func (b *Bitmap) Test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// FirstFree returns the lowest clear bit, or -1 when every bit is set.
func (b *Bitmap) FirstFree() int {
	for w, word := range b.words {
		if word == ^uint64(0) {
			continue
		}
		return w*wordBits + lowestZero(word)
	}
	return -1
}

// lowestZero bisects a word that has at least one clear bit.
func lowestZero(word uint64) int {
	inv := ^word
	pos := 0
	for shift := 32; shift > 0; shift >>= 1 {
		mask := uint64(1)<<uint(shift) - 1
		if inv&mask == 0 {
			inv >>= uint(shift)
			pos += shift
		}
	}
	return pos
}

// AllocFirstFree sets the lowest clear bit and returns its index, or -1 if
// the bitmap is full. It never grows the bitmap.
func (b *Bitmap) AllocFirstFree() int {
	i := b.FirstFree()
	if i < 0 {
		return -1
	}
	b.words[i/wordBits] |= 1 << uint(i%wordBits)
	return i
}

// Grow enlarges the bitmap so that it holds at least n bits. Capacity is
// doubled until large enough; existing bits are preserved.
func (b *Bitmap) Grow(n int) {
	if n <= b.size {
		return
	}
	size := max(b.size, wordBits)
	for size < n {
		size *= 2
	}
	b.resize(roundUp(size))
}

// Shrink reduces capacity to n bits rounded up to a word. It refuses to drop
// words that still hold set bits and reports whether it shrank.
func (b *Bitmap) Shrink(n int) bool {
	n = roundUp(n)
	if n >= b.size {
		return false
	}
	for _, word := range b.words[n/wordBits:] {
		if word != 0 {
			return false
		}
	}
	b.words = append([]uint64(nil), b.words[:n/wordBits]...)
	b.size = n
	return true
}

// RunFree reports whether the n bits starting at start are all clear.
// Bits past the current capacity count as clear.
func (b *Bitmap) RunFree(start, n int) bool {
	for i := start; i < start+n; i++ {
		if b.Test(i) {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	n := 0
	for _, word := range b.words {
		n += bits.OnesCount64(word)
	}
	return n
}

// Reset clears every bit, keeping capacity.
func (b *Bitmap) Reset() {
	clear(b.words)
}

// Each calls fn for every set bit in ascending order.
func (b *Bitmap) Each(fn func(i int)) {
	for w, word := range b.words {
		for word != 0 {
			i := bits.TrailingZeros64(word)
			fn(w*wordBits + i)
			word &= word - 1
		}
	}
}
