// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNeedSizeFooterElision walks the small-request table from §8: for
// n in [1, 8] the footer is fully elided into the 16-byte minimum payload,
// and from n=9 up the effective payload grows in 16-byte steps, eight bytes
// behind n.
func TestNeedSizeFooterElision(t *testing.T) {
	cases := []struct{ n, want int }{
		{1, 16}, {8, 16}, {9, 16}, {16, 16}, {17, 16},
		{24, 16}, {25, 32}, {32, 32}, {33, 32}, {40, 32}, {48, 48},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, needSize(c.n), "needSize(%d)", c.n)
	}
}

func TestSizeClassOf(t *testing.T) {
	assert.Equal(t, 0, sizeClassOf(16))
	assert.Equal(t, 1, sizeClassOf(32))
	assert.Equal(t, 13, sizeClassOf(224))
	assert.Equal(t, overflowClass, sizeClassOf(240))
	assert.Equal(t, overflowClass, sizeClassOf(15))
}

// TestInitLayout checks the prologue/epilogue sentinels Init lays down
// exactly match §6.3: a zero-size allocated prologue immediately followed
// by a zero-size allocated epilogue, with nothing free yet.
func TestInitLayout(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	prologue := a.regionStart + 8
	w := a.word(prologue)
	assert.Equal(t, 0, tagReadSize(w))
	assert.False(t, tagReadFree(w))

	epilogue := a.nextHeader(prologue, 0)
	assert.Equal(t, epilogue, a.heapEnd)
	ew := a.word(epilogue)
	assert.Equal(t, 0, tagReadSize(ew))
	assert.False(t, tagReadFree(ew))

	assert.True(t, a.CheckHeap("TestInitLayout"))
}

// TestSplitOn48ByteFreeBlock exercises §8's split-threshold example: a
// 48-byte free block can satisfy a 1-byte request and still split off a
// minimum-size (32-byte total) free remainder, while a 32-byte free block
// satisfying the same request cannot split and is handed out whole.
func TestSplitOn48ByteFreeBlock(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b1, err := a.Malloc(48) // needSize(48) = 48
	require.NoError(t, err)
	h1 := a.headerOfPayload(a.offsetOf(b1))
	require.Equal(t, 48, tagReadSize(a.word(h1)))

	require.NoError(t, a.Free(b1))
	require.True(t, a.CheckHeap("TestSplitOn48ByteFreeBlock:freed"))

	b2, err := a.Malloc(1) // needSize(1) = 16, 48-16 = 32 >= minBlockSize: split
	require.NoError(t, err)
	h2 := a.headerOfPayload(a.offsetOf(b2))
	assert.Equal(t, 16, tagReadSize(a.word(h2)), "48-byte block should split for a 1-byte request")
	require.NoError(t, a.Free(b2))
	require.True(t, a.CheckHeap("TestSplitOn48ByteFreeBlock:done"))

	a2 := NewInMemory(1 << 20)
	require.True(t, a2.Init())

	c1, err := a2.Malloc(40) // needSize(40) = 32
	require.NoError(t, err)
	require.NoError(t, a2.Free(c1))

	c2, err := a2.Malloc(1) // needSize(1) = 16, 32-16 = 16 < minBlockSize: no split
	require.NoError(t, err)
	hc2 := a2.headerOfPayload(a2.offsetOf(c2))
	assert.Equal(t, 32, tagReadSize(a2.word(hc2)), "32-byte block should not split for a 1-byte request")
	require.NoError(t, a2.Free(c2))
	require.True(t, a2.CheckHeap("TestSplitOn48ByteFreeBlock:no-split"))
}

func TestSplitWhenLeftoverMeetsMinBlock(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	big, err := a.Malloc(80) // needSize(80) = 80 (aligned already)
	require.NoError(t, err)
	hBig := a.headerOfPayload(a.offsetOf(big))
	require.Equal(t, 80, tagReadSize(a.word(hBig)))
	require.NoError(t, a.Free(big))

	small, err := a.Malloc(1) // leaves an 80-16-16 byte remainder, split should fire
	require.NoError(t, err)
	hSmall := a.headerOfPayload(a.offsetOf(small))
	assert.Equal(t, 16, tagReadSize(a.word(hSmall)))
	require.NoError(t, a.Free(small))
	require.True(t, a.CheckHeap("TestSplitWhenLeftoverMeetsMinBlock"))
}

// TestCoalesceThreeAdjacentFrees allocates three adjacent blocks, frees the
// outer two and then the middle one, and checks they merge into a single
// free block spanning all three payloads plus their two shared boundaries.
func TestCoalesceThreeAdjacentFrees(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	x, err := a.Malloc(32)
	require.NoError(t, err)
	y, err := a.Malloc(32)
	require.NoError(t, err)
	z, err := a.Malloc(32)
	require.NoError(t, err)

	hx := a.headerOfPayload(a.offsetOf(x))
	hy := a.headerOfPayload(a.offsetOf(y))
	sizeY := tagReadSize(a.word(hy))
	hz := a.headerOfPayload(a.offsetOf(z))
	sizeZ := tagReadSize(a.word(hz))

	require.NoError(t, a.Free(x))
	require.NoError(t, a.Free(z))
	require.True(t, a.CheckHeap("TestCoalesceThreeAdjacentFrees:outer-freed"))

	require.NoError(t, a.Free(y))
	require.True(t, a.CheckHeap("TestCoalesceThreeAdjacentFrees:all-freed"))

	w := a.word(hx)
	require.True(t, tagReadFree(w))
	merged := tagReadSize(w)
	assert.Equal(t, merged, tagReadSize(a.word(a.footerOf(hx, merged))))
	assert.True(t, merged >= sizeY+sizeZ, "merged block should absorb both neighbors")
}

// TestLIFOFreeListReuse checks that after freeing a block, the very next
// allocation of a matching size reuses that exact block rather than
// extending the heap.
func TestLIFOFreeListReuse(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Malloc(16)
	require.NoError(t, err)
	h := a.headerOfPayload(a.offsetOf(b))
	require.NoError(t, a.Free(b))

	heapEndBefore := a.heapEnd
	b2, err := a.Malloc(16)
	require.NoError(t, err)
	h2 := a.headerOfPayload(a.offsetOf(b2))
	assert.Equal(t, h, h2, "reallocating the same size should reuse the freed block")
	assert.Equal(t, heapEndBefore, a.heapEnd, "reuse should not extend the heap")
}

func TestReallocGrowsAndCopies(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Malloc(16)
	require.NoError(t, err)
	for i := range b {
		b[i] = byte(i + 1)
	}

	b2, err := a.Realloc(b, 200)
	require.NoError(t, err)
	require.Len(t, b2, 200)
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i+1), b2[i])
	}
	require.True(t, a.CheckHeap("TestReallocGrowsAndCopies"))
}

func TestReallocShrinkInPlace(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Malloc(64)
	require.NoError(t, err)
	off := a.offsetOf(b)

	b2, err := a.Realloc(b, 8)
	require.NoError(t, err)
	assert.Equal(t, off, a.offsetOf(b2), "shrinking within the same capacity must not move the block")
	require.True(t, a.CheckHeap("TestReallocShrinkInPlace"))
}

func TestReallocNullAnchorActsLikeMalloc(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Realloc(nil, 32)
	require.NoError(t, err)
	require.Len(t, b, 32)
	require.NoError(t, a.Free(b))
}

func TestReallocZeroSizeActsLikeFree(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Malloc(32)
	require.NoError(t, err)
	b2, err := a.Realloc(b, 0)
	require.NoError(t, err)
	assert.Nil(t, b2)
	require.True(t, a.CheckHeap("TestReallocZeroSizeActsLikeFree"))
}

func TestCallocZeroesMemory(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Calloc(4, 16)
	require.NoError(t, err)
	require.Len(t, b, 64)
	for _, v := range b {
		assert.Zero(t, v)
	}
}

func TestMallocZeroSizeReturnsNullAnchor(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	b, err := a.Malloc(0)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMallocNegativeSizePanics(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	assert.Panics(t, func() { a.Malloc(-1) })
}

// TestOverflowListFirstFit checks the resolution of the original-source
// open question: the overflow list (sizes > 224) is scanned first-fit,
// accepting the first block whose capacity (payload+8) covers the
// caller's original request.
func TestOverflowListFirstFit(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())

	big, err := a.Malloc(4000)
	require.NoError(t, err)
	hBig := a.headerOfPayload(a.offsetOf(big))
	require.Equal(t, overflowClass, sizeClassOf(tagReadSize(a.word(hBig))))
	require.NoError(t, a.Free(big))

	reused, err := a.Malloc(3000)
	require.NoError(t, err)
	hReused := a.headerOfPayload(a.offsetOf(reused))
	assert.Equal(t, hBig, hReused, "a smaller overflow request should reuse the freed overflow block")
	require.NoError(t, a.Free(reused))
	require.True(t, a.CheckHeap("TestOverflowListFirstFit"))
}

func TestHeapExtendsWhenNoFitAvailable(t *testing.T) {
	a := NewInMemory(16 << 20)
	require.True(t, a.Init())

	endBefore := a.heapEnd
	b, err := a.Malloc(1 << 16)
	require.NoError(t, err)
	require.NotEqual(t, endBefore, a.heapEnd, "allocation with an empty heap must extend it")
	require.NoError(t, a.Free(b))
	require.True(t, a.CheckHeap("TestHeapExtendsWhenNoFitAvailable"))
}

func TestFreeNullAnchorIsNoop(t *testing.T) {
	a := NewInMemory(1 << 20)
	require.True(t, a.Init())
	assert.NoError(t, a.Free(nil))
	assert.NoError(t, a.Free([]byte{}))
}

func TestOutOfMemoryReturnsError(t *testing.T) {
	a := NewInMemory(4096)
	require.True(t, a.Init())

	_, err := a.Malloc(1 << 20)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
