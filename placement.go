// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// minBlockSize is the smallest possible total block size: an 8-byte header
// and footer around a 16-byte payload (the minimum needed to hold the two
// free-list link offsets).
const minBlockSize = 32

// minPayloadSize is the smallest possible payload.
const minPayloadSize = 16

func alignUp16(n int) int { return (n + 15) &^ 15 }

// needSize computes the effective payload size that must be reserved to
// satisfy a request of n bytes, exploiting footer elision: an allocated
// block lends its 8 footer bytes to the payload, so only n-8 bytes (at
// minimum 16) need to come from the payload proper.
func needSize(n int) int {
	if n <= 8 {
		return minPayloadSize
	}
	v := alignUp16(n - 8)
	if v < minPayloadSize {
		v = minPayloadSize
	}
	return v
}

// findFit searches the segregated index for a block able to satisfy a
// request. need is the effective payload size from needSize; n is the
// original, unadjusted request size. Exact-size classes are tried from
// size class of need upward through class 13; List 14 (overflow) is then
// scanned first-fit, comparing available capacity against the *original*
// request n rather than need — mirroring the reference allocator's
// asymmetry (see DESIGN.md open question), which is sound because
// capacity (payload+8) is what n must fit into directly.
func (a *Allocator) findFit(need, n int) (h int, ok bool) {
	for class := sizeClassOf(need); class < overflowClass; class++ {
		if head := a.lists[class]; head != 0 {
			return head, true
		}
	}
	for cur := a.lists[overflowClass]; cur != 0; cur = a.linkNext(cur) {
		size := tagReadSize(a.word(cur))
		if size+8 >= n {
			return cur, true
		}
	}
	return 0, false
}

// place allocates the free block at header offset h to satisfy an effective
// payload requirement of need bytes, splitting off a free tail block when
// the leftover is large enough to form one. It returns the payload offset
// of the now-allocated block.
func (a *Allocator) place(h, need int) int {
	payloadSize := tagReadSize(a.word(h))
	prevFree := tagReadPrevFree(a.word(h))

	if payloadSize-need >= minBlockSize {
		a.listRemove(h)

		a.writeTag(h, need, true, prevFree)
		a.writeTag(a.footerOf(h, need), need, true, prevFree)
		a.listInsert(h)

		tailSize := payloadSize - need - 16
		tailHeader := a.nextHeader(h, need)
		a.writeTag(tailHeader, tailSize, true, false)
		a.writeTag(a.footerOf(tailHeader, tailSize), tailSize, true, false)
		a.listInsert(tailHeader)
	}

	a.listRemove(h)
	size := tagReadSize(a.word(h))
	a.writeTag(h, size, false, prevFree)
	next := a.nextHeader(h, size)
	a.setPrevFreeBit(next, false)
	return a.payloadOf(h)
}

// writeTag writes a header/footer word at off.
func (a *Allocator) writeTag(off, size int, free, prevFree bool) {
	a.setWord(off, tagEncode(size, free, prevFree))
}

func (a *Allocator) setPrevFreeBit(off int, flag bool) {
	a.setWord(off, tagSetPrevFree(a.word(off), flag))
}

func (a *Allocator) setFreeBit(off int, flag bool) {
	a.setWord(off, tagSetFree(a.word(off), flag))
}
