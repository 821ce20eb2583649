// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// numSizeClasses is the number of segregated free lists: 14 exact classes
// (16, 32, ..., 224 bytes) plus one overflow class for everything else.
const numSizeClasses = 15

// overflowClass is the index of the catch-all list.
const overflowClass = numSizeClasses - 1

// sizeClassOf maps a payload size to its list index. Sizes 16..224 (step
// 16) land in lists 0..13; every other size lands in the overflow list 14.
func sizeClassOf(payloadSize int) int {
	if payloadSize >= 16 && payloadSize <= 224 && payloadSize%16 == 0 {
		return payloadSize/16 - 1
	}
	return overflowClass
}

// Free blocks link into their list through the first 16 bytes of their own
// payload: 8 bytes of "previous" header offset followed by 8 bytes of
// "next" header offset. A zero offset means "no neighbor" (offset 0 is the
// heap's leading pad byte and is never a block address), so the zero value
// of an offset doubles as the list's empty-list sentinel.

func (a *Allocator) linkPrev(h int) int { return int(a.word(a.payloadOf(h))) }

func (a *Allocator) linkNext(h int) int { return int(a.word(a.payloadOf(h) + 8)) }

func (a *Allocator) setLinkPrev(h, prev int) { a.setWord(a.payloadOf(h), uint64(prev)) }

func (a *Allocator) setLinkNext(h, next int) { a.setWord(a.payloadOf(h)+8, uint64(next)) }

// listInsert prepends the free block at header offset h to its size
// class's list (LIFO).
func (a *Allocator) listInsert(h int) {
	size := tagReadSize(a.word(h))
	class := sizeClassOf(size)
	head := a.lists[class]
	a.setLinkPrev(h, 0)
	a.setLinkNext(h, head)
	if head != 0 {
		a.setLinkPrev(head, h)
	}
	a.lists[class] = h
}

// listRemove unlinks the free block at header offset h from its size
// class's list in constant time.
func (a *Allocator) listRemove(h int) {
	size := tagReadSize(a.word(h))
	class := sizeClassOf(size)
	prev := a.linkPrev(h)
	next := a.linkNext(h)
	if prev != 0 {
		a.setLinkNext(prev, next)
	} else {
		a.lists[class] = next
	}
	if next != 0 {
		a.setLinkPrev(next, prev)
	}
}
