// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"fmt"
	"os"
)

// CheckHeap walks the entire heap and the segregated free-list index,
// verifying the invariants from §8: no two adjacent free blocks, every
// free block's header mirrors its footer, every block's previous-free bit
// matches its left neighbor's free bit, every free block is reachable from
// exactly the list its size class predicts, and the free-block counts
// found by the two traversals agree. tag identifies the call site in any
// diagnostic it prints (pass the caller's line number, or any label); it
// has no effect on the check itself. CheckHeap is meant for tests and
// debugging — production code should not call it on a hot path.
func (a *Allocator) CheckHeap(tag string) bool {
	if !a.ready {
		fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): allocator not initialized\n", tag)
		return false
	}

	prologue := a.regionStart + 8
	if tagReadSize(a.word(prologue)) != 0 || tagReadFree(a.word(prologue)) {
		fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): prologue is not a zero-size allocated block\n", tag)
		return false
	}

	implicitFree := 0
	prev := prologue
	h := a.nextHeader(prologue, 0)
	for {
		w := a.word(h)
		prevW := a.word(prev)

		if tagReadFree(prevW) != tagReadPrevFree(w) {
			fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): block at %d has stale prev-free bit\n", tag, h)
			return false
		}

		if tagReadFree(w) {
			implicitFree++
			size := tagReadSize(w)

			if tagReadFree(prevW) {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): uncoalesced adjacent free blocks at %d and %d\n", tag, prev, h)
				return false
			}

			footer := a.footerOf(h, size)
			if a.word(footer) != w {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): header/footer mismatch for free block at %d\n", tag, h)
				return false
			}

			if !a.inList(h, sizeClassOf(size)) {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): free block at %d is not reachable from list %d\n", tag, h, sizeClassOf(size))
				return false
			}
		}

		if tagReadSize(w) == 0 {
			// Epilogue.
			if tagReadFree(w) {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): epilogue marked free\n", tag)
				return false
			}
			break
		}

		prev = h
		h = a.nextHeader(h, tagReadSize(w))
	}

	explicitFree := 0
	for class := 0; class < numSizeClasses; class++ {
		for cur := a.lists[class]; cur != 0; cur = a.linkNext(cur) {
			w := a.word(cur)
			if !tagReadFree(w) {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): allocated block at %d found in free list %d\n", tag, cur, class)
				return false
			}
			size := tagReadSize(w)
			if class != overflowClass && size != (class+1)*16 {
				fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): block at %d in list %d has size %d\n", tag, cur, class, size)
				return false
			}
			explicitFree++
		}
	}

	if implicitFree != explicitFree {
		fmt.Fprintf(os.Stderr, "memory: CheckHeap(%s): %d free blocks by traversal, %d by list count\n", tag, implicitFree, explicitFree)
		return false
	}

	return true
}

// inList reports whether h is reachable by walking list class. Membership
// is positional only — there is no redundant per-block flag — so the only
// way to answer this is to walk the list.
func (a *Allocator) inList(h, class int) bool {
	for cur := a.lists[class]; cur != 0; cur = a.linkNext(cur) {
		if cur == h {
			return true
		}
	}
	return false
}
