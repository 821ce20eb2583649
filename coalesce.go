// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// coalesceLeft merges the block at header offset h with its left neighbor
// when both are free, leaving the merged block in the left neighbor's slot.
// It is a no-op unless h is itself free and its previous-block-free bit is
// set.
func (a *Allocator) coalesceLeft(h int) {
	hw := a.word(h)
	if !tagReadFree(hw) || !tagReadPrevFree(hw) {
		return
	}

	prev := a.prevHeader(h)
	a.listRemove(prev)
	a.listRemove(h)

	sizeH := tagReadSize(hw)
	sizePrev := tagReadSize(a.word(prev))
	newSize := sizePrev + 16 + sizeH
	prevPrevFree := tagReadPrevFree(a.word(prev))

	a.writeTag(prev, newSize, true, prevPrevFree)
	a.writeTag(a.footerOf(prev, newSize), newSize, true, prevPrevFree)
	a.listInsert(prev)
}

// coalesce merges the block at header offset h with its free neighbors on
// both sides. The right merge runs first so that, if both neighbors are
// free, the left merge only ever has to absorb one already-merged block —
// at most two merges happen per call, and no two free blocks are ever left
// adjacent.
func (a *Allocator) coalesce(h int) {
	size := tagReadSize(a.word(h))
	a.coalesceLeft(a.nextHeader(h, size))
	a.coalesceLeft(h)
}
