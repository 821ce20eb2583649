// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "errors"

// ErrOutOfMemory is returned when the growth primitive cannot extend the
// heap any further.
var ErrOutOfMemory = errors.New("memory: out of memory")

// arena is the lower-level sbrk-style growth primitive the allocator grows
// its heap through. It models a single contiguous, grow-only region: Grow
// extends the region by n bytes and returns the offset of the first newly
// added byte (mirroring sbrk's return value), and Bytes exposes the entire
// committed region so far. Implementations must never move already-handed-
// out bytes; the two implementations (osArena in osarena.go, mmap-backed,
// and memArena in memsbrk.go, in-memory) both satisfy that by reserving
// their full capacity up front.
type arena interface {
	Grow(n int) (offset int, err error)
	Bytes() []byte
}

func (a *Allocator) word(off int) uint64 {
	buf := a.mem.Bytes()
	return uint64(buf[off]) | uint64(buf[off+1])<<8 | uint64(buf[off+2])<<16 | uint64(buf[off+3])<<24 |
		uint64(buf[off+4])<<32 | uint64(buf[off+5])<<40 | uint64(buf[off+6])<<48 | uint64(buf[off+7])<<56
}

func (a *Allocator) setWord(off int, w uint64) {
	buf := a.mem.Bytes()
	buf[off] = byte(w)
	buf[off+1] = byte(w >> 8)
	buf[off+2] = byte(w >> 16)
	buf[off+3] = byte(w >> 24)
	buf[off+4] = byte(w >> 32)
	buf[off+5] = byte(w >> 40)
	buf[off+6] = byte(w >> 48)
	buf[off+7] = byte(w >> 56)
}

// extend grows the heap by the minimum increment able to satisfy a request
// of n bytes, reusing the old epilogue header as the new block's header and
// writing a fresh epilogue past it. On success the new block has already
// been inserted into the segregated index and coalesced with its left
// neighbor, so the caller only needs to retry its fit search once.
func (a *Allocator) extend(n int) error {
	need := needSize(n)
	increment := need + 16 // new footer + new epilogue header

	oldEpilogue := a.heapEnd
	start, err := a.mem.Grow(increment)
	if err != nil {
		return ErrOutOfMemory
	}
	// The old epilogue header sits exactly where the new block's header
	// belongs: the payload the growth primitive just handed back begins
	// 8 bytes above it.
	if start != oldEpilogue+8 {
		panic("memory: growth primitive did not extend the heap contiguously")
	}

	newHeader := oldEpilogue
	prevFree := tagReadPrevFree(a.word(newHeader))
	a.writeTag(newHeader, need, true, prevFree)
	a.writeTag(a.footerOf(newHeader, need), need, true, prevFree)

	newEpilogue := a.nextHeader(newHeader, need)
	a.writeTag(newEpilogue, 0, false, true)
	a.heapEnd = newEpilogue

	a.listInsert(newHeader)
	a.coalesce(newHeader)
	return nil
}
