// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"fmt"
	"os"
	"unsafe"
)

// Allocator allocates and frees memory from a single contiguous heap. The
// zero value is not ready for use — call Init first, which lazily attaches
// the default OS-backed arena if none was configured via NewInMemory.
type Allocator struct {
	mem   arena
	lists [numSizeClasses]int

	regionStart int // offset of the leading pad byte
	heapEnd     int // offset of the current epilogue header
	ready       bool
}

// New creates an Allocator backed by the default OS memory mapping. Init
// must still be called before use.
func New() *Allocator {
	return &Allocator{}
}

// Init lays out the prologue, epilogue and padding described in §6.3 and
// prepares the Allocator for use. It returns false if the underlying
// growth primitive could not be initialized.
func (a *Allocator) Init() bool {
	if a.mem == nil {
		arena, err := newOSArena(DefaultArenaSize)
		if err != nil {
			return false
		}
		a.mem = arena
	}

	for i := range a.lists {
		a.lists[i] = 0
	}

	// Probe for a 16-byte aligned starting offset, one byte at a time,
	// exactly as the reference allocator probes sbrk for an aligned
	// address before trusting it.
	var start int
	for {
		off, err := a.mem.Grow(1)
		if err != nil {
			return false
		}
		if off%16 == 0 {
			start = off
			break
		}
	}

	// PAD(8) + PROLOGUE HEADER(8) + PROLOGUE FOOTER(8) + EPILOGUE HEADER(8),
	// minus the byte already consumed by the alignment probe above.
	if _, err := a.mem.Grow(8 + 8 + 8 + 8 - 1); err != nil {
		return false
	}

	prologueHeader := start + 8
	prologueFooter := prologueHeader + 8
	epilogueHeader := prologueFooter + 8

	a.writeTag(prologueHeader, 0, false, false)
	a.writeTag(prologueFooter, 0, false, false)
	a.writeTag(epilogueHeader, 0, false, false)

	a.regionStart = start
	a.heapEnd = epilogueHeader
	a.ready = true
	return true
}

// offsetOf recovers the byte offset of a slice previously handed out by
// this Allocator by pointer-subtracting against the arena's backing array,
// the same trick the reference allocator this package grew out of uses to
// recover a page header from a user slice.
func (a *Allocator) offsetOf(b []byte) int {
	base := uintptr(unsafe.Pointer(&a.mem.Bytes()[0]))
	p := uintptr(unsafe.Pointer(&b[0]))
	return int(p - base)
}

// alloc finds or creates a free block able to hold n bytes and places it,
// returning the payload offset.
func (a *Allocator) alloc(n int) (int, error) {
	need := needSize(n)
	h, ok := a.findFit(need, n)
	if !ok {
		if err := a.extend(n); err != nil {
			return 0, err
		}
		h, ok = a.findFit(need, n)
		if !ok {
			// extend always grows the heap by exactly enough to
			// satisfy n, so this is unreachable.
			return 0, ErrOutOfMemory
		}
	}
	return a.place(h, need), nil
}

// Malloc allocates size bytes and returns a byte slice over the allocated
// memory. The memory is not initialized. Malloc panics for size < 0 and
// returns (nil, nil) for zero size.
//
// It's ok to reslice the returned slice up to its capacity, but the result
// of appending past that capacity cannot be passed to Free or Realloc, as
// it would no longer alias this Allocator's heap.
func (a *Allocator) Malloc(size int) (r []byte, err error) {
	if trace {
		defer func() {
			var p *byte
			if len(r) != 0 {
				p = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Malloc(%#x) %p, %v\n", size, p, err)
		}()
	}
	if size < 0 {
		panic("memory: invalid malloc size")
	}
	if size == 0 {
		return nil, nil
	}

	off, err := a.alloc(size)
	if err != nil {
		return nil, err
	}

	h := a.headerOfPayload(off)
	capacity := tagReadSize(a.word(h)) + 8
	buf := a.mem.Bytes()
	return buf[off : off+size : off+capacity], nil
}

// Calloc is like Malloc except the allocated memory is zeroed. Overflow of
// count*size is the caller's responsibility.
func (a *Allocator) Calloc(count, size int) (r []byte, err error) {
	if trace {
		defer func() {
			var p *byte
			if len(r) != 0 {
				p = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x) %p, %v\n", count, size, p, err)
		}()
	}
	b, err := a.Malloc(count * size)
	if err != nil {
		return nil, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// Free deallocates memory acquired from Malloc, Calloc or Realloc. Freeing
// the null anchor (a nil or zero-capacity slice) is a no-op.
func (a *Allocator) Free(b []byte) (err error) {
	if trace {
		var p *byte
		if len(b) != 0 {
			p = &b[0]
		}
		defer func() {
			fmt.Fprintf(os.Stderr, "Free(%p) %v\n", p, err)
		}()
	}
	b = b[:cap(b)]
	if len(b) == 0 {
		return nil
	}

	off := a.offsetOf(b)
	h := a.headerOfPayload(off)
	size := tagReadSize(a.word(h))
	prevFree := tagReadPrevFree(a.word(h))

	a.writeTag(h, size, true, prevFree)
	a.writeTag(a.footerOf(h, size), size, true, prevFree)

	next := a.nextHeader(h, size)
	a.setPrevFreeBit(next, true)

	a.listInsert(h)
	a.coalesce(h)
	return nil
}

// Realloc changes the size of the block backing b to size bytes. Contents
// are preserved up to the minimum of the old and new capacities. If b is
// the null anchor, Realloc behaves like Malloc(size); if size is zero, it
// behaves like Free(b) and returns the null anchor. When the block's
// existing footer-elided capacity already covers size, the same slice is
// returned unchanged — no copy, no new block.
func (a *Allocator) Realloc(b []byte, size int) (r []byte, err error) {
	if trace {
		var p0 *byte
		if len(b) != 0 {
			p0 = &b[0]
		}
		defer func() {
			var p *byte
			if len(r) != 0 {
				p = &r[0]
			}
			fmt.Fprintf(os.Stderr, "Realloc(%p, %#x) %p, %v\n", p0, size, p, err)
		}()
	}
	if size < 0 {
		panic("memory: invalid realloc size")
	}

	full := b[:cap(b)]
	if len(full) == 0 {
		return a.Malloc(size)
	}
	if size == 0 {
		return nil, a.Free(full)
	}

	off := a.offsetOf(full)
	h := a.headerOfPayload(off)
	payloadSize := tagReadSize(a.word(h))
	capacity := payloadSize + 8
	if capacity >= size {
		buf := a.mem.Bytes()
		return buf[off : off+size : off+capacity], nil
	}

	nb, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}
	copy(nb, full[:capacity])
	if err := a.Free(full); err != nil {
		return nil, err
	}
	return nb, nil
}

// Close releases OS resources held by an Allocator created with New. It is
// a no-op for an in-memory Allocator. Closing is never required when
// exiting a process.
func (a *Allocator) Close() error {
	if c, ok := a.mem.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
