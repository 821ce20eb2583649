// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory implements a general-purpose dynamic memory allocator.
//
// The allocator services four operations — Malloc, Free, Realloc and
// Calloc — over a single contiguous, grow-only heap region obtained from a
// lower-level sbrk-style primitive. It is single-threaded: callers sharing
// an *Allocator across goroutines must provide their own mutual exclusion.
//
// Block layout
//
// Every block is a header word, a payload region whose size is always a
// multiple of 16 bytes, and a footer word. The header/footer word packs the
// payload size into its upper 60 bits and two status bits into bit 0 (this
// block is free) and bit 1 (the previous block is free). An allocated
// block's footer is not read by the allocator — the next block's
// previous-block-free bit carries the same information — so those 8 bytes
// are lent to the caller's payload (see needSize).
//
// Placement is LIFO within 14 exact-size segregated free lists (16..224
// bytes in steps of 16) and first-fit within an overflow list for every
// other size. The heap grows by the minimum increment that satisfies the
// request whenever no free block fits.
//
// Changelog
//
// 2024-01-01 Initial segregated-fit, footer-eliding rewrite.
package memory
