// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// Block navigation. Given a header at offset h with payload size s:
//
//	payload = h + 8
//	footer  = h + 8 + s
//	next hdr = h + 16 + s
//	prev ftr = h - 8, whose size s_prev gives prev hdr = h - 16 - s_prev
//
// None of these must be called with h pointing at the epilogue's "next" or
// the prologue's "previous" — there is nothing on the other side.

func (a *Allocator) payloadOf(h int) int { return h + 8 }

func (a *Allocator) footerOf(h, size int) int { return h + 8 + size }

func (a *Allocator) nextHeader(h, size int) int { return h + 16 + size }

func (a *Allocator) headerOfPayload(p int) int { return p - 8 }

func (a *Allocator) prevHeader(h int) int {
	prevFooter := h - 8
	prevSize := tagReadSize(a.word(prevFooter))
	return h - 16 - prevSize
}
