// Copyright 2024 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// osArena is the default, OS-backed growth primitive: a single large
// anonymous mapping reserved once at construction, with Grow bumping a
// logical break within it. Because the whole reservation exists from the
// start, growing never relocates already-handed-out bytes, satisfying the
// "single contiguous, grow-only" requirement without ever calling mmap a
// second time.
type osArena struct {
	region []byte // full reservation, len == cap == capacity
	used   int    // current logical break, i.e. committed length
}

func newOSArena(capacity int) (*osArena, error) {
	region, err := mmapReserve(capacity)
	if err != nil {
		return nil, err
	}
	return &osArena{region: region}, nil
}

func (o *osArena) Grow(n int) (int, error) {
	if o.used+n > len(o.region) {
		return 0, ErrOutOfMemory
	}
	off := o.used
	o.used += n
	return off, nil
}

func (o *osArena) Bytes() []byte { return o.region[:o.used] }

// Close releases the underlying OS mapping. It is not necessary to Close
// an Allocator when exiting a process.
func (o *osArena) Close() error { return munmapRegion(o.region) }
