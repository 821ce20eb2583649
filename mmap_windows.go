// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2024 The Memory Authors.

package memory

import (
	"errors"
	"os"
	"reflect"
	"sync"
	"syscall"
	"unsafe"
)

// DefaultArenaSize is the amount of address space an OS-backed arena
// reserves up front. The reservation is virtual: pages are committed by
// the OS on first touch, so only the heap actually touched by allocations
// costs physical memory.
const DefaultArenaSize = 1 << 31 // 2GiB of address space

// mmap on Windows is a two-step process.
// First, we call CreateFileMapping to get a handle.
// Then, we call MapViewOfFile to get an actual pointer into memory.

var (
	handleMapMu sync.Mutex
	// handleMap lets us get back the original handle from the memory address.
	handleMap = map[uintptr]syscall.Handle{}
)

func mmapReserve(size int) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.Handle(^uintptr(0)), nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", errno)
	}

	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", errno)
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = size
	sh.Cap = size
	return b, nil
}

func munmapRegion(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	addr := uintptr(unsafe.Pointer(&b[0]))
	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return err
	}

	handleMapMu.Lock()
	handle, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMapMu.Unlock()
	if !ok {
		return errors.New("memory: unknown base address")
	}

	e := syscall.CloseHandle(handle)
	return os.NewSyscallError("CloseHandle", e)
}
