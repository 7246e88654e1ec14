// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"

	"github.com/edsrzf/mmap-go"
)

// ErrInsufficientMemory is returned by Arena.Alloc, and propagates as
// the terminal verification result for the whole class: a resource
// error aborts the entire class, with no method-level recovery.
var ErrInsufficientMemory = errors.New("verify: insufficient memory")

// wordSize is the allocation granularity; every block is rounded up to
// a whole multiple of it.
const wordSize = 8

// bigBlockThreshold is the point past which Arena.Alloc spills to the
// host allocator instead of carving from the bump-allocated chunk. A
// request is spilled whenever it no longer fits in the remaining
// chunk space, and also whenever a single request is larger than a
// quarter of the chunk, so one big method body cannot force every
// subsequent small allocation in the same arena to spill too.
const bigBlockThreshold = defaultChunkSize / 4

// defaultChunkSize is the size of the bump-allocated internal buffer.
const defaultChunkSize = 64 * 1024

// Block is an opaque handle to one arena allocation. A C-style
// allocator might stash the "in-use" tag in the low bit of a raw
// back-pointer, but that is a pointer-provenance hazard in Go; Block
// instead carries an explicit inUse flag next to the data, so the tag
// lives beside the pointer rather than inside it.
type Block struct {
	data  []byte
	big   *bigBlock
	inUse bool
}

// Bytes returns the block's backing storage.
func (b *Block) Bytes() []byte { return b.data }

type bigBlock struct {
	mm mmap.MMap
}

func (b *bigBlock) release() error { return b.mm.Unmap() }

// Arena is a LIFO bump allocator with a spill path to an
// mmap-allocated block for oversized or chunk-exhausting requests. The
// bytecode map and the work queues are physically carved from one
// Arena per method; the frame store charges its estimated footprint
// against the same Arena without being physically backed by it (see
// FrameStore's doc comment for why), so a single method's entire
// per-method bookkeeping cost is bounded by, and can exhaust, one
// Arena. The Arena is reset between methods. The class-name interner
// is out of scope (see DESIGN.md): its maps and strings are not
// fixed-size, pointer-free data an Arena can hold.
type Arena struct {
	chunk  []byte
	offset int
	blocks []*Block
}

// NewArena creates an arena with one chunk of the default size.
func NewArena() *Arena {
	return &Arena{chunk: make([]byte, defaultChunkSize)}
}

// Alloc reserves n bytes, rounded up to wordSize. It returns
// ErrInsufficientMemory (never a panic) if the host allocator itself
// fails for an oversized request; callers must propagate that as the
// method's (or, for arena-internal costs, the whole class's) result.
func (a *Arena) Alloc(n int) (*Block, error) {
	rounded := (n + wordSize - 1) &^ (wordSize - 1)

	if rounded > bigBlockThreshold || a.offset+rounded > len(a.chunk) {
		m, err := mmap.MapRegion(nil, rounded, mmap.RDWR, mmap.ANON, 0)
		if err != nil {
			return nil, ErrInsufficientMemory
		}
		blk := &Block{data: m, big: &bigBlock{mm: m}, inUse: true}
		a.blocks = append(a.blocks, blk)
		return blk, nil
	}

	blk := &Block{data: a.chunk[a.offset : a.offset+rounded], inUse: true}
	a.offset += rounded
	a.blocks = append(a.blocks, blk)
	return blk, nil
}

// Free releases blk. If blk is the most recent live allocation, the
// arena rewinds through it and any contiguous already-freed blocks
// that precede it; otherwise blk is simply flagged free and reclaimed
// later once it becomes the tail.
func (a *Arena) Free(blk *Block) {
	blk.inUse = false

	for len(a.blocks) > 0 {
		tail := a.blocks[len(a.blocks)-1]
		if tail.inUse {
			break
		}
		if tail.big != nil {
			tail.big.release()
		} else {
			a.offset -= len(tail.data)
		}
		a.blocks = a.blocks[:len(a.blocks)-1]
	}
}

// Reset reclaims every outstanding allocation unconditionally, the
// fast per-method teardown path between methods. Unlike Free, it does
// not require blocks to have been freed in LIFO order first.
func (a *Arena) Reset() {
	for _, blk := range a.blocks {
		if blk.big != nil {
			blk.big.release()
		}
	}
	a.blocks = a.blocks[:0]
	a.offset = 0
}
