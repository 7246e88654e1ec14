// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "encoding/binary"

// pcQueue is a single-producer/single-consumer ring buffer of PCs,
// sized to the frame count plus one so head==tail unambiguously means
// empty. The buffer is a fixed-size, pointer-free arena allocation
// (spec.md §2/§3, §4.8), with each slot holding a big-endian int32 PC.
type pcQueue struct {
	buf        []byte
	n          int // slot count; len(buf) == n*4
	head, tail int
}

func newPCQueue(arena *Arena, frameCount int) (*pcQueue, error) {
	n := frameCount + 1
	blk, err := arena.Alloc(n * 4)
	if err != nil {
		return nil, err
	}
	return &pcQueue{buf: blk.Bytes()[:n*4], n: n}, nil
}

func (q *pcQueue) empty() bool { return q.head == q.tail }

func (q *pcQueue) push(pc int) {
	binary.BigEndian.PutUint32(q.buf[q.tail*4:], uint32(pc))
	q.tail = (q.tail + 1) % q.n
}

// pop returns the next PC and true, or (0, false) if empty.
func (q *pcQueue) pop() (int, bool) {
	if q.empty() {
		return 0, false
	}
	pc := int(int32(binary.BigEndian.Uint32(q.buf[q.head*4:])))
	q.head = (q.head + 1) % q.n
	return pc, true
}

func (q *pcQueue) reset() { q.head, q.tail = 0, 0 }

// workQueues bundles the unwalked and re-walk PC queues. Enqueue is
// idempotent via the bytecodeMap's OnUnwalkedQueue/OnRewalkQueue
// flags: a PC is never present on both at once.
type workQueues struct {
	unwalked *pcQueue
	rewalk   *pcQueue
	bm       *bytecodeMap
}

func newWorkQueues(arena *Arena, bm *bytecodeMap, frameCount int) (*workQueues, error) {
	unwalked, err := newPCQueue(arena, frameCount)
	if err != nil {
		return nil, err
	}
	rewalk, err := newPCQueue(arena, frameCount)
	if err != nil {
		return nil, err
	}
	return &workQueues{unwalked: unwalked, rewalk: rewalk, bm: bm}, nil
}

func (w *workQueues) enqueueUnwalked(pc int) {
	if w.bm.has(pc, flagOnUnwalkedQueue) || w.bm.has(pc, flagOnRewalkQueue) {
		return
	}
	w.bm.set(pc, flagOnUnwalkedQueue)
	w.unwalked.push(pc)
}

func (w *workQueues) enqueueRewalk(pc int) {
	if w.bm.has(pc, flagOnRewalkQueue) {
		return
	}
	w.bm.clear(pc, flagOnUnwalkedQueue)
	w.bm.set(pc, flagOnRewalkQueue)
	w.rewalk.push(pc)
}

// next dequeues from the unwalked queue first, falling back to the
// re-walk queue, skipping any PC whose flag was cleared in the
// interim (deduplication). Returns (0, false) once both are drained.
func (w *workQueues) next() (int, bool) {
	for {
		if pc, ok := w.unwalked.pop(); ok {
			if !w.bm.has(pc, flagOnUnwalkedQueue) {
				continue
			}
			w.bm.clear(pc, flagOnUnwalkedQueue)
			return pc, true
		}
		if pc, ok := w.rewalk.pop(); ok {
			if !w.bm.has(pc, flagOnRewalkQueue) {
				continue
			}
			w.bm.clear(pc, flagOnRewalkQueue)
			return pc, true
		}
		return 0, false
	}
}

func (w *workQueues) reset() {
	w.unwalked.reset()
	w.rewalk.reset()
}
