// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCQueueFIFO(t *testing.T) {
	q, err := newPCQueue(NewArena(), 4)
	require.NoError(t, err)
	assert.True(t, q.empty())

	q.push(1)
	q.push(2)
	q.push(3)

	pc, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 1, pc)

	pc, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, 2, pc)

	q.push(4)

	pc, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, 3, pc)

	pc, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, 4, pc)

	_, ok = q.pop()
	assert.False(t, ok)
}

func TestPCQueueReset(t *testing.T) {
	q, err := newPCQueue(NewArena(), 4)
	require.NoError(t, err)
	q.push(1)
	q.push(2)
	q.reset()
	assert.True(t, q.empty())
}

func TestWorkQueuesDeduplicatesUnwalkedEnqueue(t *testing.T) {
	arena := NewArena()
	bm, err := newBytecodeMap(arena, 8)
	require.NoError(t, err)
	wq, err := newWorkQueues(arena, bm, 8)
	require.NoError(t, err)

	wq.enqueueUnwalked(3)
	wq.enqueueUnwalked(3)

	pc, ok := wq.next()
	require.True(t, ok)
	assert.Equal(t, 3, pc)

	_, ok = wq.next()
	assert.False(t, ok, "the duplicate enqueue must not have pushed a second entry")
}

func TestWorkQueuesRewalkSupersedesUnwalked(t *testing.T) {
	arena := NewArena()
	bm, err := newBytecodeMap(arena, 8)
	require.NoError(t, err)
	wq, err := newWorkQueues(arena, bm, 8)
	require.NoError(t, err)

	wq.enqueueUnwalked(5)
	wq.enqueueRewalk(5)
	assert.False(t, bm.has(5, flagOnUnwalkedQueue))
	assert.True(t, bm.has(5, flagOnRewalkQueue))

	pc, ok := wq.next()
	require.True(t, ok)
	assert.Equal(t, 5, pc)
}

func TestWorkQueuesDrainsUnwalkedBeforeRewalk(t *testing.T) {
	arena := NewArena()
	bm, err := newBytecodeMap(arena, 8)
	require.NoError(t, err)
	wq, err := newWorkQueues(arena, bm, 8)
	require.NoError(t, err)

	wq.enqueueRewalk(7)
	wq.enqueueUnwalked(2)

	pc, ok := wq.next()
	require.True(t, ok)
	assert.Equal(t, 2, pc, "the unwalked queue drains before the rewalk queue")

	pc, ok = wq.next()
	require.True(t, ok)
	assert.Equal(t, 7, pc)

	_, ok = wq.next()
	assert.False(t, ok)
}

func TestWorkQueuesResetClearsBoth(t *testing.T) {
	arena := NewArena()
	bm, err := newBytecodeMap(arena, 8)
	require.NoError(t, err)
	wq, err := newWorkQueues(arena, bm, 8)
	require.NoError(t, err)

	wq.enqueueUnwalked(1)
	wq.enqueueRewalk(2)
	wq.reset()

	_, ok := wq.next()
	assert.False(t, ok)
}
