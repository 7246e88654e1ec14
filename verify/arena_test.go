// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocRoundsToWordSize(t *testing.T) {
	a := NewArena()
	blk, err := a.Alloc(3)
	require.NoError(t, err)
	assert.Len(t, blk.Bytes(), 8)
	assert.Equal(t, 8, a.offset)
}

func TestArenaAllocBumpsSequentially(t *testing.T) {
	a := NewArena()
	b1, err := a.Alloc(8)
	require.NoError(t, err)
	b2, err := a.Alloc(16)
	require.NoError(t, err)

	assert.Equal(t, 24, a.offset)
	// Both blocks carve from the same backing chunk at disjoint offsets.
	b1.Bytes()[0] = 0xAA
	assert.NotEqual(t, b1.Bytes()[0], b2.Bytes()[0])
}

func TestArenaAllocSpillsOversizedRequest(t *testing.T) {
	a := NewArena()
	blk, err := a.Alloc(bigBlockThreshold + 1)
	require.NoError(t, err)
	assert.NotNil(t, blk.big)
	assert.Zero(t, a.offset, "an mmap-backed spill must not consume chunk space")
}

func TestArenaAllocSpillsWhenChunkExhausted(t *testing.T) {
	a := NewArena()
	// Fill the chunk exactly with requests at the size threshold (so
	// none of them spills for being individually oversized).
	for i := 0; i < defaultChunkSize/bigBlockThreshold; i++ {
		blk, err := a.Alloc(bigBlockThreshold)
		require.NoError(t, err)
		require.Nil(t, blk.big)
	}
	require.Equal(t, defaultChunkSize, a.offset)

	blk, err := a.Alloc(wordSize)
	require.NoError(t, err)
	assert.NotNil(t, blk.big, "a request that no longer fits the remaining chunk space must spill")
}

func TestArenaFreeRewindsLIFOTail(t *testing.T) {
	a := NewArena()
	b1, err := a.Alloc(8)
	require.NoError(t, err)
	b2, err := a.Alloc(8)
	require.NoError(t, err)

	a.Free(b2)
	assert.Equal(t, 8, a.offset, "freeing the tail allocation must rewind the bump offset")
	assert.Len(t, a.blocks, 1)

	a.Free(b1)
	assert.Zero(t, a.offset)
	assert.Empty(t, a.blocks)
}

func TestArenaFreeOutOfOrderDefersRewind(t *testing.T) {
	a := NewArena()
	b1, err := a.Alloc(8)
	require.NoError(t, err)
	b2, err := a.Alloc(8)
	require.NoError(t, err)

	a.Free(b1)
	// b1 isn't the tail, so nothing is reclaimed yet.
	assert.Equal(t, 16, a.offset)
	assert.Len(t, a.blocks, 2)

	a.Free(b2)
	// Freeing the tail now unwinds through both, since b1 was already
	// marked free and sits directly beneath it.
	assert.Zero(t, a.offset)
	assert.Empty(t, a.blocks)
}

func TestArenaResetReclaimsEverythingRegardlessOfOrder(t *testing.T) {
	a := NewArena()
	_, err := a.Alloc(8)
	require.NoError(t, err)
	_, err = a.Alloc(bigBlockThreshold + 1)
	require.NoError(t, err)

	a.Reset()
	assert.Zero(t, a.offset)
	assert.Empty(t, a.blocks)
}
