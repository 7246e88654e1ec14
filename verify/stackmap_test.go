// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stub reports target as reachable by the decompressor (a stack map
// entry only needs its PC pre-registered in the frame store, not a
// real predecessor instruction).
func stub(t *testing.T, codeLen int, targets ...int) (*bytecodeMap, *FrameStore) {
	arena := NewArena()
	bm, err := newBytecodeMap(arena, codeLen)
	require.NoError(t, err)
	fs, err := newFrameStore(arena, len(targets))
	require.NoError(t, err)
	for _, pc := range targets {
		fs.add(pc, bm)
	}
	return bm, fs
}

func TestDecompressStackMapSameFrame(t *testing.T) {
	method := &classfile.Method{MaxLocals: 1, MaxStack: 1, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 5)
	raw := []byte{0, 1, 5} // same_frame, offset_delta 5

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.NoError(t, err)

	f := fs.at(0)
	assert.Equal(t, 5, f.PC)
	assert.Equal(t, 0, f.StackBaseIndex)
	assert.Equal(t, 0, f.StackTopIndex)
}

func TestDecompressStackMapSameLocals1StackItem(t *testing.T) {
	method := &classfile.Method{MaxLocals: 1, MaxStack: 1, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 3)
	raw := []byte{0, 1, 64 + 3, vtInteger} // tag 67 => offset 3, one Integer on stack

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.NoError(t, err)

	f := fs.at(0)
	assert.Equal(t, 3, f.PC)
	assert.Equal(t, 0, f.StackBaseIndex)
	assert.Equal(t, 1, f.StackTopIndex)
	assert.Equal(t, Int, f.Elements[0])
}

func TestDecompressStackMapChopFrame(t *testing.T) {
	method := &classfile.Method{MaxLocals: 2, MaxStack: 0, Code: make([]byte, 10), ParamTypes: []classfile.BaseType{classfile.BaseInt}, IsStatic: true}
	bm, fs := stub(t, 10, 4)
	raw := []byte{0, 1, 250, 0, 4} // chop_frame (tag 250 chops 251-250=1 local), offset_delta 4

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.NoError(t, err)

	f := fs.at(0)
	assert.Equal(t, 4, f.PC)
	assert.Equal(t, 0, f.StackBaseIndex, "chopping the single int param leaves zero locals")
}

func TestDecompressStackMapChopUnderflowErrors(t *testing.T) {
	method := &classfile.Method{MaxLocals: 0, MaxStack: 0, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 0)
	raw := []byte{0, 1, 249, 0, 0} // chop 2 locals, none present

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.Error(t, err)
	var lue LocalsUnderflowError
	require.ErrorAs(t, err, &lue)
	assert.Equal(t, 2, lue.Chop)
	assert.Equal(t, 0, lue.Have)
}

func TestDecompressStackMapAppendFrame(t *testing.T) {
	method := &classfile.Method{MaxLocals: 2, MaxStack: 0, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 2)
	raw := []byte{0, 1, 252, 0, 2, vtInteger} // append 1 local (tag 252), offset 2

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.NoError(t, err)

	f := fs.at(0)
	assert.Equal(t, 2, f.PC)
	assert.Equal(t, 1, f.StackBaseIndex)
	assert.Equal(t, Int, f.Elements[0])
}

func TestDecompressStackMapAppendOverflowErrors(t *testing.T) {
	method := &classfile.Method{MaxLocals: 0, MaxStack: 0, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 2)
	raw := []byte{0, 1, 252, 0, 2, vtInteger}

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.Error(t, err)
	var loe LocalsOverflowError
	assert.ErrorAs(t, err, &loe)
}

func TestDecompressStackMapFullFrame(t *testing.T) {
	method := &classfile.Method{MaxLocals: 1, MaxStack: 1, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 1)
	raw := []byte{
		0, 1, // count = 1
		255, 0, 1, // full_frame, offset_delta 1
		0, 1, vtInteger, // locals: 1 entry, Integer
		0, 1, vtNull, // stack: 1 entry, null
	}

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.NoError(t, err)

	f := fs.at(0)
	assert.Equal(t, 1, f.PC)
	require.Equal(t, 1, f.StackBaseIndex)
	assert.Equal(t, Int, f.Elements[0])
	assert.Equal(t, Null, f.Elements[1])
}

func TestDecompressStackMapUnreachedFrameErrors(t *testing.T) {
	method := &classfile.Method{MaxLocals: 0, MaxStack: 0, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10) // no targets registered
	raw := []byte{0, 1, 5}

	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.Error(t, err)
	var ufe UnreachedFrameError
	assert.ErrorAs(t, err, &ufe)
}

func TestDecompressStackMapInvalidTagErrors(t *testing.T) {
	method := &classfile.Method{MaxLocals: 0, MaxStack: 0, Code: make([]byte, 10), IsStatic: true}
	bm, fs := stub(t, 10, 0)
	// Provoked here through the verification-type parser: the frame tag
	// is valid, the verification-type tag after it is not.
	raw := []byte{0, 1, 64, 250} // same_locals_1_stack_item_frame with an invalid verification-type tag
	err := decompressStackMap(raw, method, nil, newInterner(), 0, bm, fs)
	require.Error(t, err)
	var iste InvalidStackMapTagError
	assert.ErrorAs(t, err, &iste)
}
