// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionLengthFixed(t *testing.T) {
	code := []byte{Nop}
	n, err := InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	code = []byte{Iload, 0}
	n, err = InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	code = []byte{Ifeq, 0, 5}
	n, err = InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	code = []byte{Invokeinterface, 0, 1, 1, 0}
	n, err = InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestInstructionLengthWide(t *testing.T) {
	code := []byte{Wide, Iload, 0, 1}
	n, err := InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	code = []byte{Wide, Iinc, 0, 1, 0, 5}
	n, err = InstructionLength(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

// TestInstructionLengthTableswitch mirrors the pc=2 layout used by the
// tableswitch scenario elsewhere in this module: one pad byte, a
// default/low/high header, and (high-low+1) 4-byte offsets.
func TestInstructionLengthTableswitch(t *testing.T) {
	code := make([]byte, 2+1+1+12+3*4)
	code[0] = Iload
	code[1] = 0
	pc := 2
	code[pc] = Tableswitch
	// one pad byte follows the opcode at pc+1, then default/low/high
	// start at base = pc+2.
	base := pc + 2
	putI32(code[base:], 0)   // default
	putI32(code[base+4:], 0) // low
	putI32(code[base+8:], 2) // high

	n, err := InstructionLength(code, pc)
	require.NoError(t, err)
	assert.Equal(t, 1+1+12+3*4, n)
}

func TestInstructionLengthLookupswitch(t *testing.T) {
	code := make([]byte, 2+1+1+8+2*8)
	code[0] = Iload
	code[1] = 0
	pc := 2
	code[pc] = Lookupswitch
	base := pc + 2
	putI32(code[base+4:], 2) // npairs

	n, err := InstructionLength(code, pc)
	require.NoError(t, err)
	assert.Equal(t, 1+1+8+2*8, n)
}

func TestInstructionLengthTruncated(t *testing.T) {
	code := []byte{Tableswitch}
	_, err := InstructionLength(code, 0)
	require.Error(t, err)
	var tie TruncatedInstructionError
	assert.ErrorAs(t, err, &tie)
}

func TestInstructionLengthUnknownOpcode(t *testing.T) {
	code := []byte{0xca}
	_, err := InstructionLength(code, 0)
	require.Error(t, err)
	var uoe UnknownOpcodeError
	assert.ErrorAs(t, err, &uoe)
}

func putI32(b []byte, v int32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
