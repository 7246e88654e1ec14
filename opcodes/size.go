// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opcodes

import "fmt"

// fixedSize gives the instruction length, opcode byte included, for
// every opcode whose length does not depend on alignment or a wide
// prefix. Variable-length opcodes (tableswitch, lookupswitch, wide)
// are handled separately by InstructionLength.
var fixedSize [256]int

func init() {
	for c := 0; c < 256; c++ {
		fixedSize[c] = 1 // default: opcode byte only
	}
	for _, c := range []byte{Bipush, Ldc, Iload, Lload, Fload, Dload, Aload,
		Istore, Lstore, Fstore, Dstore, Astore, Ret, Newarray} {
		fixedSize[c] = 2
	}
	for _, c := range []byte{Sipush, LdcW, Ldc2W, Iinc,
		Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle,
		IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple,
		IfAcmpeq, IfAcmpne, Goto, Jsr,
		Getstatic, Putstatic, Getfield, Putfield,
		Invokevirtual, Invokespecial, Invokestatic,
		NewObject, Anewarray, Checkcast, Instanceof, Ifnull, Ifnonnull} {
		fixedSize[c] = 3
	}
	fixedSize[Multianewarray] = 4
	fixedSize[Invokeinterface] = 5
	fixedSize[Invokedynamic] = 5
	fixedSize[GotoW] = 5
	fixedSize[JsrW] = 5
	// tableswitch, lookupswitch and wide are computed dynamically.
}

// InstructionLength returns the length in bytes, opcode byte included,
// of the instruction at code[pc]. For tableswitch/lookupswitch it
// consumes the padding and low/high (or pair count) header; for wide
// it consumes the doubled operand of the prefixed instruction. It does
// not follow control flow: this is a purely syntactic computation.
func InstructionLength(code []byte, pc int) (int, error) {
	op := code[pc]
	if _, err := New(op); err != nil {
		return 0, err
	}

	var n int
	switch op {
	case Tableswitch:
		// padding to the next 4-byte boundary after the opcode, then
		// default(4) low(4) high(4), then (high-low+1) 4-byte offsets.
		pad := (4 - (pc+1)%4) % 4
		base := pc + 1 + pad
		if base+12 > len(code) {
			return 0, errTruncated(pc)
		}
		low := beI32(code[base+4:])
		high := beI32(code[base+8:])
		count := int64(high) - int64(low) + 1
		if count < 0 {
			count = 0
		}
		n = 1 + pad + 12 + int(count)*4

	case Lookupswitch:
		pad := (4 - (pc+1)%4) % 4
		base := pc + 1 + pad
		if base+8 > len(code) {
			return 0, errTruncated(pc)
		}
		npairs := beI32(code[base+4:])
		if npairs < 0 {
			npairs = 0
		}
		n = 1 + pad + 8 + int(npairs)*8

	case Wide:
		if pc+1 >= len(code) {
			return 0, errTruncated(pc)
		}
		switch code[pc+1] {
		case Iinc:
			n = 6 // wide + iinc + u2 index + u2 const
		default:
			n = 4 // wide + opcode + u2 index
		}

	default:
		n = fixedSize[op]
	}

	if pc+n > len(code) {
		return 0, errTruncated(pc)
	}
	return n, nil
}

func beI32(b []byte) int32 {
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// TruncatedInstructionError is returned when an instruction's fixed or
// variable-length operand runs past the end of the bytecode array.
type TruncatedInstructionError int

func (e TruncatedInstructionError) Error() string {
	return fmt.Sprintf("opcodes: truncated instruction at pc %d", int(e))
}

func errTruncated(pc int) error { return TruncatedInstructionError(pc) }
