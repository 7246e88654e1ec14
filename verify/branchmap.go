// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// buildBranchMap performs the one linear, non-recursive scan over a
// method's bytecode: every PC reachable by anything other than
// fall-through is flagged BranchTarget, and every exception-protected
// range contributes its handler (BranchTarget) and start
// (ExceptionStart, unless the handler catches itself). It returns the
// bytecode map and the list of distinct branch-target PCs in the
// order first encountered, which the caller uses to size the frame
// store. The bytecode map's backing arrays are allocated from arena.
func buildBranchMap(arena *Arena, code []byte, exceptions []classfile.ExceptionHandler) (*bytecodeMap, []int, error) {
	bm, err := newBytecodeMap(arena, len(code))
	if err != nil {
		return nil, nil, err
	}
	var targets []int

	markTarget := func(pc int) error {
		if pc < 0 || pc >= len(code) {
			return BranchTargetOutOfBoundsError(pc)
		}
		if !bm.has(pc, flagBranchTarget) {
			bm.set(pc, flagBranchTarget)
			targets = append(targets, pc)
		}
		return nil
	}

	pc := 0
	for pc < len(code) {
		size, err := opcodes.InstructionLength(code, pc)
		if err != nil {
			return nil, nil, err
		}

		switch code[pc] {
		case opcodes.Ifeq, opcodes.Ifne, opcodes.Iflt, opcodes.Ifge, opcodes.Ifgt, opcodes.Ifle,
			opcodes.IfIcmpeq, opcodes.IfIcmpne, opcodes.IfIcmplt, opcodes.IfIcmpge, opcodes.IfIcmpgt, opcodes.IfIcmple,
			opcodes.IfAcmpeq, opcodes.IfAcmpne, opcodes.Goto, opcodes.Jsr,
			opcodes.Ifnull, opcodes.Ifnonnull:
			off := beS16(code[pc+1:])
			if err := markTarget(pc + off); err != nil {
				return nil, nil, err
			}

		case opcodes.GotoW, opcodes.JsrW:
			off := beS32(code[pc+1:])
			if err := markTarget(pc + off); err != nil {
				return nil, nil, err
			}

		case opcodes.Tableswitch:
			pad := (4 - (pc+1)%4) % 4
			base := pc + 1 + pad
			def := int(beS32(code[base:]))
			low := int(beS32(code[base+4:]))
			high := int(beS32(code[base+8:]))
			if err := markTarget(pc + def); err != nil {
				return nil, nil, err
			}
			entries := base + 12
			for off := low; off <= high; off++ {
				target := int(beS32(code[entries:]))
				if err := markTarget(pc + target); err != nil {
					return nil, nil, err
				}
				entries += 4
			}

		case opcodes.Lookupswitch:
			pad := (4 - (pc+1)%4) % 4
			base := pc + 1 + pad
			def := int(beS32(code[base:]))
			npairs := int(beS32(code[base+4:]))
			if err := markTarget(pc + def); err != nil {
				return nil, nil, err
			}
			entries := base + 8
			for i := 0; i < npairs; i++ {
				target := int(beS32(code[entries+4:]))
				if err := markTarget(pc + target); err != nil {
					return nil, nil, err
				}
				entries += 8
			}
		}

		pc += size
	}

	for _, eh := range exceptions {
		if err := markTarget(eh.HandlerPC); err != nil {
			return nil, nil, err
		}
		if eh.StartPC != eh.HandlerPC {
			if eh.StartPC < 0 || eh.StartPC >= len(code) {
				return nil, nil, BranchTargetOutOfBoundsError(eh.StartPC)
			}
			bm.set(eh.StartPC, flagExceptionStart)
		}
	}

	return bm, targets, nil
}

func beS16(b []byte) int { return int(int16(uint16(b[0])<<8 | uint16(b[1]))) }

func beS32(b []byte) int {
	return int(int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])))
}
