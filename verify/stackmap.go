// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"bytes"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/classfile/bigendian"
)

// Verification-type tags as they appear inside a StackMapTable entry's
// locals/stack lists. The first nine match the class-file format; tag 9
// is this core's own extension for a primitive array, carried as a
// single unit instead of decaying to a generic object.
const (
	vtTop               = 0
	vtInteger           = 1
	vtFloat             = 2
	vtDouble            = 3
	vtLong              = 4
	vtNull              = 5
	vtUninitializedThis = 6
	vtObject            = 7
	vtUninitialized     = 8
	vtPrimitiveArray    = 9
)

// decompressStackMap walks the delta-encoded StackMapTable attribute
// body, materializing one Frame per entry into fs at the index
// buildBranchMap already reserved for that PC.
func decompressStackMap(raw []byte, method *classfile.Method, pool classfile.ConstantPool, in *interner, currentClassIndex int32, bm *bytecodeMap, fs *FrameStore) error {
	if len(raw) == 0 {
		return nil
	}
	r := bytes.NewReader(raw)

	count, err := bigendian.ReadU2(r)
	if err != nil {
		return err
	}

	// locals is the running local-variable state, carried across frames
	// per the class-file format's "implicit" encoding: each frame only
	// describes its delta from the previous one. Wide primitives occupy
	// two slots, the second holding Top, exactly as in a materialized
	// Frame.
	// The receiver, if any, occupies local 0 before the parameter types;
	// an <init> method's receiver starts uninitialized-this, rewritten
	// to a plain reference by the simulator once the superclass
	// constructor call is observed.
	locals := make([]Value, 0, method.MaxLocals)
	if !method.IsStatic {
		if method.IsConstructor {
			locals = appendWide(locals, UninitializedThis(currentClassIndex))
		} else {
			locals = appendWide(locals, Reference(currentClassIndex, 0))
		}
	}
	for _, pt := range method.ParamTypes {
		locals = appendWide(locals, baseValue(pt))
	}

	pc := -1
	for i := 0; i < int(count); i++ {
		tag, err := bigendian.ReadU1(r)
		if err != nil {
			return err
		}

		var offsetDelta int
		var stack []Value

		// advance folds offsetDelta into the running pc and bounds-checks
		// it, as soon as offsetDelta itself is known (which the class-file
		// encoding always gives up first, before any locals/stack entries
		// for this frame). Every error raised afterwards in this entry's
		// processing can then name the real offending pc instead of one
		// hardcoded by the caller.
		advance := func(delta int) error {
			if i == 0 {
				pc = delta
			} else {
				pc = pc + delta + 1
			}
			if pc < 0 || pc >= len(method.Code) {
				return BranchTargetOutOfBoundsError(pc)
			}
			return nil
		}

		switch {
		case tag <= 63: // same_frame
			offsetDelta = int(tag)
			if err := advance(offsetDelta); err != nil {
				return err
			}

		case tag <= 127: // same_locals_1_stack_item_frame
			offsetDelta = int(tag) - 64
			if err := advance(offsetDelta); err != nil {
				return err
			}
			v, err := parseVerificationType(r, in, pool, currentClassIndex)
			if err != nil {
				return err
			}
			stack = appendWide(stack, v)

		case tag == 247: // same_locals_1_stack_item_frame_extended
			u, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			offsetDelta = int(u)
			if err := advance(offsetDelta); err != nil {
				return err
			}
			v, err := parseVerificationType(r, in, pool, currentClassIndex)
			if err != nil {
				return err
			}
			stack = appendWide(stack, v)

		case tag >= 248 && tag <= 250: // chop_frame
			u, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			offsetDelta = int(u)
			if err := advance(offsetDelta); err != nil {
				return err
			}
			k := int(251 - tag)
			locals, err = chopLocals(locals, k, pc)
			if err != nil {
				return err
			}

		case tag == 251: // same_frame_extended
			u, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			offsetDelta = int(u)
			if err := advance(offsetDelta); err != nil {
				return err
			}

		case tag >= 252 && tag <= 254: // append_frame
			u, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			offsetDelta = int(u)
			if err := advance(offsetDelta); err != nil {
				return err
			}
			k := int(tag - 251)
			for j := 0; j < k; j++ {
				v, err := parseVerificationType(r, in, pool, currentClassIndex)
				if err != nil {
					return err
				}
				locals = appendWide(locals, v)
				if len(locals) > method.MaxLocals {
					return LocalsOverflowError{PC: pc, MaxLocals: method.MaxLocals}
				}
			}

		case tag == 255: // full_frame
			u, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			offsetDelta = int(u)
			if err := advance(offsetDelta); err != nil {
				return err
			}

			localCount, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			newLocals := make([]Value, 0, method.MaxLocals)
			for j := 0; j < int(localCount); j++ {
				v, err := parseVerificationType(r, in, pool, currentClassIndex)
				if err != nil {
					return err
				}
				newLocals = appendWide(newLocals, v)
			}
			if len(newLocals) > method.MaxLocals {
				return LocalsOverflowError{PC: pc, MaxLocals: method.MaxLocals}
			}
			locals = newLocals

			stackCount, err := bigendian.ReadU2(r)
			if err != nil {
				return err
			}
			for j := 0; j < int(stackCount); j++ {
				v, err := parseVerificationType(r, in, pool, currentClassIndex)
				if err != nil {
					return err
				}
				stack = appendWide(stack, v)
			}

		default:
			return InvalidStackMapTagError(tag)
		}

		if len(stack) > method.MaxStack {
			return StackOverflowError{PC: pc, MaxStack: method.MaxStack}
		}

		idx := bm.frameIndexAt(pc)
		if idx < 0 {
			return UnreachedFrameError(pc)
		}
		f := fs.at(idx)
		f.PC = pc
		f.StackBaseIndex = len(locals)
		f.StackTopIndex = len(locals) + len(stack)
		f.Elements = make([]Value, f.StackTopIndex)
		copy(f.Elements, locals)
		copy(f.Elements[f.StackBaseIndex:], stack)
	}

	return nil
}

// appendWide appends v, and a trailing Top when v occupies two slots.
func appendWide(vs []Value, v Value) []Value {
	vs = append(vs, v)
	if v.IsWide() {
		vs = append(vs, Top)
	}
	return vs
}

// chopLocals drops the last k logical locals (a wide local's Top
// companion counts as part of the same local, not a second one). pc
// is the chop frame's own offset, preserved on a LocalsUnderflowError
// per spec.md §4.4.
func chopLocals(locals []Value, k, pc int) ([]Value, error) {
	for j := 0; j < k; j++ {
		n := len(locals)
		if n == 0 {
			return nil, LocalsUnderflowError{PC: pc, Chop: k - j, Have: 0}
		}
		if locals[n-1] == Top && n >= 2 && locals[n-2].IsWide() {
			locals = locals[:n-2]
		} else {
			locals = locals[:n-1]
		}
	}
	return locals, nil
}

// baseValue maps a classfile.BaseType parameter into its lattice Value.
func baseValue(t classfile.BaseType) Value {
	switch t {
	case classfile.BaseInt:
		return Int
	case classfile.BaseLong:
		return Long
	case classfile.BaseFloat:
		return Float
	case classfile.BaseDouble:
		return Double
	case classfile.BaseReference:
		return ObjectValue(0)
	default:
		return Top
	}
}

// parseVerificationType decodes one element of a locals or stack list,
// per the tag table documented above.
func parseVerificationType(r *bytes.Reader, in *interner, pool classfile.ConstantPool, currentClassIndex int32) (Value, error) {
	tag, err := bigendian.ReadU1(r)
	if err != nil {
		return 0, err
	}
	switch tag {
	case vtTop:
		return Top, nil
	case vtInteger:
		return Int, nil
	case vtFloat:
		return Float, nil
	case vtDouble:
		return Double, nil
	case vtLong:
		return Long, nil
	case vtNull:
		return Null, nil
	case vtUninitializedThis:
		return UninitializedThis(currentClassIndex), nil
	case vtObject:
		idx, err := bigendian.ReadU2(r)
		if err != nil {
			return 0, err
		}
		name, err := pool.ClassNameAt(int32(idx))
		if err != nil {
			return 0, err
		}
		return Reference(in.intern(name), 0), nil
	case vtUninitialized:
		newPC, err := bigendian.ReadU2(r)
		if err != nil {
			return 0, err
		}
		return UninitializedNew(int(newPC)), nil
	case vtPrimitiveArray:
		elem, err := bigendian.ReadU1(r)
		if err != nil {
			return 0, err
		}
		arity, err := bigendian.ReadU2(r)
		if err != nil {
			return 0, err
		}
		p, err := primFromByte(elem)
		if err != nil {
			return 0, err
		}
		return BaseArray(p, int(arity)), nil
	default:
		return 0, InvalidStackMapTagError(tag)
	}
}

func primFromByte(b byte) (Prim, error) {
	switch b {
	case 0:
		return PrimInt, nil
	case 1:
		return PrimLong, nil
	case 2:
		return PrimFloat, nil
	case 3:
		return PrimDouble, nil
	default:
		return PrimTop, InvalidStackMapTagError(b)
	}
}
