// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// step applies one instruction's effect to cur. It returns terminal
// true when the instruction never falls through (return family,
// athrow, goto family, tableswitch/lookupswitch), in which case next
// is meaningless; otherwise next is the following instruction's PC.
// Branch and switch instructions merge into every successor frame
// themselves, via mergeInto, before returning.
func (s *simulator) step(op opcodes.Op, pc, size int, cur *Frame) (terminal bool, next int, err error) {
	code := s.method.Code
	maxStack := s.method.MaxStack

	if !op.Polymorphic {
		if err := applySimple(op, cur, maxStack); err != nil {
			return false, 0, err
		}
		return false, pc + size, nil
	}

	switch op.Code {
	case opcodes.AconstNull:
		return false, pc + size, pushSlot(cur, Null, maxStack)

	case opcodes.Ldc:
		info, err := s.pool.ConstantTypeAt(int32(code[pc+1]))
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, s.pushFieldInfo(cur, info)

	case opcodes.LdcW, opcodes.Ldc2W:
		info, err := s.pool.ConstantTypeAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, s.pushFieldInfo(cur, info)

	case opcodes.Iload, opcodes.Lload, opcodes.Fload, opcodes.Dload, opcodes.Aload:
		return false, pc + size, s.doLoad(op.Code, int(code[pc+1]), cur)

	case opcodes.Iload0, opcodes.Iload1, opcodes.Iload2, opcodes.Iload3:
		return false, pc + size, s.doLoad(opcodes.Iload, int(op.Code-opcodes.Iload0), cur)
	case opcodes.Lload0, opcodes.Lload1, opcodes.Lload2, opcodes.Lload3:
		return false, pc + size, s.doLoad(opcodes.Lload, int(op.Code-opcodes.Lload0), cur)
	case opcodes.Fload0, opcodes.Fload1, opcodes.Fload2, opcodes.Fload3:
		return false, pc + size, s.doLoad(opcodes.Fload, int(op.Code-opcodes.Fload0), cur)
	case opcodes.Dload0, opcodes.Dload1, opcodes.Dload2, opcodes.Dload3:
		return false, pc + size, s.doLoad(opcodes.Dload, int(op.Code-opcodes.Dload0), cur)
	case opcodes.Aload0, opcodes.Aload1, opcodes.Aload2, opcodes.Aload3:
		return false, pc + size, s.doLoad(opcodes.Aload, int(op.Code-opcodes.Aload0), cur)

	case opcodes.Istore, opcodes.Lstore, opcodes.Fstore, opcodes.Dstore, opcodes.Astore:
		return false, pc + size, s.doStore(op.Code, int(code[pc+1]), cur, pc)

	case opcodes.Istore0, opcodes.Istore1, opcodes.Istore2, opcodes.Istore3:
		return false, pc + size, s.doStore(opcodes.Istore, int(op.Code-opcodes.Istore0), cur, pc)
	case opcodes.Lstore0, opcodes.Lstore1, opcodes.Lstore2, opcodes.Lstore3:
		return false, pc + size, s.doStore(opcodes.Lstore, int(op.Code-opcodes.Lstore0), cur, pc)
	case opcodes.Fstore0, opcodes.Fstore1, opcodes.Fstore2, opcodes.Fstore3:
		return false, pc + size, s.doStore(opcodes.Fstore, int(op.Code-opcodes.Fstore0), cur, pc)
	case opcodes.Dstore0, opcodes.Dstore1, opcodes.Dstore2, opcodes.Dstore3:
		return false, pc + size, s.doStore(opcodes.Dstore, int(op.Code-opcodes.Dstore0), cur, pc)
	case opcodes.Astore0, opcodes.Astore1, opcodes.Astore2, opcodes.Astore3:
		return false, pc + size, s.doStore(opcodes.Astore, int(op.Code-opcodes.Astore0), cur, pc)

	case opcodes.Iaload:
		return false, pc + size, s.doArrayLoad(PrimInt, cur, maxStack)
	case opcodes.Laload:
		return false, pc + size, s.doArrayLoad(PrimLong, cur, maxStack)
	case opcodes.Faload:
		return false, pc + size, s.doArrayLoad(PrimFloat, cur, maxStack)
	case opcodes.Daload:
		return false, pc + size, s.doArrayLoad(PrimDouble, cur, maxStack)
	case opcodes.Baload, opcodes.Caload, opcodes.Saload:
		return false, pc + size, s.doArrayLoad(PrimInt, cur, maxStack)

	case opcodes.Iastore:
		return false, pc + size, s.doArrayStore(PrimInt, cur)
	case opcodes.Lastore:
		return false, pc + size, s.doArrayStore(PrimLong, cur)
	case opcodes.Fastore:
		return false, pc + size, s.doArrayStore(PrimFloat, cur)
	case opcodes.Dastore:
		return false, pc + size, s.doArrayStore(PrimDouble, cur)
	case opcodes.Bastore, opcodes.Castore, opcodes.Sastore:
		return false, pc + size, s.doArrayStore(PrimInt, cur)

	case opcodes.Aaload:
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		arr, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		elem, err := arrayElement(arr)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushSlot(cur, elem, maxStack)

	case opcodes.Aastore:
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		arr, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		if _, err := arrayElement(arr); err != nil {
			return false, 0, err
		}
		return false, pc + size, nil

	case opcodes.Pop:
		_, err := popSlot(cur)
		return false, pc + size, err

	case opcodes.Pop2:
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		_, err := popSlot(cur)
		return false, pc + size, err

	case opcodes.Dup:
		v, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v, v)

	case opcodes.DupX1:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v1, v2, v1)

	case opcodes.DupX2:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v3, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v1, v3, v2, v1)

	case opcodes.Dup2:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v2, v1, v2, v1)

	case opcodes.Dup2X1:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v3, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v2, v1, v3, v2, v1)

	case opcodes.Dup2X2:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v3, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v4, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v2, v1, v4, v3, v2, v1)

	case opcodes.Swap:
		v1, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		v2, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, pushAll(cur, maxStack, v1, v2)

	case opcodes.Iinc:
		return false, pc + size, s.doIinc(int(code[pc+1]), cur)

	case opcodes.Ifeq, opcodes.Ifne, opcodes.Iflt, opcodes.Ifge, opcodes.Ifgt, opcodes.Ifle:
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		target := pc + beS16(code[pc+1:])
		return false, pc + size, mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)

	case opcodes.IfIcmpeq, opcodes.IfIcmpne, opcodes.IfIcmplt, opcodes.IfIcmpge, opcodes.IfIcmpgt, opcodes.IfIcmple:
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		target := pc + beS16(code[pc+1:])
		return false, pc + size, mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)

	case opcodes.IfAcmpeq, opcodes.IfAcmpne:
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		target := pc + beS16(code[pc+1:])
		return false, pc + size, mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)

	case opcodes.Jsr, opcodes.JsrW, opcodes.Ret:
		return false, 0, UnsupportedInstructionError(op.Name)

	case opcodes.Tableswitch:
		return s.doTableswitch(pc, cur)

	case opcodes.Lookupswitch:
		return s.doLookupswitch(pc, cur)

	case opcodes.Ireturn:
		return s.doReturn(classfile.BaseInt, cur)
	case opcodes.Lreturn:
		return s.doReturn(classfile.BaseLong, cur)
	case opcodes.Freturn:
		return s.doReturn(classfile.BaseFloat, cur)
	case opcodes.Dreturn:
		return s.doReturn(classfile.BaseDouble, cur)
	case opcodes.Areturn:
		if s.method.ReturnType != classfile.BaseReference {
			return false, 0, IncompatibleTypesError{Wanted: baseValue(s.method.ReturnType), Got: ObjectValue(0)}
		}
		_, err := popSlot(cur)
		return true, 0, err
	case opcodes.Return:
		if s.method.ReturnType != classfile.BaseVoid {
			return false, 0, IncompatibleTypesError{Wanted: baseValue(s.method.ReturnType), Got: Top}
		}
		return true, 0, nil

	case opcodes.Getstatic:
		info, err := s.pool.FieldInfoAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, s.pushFieldInfo(cur, info)

	case opcodes.Putstatic:
		info, err := s.pool.FieldInfoAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		return false, pc + size, s.popFieldInfo(cur, info)

	case opcodes.Getfield:
		info, err := s.pool.FieldInfoAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		if _, err := popSlot(cur); err != nil { // receiver
			return false, 0, err
		}
		return false, pc + size, s.pushFieldInfo(cur, info)

	case opcodes.Putfield:
		info, err := s.pool.FieldInfoAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		if err := s.popFieldInfo(cur, info); err != nil {
			return false, 0, err
		}
		_, err = popSlot(cur) // receiver
		return false, pc + size, err

	case opcodes.Invokevirtual, opcodes.Invokespecial, opcodes.Invokestatic, opcodes.Invokeinterface, opcodes.Invokedynamic:
		return s.doInvoke(op, pc, size, cur)

	case opcodes.NewObject:
		name, err := s.pool.ClassNameAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		s.newSites[pc] = s.in.intern(name)
		return false, pc + size, pushSlot(cur, UninitializedNew(pc), maxStack)

	case opcodes.Newarray:
		p, err := primFromAtype(code[pc+1])
		if err != nil {
			return false, 0, err
		}
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		return false, pc + size, pushSlot(cur, BaseArray(p, 1), maxStack)

	case opcodes.Anewarray:
		name, err := s.pool.ClassNameAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		if _, err := popBase(cur, classfile.BaseInt); err != nil {
			return false, 0, err
		}
		return false, pc + size, pushSlot(cur, Reference(s.in.intern(name), 1), maxStack)

	case opcodes.Arraylength:
		arr, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		if arr.Kind() != KindReference && arr.Kind() != KindBaseArray && arr != Null {
			return false, 0, IncompatibleTypesError{Wanted: ObjectValue(1), Got: arr}
		}
		return false, pc + size, pushSlot(cur, Int, maxStack)

	case opcodes.Athrow:
		v, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		if v.Kind() != KindReference && v != Null {
			return false, 0, IncompatibleTypesError{Wanted: Reference(throwableIndex, 0), Got: v}
		}
		return true, 0, nil

	case opcodes.Checkcast:
		name, err := s.pool.ClassNameAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		return false, pc + size, pushSlot(cur, Reference(s.in.intern(name), 0), maxStack)

	case opcodes.Instanceof:
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		return false, pc + size, pushSlot(cur, Int, maxStack)

	case opcodes.Monitorenter, opcodes.Monitorexit:
		_, err := popSlot(cur)
		return false, pc + size, err

	case opcodes.Wide:
		return s.doWide(pc, size, cur)

	case opcodes.Multianewarray:
		name, err := s.pool.ClassNameAt(int32(beU16(code[pc+1:])))
		if err != nil {
			return false, 0, err
		}
		dims := int(code[pc+3])
		for i := 0; i < dims; i++ {
			if _, err := popBase(cur, classfile.BaseInt); err != nil {
				return false, 0, err
			}
		}
		return false, pc + size, pushSlot(cur, Reference(s.in.intern(name), dims), maxStack)

	case opcodes.Ifnull, opcodes.Ifnonnull:
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
		target := pc + beS16(code[pc+1:])
		return false, pc + size, mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)

	case opcodes.Goto:
		target := pc + beS16(code[pc+1:])
		err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)
		return true, 0, err

	case opcodes.GotoW:
		target := pc + int(beS32(code[pc+1:]))
		err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, target, cur)
		return true, 0, err

	default:
		return false, 0, UnsupportedInstructionError(op.Name)
	}
}
