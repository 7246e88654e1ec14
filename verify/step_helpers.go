// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

func beU16(b []byte) int { return int(uint16(b[0])<<8 | uint16(b[1])) }

// pushFieldInfo pushes the result of a getstatic/getfield/ldc-family
// load, decaying any reference type to java/lang/Object at arity 0:
// the exact class is carried by the constant pool's own descriptor
// text, which this boundary does not parse further than "reference or
// not" (classfile.ConstantPool's doc comment).
func (s *simulator) pushFieldInfo(cur *Frame, info classfile.FieldInfo) error {
	if info.IsReference {
		return pushSlot(cur, ObjectValue(0), s.method.MaxStack)
	}
	return pushBase(cur, info.Type, s.method.MaxStack)
}

func (s *simulator) popFieldInfo(cur *Frame, info classfile.FieldInfo) error {
	if info.IsReference {
		_, err := popSlot(cur)
		return err
	}
	_, err := popBase(cur, info.Type)
	return err
}

// doLoad type-checks and pushes local variable idx, per the xload
// family's declared type (and its xload_n siblings, normalized to the
// canonical 1-byte-index opcode by the caller).
func (s *simulator) doLoad(code byte, idx int, cur *Frame) error {
	v, err := getLocal(cur, idx)
	if err != nil {
		return err
	}
	switch code {
	case opcodes.Iload:
		if v != Int {
			return IncompatibleTypesError{Wanted: Int, Got: v}
		}
	case opcodes.Lload:
		if v != Long {
			return IncompatibleTypesError{Wanted: Long, Got: v}
		}
	case opcodes.Fload:
		if v != Float {
			return IncompatibleTypesError{Wanted: Float, Got: v}
		}
	case opcodes.Dload:
		if v != Double {
			return IncompatibleTypesError{Wanted: Double, Got: v}
		}
	case opcodes.Aload:
		if v.IsPrimitive() && !v.IsNull() {
			return IncompatibleTypesError{Wanted: ObjectValue(0), Got: v}
		}
	}
	if v.IsWide() {
		if err := pushSlot(cur, v, s.method.MaxStack); err != nil {
			return err
		}
		return pushSlot(cur, Top, s.method.MaxStack)
	}
	return pushSlot(cur, v, s.method.MaxStack)
}

// doStore type-checks, pops, and stores into local variable idx, then
// re-merges into every exception handler covering pc: a store changes
// locals shape, and a handler active at pc must see the new shape.
func (s *simulator) doStore(code byte, idx int, cur *Frame, pc int) error {
	var v Value
	var err error
	switch code {
	case opcodes.Istore:
		v, err = popBase(cur, classfile.BaseInt)
	case opcodes.Lstore:
		v, err = popBase(cur, classfile.BaseLong)
	case opcodes.Fstore:
		v, err = popBase(cur, classfile.BaseFloat)
	case opcodes.Dstore:
		v, err = popBase(cur, classfile.BaseDouble)
	case opcodes.Astore:
		v, err = popSlot(cur)
		if err == nil && v.IsPrimitive() && !v.IsNull() {
			err = IncompatibleTypesError{Wanted: ObjectValue(0), Got: v}
		}
	}
	if err != nil {
		return err
	}
	if err := setLocal(cur, idx, v, s.method.MaxLocals); err != nil {
		return err
	}
	return s.mergeExceptionHandlers(pc, cur)
}

// popArrayRef pops an array reference and checks it is either null or
// a primitive array of the given element kind. Sub-int element kinds
// (boolean, byte, char, short) all share the Int bucket, matching
// primFromAtype's own collapse of them at newarray time, so baload/
// caload/saload and iaload are indistinguishable here.
func (s *simulator) popArrayRef(cur *Frame, want Prim) (Value, error) {
	v, err := popSlot(cur)
	if err != nil {
		return 0, err
	}
	if v == Null {
		return v, nil
	}
	if v.Kind() != KindBaseArray || v.Arity() != 1 || v.BaseElem() != want {
		return 0, IncompatibleTypesError{Wanted: BaseArray(want, 1), Got: v}
	}
	return v, nil
}

func (s *simulator) pushPrim(cur *Frame, p Prim, maxStack int) error {
	if err := pushSlot(cur, primitiveValue(p), maxStack); err != nil {
		return err
	}
	if p.IsWide() {
		return pushSlot(cur, Top, maxStack)
	}
	return nil
}

func (s *simulator) doArrayLoad(elem Prim, cur *Frame, maxStack int) error {
	if _, err := popBase(cur, classfile.BaseInt); err != nil {
		return err
	}
	if _, err := s.popArrayRef(cur, elem); err != nil {
		return err
	}
	return s.pushPrim(cur, elem, maxStack)
}

func (s *simulator) doArrayStore(elem Prim, cur *Frame) error {
	var err error
	switch elem {
	case PrimInt:
		_, err = popBase(cur, classfile.BaseInt)
	case PrimLong:
		_, err = popBase(cur, classfile.BaseLong)
	case PrimFloat:
		_, err = popBase(cur, classfile.BaseFloat)
	case PrimDouble:
		_, err = popBase(cur, classfile.BaseDouble)
	}
	if err != nil {
		return err
	}
	if _, err := popBase(cur, classfile.BaseInt); err != nil {
		return err
	}
	_, err = s.popArrayRef(cur, elem)
	return err
}

func (s *simulator) doIinc(idx int, cur *Frame) error {
	v, err := getLocal(cur, idx)
	if err != nil {
		return err
	}
	if v != Int {
		return IncompatibleTypesError{Wanted: Int, Got: v}
	}
	return nil
}

func (s *simulator) doTableswitch(pc int, cur *Frame) (bool, int, error) {
	code := s.method.Code
	if _, err := popBase(cur, classfile.BaseInt); err != nil {
		return false, 0, err
	}
	pad := (4 - (pc+1)%4) % 4
	base := pc + 1 + pad
	def := int(beS32(code[base:]))
	low := int(beS32(code[base+4:]))
	high := int(beS32(code[base+8:]))
	if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, pc+def, cur); err != nil {
		return false, 0, err
	}
	entries := base + 12
	for off := low; off <= high; off++ {
		t := int(beS32(code[entries:]))
		if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, pc+t, cur); err != nil {
			return false, 0, err
		}
		entries += 4
	}
	return true, 0, nil
}

func (s *simulator) doLookupswitch(pc int, cur *Frame) (bool, int, error) {
	code := s.method.Code
	if _, err := popBase(cur, classfile.BaseInt); err != nil {
		return false, 0, err
	}
	pad := (4 - (pc+1)%4) % 4
	base := pc + 1 + pad
	def := int(beS32(code[base:]))
	npairs := int(beS32(code[base+4:]))
	if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, pc+def, cur); err != nil {
		return false, 0, err
	}
	entries := base + 8
	for i := 0; i < npairs; i++ {
		t := int(beS32(code[entries+4:]))
		if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, pc+t, cur); err != nil {
			return false, 0, err
		}
		entries += 8
	}
	return true, 0, nil
}

func (s *simulator) doReturn(bt classfile.BaseType, cur *Frame) (bool, int, error) {
	if s.method.ReturnType != bt {
		return false, 0, IncompatibleTypesError{Wanted: baseValue(s.method.ReturnType), Got: baseValue(bt)}
	}
	_, err := popBase(cur, bt)
	return true, 0, err
}

// doInvoke applies the pre-resolved stack effect of a method call.
// invokespecial targeting an <init> additionally requires an
// uninitialized receiver and rewrites every occurrence of that marker
// in cur to the now-initialized reference type.
func (s *simulator) doInvoke(op opcodes.Op, pc, size int, cur *Frame) (bool, int, error) {
	idx := int32(beU16(s.method.Code[pc+1:]))
	info, err := s.pool.InvokeInfoAt(idx)
	if err != nil {
		return false, 0, err
	}

	for i := 0; i < info.ArgSlots; i++ {
		if _, err := popSlot(cur); err != nil {
			return false, 0, err
		}
	}

	if info.PopsReceiver {
		receiver, err := popSlot(cur)
		if err != nil {
			return false, 0, err
		}
		if op.Code == opcodes.Invokespecial && info.IsInit {
			if !receiver.IsUninitNew() && !receiver.IsUninitThis() {
				return false, 0, UninitializedReceiverError{Got: receiver}
			}
			if err := s.rewriteUninitialized(cur, receiver); err != nil {
				return false, 0, err
			}
		}
	}

	if info.PushIsReference {
		if err := pushSlot(cur, ObjectValue(0), s.method.MaxStack); err != nil {
			return false, 0, err
		}
	} else if err := pushBase(cur, info.Push, s.method.MaxStack); err != nil {
		return false, 0, err
	}
	return false, pc + size, nil
}

// rewriteUninitialized replaces every occurrence of marker (an
// uninitialized-new or uninitialized-this value) anywhere in cur's
// locals and stack with its now-initialized reference type.
func (s *simulator) rewriteUninitialized(cur *Frame, marker Value) error {
	var replacement Value
	switch {
	case marker.IsUninitThis():
		replacement = Reference(s.classIdx, 0)
	case marker.IsUninitNew():
		classIdx, ok := s.newSites[marker.NewPC()]
		if !ok {
			return UnreachedFrameError(marker.NewPC())
		}
		replacement = Reference(classIdx, 0)
	default:
		return nil
	}
	for i, v := range cur.Elements {
		if v == marker {
			cur.Elements[i] = replacement
		}
	}
	return nil
}

func (s *simulator) doWide(pc, size int, cur *Frame) (bool, int, error) {
	code := s.method.Code
	sub := code[pc+1]
	idx := beU16(code[pc+2:])
	switch sub {
	case opcodes.Iload, opcodes.Lload, opcodes.Fload, opcodes.Dload, opcodes.Aload:
		return false, pc + size, s.doLoad(sub, idx, cur)
	case opcodes.Istore, opcodes.Lstore, opcodes.Fstore, opcodes.Dstore, opcodes.Astore:
		return false, pc + size, s.doStore(sub, idx, cur, pc)
	case opcodes.Iinc:
		return false, pc + size, s.doIinc(idx, cur)
	case opcodes.Ret:
		return false, 0, UnsupportedInstructionError("wide ret")
	default:
		return false, 0, UnsupportedInstructionError("wide")
	}
}

// primFromAtype maps a newarray atype operand (JVM-defined constants
// 4-11) to the lattice's primitive element type. Sub-int types
// (boolean, byte, char, short) all decay to int, matching how they
// live on the operand stack.
func primFromAtype(atype byte) (Prim, error) {
	switch atype {
	case 4, 8, 9, 10: // boolean, byte, short, int
		return PrimInt, nil
	case 5: // char
		return PrimInt, nil
	case 6:
		return PrimFloat, nil
	case 7:
		return PrimDouble, nil
	case 11:
		return PrimLong, nil
	default:
		return PrimTop, InvalidArrayTypeError(atype)
	}
}
