// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// popSlot pops one raw lattice word without any type check. Used by
// the category-agnostic stack-shuffling instructions (dup/swap/pop)
// that the class file format itself never type-checks beyond
// category width, which the verifier does not second-guess here.
func popSlot(cur *Frame) (Value, error) {
	if cur.StackTopIndex <= cur.StackBaseIndex {
		return 0, StackUnderflowError{Wanted: 1}
	}
	cur.StackTopIndex--
	return cur.Elements[cur.StackTopIndex], nil
}

// pushSlot pushes one raw lattice word, growing cur.Elements if the
// stack has not reached this depth before on this path.
func pushSlot(cur *Frame, v Value, maxStack int) error {
	if cur.StackTopIndex-cur.StackBaseIndex >= maxStack {
		return StackOverflowError{MaxStack: maxStack}
	}
	if cur.StackTopIndex == len(cur.Elements) {
		cur.Elements = append(cur.Elements, v)
	} else {
		cur.Elements[cur.StackTopIndex] = v
	}
	cur.StackTopIndex++
	return nil
}

func pushAll(cur *Frame, maxStack int, vs ...Value) error {
	for _, v := range vs {
		if err := pushSlot(cur, v, maxStack); err != nil {
			return err
		}
	}
	return nil
}

// popBase pops a value of the given fixed primitive type, consuming
// its Top companion first when the type is wide.
func popBase(cur *Frame, t classfile.BaseType) (Value, error) {
	if t.IsWide() {
		top, err := popSlot(cur)
		if err != nil {
			return 0, err
		}
		if top != Top {
			return 0, IncompatibleTypesError{Wanted: Top, Got: top}
		}
	}
	v, err := popSlot(cur)
	if err != nil {
		return 0, err
	}
	want := baseValue(t)
	if v != want {
		return 0, IncompatibleTypesError{Wanted: want, Got: v}
	}
	return v, nil
}

// pushBase pushes a value of the given fixed type (BaseVoid pushes
// nothing), following it with Top when the type is wide.
func pushBase(cur *Frame, t classfile.BaseType, maxStack int) error {
	if t == classfile.BaseVoid {
		return nil
	}
	if err := pushSlot(cur, baseValue(t), maxStack); err != nil {
		return err
	}
	if t.IsWide() {
		return pushSlot(cur, Top, maxStack)
	}
	return nil
}

// applySimple applies a non-Polymorphic Op's fixed pop/push shape.
func applySimple(op opcodes.Op, cur *Frame, maxStack int) error {
	for i := len(op.Pops) - 1; i >= 0; i-- {
		if _, err := popBase(cur, op.Pops[i]); err != nil {
			return err
		}
	}
	return pushBase(cur, op.Push, maxStack)
}

// getLocal reads local variable index without consuming it.
func getLocal(cur *Frame, index int) (Value, error) {
	if index < 0 || index >= cur.StackBaseIndex {
		return 0, InvalidLocalIndexError(index)
	}
	return cur.Elements[index], nil
}

// setLocal stores v at local variable index, growing the locals
// region (and shifting the operand stack up) if this path has not
// used a local this far out before. Mirrors the class-file format's
// own locals encoding, where a stack-map frame only lists locals up to
// the highest index actually assigned on that path, rather than
// padding every frame to max_locals up front.
func setLocal(cur *Frame, index int, v Value, maxLocals int) error {
	need := index + 1
	if v.IsWide() {
		need++
	}
	if need > maxLocals {
		return LocalsOverflowError{MaxLocals: maxLocals}
	}
	if need > cur.StackBaseIndex {
		grow := need - cur.StackBaseIndex
		cur.Elements = append(cur.Elements, make([]Value, grow)...)
		copy(cur.Elements[need:], cur.Elements[cur.StackBaseIndex:cur.StackTopIndex])
		for i := cur.StackBaseIndex; i < need; i++ {
			cur.Elements[i] = Top
		}
		cur.StackBaseIndex = need
		cur.StackTopIndex += grow
	}
	cur.Elements[index] = v
	if v.IsWide() {
		cur.Elements[index+1] = Top
	}
	return nil
}

// arrayElement returns the lattice value of one element read from (or
// written to) array reference v, decaying one array dimension.
func arrayElement(v Value) (Value, error) {
	switch v.Kind() {
	case KindReference:
		if v.Arity() == 0 {
			return 0, IncompatibleTypesError{Wanted: ObjectValue(1), Got: v}
		}
		if v.Arity() == 1 {
			return Reference(v.ClassIndex(), 0), nil
		}
		return Reference(v.ClassIndex(), v.Arity()-1), nil
	case KindBaseArray:
		if v.Arity() == 1 {
			return primitiveValue(v.BaseElem()), nil
		}
		return BaseArray(v.BaseElem(), v.Arity()-1), nil
	default:
		if v == Null {
			return Null, nil
		}
		return 0, IncompatibleTypesError{Wanted: ObjectValue(1), Got: v}
	}
}
