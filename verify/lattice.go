// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "fmt"

// Kind is the tag occupying a Value's low bits, selecting how the rest
// of the word is interpreted.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindReference
	KindBaseArray
	KindUninitNew
	KindUninitThis
)

// Prim enumerates the primitive base types, including the two special
// markers top and null that also travel as "primitives" for merge
// purposes.
type Prim uint8

const (
	PrimTop Prim = iota
	PrimInt
	PrimLong
	PrimFloat
	PrimDouble
	PrimNull
)

func (p Prim) String() string {
	switch p {
	case PrimTop:
		return "top"
	case PrimInt:
		return "int"
	case PrimLong:
		return "long"
	case PrimFloat:
		return "float"
	case PrimDouble:
		return "double"
	case PrimNull:
		return "null"
	default:
		return fmt.Sprintf("<prim %d>", uint8(p))
	}
}

// IsWide reports whether a value of this primitive kind occupies two
// adjacent slots, the high one carrying Top.
func (p Prim) IsWide() bool { return p == PrimLong || p == PrimDouble }

// Value is a single abstract machine word: one tagged lattice element.
// It is kept as a flat uint32 rather than a tagged struct so that
// frames (flat []Value arrays) stay cheap to copy during merging.
type Value uint32

const (
	kindBits  = 3
	kindMask  = (1 << kindBits) - 1
	arityBits = 8
	arityMask = (1 << arityBits) - 1
)

func (v Value) Kind() Kind { return Kind(v & kindMask) }

// Top is both the "no information" sentinel and the high slot of any
// wide value: a single sentinel serves both roles, distinguished only
// by the reader's position in the frame, not by a separate bit.
var Top = primitiveValue(PrimTop)
var Null = primitiveValue(PrimNull)
var Int = primitiveValue(PrimInt)
var Long = primitiveValue(PrimLong)
var Float = primitiveValue(PrimFloat)
var Double = primitiveValue(PrimDouble)

func primitiveValue(p Prim) Value {
	return Value(KindPrimitive) | Value(p)<<kindBits
}

// Prim returns the primitive tag of v. Only meaningful when
// v.Kind() == KindPrimitive.
func (v Value) Prim() Prim { return Prim(v >> kindBits) }

func (v Value) IsPrimitive() bool  { return v.Kind() == KindPrimitive }
func (v Value) IsReference() bool  { return v.Kind() == KindReference }
func (v Value) IsBaseArray() bool  { return v.Kind() == KindBaseArray }
func (v Value) IsUninitNew() bool  { return v.Kind() == KindUninitNew }
func (v Value) IsUninitThis() bool { return v.Kind() == KindUninitThis }
func (v Value) IsTop() bool        { return v == Top }
func (v Value) IsNull() bool       { return v == Null }

// IsWide reports whether v occupies two adjacent slots (the second of
// which must hold Top).
func (v Value) IsWide() bool {
	return v.IsPrimitive() && v.Prim().IsWide()
}

// Reference builds a reference value of the given class-name-interner
// index and array arity (0 for a scalar reference).
func Reference(classIndex int32, arity int) Value {
	return Value(KindReference) | Value(arity&arityMask)<<kindBits | Value(uint32(classIndex))<<(kindBits+arityBits)
}

// BaseArray builds a primitive-array value: an array of the given
// element primitive type and arity (always >= 1).
func BaseArray(elem Prim, arity int) Value {
	return Value(KindBaseArray) | Value(elem)<<kindBits | Value(arity&arityMask)<<(kindBits+3)
}

// UninitializedNew marks a reference produced by `new` at newPC, not
// yet passed through its <init>.
func UninitializedNew(newPC int) Value {
	return Value(KindUninitNew) | Value(uint32(newPC))<<kindBits
}

// UninitializedThis marks `this` inside a constructor whose class is
// classIndex, before the superclass (or same-class) <init> runs.
func UninitializedThis(classIndex int32) Value {
	return Value(KindUninitThis) | Value(uint32(classIndex))<<kindBits
}

// Arity returns the array arity of a reference or base-array value.
func (v Value) Arity() int {
	switch v.Kind() {
	case KindReference:
		return int((v >> kindBits) & arityMask)
	case KindBaseArray:
		return int((v >> (kindBits + 3)) & arityMask)
	default:
		return 0
	}
}

// ClassIndex returns the class-name-interner index of a reference or
// uninitialized-this value.
func (v Value) ClassIndex() int32 {
	switch v.Kind() {
	case KindReference:
		return int32(v >> (kindBits + arityBits))
	case KindUninitThis:
		return int32(v >> kindBits)
	default:
		return -1
	}
}

// BaseElem returns the element primitive type of a base-array value.
func (v Value) BaseElem() Prim {
	if v.Kind() != KindBaseArray {
		return PrimTop
	}
	return Prim((v >> kindBits) & 0x7)
}

// NewPC returns the PC of the `new` instruction that produced an
// uninitialized-new value.
func (v Value) NewPC() int {
	if v.Kind() != KindUninitNew {
		return -1
	}
	return int(v >> kindBits)
}

// objectIndex is the reserved class-name-interner index for
// java/lang/Object: index 0 is always Object.
const objectIndex = 0

// throwableIndex is the reserved index for java/lang/Throwable.
const throwableIndex = 1

// ObjectValue is the reference type java/lang/Object at the given
// arity — the top reference type below only arrays-of-arrays deeper
// arities, and the common target of array decay during object merge.
func ObjectValue(arity int) Value { return Reference(objectIndex, arity) }

func (v Value) String() string {
	switch v.Kind() {
	case KindPrimitive:
		return v.Prim().String()
	case KindReference:
		return fmt.Sprintf("ref(class=%d, arity=%d)", v.ClassIndex(), v.Arity())
	case KindBaseArray:
		return fmt.Sprintf("%sarray(arity=%d)", v.BaseElem(), v.Arity())
	case KindUninitNew:
		return fmt.Sprintf("uninitialized-new(pc=%d)", v.NewPC())
	case KindUninitThis:
		return fmt.Sprintf("uninitialized-this(class=%d)", v.ClassIndex())
	default:
		return "<invalid value>"
	}
}
