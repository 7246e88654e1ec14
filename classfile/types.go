// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classfile describes the pre-parsed, in-memory representation
// that the verifier core consumes. It does not read class files from
// bytes: that job belongs to an external class-file reader, and only
// the shapes below are the contract between it and the core.
package classfile

import "fmt"

// ExceptionHandler is one entry of a method's exception table.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	// CatchType is the constant-pool index of the caught class, or 0
	// for a catch-all (finally) handler. A handler whose CatchType is 0
	// is treated as java/lang/Throwable by the core.
	CatchType int32
}

// Method is the pre-parsed method the core verifies. The bytecode in
// Code is already resolved to opcode bytes; the core never decodes a
// class file itself.
type Method struct {
	Name           string
	Descriptor     string
	ParamTypes     []BaseType
	ReturnType     BaseType // BaseVoid if the method returns nothing
	MaxStack       int
	MaxLocals      int
	Code           []byte
	ExceptionTable []ExceptionHandler
	// StackMapTable is the raw, still delta-encoded body of the
	// StackMapTable attribute (entry count followed by per-tag frame
	// records), exactly as it appears in the class file. It is nil when
	// the class carried none, or when ignoreStackMaps forces the
	// simulator to synthesize maps from scratch. Decoding it is the
	// verifier core's job, not this package's.
	StackMapTable []byte

	IsStatic      bool
	IsConstructor bool // true for <init>
	IsNative      bool
	IsAbstract    bool
}

func (m Method) String() string {
	return fmt.Sprintf("%s%s", m.Name, m.Descriptor)
}

// BaseType is the primitive portion of the lattice: the set of
// verification-time types that are not references.
type BaseType int8

const (
	BaseTop BaseType = iota
	BaseInt
	BaseLong
	BaseFloat
	BaseDouble
	BaseNull
	BaseVoid
	// BaseReference marks a parameter or return type that is some
	// reference type, without naming which class: descriptor parsing
	// belongs to the external class-file reader, not this package, so
	// the core only learns "this slot holds a reference" and treats it
	// as java/lang/Object at arity 0 until a stack-map frame or the
	// constant pool narrows it further.
	BaseReference
)

func (t BaseType) String() string {
	switch t {
	case BaseTop:
		return "top"
	case BaseInt:
		return "int"
	case BaseLong:
		return "long"
	case BaseFloat:
		return "float"
	case BaseDouble:
		return "double"
	case BaseNull:
		return "null"
	case BaseVoid:
		return "void"
	case BaseReference:
		return "reference"
	default:
		return fmt.Sprintf("<unknown base type %d>", int8(t))
	}
}

// IsWide reports whether a value of this base type occupies two
// adjacent locals/stack slots, the second of which carries BaseTop.
func (t BaseType) IsWide() bool {
	return t == BaseLong || t == BaseDouble
}

// FieldInfo is the pre-resolved type of a field-like constant-pool
// entry: a CONSTANT_Fieldref, or the descriptor of a CONSTANT_Integer/
// Float/Long/Double/String/Class/MethodHandle/MethodType entry loaded
// by ldc/ldc_w/ldc2_w.
type FieldInfo struct {
	Type        BaseType
	IsReference bool
}

// InvokeInfo is the pre-resolved stack effect of a method-invocation
// constant-pool entry (Methodref, InterfaceMethodref, or an
// InvokeDynamic call site): how many argument slots it pops, whether
// it also pops a receiver, and what it pushes.
type InvokeInfo struct {
	PopsReceiver    bool
	ArgSlots        int
	Push            BaseType
	PushIsReference bool
	// IsInit is true when this entry names an <init> method, the only
	// case in which invokespecial requires (and consumes) an
	// uninitialized-new or uninitialized-this receiver.
	IsInit bool
}

// ConstantPool resolves the constant-pool entries the core needs while
// verifying a method: class names behind CONSTANT_Class entries, and
// the pre-computed stack effect of field accesses, invocations, and
// ldc-family loads. Full descriptor grammar parsing is the external
// class-file reader's job, not this package's or the core's; the core
// only ever asks "what does entry N do to the stack."
type ConstantPool interface {
	ClassNameAt(index int32) (string, error)
	FieldInfoAt(index int32) (FieldInfo, error)
	InvokeInfoAt(index int32) (InvokeInfo, error)
	ConstantTypeAt(index int32) (FieldInfo, error)
}

// Class is the minimal view of a loaded class the core needs during
// verification: its own name, constant-pool-backed name lookups, and
// its declared methods.
type Class struct {
	Name         string
	MajorVersion int // class file major_version; 50 (Java 6) mandates stack maps
	Pool         ConstantPool
	Methods      []*Method
}

// RequiresStackMaps reports whether this class's version makes
// StackMapTable attributes mandatory rather than optional, gating
// whether a failed verification is eligible for a no-stack-map retry.
func (c *Class) RequiresStackMaps() bool { return c.MajorVersion >= 50 }

// ClassRecord is the external collaborator's view of a class reachable
// through the class hierarchy. The core never constructs one itself;
// it only walks the chain returned by a ClassHierarchy.
type ClassRecord interface {
	Name() string
	// Super returns the immediate superclass record, and false if this
	// record is java/lang/Object (the chain's terminator).
	Super() (ClassRecord, bool)
}

// ClassHierarchy resolves class names to ClassRecords. Implementations
// may block (e.g. on class loading) but must not be reentered by the
// verifier while a call is outstanding.
type ClassHierarchy interface {
	Lookup(name string) (ClassRecord, error)
}
