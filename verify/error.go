// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "fmt"

// MethodError wraps a verification error with the method and PC where
// it was encountered, the uniform shape every reported error carries.
type MethodError struct {
	Method string
	PC     int
	Err    error
}

func (e MethodError) Error() string {
	return fmt.Sprintf("verify: %s at pc %d: %v", e.Method, e.PC, e.Err)
}

func (e MethodError) Unwrap() error { return e.Err }

// StackUnderflowError is returned when an instruction consumes an
// operand but the stack (within the current frame's floor) is empty.
type StackUnderflowError struct{ Wanted int }

func (e StackUnderflowError) Error() string {
	return fmt.Sprintf("verify: stack underflow (need %d more operand(s))", e.Wanted)
}

// StackOverflowError is returned when a push would exceed the
// method's declared max_stack. PC is the offending bytecode offset
// when known; it is left zero when the overflow is detected inside a
// frame mutation helper that has no PC of its own to report and whose
// caller already wraps the result in a MethodError carrying the real
// PC (every simulation-time call site; see verify/stack.go).
type StackOverflowError struct {
	PC       int
	MaxStack int
}

func (e StackOverflowError) Error() string {
	return fmt.Sprintf("verify: operand stack overflow at pc %d (limit %d)", e.PC, e.MaxStack)
}

// LocalsUnderflowError is returned when a stack-map chop frame would
// drop more locals than exist. PC is the frame's own offset (spec.md
// §4.4 requires the PC to be preserved alongside the offending limit).
type LocalsUnderflowError struct{ PC, Chop, Have int }

func (e LocalsUnderflowError) Error() string {
	return fmt.Sprintf("verify: stack map at pc %d chops %d locals but only %d present", e.PC, e.Chop, e.Have)
}

// LocalsOverflowError is returned when appending locals (stack-map
// append frame, or a store instruction) would exceed max_locals. See
// StackOverflowError's PC field doc: populated by the stack-map
// decompressor, left zero at simulation-time call sites that rely on
// the enclosing MethodError instead.
type LocalsOverflowError struct {
	PC        int
	MaxLocals int
}

func (e LocalsOverflowError) Error() string {
	return fmt.Sprintf("verify: local variable index exceeds max_locals (%d) at pc %d", e.MaxLocals, e.PC)
}

// InvalidLocalIndexError is returned for a load/store referencing a
// local variable index with no corresponding declared slot.
type InvalidLocalIndexError int

func (e InvalidLocalIndexError) Error() string {
	return fmt.Sprintf("verify: invalid local variable index %d", int(e))
}

// InvalidStackMapTagError is returned by the stack-map decompressor
// for a frame tag in the reserved range 128-246 or for an unknown
// verification-type tag inside a frame. A truncated attribute is
// reported by the underlying read error instead.
type InvalidStackMapTagError int

func (e InvalidStackMapTagError) Error() string {
	return fmt.Sprintf("verify: invalid stack map frame tag %d", int(e))
}

// FrameDepthMismatchError is returned when merging into a previously
// reached frame whose stack height differs from the live frame's: a
// normal terminal error rather than a host-process crash.
type FrameDepthMismatchError struct {
	PC, Want, Got int
}

func (e FrameDepthMismatchError) Error() string {
	return fmt.Sprintf("verify: stack depth mismatch at pc %d (want %d, got %d)", e.PC, e.Want, e.Got)
}

// IncompatibleTypesError is returned when a typed read (a load, a pop
// of a given type, a return) finds a value of another type, including
// a slot that an earlier merge collapsed to Top, and when the
// object-type merger is handed a pair that is not both reference-shaped.
type IncompatibleTypesError struct {
	Wanted, Got Value
}

func (e IncompatibleTypesError) Error() string {
	return fmt.Sprintf("verify: incompatible types (wanted %v, got %v)", e.Wanted, e.Got)
}

// UninitializedReceiverError is returned when invokespecial targets an
// <init> but the receiver on the stack is not an uninitialized-new or
// uninitialized-this marker.
type UninitializedReceiverError struct{ Got Value }

func (e UninitializedReceiverError) Error() string {
	return fmt.Sprintf("verify: <init> invoked on non-uninitialized receiver (got %v)", e.Got)
}

// BranchTargetOutOfBoundsError is returned by the branch-map builder
// for a branch, switch entry, or exception range endpoint outside the
// method's bytecode array.
type BranchTargetOutOfBoundsError int

func (e BranchTargetOutOfBoundsError) Error() string {
	return fmt.Sprintf("verify: branch target %d outside method bounds", int(e))
}

// UnsupportedInstructionError is returned for jsr/jsr_w/ret: the
// finally-subroutine instructions were removed from the class file
// format in Java 7 and this verifier, like modern production JVMs,
// rejects any method that still contains one.
type UnsupportedInstructionError string

func (e UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("verify: unsupported instruction %s (jsr/ret subroutines are not verifiable)", string(e))
}

// InvalidArrayTypeError is returned by newarray for an atype operand
// outside the JVM-defined range 4-11.
type InvalidArrayTypeError byte

func (e InvalidArrayTypeError) Error() string {
	return fmt.Sprintf("verify: invalid newarray atype %d", byte(e))
}

// UnreachedFrameError would indicate an internal bug: a PC marked
// BranchTarget was never assigned a frame index. It is never expected
// to surface from a correctly built branch map.
type UnreachedFrameError int

func (e UnreachedFrameError) Error() string {
	return fmt.Sprintf("verify: pc %d has no associated frame", int(e))
}
