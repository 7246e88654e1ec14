// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// simulator drives the abstract interpreter for one method to a fixed
// point. It holds everything step needs to
// interpret one instruction: the method being walked, its owning
// class's constant pool, the shared class hierarchy, the class-name
// interner, and the per-method branch map / frame store / work queues
// built earlier in the pipeline.
type simulator struct {
	class    *classfile.Class
	method   *classfile.Method
	pool     classfile.ConstantPool
	hier     classfile.ClassHierarchy
	in       *interner
	classIdx int32
	cfg      Config

	bm *bytecodeMap
	fs *FrameStore
	wq *workQueues

	// newSites maps a `new` instruction's PC to the interned index of
	// the class it instantiates, so invokespecial can later rewrite an
	// uninitialized-new marker to the right reference type once the
	// matching <init> runs.
	newSites map[int]int32

	// substitutedCatchAll is set the first time catchValue substitutes
	// java/lang/Throwable for a finally handler's CatchType == 0, so
	// the caller can surface it on the method's Result.
	substitutedCatchAll bool
}

// errorPC extracts the offending PC from an error raised while
// building the branch map or decompressing the stack-map attribute, so
// simulateMethod's MethodError wrap reports the real PC those passes
// already preserve (spec.md §4.4/§7) instead of a hardcoded 0. Errors
// with no PC of their own (e.g. a malformed stack-map tag, which has
// no associated instruction offset to report) fall back to 0.
func errorPC(err error) int {
	switch e := err.(type) {
	case BranchTargetOutOfBoundsError:
		return int(e)
	case opcodes.TruncatedInstructionError:
		return int(e)
	case UnreachedFrameError:
		return int(e)
	case LocalsUnderflowError:
		return e.PC
	case LocalsOverflowError:
		return e.PC
	case StackOverflowError:
		return e.PC
	default:
		return 0
	}
}

// simulateMethod runs the full per-method pipeline: branch-map build,
// stack-map decompression (unless skipped), seeding the entry frame,
// and draining the work queues to a fixed point. It returns the
// populated frame store (mostly useful for tests that want to inspect
// merged frames directly) and whether a finally handler's CatchType ==
// 0 was substituted with java/lang/Throwable along the way.
func simulateMethod(arena *Arena, class *classfile.Class, method *classfile.Method, hier classfile.ClassHierarchy, in *interner, cfg Config) (*FrameStore, bool, error) {
	bm, targets, err := buildBranchMap(arena, method.Code, method.ExceptionTable)
	if err != nil {
		return nil, false, MethodError{Method: method.String(), PC: errorPC(err), Err: err}
	}

	fs, err := newFrameStore(arena, len(targets)+1)
	if err != nil {
		return nil, false, MethodError{Method: method.String(), PC: 0, Err: err}
	}
	fs.add(0, bm)
	for _, pc := range targets {
		fs.add(pc, bm)
	}

	classIdx := in.intern(class.Name)

	if !cfg.IgnoreStackMaps && len(method.StackMapTable) > 0 {
		if err := decompressStackMap(method.StackMapTable, method, class.Pool, in, classIdx, bm, fs); err != nil {
			return nil, false, MethodError{Method: method.String(), PC: errorPC(err), Err: err}
		}
	}

	wq, err := newWorkQueues(arena, bm, len(targets)+1)
	if err != nil {
		return nil, false, MethodError{Method: method.String(), PC: 0, Err: err}
	}

	s := &simulator{
		class:    class,
		method:   method,
		pool:     class.Pool,
		hier:     hier,
		in:       in,
		classIdx: classIdx,
		cfg:      cfg,
		bm:       bm,
		fs:       fs,
		wq:       wq,
		newSites: make(map[int]int32),
	}

	entry := s.entryFrame()
	if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, 0, &entry); err != nil {
		return nil, false, MethodError{Method: method.String(), PC: 0, Err: err}
	}

	for {
		pc, ok := s.wq.next()
		if !ok {
			break
		}
		cur := s.fs.at(s.bm.frameIndexAt(pc)).clone()
		if err := s.walk(pc, &cur); err != nil {
			return nil, s.substitutedCatchAll, err
		}
	}

	finalizeUninitializedThis(fs)
	return fs, s.substitutedCatchAll, nil
}

// entryFrame builds the method's initial abstract state: the receiver
// (if any, uninitialized-this for a constructor), then the declared
// parameters, and an empty operand stack.
func (s *simulator) entryFrame() Frame {
	locals := make([]Value, 0, s.method.MaxLocals)
	if !s.method.IsStatic {
		if s.method.IsConstructor {
			locals = appendWide(locals, UninitializedThis(s.classIdx))
		} else {
			locals = appendWide(locals, Reference(s.classIdx, 0))
		}
	}
	for _, pt := range s.method.ParamTypes {
		locals = appendWide(locals, baseValue(pt))
	}
	return Frame{
		PC:             0,
		StackBaseIndex: len(locals),
		StackTopIndex:  len(locals),
		Elements:       locals,
	}
}

// finalizeUninitializedThis sets Frame.UninitializedThis on every
// reached frame whose locals or stack still holds an
// uninitialized-this marker, as a closing pass once simulation
// reaches a fixed point.
func finalizeUninitializedThis(fs *FrameStore) {
	for i := range fs.frames {
		f := &fs.frames[i]
		if !f.reached() {
			continue
		}
		for _, v := range f.Elements {
			if v.IsUninitThis() {
				f.UninitializedThis = true
				break
			}
		}
	}
}

// walk executes straight-line code starting at pc into cur until a
// control-transfer instruction is reached (in which case step already
// merged into every successor) or cur reaches another frame-backed PC,
// at which point it is merged and queue servicing takes over from
// there, so that every PC is always simulated starting from its own
// canonical stored frame.
func (s *simulator) walk(startPC int, cur *Frame) error {
	pc := startPC
	for {
		if err := s.mergeExceptionHandlers(pc, cur); err != nil {
			return MethodError{Method: s.method.String(), PC: pc, Err: err}
		}

		op, err := opcodes.New(s.method.Code[pc])
		if err != nil {
			return MethodError{Method: s.method.String(), PC: pc, Err: err}
		}
		size, err := opcodes.InstructionLength(s.method.Code, pc)
		if err != nil {
			return MethodError{Method: s.method.String(), PC: pc, Err: err}
		}

		debugf("%s: pc %d: %s (stack depth %d)", s.method, pc, op.Name, cur.StackTopIndex-cur.StackBaseIndex)

		terminal, next, err := s.step(op, pc, size, cur)
		if err != nil {
			return MethodError{Method: s.method.String(), PC: pc, Err: err}
		}
		if terminal {
			return nil
		}

		pc = next
		if s.bm.has(pc, flagBranchTarget) {
			if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, pc, cur); err != nil {
				return MethodError{Method: s.method.String(), PC: pc, Err: err}
			}
			return nil
		}
	}
}

// mergeExceptionHandlers merges cur, reduced to the caught exception
// type alone on an empty stack, into every handler whose protected
// range covers pc.
func (s *simulator) mergeExceptionHandlers(pc int, cur *Frame) error {
	if len(s.method.ExceptionTable) == 0 {
		return nil
	}
	for _, eh := range s.method.ExceptionTable {
		if pc < eh.StartPC || pc >= eh.EndPC {
			continue
		}
		catch, err := s.catchValue(eh)
		if err != nil {
			return err
		}
		handler := cur.clone()
		handler.StackTopIndex = handler.StackBaseIndex
		if err := pushSlot(&handler, catch, s.method.MaxStack); err != nil {
			return err
		}
		if err := mergeInto(s.hier, s.in, s.fs, s.bm, s.wq, eh.HandlerPC, &handler); err != nil {
			return err
		}
	}
	return nil
}

// catchValue resolves a handler's caught type, substituting Throwable
// (and logging once) for the finally-handler sentinel CatchType == 0.
func (s *simulator) catchValue(eh classfile.ExceptionHandler) (Value, error) {
	if eh.CatchType == 0 {
		if !s.substitutedCatchAll {
			logger.Printf("%s: exception handler at pc %d has no catch type, substituting java/lang/Throwable", s.method, eh.HandlerPC)
			s.substitutedCatchAll = true
		}
		return Reference(throwableIndex, 0), nil
	}
	name, err := s.pool.ClassNameAt(eh.CatchType)
	if err != nil {
		return 0, err
	}
	return Reference(s.in.intern(name), 0), nil
}
