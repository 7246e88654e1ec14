// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "github.com/dusanboskovic/bcverify/classfile"

// mergeInto merges the live frame at pc into the stored frame. An
// unreached target is simply adopted and
// queued for a first walk (case 1); a previously reached target is
// merged element-wise and, if anything changed, queued for a re-walk
// (case 2). A stack-height disagreement is always fatal: the two
// paths cannot be describing the same program point.
func mergeInto(h classfile.ClassHierarchy, in *interner, fs *FrameStore, bm *bytecodeMap, wq *workQueues, pc int, live *Frame) error {
	idx := bm.frameIndexAt(pc)
	if idx < 0 {
		return UnreachedFrameError(pc)
	}
	target := fs.at(idx)

	if !target.reached() {
		target.copyFrom(live)
		target.PC = pc
		wq.enqueueUnwalked(pc)
		return nil
	}

	liveStackLen := live.StackTopIndex - live.StackBaseIndex
	targetStackLen := target.StackTopIndex - target.StackBaseIndex
	if liveStackLen != targetStackLen {
		return FrameDepthMismatchError{PC: pc, Want: targetStackLen, Got: liveStackLen}
	}

	changed := false

	// Locals merge over the common prefix only: a slot only one path
	// populated carries no guaranteed type on entry from the other, so
	// it cannot survive the merge as anything but absent.
	localsLen := target.StackBaseIndex
	if live.StackBaseIndex < localsLen {
		localsLen = live.StackBaseIndex
	}
	if localsLen < target.StackBaseIndex {
		changed = true
	}
	mergedLocals := make([]Value, localsLen)
	for i := 0; i < localsLen; i++ {
		// Values already equal (the common case once a method's entry
		// frame stabilizes) skip the hierarchy walk entirely.
		if target.Elements[i] == live.Elements[i] {
			mergedLocals[i] = target.Elements[i]
			continue
		}
		m, err := mergeElement(h, in, target.Elements[i], live.Elements[i])
		if err != nil {
			return err
		}
		if m != target.Elements[i] {
			changed = true
		}
		mergedLocals[i] = m
	}

	mergedStack := make([]Value, liveStackLen)
	for i := 0; i < liveStackLen; i++ {
		a := target.Elements[target.StackBaseIndex+i]
		b := live.Elements[live.StackBaseIndex+i]
		if a == b {
			mergedStack[i] = a
			continue
		}
		m, err := mergeElement(h, in, a, b)
		if err != nil {
			return err
		}
		if m != a {
			changed = true
		}
		mergedStack[i] = m
	}

	if !changed {
		return nil
	}

	target.Elements = append(mergedLocals, mergedStack...)
	target.StackBaseIndex = len(mergedLocals)
	target.StackTopIndex = len(target.Elements)
	if target.UninitializedThis && !live.UninitializedThis {
		target.UninitializedThis = false
	}
	wq.enqueueRewalk(pc)
	return nil
}

// mergeElement merges one locals/stack slot. Top absorbs anything (a
// slot with no guaranteed type stays that way). A pair where either
// side is primitive or a special uninitialized marker, and the two
// differ, collapses to Top rather than erroring here: a merge never
// fails on a locals slot whose two predecessors disagree, since that
// slot may simply be dead on one path — a later typed read of it is
// where an incompatible Top actually surfaces as an error. Only when
// both sides are reference-shaped (object reference or primitive
// array, including null) does the merge consult the class-hierarchy
// object-type merger.
func mergeElement(h classfile.ClassHierarchy, in *interner, want, got Value) (Value, error) {
	if want == got {
		return want, nil
	}
	if want.IsTop() || got.IsTop() {
		return Top, nil
	}
	wantRefLike := want.IsNull() || want.IsReference() || want.IsBaseArray()
	gotRefLike := got.IsNull() || got.IsReference() || got.IsBaseArray()
	if wantRefLike && gotRefLike {
		return mergeObjectTypes(h, in, want, got)
	}
	return Top, nil
}
