// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "github.com/dusanboskovic/bcverify/classfile"

// mergeObjectTypes computes the least upper bound of two reference-ish
// lattice values: two object references, two base-primitive arrays, or
// one of each.
func mergeObjectTypes(h classfile.ClassHierarchy, in *interner, a, b Value) (Value, error) {
	if a == b {
		return a, nil
	}
	if a.IsNull() {
		return b, nil
	}
	if b.IsNull() {
		return a, nil
	}

	if a.Kind() == KindBaseArray || b.Kind() == KindBaseArray {
		return decayArray(a.Arity(), b.Arity()), nil
	}

	if a.Kind() != KindReference || b.Kind() != KindReference {
		return 0, IncompatibleTypesError{Wanted: a, Got: b}
	}

	if a.Arity() != b.Arity() {
		return decayArray(a.Arity(), b.Arity()), nil
	}

	idx, err := commonAncestor(h, in, a.ClassIndex(), b.ClassIndex())
	if err != nil {
		return 0, err
	}
	return Reference(idx, a.Arity()), nil
}

// decayArray is the arity-mismatch fallback: two arrays (of whatever
// element type) agree only down to java/lang/Object at one dimension
// below whichever is shallower, since array covariance only holds over
// reference component types.
func decayArray(aArity, bArity int) Value {
	minArity := aArity
	if bArity < minArity {
		minArity = bArity
	}
	if minArity == 0 {
		return ObjectValue(0)
	}
	return ObjectValue(minArity - 1)
}

// commonAncestor walks both classes' superclass chains (self first,
// then ancestors to java/lang/Object) and returns the nearest name
// common to both. aIdx == bIdx is handled by the caller before this is
// reached.
func commonAncestor(h classfile.ClassHierarchy, in *interner, aIdx, bIdx int32) (int32, error) {
	if aIdx == objectIndex || bIdx == objectIndex {
		return objectIndex, nil
	}

	aChain, err := ancestorChain(h, in.name(aIdx))
	if err != nil {
		return 0, err
	}
	bChain, err := ancestorChain(h, in.name(bIdx))
	if err != nil {
		return 0, err
	}

	bSet := make(map[string]bool, len(bChain))
	for _, name := range bChain {
		bSet[name] = true
	}
	for _, name := range aChain {
		if bSet[name] {
			return in.intern(name), nil
		}
	}
	return objectIndex, nil
}

// ancestorChain returns name and every superclass above it, in order,
// ending at java/lang/Object.
func ancestorChain(h classfile.ClassHierarchy, name string) ([]string, error) {
	rec, err := h.Lookup(name)
	if err != nil {
		return nil, err
	}
	chain := []string{rec.Name()}
	for {
		super, ok := rec.Super()
		if !ok {
			break
		}
		chain = append(chain, super.Name())
		rec = super
	}
	return chain, nil
}
