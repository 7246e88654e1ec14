// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/dusanboskovic/bcverify/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeElementIdenticalValuesPassThrough(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()
	v, err := mergeElement(h, in, Int, Int)
	require.NoError(t, err)
	assert.Equal(t, Int, v)
}

func TestMergeElementTopAbsorbsAnything(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()

	v, err := mergeElement(h, in, Top, Int)
	require.NoError(t, err)
	assert.Equal(t, Top, v)

	v, err = mergeElement(h, in, ObjectValue(0), Top)
	require.NoError(t, err)
	assert.Equal(t, Top, v)
}

// A primitive meeting a reference collapses to Top rather than
// erroring; the mismatch is only reported later, at a typed read.
func TestMergeElementPrimitiveVsReferenceCollapsesToTop(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()

	v, err := mergeElement(h, in, Int, ObjectValue(0))
	require.NoError(t, err)
	assert.Equal(t, Top, v)

	v, err = mergeElement(h, in, ObjectValue(0), Long)
	require.NoError(t, err)
	assert.Equal(t, Top, v)
}

func TestMergeElementNullWithReferenceYieldsReference(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()
	ref := Reference(in.intern("java/lang/String"), 0)

	v, err := mergeElement(h, in, Null, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, v)
}

func TestMergeObjectTypesCommonAncestor(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy().
		Extend("pkg/Dog", "pkg/Animal").
		Extend("pkg/Cat", "pkg/Animal").
		Extend("pkg/Animal", "java/lang/Object")

	dog := Reference(in.intern("pkg/Dog"), 0)
	cat := Reference(in.intern("pkg/Cat"), 0)

	v, err := mergeObjectTypes(h, in, dog, cat)
	require.NoError(t, err)
	assert.Equal(t, "pkg/Animal", in.name(v.ClassIndex()))
}

func TestMergeObjectTypesUnrelatedClassesDecayToObject(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy().
		Extend("pkg/A", "java/lang/Object").
		Extend("pkg/B", "java/lang/Object")

	a := Reference(in.intern("pkg/A"), 0)
	b := Reference(in.intern("pkg/B"), 0)

	v, err := mergeObjectTypes(h, in, a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Arity())
	assert.Equal(t, "java/lang/Object", in.name(v.ClassIndex()))
}

func TestMergeObjectTypesArityMismatchDecays(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()

	arr2 := Reference(in.intern("pkg/A"), 2)
	arr1 := Reference(in.intern("pkg/A"), 1)

	v, err := mergeObjectTypes(h, in, arr2, arr1)
	require.NoError(t, err)
	assert.Equal(t, 0, int(v.Arity()))
}

func TestMergeObjectTypesNullYieldsOtherSide(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()
	ref := Reference(in.intern("pkg/A"), 0)

	v, err := mergeObjectTypes(h, in, Null, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, v)

	v, err = mergeObjectTypes(h, in, ref, Null)
	require.NoError(t, err)
	assert.Equal(t, ref, v)
}

// Two primitive arrays of different element type have no common
// representation above java/lang/Object, one dimension shallower.
func TestMergeObjectTypesBaseArrayMerge(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()

	a := BaseArray(PrimInt, 1)
	b := BaseArray(PrimLong, 1)

	v, err := mergeObjectTypes(h, in, a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, int(v.Arity()))
}

// An identical pair of base-array values merges to itself without
// consulting the decay path.
func TestMergeObjectTypesIdenticalBaseArraysPassThrough(t *testing.T) {
	in := newInterner()
	h := fixture.NewHierarchy()

	a := BaseArray(PrimInt, 1)
	b := BaseArray(PrimInt, 1)

	v, err := mergeObjectTypes(h, in, a, b)
	require.NoError(t, err)
	assert.Equal(t, a, v)
}
