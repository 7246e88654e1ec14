// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"testing"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/internal/fixture"
	"github.com/dusanboskovic/bcverify/opcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClass(name string, method *classfile.Method, pool classfile.ConstantPool) *classfile.Class {
	return &classfile.Class{
		Name:         name,
		MajorVersion: 50,
		Pool:         pool,
		Methods:      []*classfile.Method{method},
	}
}

// S1: a method that loads a declared int local and returns it verifies
// cleanly; the simplest possible entry-frame/return round trip.
func TestScenarioSimpleIntLocal(t *testing.T) {
	pool := fixture.NewPool()
	method, err := fixture.Method(`
.method name=s1 descriptor=(I)I static=true maxstack=1 maxlocals=1 params=int returns=int
L0: iload 0
    ireturn
`, pool)
	require.NoError(t, err)

	v := NewVerifier(fixture.NewHierarchy(), DefaultConfig())
	result := v.VerifyBytecodes(newClass("S1", method, pool))

	require.Equal(t, Success, result.Outcome)
	require.Len(t, result.Methods, 1)
	assert.NoError(t, result.Methods[0].Err)
}

// S2: a local holding the null reference verifies against a reference
// return type without narrowing to any particular class.
func TestScenarioNullLocalReferenceReturn(t *testing.T) {
	pool := fixture.NewPool()
	method, err := fixture.Method(`
.method name=s2 descriptor=()Ljava/lang/Object; static=true maxstack=1 maxlocals=1 returns=reference
L0: aconst_null
    astore 0
    aload 0
    areturn
`, pool)
	require.NoError(t, err)

	v := NewVerifier(fixture.NewHierarchy(), DefaultConfig())
	result := v.VerifyBytecodes(newClass("S2", method, pool))

	require.Equal(t, Success, result.Outcome)
	assert.NoError(t, result.Methods[0].Err)
}

// S3: two predecessors disagree on local 2's type (one leaves an int,
// the other a reference). The merge at the join point must succeed
// silently (collapsing the slot to Top) rather than failing there; the
// failure only surfaces once the merged join point actually reads that
// local back out with a typed load.
func TestScenarioPrimitiveReferenceMergeCollapsesToTop(t *testing.T) {
	pool := fixture.NewPool()
	method, err := fixture.Method(`
.method name=s3 descriptor=(Ljava/lang/Object;I)I static=true maxstack=1 maxlocals=3 params=reference,int returns=int
L0: iload 1
    ifeq LB
LA: iload 1
    istore 2
    goto LJ
LB: aload 0
    astore 2
LJ: iload 2
    ireturn
`, pool)
	require.NoError(t, err)

	v := NewVerifier(fixture.NewHierarchy(), DefaultConfig())
	result := v.VerifyBytecodes(newClass("S3", method, pool))

	require.Equal(t, InternalError, result.Outcome)
	require.Error(t, result.Methods[0].Err)

	var me MethodError
	require.True(t, errors.As(result.Methods[0].Err, &me))
	var ite IncompatibleTypesError
	require.True(t, errors.As(me.Err, &ite), "expected the failure at the read, not at the merge: %v", me.Err)
	assert.Equal(t, Int, ite.Wanted)
	assert.Equal(t, Top, ite.Got)
}

// S4: a constructor's invokespecial <init> call on an
// uninitialized-this receiver rewrites every occurrence of that marker
// to a plain initialized reference, so the rest of the constructor
// body (and its normal return) verifies as an ordinary method would.
func TestScenarioConstructorRewritesUninitializedThis(t *testing.T) {
	pool := fixture.NewPool()
	initIdx := pool.AddInvoke(classfile.InvokeInfo{
		PopsReceiver: true,
		IsInit:       true,
		Push:         classfile.BaseVoid,
	})
	method, err := fixture.Method(`
.method name=<init> descriptor=()V static=false maxstack=1 maxlocals=1
L0: aload 0
    invokespecial `+itoa(initIdx)+`
    return
`, pool)
	require.NoError(t, err)

	hier := fixture.NewHierarchy().Extend("Sub", "java/lang/Object")
	v := NewVerifier(hier, DefaultConfig())
	result := v.VerifyBytecodes(newClass("Sub", method, pool))

	require.Equal(t, Success, result.Outcome)
	assert.NoError(t, result.Methods[0].Err)
	assert.False(t, result.Methods[0].SubstitutedCatchAll)
}

// S5: a tableswitch with a default and three numbered targets merges
// the live frame into all four successors and leaves no successor
// unreached. The fixture assembler does not support tableswitch (its
// padding and offset table need exact byte placement), so this
// bytecode is hand-built.
func TestScenarioTableswitchAllTargets(t *testing.T) {
	code := []byte{
		opcodes.Iload, 0,
		opcodes.Tableswitch, 0, // opcode at pc 2, one pad byte
		0, 0, 0, 26, // default -> pc 28
		0, 0, 0, 0, // low = 0
		0, 0, 0, 2, // high = 2
		0, 0, 0, 28, // case 0 -> pc 30
		0, 0, 0, 30, // case 1 -> pc 32
		0, 0, 0, 32, // case 2 -> pc 34
		opcodes.Iconst0, opcodes.Ireturn, // pc 28: default
		opcodes.Iconst1, opcodes.Ireturn, // pc 30: case 0
		opcodes.Iconst2, opcodes.Ireturn, // pc 32: case 1
		opcodes.Iconst3, opcodes.Ireturn, // pc 34: case 2
	}
	method := &classfile.Method{
		Name:       "s5",
		Descriptor: "(I)I",
		ParamTypes: []classfile.BaseType{classfile.BaseInt},
		ReturnType: classfile.BaseInt,
		MaxStack:   1,
		MaxLocals:  1,
		Code:       code,
		IsStatic:   true,
	}

	v := NewVerifier(fixture.NewHierarchy(), DefaultConfig())
	result := v.VerifyBytecodes(newClass("S5", method, fixture.NewPool()))

	require.Equal(t, Success, result.Outcome)
	assert.NoError(t, result.Methods[0].Err)
}

// S6: a StackMapTable whose first (and only) entry is a chop_frame
// dropping 2 locals, on a method whose entry frame has none, is
// malformed. The class's version mandates stack maps, so this is a
// hard failure with no ignoreStackMaps fallback, and it must be
// detected while decompressing the attribute, before any instruction
// is ever simulated.
func TestScenarioMalformedChopFrameUnderflows(t *testing.T) {
	method := &classfile.Method{
		Name:       "s6",
		Descriptor: "()V",
		ReturnType: classfile.BaseVoid,
		MaxStack:   0,
		MaxLocals:  0,
		Code:       []byte{opcodes.Return},
		IsStatic:   true,
		StackMapTable: []byte{
			0, 1, // one entry
			249,  // chop_frame, chops 251-249 = 2 locals
			0, 0, // offset_delta
		},
	}

	v := NewVerifier(fixture.NewHierarchy(), DefaultConfig())
	result := v.VerifyBytecodes(newClass("S6", method, fixture.NewPool()))

	require.Equal(t, InternalError, result.Outcome)
	require.False(t, result.Methods[0].UsedFallback)

	var me MethodError
	require.True(t, errors.As(result.Methods[0].Err, &me))
	var lue LocalsUnderflowError
	require.True(t, errors.As(me.Err, &lue))
	assert.Equal(t, 2, lue.Chop)
	assert.Equal(t, 0, lue.Have)
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
