// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opcodes provides the decode table for the bytecode
// instruction set: one Op per opcode, naming its mnemonic and its
// stack effect where that effect is a fixed table lookup rather than
// something the simulator must compute from context. Instruction
// lengths are computed separately by InstructionLength.
package opcodes

import (
	"fmt"

	"github.com/dusanboskovic/bcverify/classfile"
)

// Opcode values, following the class file format's bytecode table.
const (
	Nop             = 0x00
	AconstNull      = 0x01
	IconstM1        = 0x02
	Iconst0         = 0x03
	Iconst1         = 0x04
	Iconst2         = 0x05
	Iconst3         = 0x06
	Iconst4         = 0x07
	Iconst5         = 0x08
	Lconst0         = 0x09
	Lconst1         = 0x0a
	Fconst0         = 0x0b
	Fconst1         = 0x0c
	Fconst2         = 0x0d
	Dconst0         = 0x0e
	Dconst1         = 0x0f
	Bipush          = 0x10
	Sipush          = 0x11
	Ldc             = 0x12
	LdcW            = 0x13
	Ldc2W           = 0x14
	Iload           = 0x15
	Lload           = 0x16
	Fload           = 0x17
	Dload           = 0x18
	Aload           = 0x19
	Iload0          = 0x1a
	Iload1          = 0x1b
	Iload2          = 0x1c
	Iload3          = 0x1d
	Lload0          = 0x1e
	Lload1          = 0x1f
	Lload2          = 0x20
	Lload3          = 0x21
	Fload0          = 0x22
	Fload1          = 0x23
	Fload2          = 0x24
	Fload3          = 0x25
	Dload0          = 0x26
	Dload1          = 0x27
	Dload2          = 0x28
	Dload3          = 0x29
	Aload0          = 0x2a
	Aload1          = 0x2b
	Aload2          = 0x2c
	Aload3          = 0x2d
	Iaload          = 0x2e
	Laload          = 0x2f
	Faload          = 0x30
	Daload          = 0x31
	Aaload          = 0x32
	Baload          = 0x33
	Caload          = 0x34
	Saload          = 0x35
	Istore          = 0x36
	Lstore          = 0x37
	Fstore          = 0x38
	Dstore          = 0x39
	Astore          = 0x3a
	Istore0         = 0x3b
	Istore1         = 0x3c
	Istore2         = 0x3d
	Istore3         = 0x3e
	Lstore0         = 0x3f
	Lstore1         = 0x40
	Lstore2         = 0x41
	Lstore3         = 0x42
	Fstore0         = 0x43
	Fstore1         = 0x44
	Fstore2         = 0x45
	Fstore3         = 0x46
	Dstore0         = 0x47
	Dstore1         = 0x48
	Dstore2         = 0x49
	Dstore3         = 0x4a
	Astore0         = 0x4b
	Astore1         = 0x4c
	Astore2         = 0x4d
	Astore3         = 0x4e
	Iastore         = 0x4f
	Lastore         = 0x50
	Fastore         = 0x51
	Dastore         = 0x52
	Aastore         = 0x53
	Bastore         = 0x54
	Castore         = 0x55
	Sastore         = 0x56
	Pop             = 0x57
	Pop2            = 0x58
	Dup             = 0x59
	DupX1           = 0x5a
	DupX2           = 0x5b
	Dup2            = 0x5c
	Dup2X1          = 0x5d
	Dup2X2          = 0x5e
	Swap            = 0x5f
	Iadd            = 0x60
	Ladd            = 0x61
	Fadd            = 0x62
	Dadd            = 0x63
	Isub            = 0x64
	Lsub            = 0x65
	Fsub            = 0x66
	Dsub            = 0x67
	Imul            = 0x68
	Lmul            = 0x69
	Fmul            = 0x6a
	Dmul            = 0x6b
	Idiv            = 0x6c
	Ldiv            = 0x6d
	Fdiv            = 0x6e
	Ddiv            = 0x6f
	Irem            = 0x70
	Lrem            = 0x71
	Frem            = 0x72
	Drem            = 0x73
	Ineg            = 0x74
	Lneg            = 0x75
	Fneg            = 0x76
	Dneg            = 0x77
	Ishl            = 0x78
	Lshl            = 0x79
	Ishr            = 0x7a
	Lshr            = 0x7b
	Iushr           = 0x7c
	Lushr           = 0x7d
	Iand            = 0x7e
	Land            = 0x7f
	Ior             = 0x80
	Lor             = 0x81
	Ixor            = 0x82
	Lxor            = 0x83
	Iinc            = 0x84
	I2l             = 0x85
	I2f             = 0x86
	I2d             = 0x87
	L2i             = 0x88
	L2f             = 0x89
	L2d             = 0x8a
	F2i             = 0x8b
	F2l             = 0x8c
	F2d             = 0x8d
	D2i             = 0x8e
	D2l             = 0x8f
	D2f             = 0x90
	I2b             = 0x91
	I2c             = 0x92
	I2s             = 0x93
	Lcmp            = 0x94
	Fcmpl           = 0x95
	Fcmpg           = 0x96
	Dcmpl           = 0x97
	Dcmpg           = 0x98
	Ifeq            = 0x99
	Ifne            = 0x9a
	Iflt            = 0x9b
	Ifge            = 0x9c
	Ifgt            = 0x9d
	Ifle            = 0x9e
	IfIcmpeq        = 0x9f
	IfIcmpne        = 0xa0
	IfIcmplt        = 0xa1
	IfIcmpge        = 0xa2
	IfIcmpgt        = 0xa3
	IfIcmple        = 0xa4
	IfAcmpeq        = 0xa5
	IfAcmpne        = 0xa6
	Goto            = 0xa7
	Jsr             = 0xa8
	Ret             = 0xa9
	Tableswitch     = 0xaa
	Lookupswitch    = 0xab
	Ireturn         = 0xac
	Lreturn         = 0xad
	Freturn         = 0xae
	Dreturn         = 0xaf
	Areturn         = 0xb0
	Return          = 0xb1
	Getstatic       = 0xb2
	Putstatic       = 0xb3
	Getfield        = 0xb4
	Putfield        = 0xb5
	Invokevirtual   = 0xb6
	Invokespecial   = 0xb7
	Invokestatic    = 0xb8
	Invokeinterface = 0xb9
	Invokedynamic   = 0xba
	NewObject       = 0xbb
	Newarray        = 0xbc
	Anewarray       = 0xbd
	Arraylength     = 0xbe
	Athrow          = 0xbf
	Checkcast       = 0xc0
	Instanceof      = 0xc1
	Monitorenter    = 0xc2
	Monitorexit     = 0xc3
	Wide            = 0xc4
	Multianewarray  = 0xc5
	Ifnull          = 0xc6
	Ifnonnull       = 0xc7
	GotoW           = 0xc8
	JsrW            = 0xc9
)

// Op describes one opcode's fixed-table stack effect. Instructions
// whose pop/push shape depends on bytecode immediates (field/method
// descriptors, local-variable declared types, the branch-table forms)
// set Polymorphic and are handled directly by the simulator instead of
// through the generic adjustStack-style helper.
type Op struct {
	Code        byte
	Name        string
	Pops        []classfile.BaseType
	Push        classfile.BaseType // classfile.BaseVoid means "pushes nothing"
	Polymorphic bool
}

var noPush = classfile.BaseVoid

func simple(code byte, name string, pops []classfile.BaseType, push classfile.BaseType) Op {
	return Op{Code: code, Name: name, Pops: pops, Push: push}
}

func poly(code byte, name string) Op {
	return Op{Code: code, Name: name, Polymorphic: true}
}

var (
	i = classfile.BaseInt
	l = classfile.BaseLong
	f = classfile.BaseFloat
	d = classfile.BaseDouble
)

// table is indexed by opcode byte; an entry with an empty Name means
// the opcode is not defined and New returns UnknownOpcodeError.
var table [256]Op

func init() {
	reg := func(op Op) { table[op.Code] = op }

	reg(simple(Nop, "nop", nil, noPush))
	reg(poly(AconstNull, "aconst_null"))
	reg(simple(IconstM1, "iconst_m1", nil, i))
	reg(simple(Iconst0, "iconst_0", nil, i))
	reg(simple(Iconst1, "iconst_1", nil, i))
	reg(simple(Iconst2, "iconst_2", nil, i))
	reg(simple(Iconst3, "iconst_3", nil, i))
	reg(simple(Iconst4, "iconst_4", nil, i))
	reg(simple(Iconst5, "iconst_5", nil, i))
	reg(simple(Lconst0, "lconst_0", nil, l))
	reg(simple(Lconst1, "lconst_1", nil, l))
	reg(simple(Fconst0, "fconst_0", nil, f))
	reg(simple(Fconst1, "fconst_1", nil, f))
	reg(simple(Fconst2, "fconst_2", nil, f))
	reg(simple(Dconst0, "dconst_0", nil, d))
	reg(simple(Dconst1, "dconst_1", nil, d))
	reg(simple(Bipush, "bipush", nil, i))
	reg(simple(Sipush, "sipush", nil, i))
	reg(poly(Ldc, "ldc"))
	reg(poly(LdcW, "ldc_w"))
	reg(poly(Ldc2W, "ldc2_w"))

	reg(poly(Iload, "iload"))
	reg(poly(Lload, "lload"))
	reg(poly(Fload, "fload"))
	reg(poly(Dload, "dload"))
	reg(poly(Aload, "aload"))
	for c := byte(Iload0); c <= Aload3; c++ {
		reg(poly(c, "xload_n"))
	}
	reg(poly(Istore, "istore"))
	reg(poly(Lstore, "lstore"))
	reg(poly(Fstore, "fstore"))
	reg(poly(Dstore, "dstore"))
	reg(poly(Astore, "astore"))
	for c := byte(Istore0); c <= Astore3; c++ {
		reg(poly(c, "xstore_n"))
	}

	// Every array load/store pops an array reference, which a fixed
	// classfile.BaseType pop list cannot express (it is not a
	// primitive), so the whole family is Polymorphic and hand-coded in
	// the simulator's step function, same as aaload/aastore.
	reg(poly(Iaload, "iaload"))
	reg(poly(Laload, "laload"))
	reg(poly(Faload, "faload"))
	reg(poly(Daload, "daload"))
	reg(poly(Aaload, "aaload"))
	reg(poly(Baload, "baload"))
	reg(poly(Caload, "caload"))
	reg(poly(Saload, "saload"))

	reg(poly(Iastore, "iastore"))
	reg(poly(Lastore, "lastore"))
	reg(poly(Fastore, "fastore"))
	reg(poly(Dastore, "dastore"))
	reg(poly(Aastore, "aastore"))
	reg(poly(Bastore, "bastore"))
	reg(poly(Castore, "castore"))
	reg(poly(Sastore, "sastore"))

	reg(poly(Pop, "pop"))
	reg(poly(Pop2, "pop2"))
	reg(poly(Dup, "dup"))
	reg(poly(DupX1, "dup_x1"))
	reg(poly(DupX2, "dup_x2"))
	reg(poly(Dup2, "dup2"))
	reg(poly(Dup2X1, "dup2_x1"))
	reg(poly(Dup2X2, "dup2_x2"))
	reg(poly(Swap, "swap"))

	reg(simple(Iadd, "iadd", []classfile.BaseType{i, i}, i))
	reg(simple(Ladd, "ladd", []classfile.BaseType{l, l}, l))
	reg(simple(Fadd, "fadd", []classfile.BaseType{f, f}, f))
	reg(simple(Dadd, "dadd", []classfile.BaseType{d, d}, d))
	reg(simple(Isub, "isub", []classfile.BaseType{i, i}, i))
	reg(simple(Lsub, "lsub", []classfile.BaseType{l, l}, l))
	reg(simple(Fsub, "fsub", []classfile.BaseType{f, f}, f))
	reg(simple(Dsub, "dsub", []classfile.BaseType{d, d}, d))
	reg(simple(Imul, "imul", []classfile.BaseType{i, i}, i))
	reg(simple(Lmul, "lmul", []classfile.BaseType{l, l}, l))
	reg(simple(Fmul, "fmul", []classfile.BaseType{f, f}, f))
	reg(simple(Dmul, "dmul", []classfile.BaseType{d, d}, d))
	reg(simple(Idiv, "idiv", []classfile.BaseType{i, i}, i))
	reg(simple(Ldiv, "ldiv", []classfile.BaseType{l, l}, l))
	reg(simple(Fdiv, "fdiv", []classfile.BaseType{f, f}, f))
	reg(simple(Ddiv, "ddiv", []classfile.BaseType{d, d}, d))
	reg(simple(Irem, "irem", []classfile.BaseType{i, i}, i))
	reg(simple(Lrem, "lrem", []classfile.BaseType{l, l}, l))
	reg(simple(Frem, "frem", []classfile.BaseType{f, f}, f))
	reg(simple(Drem, "drem", []classfile.BaseType{d, d}, d))
	reg(simple(Ineg, "ineg", []classfile.BaseType{i}, i))
	reg(simple(Lneg, "lneg", []classfile.BaseType{l}, l))
	reg(simple(Fneg, "fneg", []classfile.BaseType{f}, f))
	reg(simple(Dneg, "dneg", []classfile.BaseType{d}, d))
	reg(simple(Ishl, "ishl", []classfile.BaseType{i, i}, i))
	// Shift amount (int) is pushed last and so sits on top; applySimple
	// pops Pops in reverse order, so the int belongs at the end of the
	// list even though the long value is the first operand textually.
	reg(simple(Lshl, "lshl", []classfile.BaseType{l, i}, l))
	reg(simple(Ishr, "ishr", []classfile.BaseType{i, i}, i))
	reg(simple(Lshr, "lshr", []classfile.BaseType{l, i}, l))
	reg(simple(Iushr, "iushr", []classfile.BaseType{i, i}, i))
	reg(simple(Lushr, "lushr", []classfile.BaseType{l, i}, l))
	reg(simple(Iand, "iand", []classfile.BaseType{i, i}, i))
	reg(simple(Land, "land", []classfile.BaseType{l, l}, l))
	reg(simple(Ior, "ior", []classfile.BaseType{i, i}, i))
	reg(simple(Lor, "lor", []classfile.BaseType{l, l}, l))
	reg(simple(Ixor, "ixor", []classfile.BaseType{i, i}, i))
	reg(simple(Lxor, "lxor", []classfile.BaseType{l, l}, l))
	reg(poly(Iinc, "iinc"))

	reg(simple(I2l, "i2l", []classfile.BaseType{i}, l))
	reg(simple(I2f, "i2f", []classfile.BaseType{i}, f))
	reg(simple(I2d, "i2d", []classfile.BaseType{i}, d))
	reg(simple(L2i, "l2i", []classfile.BaseType{l}, i))
	reg(simple(L2f, "l2f", []classfile.BaseType{l}, f))
	reg(simple(L2d, "l2d", []classfile.BaseType{l}, d))
	reg(simple(F2i, "f2i", []classfile.BaseType{f}, i))
	reg(simple(F2l, "f2l", []classfile.BaseType{f}, l))
	reg(simple(F2d, "f2d", []classfile.BaseType{f}, d))
	reg(simple(D2i, "d2i", []classfile.BaseType{d}, i))
	reg(simple(D2l, "d2l", []classfile.BaseType{d}, l))
	reg(simple(D2f, "d2f", []classfile.BaseType{d}, f))
	reg(simple(I2b, "i2b", []classfile.BaseType{i}, i))
	reg(simple(I2c, "i2c", []classfile.BaseType{i}, i))
	reg(simple(I2s, "i2s", []classfile.BaseType{i}, i))

	reg(simple(Lcmp, "lcmp", []classfile.BaseType{l, l}, i))
	reg(simple(Fcmpl, "fcmpl", []classfile.BaseType{f, f}, i))
	reg(simple(Fcmpg, "fcmpg", []classfile.BaseType{f, f}, i))
	reg(simple(Dcmpl, "dcmpl", []classfile.BaseType{d, d}, i))
	reg(simple(Dcmpg, "dcmpg", []classfile.BaseType{d, d}, i))

	reg(poly(Ifeq, "ifeq"))
	reg(poly(Ifne, "ifne"))
	reg(poly(Iflt, "iflt"))
	reg(poly(Ifge, "ifge"))
	reg(poly(Ifgt, "ifgt"))
	reg(poly(Ifle, "ifle"))
	reg(poly(IfIcmpeq, "if_icmpeq"))
	reg(poly(IfIcmpne, "if_icmpne"))
	reg(poly(IfIcmplt, "if_icmplt"))
	reg(poly(IfIcmpge, "if_icmpge"))
	reg(poly(IfIcmpgt, "if_icmpgt"))
	reg(poly(IfIcmple, "if_icmple"))
	reg(poly(IfAcmpeq, "if_acmpeq"))
	reg(poly(IfAcmpne, "if_acmpne"))
	reg(poly(Goto, "goto"))
	reg(poly(Jsr, "jsr"))
	reg(poly(Ret, "ret"))
	reg(poly(Tableswitch, "tableswitch"))
	reg(poly(Lookupswitch, "lookupswitch"))

	reg(poly(Ireturn, "ireturn"))
	reg(poly(Lreturn, "lreturn"))
	reg(poly(Freturn, "freturn"))
	reg(poly(Dreturn, "dreturn"))
	reg(poly(Areturn, "areturn"))
	reg(poly(Return, "return"))

	reg(poly(Getstatic, "getstatic"))
	reg(poly(Putstatic, "putstatic"))
	reg(poly(Getfield, "getfield"))
	reg(poly(Putfield, "putfield"))
	reg(poly(Invokevirtual, "invokevirtual"))
	reg(poly(Invokespecial, "invokespecial"))
	reg(poly(Invokestatic, "invokestatic"))
	reg(poly(Invokeinterface, "invokeinterface"))
	reg(poly(Invokedynamic, "invokedynamic"))
	reg(poly(NewObject, "new"))
	reg(poly(Newarray, "newarray"))
	reg(poly(Anewarray, "anewarray"))
	reg(poly(Arraylength, "arraylength"))
	reg(poly(Athrow, "athrow"))
	reg(poly(Checkcast, "checkcast"))
	reg(poly(Instanceof, "instanceof"))
	reg(poly(Monitorenter, "monitorenter"))
	reg(poly(Monitorexit, "monitorexit"))
	reg(poly(Wide, "wide"))
	reg(poly(Multianewarray, "multianewarray"))
	reg(poly(Ifnull, "ifnull"))
	reg(poly(Ifnonnull, "ifnonnull"))
	reg(poly(GotoW, "goto_w"))
	reg(poly(JsrW, "jsr_w"))
}

// UnknownOpcodeError is returned by New for a byte with no entry in the
// decode table. The branch-map builder treats it as an internal,
// terminal error carrying the offending PC.
type UnknownOpcodeError byte

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("opcodes: unknown opcode 0x%02x", byte(e))
}

// New looks up the Op for a bytecode byte.
func New(code byte) (Op, error) {
	op := table[code]
	if op.Name == "" {
		return Op{}, UnknownOpcodeError(code)
	}
	return op, nil
}

// byName is built lazily from table so every mnemonic has exactly one
// place it's spelled (the reg calls in init above).
var byName map[string]Op

// ByName looks up the Op for a textual mnemonic, the reverse of New.
// Used by assemblers of bytecode from a textual form (the fixture
// format and any future disassembler), not by the simulator itself.
func ByName(name string) (Op, bool) {
	if byName == nil {
		byName = make(map[string]Op, len(table))
		for _, op := range table {
			if op.Name != "" {
				byName[op.Name] = op
			}
		}
	}
	op, ok := byName[name]
	return op, ok
}
