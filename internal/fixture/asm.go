// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// Method assembles src, a line-oriented mnemonic listing, into a
// classfile.Method. pool resolves any #name constant-pool operand the
// instructions reference.
//
// The supported instruction set is the canonical (explicit-index)
// form of every fixed-size opcode: the implicit iload_0-style
// shorthands, tableswitch/lookupswitch, wide, goto_w, invokedynamic
// and the jsr/ret family are not assembled here, since every scenario they would be needed
// for is more directly expressed as a hand-built []byte in a
// _test.go file.
//
// Format:
//
//	.method name=<name> descriptor=<desc> static=<bool> maxstack=<n> maxlocals=<n>
//	L0: iload 0
//	    ifeq L2
//	    goto L1
//	L1: iconst_1
//	    ireturn
//	L2: iconst_0
//	    ireturn
//	.exception start=L0 end=L1 handler=L2 catch=#java/lang/Throwable
//	.end
//
// A label is an identifier followed by ':' at the start of a line.
// Branch/goto/ifnull-family operands name a label. Class operands
// (new, anewarray, checkcast, instanceof, multianewarray and a catch
// type) are written either #<class name>, which registers the name on
// the Pool, or as a plain decimal pool index. Field, invoke and ldc
// operands are always plain decimal pool indices: the caller registers
// those entries on the Pool before calling Method.
func Method(src string, pool *Pool) (*classfile.Method, error) {
	lines := strings.Split(src, "\n")

	var header map[string]string
	var excLines []string
	var instrLines []string
	seenMethod := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if line == ".end" {
			continue
		}
		if strings.HasPrefix(line, ".method") {
			header = parseDirective(line)
			seenMethod = true
			continue
		}
		if strings.HasPrefix(line, ".exception") {
			excLines = append(excLines, line)
			continue
		}
		instrLines = append(instrLines, line)
	}
	if !seenMethod {
		return nil, fmt.Errorf("fixture: missing .method directive")
	}

	m := &classfile.Method{Name: header["name"], Descriptor: header["descriptor"], ReturnType: classfile.BaseVoid}
	m.IsStatic = header["static"] == "true"
	m.IsConstructor = m.Name == "<init>"
	m.IsNative = header["native"] == "true"
	m.IsAbstract = header["abstract"] == "true"
	if n, err := strconv.Atoi(header["maxstack"]); err == nil {
		m.MaxStack = n
	}
	if n, err := strconv.Atoi(header["maxlocals"]); err == nil {
		m.MaxLocals = n
	}
	if rt, ok := header["returns"]; ok {
		bt, err := parseBaseType(rt)
		if err != nil {
			return nil, err
		}
		m.ReturnType = bt
	}
	if params := header["params"]; params != "" {
		for _, p := range strings.Split(params, ",") {
			bt, err := parseBaseType(strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			m.ParamTypes = append(m.ParamTypes, bt)
		}
	}

	asm := &assembler{pool: pool, labels: make(map[string]int)}
	if err := asm.layout(instrLines); err != nil {
		return nil, err
	}
	code, err := asm.emit(instrLines)
	if err != nil {
		return nil, err
	}
	m.Code = code

	for _, line := range excLines {
		fields := parseDirective(line)
		h := classfile.ExceptionHandler{}
		var ok bool
		if h.StartPC, ok = asm.labels[fields["start"]]; !ok {
			return nil, fmt.Errorf("fixture: unknown label %q", fields["start"])
		}
		if h.EndPC, ok = asm.labels[fields["end"]]; !ok {
			return nil, fmt.Errorf("fixture: unknown label %q", fields["end"])
		}
		if h.HandlerPC, ok = asm.labels[fields["handler"]]; !ok {
			return nil, fmt.Errorf("fixture: unknown label %q", fields["handler"])
		}
		if catch := fields["catch"]; catch != "" && catch != "0" {
			h.CatchType = pool.AddClass(strings.TrimPrefix(catch, "#"))
		}
		m.ExceptionTable = append(m.ExceptionTable, h)
	}

	return m, nil
}

func parseBaseType(s string) (classfile.BaseType, error) {
	switch s {
	case "int":
		return classfile.BaseInt, nil
	case "long":
		return classfile.BaseLong, nil
	case "float":
		return classfile.BaseFloat, nil
	case "double":
		return classfile.BaseDouble, nil
	case "void":
		return classfile.BaseVoid, nil
	case "reference":
		return classfile.BaseReference, nil
	default:
		return classfile.BaseTop, fmt.Errorf("fixture: unknown base type %q", s)
	}
}

// parseDirective splits a ".directive key=val key2=val2" line into its
// key/value pairs (the leading ".directive" token is discarded, it's
// identified by the caller already).
func parseDirective(line string) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(line))
	sc.Split(bufio.ScanWords)
	first := true
	for sc.Scan() {
		tok := sc.Text()
		if first {
			first = false
			continue
		}
		if k, v, ok := strings.Cut(tok, "="); ok {
			out[k] = v
		}
	}
	return out
}

type assembler struct {
	pool   *Pool
	labels map[string]int
}

func splitLabel(line string) (label, rest string) {
	if idx := strings.Index(line, ":"); idx >= 0 {
		candidate := strings.TrimSpace(line[:idx])
		if candidate != "" && !strings.ContainsAny(candidate, " \t") {
			return candidate, strings.TrimSpace(line[idx+1:])
		}
	}
	return "", line
}

// layout runs a size-only first pass so branch operands (forward or
// backward labels) can be resolved to PC-relative offsets in emit.
func (a *assembler) layout(lines []string) error {
	pc := 0
	for _, raw := range lines {
		label, rest := splitLabel(raw)
		if label != "" {
			a.labels[label] = pc
		}
		if rest == "" {
			continue
		}
		fields := strings.Fields(rest)
		mnem := fields[0]
		op, ok := opcodes.ByName(mnem)
		if !ok {
			return fmt.Errorf("fixture: unknown mnemonic %q", mnem)
		}
		size, err := operandSize(op, fields[1:])
		if err != nil {
			return err
		}
		pc += 1 + size
	}
	return nil
}

// operandSize returns the byte count of op's operand (opcode byte not
// included), for every mnemonic the assembler accepts.
func operandSize(op opcodes.Op, args []string) (int, error) {
	switch op.Name {
	case "iload", "lload", "fload", "dload", "aload",
		"istore", "lstore", "fstore", "dstore", "astore",
		"bipush", "newarray", "ldc":
		return 1, nil
	case "sipush",
		"ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
		"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple",
		"if_acmpeq", "if_acmpne", "ifnull", "ifnonnull", "goto",
		"ldc_w", "ldc2_w",
		"getstatic", "putstatic", "getfield", "putfield",
		"new", "anewarray", "checkcast", "instanceof",
		"invokevirtual", "invokespecial", "invokestatic":
		return 2, nil
	case "iinc":
		return 2, nil
	case "invokeinterface":
		return 4, nil
	case "multianewarray":
		return 3, nil
	default:
		if len(args) != 0 {
			return 0, fmt.Errorf("fixture: %s takes no operands", op.Name)
		}
		return 0, nil
	}
}

func (a *assembler) emit(lines []string) ([]byte, error) {
	var code []byte
	pc := 0
	for _, raw := range lines {
		_, rest := splitLabel(raw)
		if rest == "" {
			continue
		}
		fields := strings.Fields(rest)
		mnem := fields[0]
		args := fields[1:]
		op, _ := opcodes.ByName(mnem)
		code = append(code, op.Code)
		opBytes, err := a.encodeOperand(op, args, pc)
		if err != nil {
			return nil, err
		}
		code = append(code, opBytes...)
		pc += 1 + len(opBytes)
	}
	return code, nil
}

func (a *assembler) encodeOperand(op opcodes.Op, args []string, pc int) ([]byte, error) {
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("fixture: %s wants %d operand(s), got %d", op.Name, n, len(args))
		}
		return nil
	}
	switch op.Name {
	case "iload", "lload", "fload", "dload", "aload",
		"istore", "lstore", "fstore", "dstore", "astore":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, err
		}
		return []byte{byte(idx)}, nil

	case "bipush":
		if err := need(1); err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, err
		}
		return []byte{byte(int8(v))}, nil

	case "sipush":
		if err := need(1); err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, err
		}
		return beU16Bytes(uint16(int16(v))), nil

	case "newarray":
		if err := need(1); err != nil {
			return nil, err
		}
		atype, ok := atypeByName[args[0]]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown newarray type %q", args[0])
		}
		return []byte{atype}, nil

	case "ldc":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := poolIndex(args[0])
		if err != nil {
			return nil, err
		}
		return []byte{byte(idx)}, nil

	case "ldc_w", "ldc2_w", "getstatic", "putstatic", "getfield", "putfield",
		"invokevirtual", "invokespecial", "invokestatic":
		// These index into the field-info or invoke-info arrays, whose
		// entries carry type/arity metadata a bare name can't express,
		// so the caller must pre-register them on the Pool and name
		// them here by plain numeric index, unlike the class-name
		// operands below.
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := poolIndex(args[0])
		if err != nil {
			return nil, err
		}
		return beU16Bytes(uint16(idx)), nil

	case "new", "anewarray", "checkcast", "instanceof":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := a.classRef(args[0])
		if err != nil {
			return nil, err
		}
		return beU16Bytes(uint16(idx)), nil

	case "invokeinterface":
		if err := need(2); err != nil {
			return nil, err
		}
		idx, err := poolIndex(args[0])
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, err
		}
		b := beU16Bytes(uint16(idx))
		return append(b, byte(count), 0), nil

	case "multianewarray":
		if err := need(2); err != nil {
			return nil, err
		}
		idx, err := a.classRef(args[0])
		if err != nil {
			return nil, err
		}
		dims, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, err
		}
		b := beU16Bytes(uint16(idx))
		return append(b, byte(dims)), nil

	case "iinc":
		if err := need(2); err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, err
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, err
		}
		return []byte{byte(idx), byte(int8(delta))}, nil

	case "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
		"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple",
		"if_acmpeq", "if_acmpne", "ifnull", "ifnonnull", "goto":
		if err := need(1); err != nil {
			return nil, err
		}
		target, ok := a.labels[args[0]]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown label %q", args[0])
		}
		return beU16Bytes(uint16(int16(target - pc))), nil

	default:
		return nil, nil
	}
}

// classRef resolves a class-name-bearing operand (new/anewarray/
// checkcast/instanceof/multianewarray/a catch type): "#name" interns
// the name into pool's class array on first use, a plain decimal is
// taken as an already-known class index.
func (a *assembler) classRef(tok string) (int32, error) {
	if !strings.HasPrefix(tok, "#") {
		return poolIndex(tok)
	}
	return a.pool.AddClass(strings.TrimPrefix(tok, "#")), nil
}

// poolIndex parses a plain decimal constant-pool index, for operands
// (field/invoke/ldc refs) whose entry the caller must have already
// registered on the Pool via AddField/AddInvoke/AddConstant, since the
// assembler has no way to infer their type/arity metadata from a name
// alone.
func poolIndex(tok string) (int32, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("fixture: %q is not a pool index (field/invoke/ldc operands must be pre-registered and referenced by index)", tok)
	}
	return int32(n), nil
}

var atypeByName = map[string]byte{
	"boolean": 4, "char": 5, "float": 6, "double": 7,
	"byte": 8, "short": 9, "int": 10, "long": 11,
}

func beU16Bytes(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
