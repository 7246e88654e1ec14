// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixture builds classfile.Method, classfile.ConstantPool and
// classfile.ClassHierarchy values for tests and cmd/bcverify from a
// small textual assembly format, so a scenario can be written as
// source text instead of a hand-built []byte and struct literal.
package fixture

import (
	"fmt"

	"github.com/dusanboskovic/bcverify/classfile"
)

// Pool is an in-memory classfile.ConstantPool: entries are appended in
// the order the assembler first sees a symbolic reference and looked
// up by the same 1-based index the real class file format would have
// assigned them.
type Pool struct {
	classes []string
	fields  []classfile.FieldInfo
	invokes []classfile.InvokeInfo
	consts  []classfile.FieldInfo
}

// NewPool returns an empty Pool. Index 0 is reserved (as in a real
// constant pool, where entry 0 never exists) so every Add* call
// returns a positive index.
func NewPool() *Pool {
	return &Pool{classes: []string{""}, fields: []classfile.FieldInfo{{}}, invokes: []classfile.InvokeInfo{{}}, consts: []classfile.FieldInfo{{}}}
}

func (p *Pool) AddClass(name string) int32 {
	for i := 1; i < len(p.classes); i++ {
		if p.classes[i] == name {
			return int32(i)
		}
	}
	p.classes = append(p.classes, name)
	return int32(len(p.classes) - 1)
}

func (p *Pool) AddField(info classfile.FieldInfo) int32 {
	p.fields = append(p.fields, info)
	return int32(len(p.fields) - 1)
}

func (p *Pool) AddInvoke(info classfile.InvokeInfo) int32 {
	p.invokes = append(p.invokes, info)
	return int32(len(p.invokes) - 1)
}

func (p *Pool) AddConstant(info classfile.FieldInfo) int32 {
	p.consts = append(p.consts, info)
	return int32(len(p.consts) - 1)
}

func (p *Pool) ClassNameAt(index int32) (string, error) {
	if index <= 0 || int(index) >= len(p.classes) {
		return "", fmt.Errorf("fixture: no class at pool index %d", index)
	}
	return p.classes[index], nil
}

func (p *Pool) FieldInfoAt(index int32) (classfile.FieldInfo, error) {
	if index <= 0 || int(index) >= len(p.fields) {
		return classfile.FieldInfo{}, fmt.Errorf("fixture: no field at pool index %d", index)
	}
	return p.fields[index], nil
}

func (p *Pool) InvokeInfoAt(index int32) (classfile.InvokeInfo, error) {
	if index <= 0 || int(index) >= len(p.invokes) {
		return classfile.InvokeInfo{}, fmt.Errorf("fixture: no invoke entry at pool index %d", index)
	}
	return p.invokes[index], nil
}

func (p *Pool) ConstantTypeAt(index int32) (classfile.FieldInfo, error) {
	if index <= 0 || int(index) >= len(p.consts) {
		return classfile.FieldInfo{}, fmt.Errorf("fixture: no constant at pool index %d", index)
	}
	return p.consts[index], nil
}
