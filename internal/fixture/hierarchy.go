// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import "github.com/dusanboskovic/bcverify/classfile"

// Hierarchy is a map-based classfile.ClassHierarchy for tests: classes
// are registered with their direct superclass, and the chain
// terminates at "java/lang/Object" whether or not it was registered
// explicitly.
type Hierarchy struct {
	supers map[string]string
}

// NewHierarchy returns an empty Hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{supers: make(map[string]string)}
}

// Extend records name's direct superclass. Calling it for
// "java/lang/Object" itself is unnecessary; record's chain already
// terminates there.
func (h *Hierarchy) Extend(name, super string) *Hierarchy {
	h.supers[name] = super
	return h
}

func (h *Hierarchy) Lookup(name string) (classfile.ClassRecord, error) {
	return record{name: name, h: h}, nil
}

type record struct {
	name string
	h    *Hierarchy
}

func (r record) Name() string { return r.name }

func (r record) Super() (classfile.ClassRecord, bool) {
	if r.name == "java/lang/Object" {
		return nil, false
	}
	super, ok := r.h.supers[r.name]
	if !ok {
		super = "java/lang/Object"
	}
	return record{name: super, h: r.h}, true
}
