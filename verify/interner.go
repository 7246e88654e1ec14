// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

// interner is the append-only class-name table backing reference
// values in the lattice. Indices 0 and 1 are reserved for
// java/lang/Object and java/lang/Throwable respectively.
type interner struct {
	names []string
	index map[string]int32
}

func newInterner() *interner {
	in := &interner{
		names: make([]string, 0, 32),
		index: make(map[string]int32, 32),
	}
	in.mustReserve(objectIndex, "java/lang/Object")
	in.mustReserve(throwableIndex, "java/lang/Throwable")
	return in
}

func (in *interner) mustReserve(want int32, name string) {
	idx := in.intern(name)
	if idx != want {
		panic("verify: interner reserved index mismatch")
	}
}

// intern returns the index for name, appending it if not already
// present.
func (in *interner) intern(name string) int32 {
	if idx, ok := in.index[name]; ok {
		return idx
	}
	idx := int32(len(in.names))
	in.names = append(in.names, name)
	in.index[name] = idx
	return idx
}

func (in *interner) name(idx int32) string {
	if idx < 0 || int(idx) >= len(in.names) {
		return ""
	}
	return in.names[idx]
}

func (in *interner) reset() {
	in.names = in.names[:0]
	for k := range in.index {
		delete(in.index, k)
	}
	in.mustReserve(objectIndex, "java/lang/Object")
	in.mustReserve(throwableIndex, "java/lang/Throwable")
}
