// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bigendian provides functions for reading the fixed-width
// unsigned integers (u1/u2/u4) that make up the class file format,
// including the StackMapTable attribute the verifier core decodes.
// Unlike a bytecode stream encoded as variable-length integers, every
// field here has a width fixed by the format, so there is no shift loop:
// one function per width, each returning the value and any read error.
package bigendian

import "io"

// ReadU1 reads a single unsigned byte from r.
func ReadU1(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU2 reads a big-endian unsigned 16-bit integer from r.
func ReadU2(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadU4 reads a big-endian unsigned 32-bit integer from r.
func ReadU4(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
