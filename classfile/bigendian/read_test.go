// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigendian

import (
	"bytes"
	"fmt"
	"io"
	"testing"
)

var casesU2 = []struct {
	v uint16
	b []byte
}{
	{b: []byte{0x00, 0x08}, v: 8},
	{b: []byte{0x3f, 0x80}, v: 16256},
	{b: []byte{0xff, 0xff}, v: 65535},
}

func TestReadU2(t *testing.T) {
	for _, c := range casesU2 {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			n, err := ReadU2(bytes.NewReader(c.b))
			if err != nil {
				t.Fatal(err)
			}
			if n != c.v {
				t.Fatalf("got = %d; want = %d", n, c.v)
			}
		})
	}
}

func TestReadU2Err(t *testing.T) {
	_, err := ReadU2(bytes.NewReader(nil))
	if got, want := err, io.ErrUnexpectedEOF; got != want && got != io.EOF {
		t.Fatalf("got err=%v, want=%v", got, want)
	}
}

var casesU4 = []struct {
	v uint32
	b []byte
}{
	{b: []byte{0x00, 0x00, 0x00, 0x08}, v: 8},
	{b: []byte{0x7f, 0x9f, 0xab, 0x00}, v: 0x7f9fab00},
	{b: []byte{0xff, 0xff, 0xff, 0xff}, v: 4294967295},
}

func TestReadU4(t *testing.T) {
	for _, c := range casesU4 {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			n, err := ReadU4(bytes.NewReader(c.b))
			if err != nil {
				t.Fatal(err)
			}
			if n != c.v {
				t.Fatalf("got = %d; want = %d", n, c.v)
			}
		})
	}
}

func TestReadU1(t *testing.T) {
	n, err := ReadU1(bytes.NewReader([]byte{0xab}))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0xab {
		t.Fatalf("got = %#x; want = 0xab", n)
	}
}
