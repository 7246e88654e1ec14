// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// bcverify is a demo driver for the verify package: it loads one
// method fixture, runs it through Verifier.VerifyBytecodes, and prints
// the per-method outcome, mirroring cmd/wasm-run's flag-parse, open,
// run, report shape.
package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/internal/fixture"
	"github.com/dusanboskovic/bcverify/verify"
)

func main() {
	log.SetPrefix("bcverify: ")
	log.SetFlags(0)

	xverify := pflag.StringP("Xverify", "X", "", "comma-separated -Xverify options (all,opt,noopt,nofallback,ignorestackmaps,...)")
	className := pflag.String("class", "Fixture", "class name reported in diagnostics")
	major := pflag.Int("major-version", 52, "class file major version (>=50 mandates stack maps)")
	verbose := pflag.BoolP("verbose", "v", false, "enable verifier debug logging")

	pflag.Parse()

	if pflag.NArg() < 1 {
		pflag.Usage()
		os.Exit(1)
	}

	verify.PrintDebugInfo = *verbose

	cfg, err := verify.ParseOptions(verify.DefaultConfig(), splitOptions(*xverify))
	if err != nil {
		log.Fatalf("bad -Xverify options: %v", err)
	}

	if err := run(pflag.Arg(0), *className, *major, cfg); err != nil {
		log.Fatal(err)
	}
}

func splitOptions(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func run(fname, className string, majorVersion int, cfg verify.Config) error {
	src, err := ioutil.ReadFile(fname)
	if err != nil {
		return err
	}

	pool := fixture.NewPool()
	method, err := fixture.Method(string(src), pool)
	if err != nil {
		return fmt.Errorf("could not assemble %s: %w", fname, err)
	}

	class := &classfile.Class{
		Name:         className,
		MajorVersion: majorVersion,
		Pool:         pool,
		Methods:      []*classfile.Method{method},
	}

	v := verify.NewVerifier(fixture.NewHierarchy(), cfg)
	result := v.VerifyBytecodes(class)

	fmt.Printf("%s: %s\n", className, result.Outcome)
	for _, mr := range result.Methods {
		status := "ok"
		if mr.Err != nil {
			status = mr.Err.Error()
		}
		extra := ""
		if mr.UsedFallback {
			extra += " (fallback)"
		}
		if mr.SubstitutedCatchAll {
			extra += " (catch-all substituted)"
		}
		fmt.Printf("  %s: %s%s\n", mr.Method, status, extra)
	}

	if result.Outcome != verify.Success {
		os.Exit(1)
	}
	return nil
}
