// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"sync"

	"github.com/dusanboskovic/bcverify/classfile"
	"github.com/dusanboskovic/bcverify/opcodes"
)

// Outcome is the coarse result of one VerifyBytecodes call.
type Outcome int

const (
	Success Outcome = iota
	InternalError
	OutOfMemory
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case InternalError:
		return "internal-error"
	case OutOfMemory:
		return "oom"
	default:
		return "unknown"
	}
}

// MethodResult records one method's verification outcome: its error
// (if any), whether a fallback retry succeeded (UsedFallback), and
// whether a catch-all substitution happened along the way.
type MethodResult struct {
	Method              string
	Err                 error
	UsedFallback        bool
	SubstitutedCatchAll bool
}

// Result is the verifier state produced by one VerifyBytecodes call.
type Result struct {
	Outcome Outcome
	Methods []MethodResult
}

// Verifier is the per-invocation handle: it owns one Arena, reused
// (and reset) across every method of a class, and a mutex serializing access so a single Verifier is safe
// to share across goroutines even though no individual verification
// call parallelizes internally.
type Verifier struct {
	mu    sync.Mutex
	arena *Arena
	hier  classfile.ClassHierarchy
	cfg   Config
}

// NewVerifier builds a Verifier against the given class hierarchy
// collaborator and base configuration.
func NewVerifier(hier classfile.ClassHierarchy, cfg Config) *Verifier {
	return &Verifier{arena: NewArena(), hier: hier, cfg: cfg}
}

// VerifyBytecodes verifies every non-native, non-abstract method of
// class. It aborts at the first OOM (no
// method-level recovery), but continues past ordinary method failures
// so the caller sees every method's result. cfg.All is recorded in
// Config only and does not change this loop. A fresh class-name
// interner is created for each call and reset before each method.
func (v *Verifier) VerifyBytecodes(class *classfile.Class) Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	result := Result{Outcome: Success}
	in := newInterner()

	for _, method := range class.Methods {
		if method.IsNative || method.IsAbstract {
			continue
		}

		v.arena.Reset()
		in.reset()

		mr := v.verifyMethod(class, method, in)
		result.Methods = append(result.Methods, mr)

		if oom, ok := mr.Err.(oomError); ok {
			_ = oom
			result.Outcome = OutOfMemory
			return result
		}
		if mr.Err != nil && result.Outcome == Success {
			result.Outcome = InternalError
		}
	}

	return result
}

// oomError marks an error as resource-exhaustion, the only class
// distinguishing OOM abort from an ordinary per-method failure.
type oomError struct{ error }

// verifyMethod runs one method, applying the fallback-retry policy:
// if the first attempt fails, and fallback is allowed, and the
// class's version makes stack maps optional, reset and retry forcing
// ignoreStackMaps so the simulator synthesizes its own maps from the
// branch map alone. Unknown-opcode errors are never fallback-eligible.
func (v *Verifier) verifyMethod(class *classfile.Class, method *classfile.Method, in *interner) MethodResult {
	cfg := v.cfg
	_, substituted, err := simulateMethod(v.arena, class, method, v.hier, in, cfg)
	if err == nil {
		return MethodResult{Method: method.String(), SubstitutedCatchAll: substituted}
	}
	if errors.Is(err, ErrInsufficientMemory) {
		return MethodResult{Method: method.String(), Err: oomError{err}}
	}

	if !v.fallbackEligible(class, cfg, err) {
		return MethodResult{Method: method.String(), Err: err, SubstitutedCatchAll: substituted}
	}

	v.arena.Reset()
	in.reset()
	retryCfg := cfg
	retryCfg.IgnoreStackMaps = true
	_, retrySubstituted, retryErr := simulateMethod(v.arena, class, method, v.hier, in, retryCfg)
	if errors.Is(retryErr, ErrInsufficientMemory) {
		return MethodResult{Method: method.String(), Err: oomError{retryErr}}
	}
	return MethodResult{Method: method.String(), Err: retryErr, UsedFallback: retryErr == nil, SubstitutedCatchAll: retrySubstituted}
}

// fallbackEligible reports whether a failed attempt may be retried
// with stack maps ignored: the class's own version must make stack
// maps optional, the failure must not
// already be an ignoreStackMaps attempt, nofallback must not be set,
// and the failure must not be an unknown-opcode error.
func (v *Verifier) fallbackEligible(class *classfile.Class, cfg Config, err error) bool {
	if cfg.NoFallback || cfg.IgnoreStackMaps {
		return false
	}
	if class.RequiresStackMaps() {
		return false
	}
	if isUnknownOpcodeError(err) {
		return false
	}
	return true
}

func isUnknownOpcodeError(err error) bool {
	me, ok := err.(MethodError)
	if !ok {
		return false
	}
	_, ok = me.Err.(opcodes.UnknownOpcodeError)
	return ok
}
