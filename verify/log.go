// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"log"
	"os"
)

// PrintDebugInfo toggles verbose per-instruction tracing, the
// equivalent of -Xverify:verboseVerification. It is read at each log
// call rather than once at package init, since callers (cmd/bcverify)
// set it from a flag after the program has already started.
var PrintDebugInfo = false

var logger = log.New(os.Stderr, "", log.Lshortfile)

// debugf logs via logger only when PrintDebugInfo is set.
func debugf(format string, args ...interface{}) {
	if PrintDebugInfo {
		logger.Printf(format, args...)
	}
}
