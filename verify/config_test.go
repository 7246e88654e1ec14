// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classRelationshipVerifier and strict mode (-Xverify:all) are mutually
// exclusive (spec.md §6); whichever option is applied last wins, in
// either order.
func TestParseOptionsAllAndClassRelationshipVerifierAreMutuallyExclusive(t *testing.T) {
	cfg, err := ParseOptions(DefaultConfig(), []string{"classRelationshipVerifier", "all"})
	require.NoError(t, err)
	assert.True(t, cfg.All)
	assert.False(t, cfg.ClassRelationshipVerifier, "all must clear classRelationshipVerifier")

	cfg, err = ParseOptions(DefaultConfig(), []string{"all", "classRelationshipVerifier"})
	require.NoError(t, err)
	assert.True(t, cfg.ClassRelationshipVerifier)
	assert.False(t, cfg.All, "classRelationshipVerifier must clear all")
}

// opt/noopt toggle only the local-liveness merge optimization; they
// must not disturb classRelationshipVerifier, an unrelated switch.
func TestParseOptionsOptDoesNotDisturbClassRelationshipVerifier(t *testing.T) {
	cfg, err := ParseOptions(DefaultConfig(), []string{"classRelationshipVerifier", "opt"})
	require.NoError(t, err)
	assert.True(t, cfg.Opt)
	assert.True(t, cfg.ClassRelationshipVerifier, "opt must not clear classRelationshipVerifier")

	cfg, err = ParseOptions(DefaultConfig(), []string{"classRelationshipVerifier", "noopt"})
	require.NoError(t, err)
	assert.False(t, cfg.Opt)
	assert.True(t, cfg.ClassRelationshipVerifier)
}
