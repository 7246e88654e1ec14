// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import "strings"

// Config is the parsed form of the `-Xverify[:opt[,opt…]]` option
// family. It never parses a raw command line itself: that is
// cmd/bcverify's job via pflag. ParseOptions only turns the
// already-split option strings into this struct.
type Config struct {
	All                       bool
	Opt                       bool
	NoFallback                bool
	IgnoreStackMaps           bool
	BootClasspathStatic       bool
	DoProtectedAccessCheck    bool
	VerboseVerification       bool
	VerifyErrorDetails        bool
	ClassRelationshipVerifier bool
	ExcludedAttributes        []string
}

// DefaultConfig matches the reference verifier's defaults: the local-
// liveness merge optimization on, fallback to ignoreStackMaps allowed.
func DefaultConfig() Config {
	return Config{Opt: true}
}

// ParseOptions applies a list of comma-split `-Xverify` options (e.g.
// {"all", "noopt", "excludeattribute=StackMapTable"}) on top of base.
// Parsing stops at the first unknown option: ParseOptions returns an
// UnknownOptionError together with the Config as built from the
// options before it; the options after it are not applied.
func ParseOptions(base Config, opts []string) (Config, error) {
	cfg := base
	for _, opt := range opts {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if name, value, ok := strings.Cut(opt, "="); ok {
			switch name {
			case "excludeattribute":
				cfg.ExcludedAttributes = append(cfg.ExcludedAttributes, value)
				continue
			default:
				return cfg, UnknownOptionError(opt)
			}
		}
		switch opt {
		case "all":
			cfg.All = true
			cfg.ClassRelationshipVerifier = false
		case "opt":
			cfg.Opt = true
		case "noopt":
			cfg.Opt = false
		case "nofallback":
			cfg.NoFallback = true
		case "ignorestackmaps":
			cfg.IgnoreStackMaps = true
		case "bootclasspathstatic":
			cfg.BootClasspathStatic = true
		case "doProtectedAccessCheck":
			cfg.DoProtectedAccessCheck = true
		case "verboseVerification":
			cfg.VerboseVerification = true
		case "verifyErrorDetails":
			cfg.VerifyErrorDetails = true
		case "classRelationshipVerifier":
			cfg.ClassRelationshipVerifier = true
			cfg.All = false
		default:
			return cfg, UnknownOptionError(opt)
		}
	}
	return cfg, nil
}

// ExcludesAttribute reports whether name was named by an
// excludeattribute= option and so should be stripped during loading.
func (c Config) ExcludesAttribute(name string) bool {
	for _, n := range c.ExcludedAttributes {
		if n == name {
			return true
		}
	}
	return false
}

// UnknownOptionError is returned by ParseOptions for an option string
// matching none of the recognized `-Xverify` switches.
type UnknownOptionError string

func (e UnknownOptionError) Error() string {
	return "verify: unknown -Xverify option " + string(e)
}
