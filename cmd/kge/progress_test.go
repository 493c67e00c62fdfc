// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import "testing"

func TestNewProgressConfig_DisabledInJSONMode(t *testing.T) {
	cfg := NewProgressConfig(true)
	if cfg.Enabled {
		t.Fatal("expected progress to be disabled when jsonOut is true")
	}
}

func TestNewProgressConfig_DisabledWhenStderrNotATTY(t *testing.T) {
	// Test binaries never run with a TTY attached to stderr, so this
	// exercises the isatty branch of NewProgressConfig regardless of
	// jsonOut.
	cfg := NewProgressConfig(false)
	if cfg.Enabled {
		t.Fatal("expected progress to be disabled when stderr is not a TTY")
	}
}

func TestNewSpinner_ReturnsNilWhenDisabled(t *testing.T) {
	bar := NewSpinner(ProgressConfig{Enabled: false}, "indexing")
	if bar != nil {
		t.Fatal("expected nil spinner when progress is disabled")
	}
}

func TestAnimateSpinner_StopIsNoOpWhenBarIsNil(t *testing.T) {
	stop := animateSpinner(nil)
	stop() // must not panic or block
}
